package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homestead/server/internal/auth"
)

// ContextUserID is the gin context key under which the authenticated
// user id is stored.
const ContextUserID = "userID"

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "access_token"

// RequestID tags every request with an id, echoed back in the
// X-Request-ID header so log lines can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequireAuth verifies the access token cookie and stores the caller's
// user id in the context. Requests without a valid token are rejected.
func RequireAuth(verifier *auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AccessTokenCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":    false,
				"statusCode": http.StatusUnauthorized,
				"message":    "Unauthorized",
			})
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":    false,
				"statusCode": http.StatusUnauthorized,
				"message":    "Unauthorized",
			})
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}
