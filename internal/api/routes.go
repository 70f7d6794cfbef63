package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"homestead/server/config"
	"homestead/server/internal/auth"
)

// SetupRoutes wires the listing endpoints, the static upload mount and
// the shared middleware onto the router.
func SetupRoutes(router *gin.Engine, handler *Handler, verifier *auth.TokenVerifier, cfg *config.Config) {
	router.Use(RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Stored images are served back as static content.
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api/listing")
	{
		api.GET("/get/:id", handler.GetListing)
		api.GET("/get", handler.GetListings)

		authed := api.Group("", RequireAuth(verifier))
		{
			authed.POST("/upload", handler.UploadImages)
			authed.POST("/create", handler.CreateListing)
			authed.POST("/update/:id", handler.UpdateListing)
			authed.DELETE("/delete/:id", handler.DeleteListing)
		}
	}
}
