package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/server/config"
	"homestead/server/internal/auth"
	"homestead/server/internal/database"
	"homestead/server/internal/listing"
	"homestead/server/internal/models"
	"homestead/server/internal/storage"
	"homestead/server/internal/upload"
)

const testSecret = "handlers-test-secret"

type fixture struct {
	router *gin.Engine
	db     *database.Database
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewDatabase(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	logger := logrus.New()
	writer := storage.NewWriter(t.TempDir(), logger)
	require.NoError(t, writer.EnsureRoot())

	cfg := &config.Config{
		UploadDir:      writer.Root(),
		AllowedOrigins: []string{"http://localhost:5173"},
	}

	handler := NewHandler(
		listing.NewService(db, logger),
		upload.NewProcessor(writer, logger),
		nil,
		logger,
	)

	router := gin.New()
	SetupRoutes(router, handler, auth.NewTokenVerifier(testSecret), cfg)
	return &fixture{router: router, db: db}
}

func authCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return &http.Cookie{Name: AccessTokenCookie, Value: token}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func createListing(t *testing.T, f *fixture, owner string) *models.Listing {
	t.Helper()
	l := &models.Listing{
		Name:         "Test house",
		Type:         models.ListingTypeSale,
		RegularPrice: 300000,
		OwnerRef:     owner,
		ImageURLs:    models.StringList{},
	}
	require.NoError(t, f.db.CreateListing(l))
	return l
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/listing/create", gin.H{"name": "x"})
	rec := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A tampered token is also rejected
	req = jsonRequest(t, http.MethodPost, "/api/listing/create", gin.H{"name": "x"})
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "bogus"})
	rec = f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateListingWithDirectImageURLs(t *testing.T) {
	f := newFixture(t)

	// Seven URLs: the direct passthrough is deliberately uncapped and
	// unvalidated
	urls := make([]string, 7)
	for i := range urls {
		urls[i] = fmt.Sprintf("/uploads/pre-%d.jpg", i)
	}

	req := jsonRequest(t, http.MethodPost, "/api/listing/create", gin.H{
		"name":         "Townhouse",
		"type":         "sale",
		"regularPrice": 420000,
		"imageUrls":    urls,
	})
	req.AddCookie(authCookie(t, "user-1"))
	rec := f.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool           `json:"success"`
		Listing models.Listing `json:"listing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "user-1", resp.Listing.OwnerRef)
	assert.Len(t, resp.Listing.ImageURLs, 7)
}

func TestCreateListingRequiresName(t *testing.T) {
	f := newFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/listing/create", gin.H{"type": "rent"})
	req.AddCookie(authCookie(t, "user-1"))
	rec := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, files []struct{ name, content string }) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, file := range files {
		fw, err := w.CreateFormFile(upload.FileField, file.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadImages(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, []struct{ name, content string }{
		{"front.jpg", "jpg-bytes"},
		{"readme.txt", "not-an-image"},
		{"back.png", "png-bytes"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/listing/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(authCookie(t, "user-1"))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ImageURLs []string `json:"imageUrls"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	// One bad file out of three is dropped silently
	assert.Len(t, resp.Data.ImageURLs, 2)
}

func TestUploadImagesNoFiles(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/listing/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(authCookie(t, "user-1"))
	rec := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No files were uploaded")
}

func TestUploadImagesAllRejected(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, []struct{ name, content string }{
		{"a.txt", "x"},
		{"b.txt", "y"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/listing/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(authCookie(t, "user-1"))
	rec := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "a.txt")
	assert.Contains(t, rec.Body.String(), "b.txt")
}

func TestUploadImagesTooMany(t *testing.T) {
	f := newFixture(t)

	var files []struct{ name, content string }
	for i := 0; i < 7; i++ {
		files = append(files, struct{ name, content string }{fmt.Sprintf("photo-%d.jpg", i), "x"})
	}
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/listing/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(authCookie(t, "user-1"))
	rec := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetListing(t *testing.T) {
	f := newFixture(t)
	l := createListing(t, f, "user-1")

	// Public read, no cookie needed
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/listing/get/%d", l.ID), nil)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, l.ID, got.ID)
}

func TestGetListingNotFound(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/listing/get/999", nil)
	rec := f.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Listing not found!")
}

func TestGetListingsFilterAndSort(t *testing.T) {
	f := newFixture(t)

	rent := createListing(t, f, "user-1")
	_, err := f.db.UpdateListingOwned(rent.ID, "user-1", map[string]interface{}{"type": "rent", "regular_price": 900.0})
	require.NoError(t, err)
	createListing(t, f, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/api/listing/get?type=rent", nil)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "rent", results[0].Type)

	// Unknown sort fields are rejected rather than forwarded to the store
	req = httptest.NewRequest(http.MethodGet, "/api/listing/get?sortBy=ownerRef", nil)
	rec = f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteListingOwnership(t *testing.T) {
	f := newFixture(t)
	l := createListing(t, f, "user-1")

	// Non-owner gets the contract's 401 and the listing survives
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/listing/delete/%d", l.ID), nil)
	req.AddCookie(authCookie(t, "intruder"))
	rec := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "You can only delete your own listings!")

	_, err := f.db.GetListing(l.ID)
	assert.NoError(t, err)

	// Owner succeeds
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/listing/delete/%d", l.ID), nil)
	req.AddCookie(authCookie(t, "user-1"))
	rec = f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Listing has been deleted!")

	_, err = f.db.GetListing(l.ID)
	assert.Equal(t, database.ErrNotFound, err)
}

func TestUpdateListingOwnership(t *testing.T) {
	f := newFixture(t)
	l := createListing(t, f, "user-1")

	// Non-owner rejected
	req := jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/listing/update/%d", l.ID), gin.H{"name": "Hijacked"})
	req.AddCookie(authCookie(t, "intruder"))
	rec := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Owner updates and gets the new record back
	req = jsonRequest(t, http.MethodPost, fmt.Sprintf("/api/listing/update/%d", l.ID), gin.H{
		"name":  "Updated house",
		"offer": true,
	})
	req.AddCookie(authCookie(t, "user-1"))
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Updated house", got.Name)
	assert.True(t, got.Offer)
}

func TestUpdateListingNotFound(t *testing.T) {
	f := newFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/listing/update/999", gin.H{"name": "x"})
	req.AddCookie(authCookie(t, "user-1"))
	rec := f.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
