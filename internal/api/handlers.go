package api

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homestead/server/internal/apperrors"
	"homestead/server/internal/listing"
	"homestead/server/internal/models"
	"homestead/server/internal/notify"
	"homestead/server/internal/query"
	"homestead/server/internal/upload"
)

type Handler struct {
	service   *listing.Service
	processor *upload.Processor
	notifier  *notify.Service
	logger    *logrus.Logger
}

// ListingRequest carries the listing fields of a create request. The
// form tags cover multipart submissions, the json tags plain bodies.
type ListingRequest struct {
	Name              string   `json:"name" form:"name"`
	Description       string   `json:"description" form:"description"`
	Address           string   `json:"address" form:"address"`
	Type              string   `json:"type" form:"type"`
	RegularPrice      float64  `json:"regularPrice" form:"regularPrice"`
	DiscountPrice     float64  `json:"discountPrice" form:"discountPrice"`
	Offer             bool     `json:"offer" form:"offer"`
	Bedrooms          int      `json:"bedrooms" form:"bedrooms"`
	Bathrooms         int      `json:"bathrooms" form:"bathrooms"`
	Area              float64  `json:"area" form:"area"`
	Parking           bool     `json:"parking" form:"parking"`
	Furnished         bool     `json:"furnished" form:"furnished"`
	AgeOfConstruction *int     `json:"ageOfConstruction" form:"ageOfConstruction"`
	ImageURLs         []string `json:"imageUrls" form:"imageUrls"`
}

// ListingUpdateRequest carries a partial change set; only non-nil
// fields are applied.
type ListingUpdateRequest struct {
	Name              *string   `json:"name"`
	Description       *string   `json:"description"`
	Address           *string   `json:"address"`
	Type              *string   `json:"type"`
	RegularPrice      *float64  `json:"regularPrice"`
	DiscountPrice     *float64  `json:"discountPrice"`
	Offer             *bool     `json:"offer"`
	Bedrooms          *int      `json:"bedrooms"`
	Bathrooms         *int      `json:"bathrooms"`
	Area              *float64  `json:"area"`
	Parking           *bool     `json:"parking"`
	Furnished         *bool     `json:"furnished"`
	AgeOfConstruction *int      `json:"ageOfConstruction"`
	ImageURLs         *[]string `json:"imageUrls"`
}

func NewHandler(service *listing.Service, processor *upload.Processor, notifier *notify.Service, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{
		service:   service,
		processor: processor,
		notifier:  notifier,
		logger:    logger,
	}
}

// UploadImages accepts a multipart batch of up to 6 image files and
// returns the stored URL paths. Partial success is returned silently;
// the request fails only when no file could be stored.
func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || form == nil || len(form.File[upload.FileField]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "No files were uploaded",
		})
		return
	}

	files := form.File[upload.FileField]
	if len(files) > models.MaxImagesPerListing {
		h.respondError(c, apperrors.Validation(
			fmt.Sprintf("A maximum of %d images can be uploaded", models.MaxImagesPerListing)))
		return
	}

	urls, err := h.processor.Process(files)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"imageUrls": urls,
		},
	})
}

// CreateListing creates a listing owned by the caller. Image URLs given
// directly in the body are trusted verbatim and bypass the ingestion
// pipeline; otherwise attached multipart files run through it.
func (h *Handler) CreateListing(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	var req ListingRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse create request")
		h.respondError(c, apperrors.Validation("Invalid request body"))
		return
	}

	imageURLs := req.ImageURLs
	if len(imageURLs) == 0 {
		if form, err := c.MultipartForm(); err == nil && form != nil {
			files := form.File[upload.FileField]
			if len(files) > models.MaxImagesPerListing {
				h.respondError(c, apperrors.Validation(
					fmt.Sprintf("A maximum of %d images can be uploaded", models.MaxImagesPerListing)))
				return
			}
			if len(files) > 0 {
				urls, err := h.processor.Process(files)
				if err != nil {
					h.respondError(c, err)
					return
				}
				imageURLs = urls
			}
		}
	}

	created, err := h.service.Create(&models.Listing{
		Name:              req.Name,
		Description:       req.Description,
		Address:           req.Address,
		Type:              req.Type,
		RegularPrice:      req.RegularPrice,
		DiscountPrice:     req.DiscountPrice,
		Offer:             req.Offer,
		Bedrooms:          req.Bedrooms,
		Bathrooms:         req.Bathrooms,
		Area:              req.Area,
		Parking:           req.Parking,
		Furnished:         req.Furnished,
		AgeOfConstruction: req.AgeOfConstruction,
		ImageURLs:         models.StringList(imageURLs),
	}, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.notifier != nil {
		go func(l models.Listing) {
			if err := h.notifier.NotifyNewListing(&l); err != nil {
				h.logger.WithError(err).Error("Failed to send listing notification")
			}
		}(*created)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"listing": created,
	})
}

// UpdateListing applies a partial update to an owned listing.
func (h *Handler) UpdateListing(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.Validation("Invalid listing ID"))
		return
	}

	var req ListingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse update request")
		h.respondError(c, apperrors.Validation("Invalid request body"))
		return
	}

	changes := req.changes()
	if len(changes) == 0 {
		h.respondError(c, apperrors.Validation("No fields to update"))
		return
	}

	updated, err := h.service.Update(id, changes, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteListing removes an owned listing.
func (h *Handler) DeleteListing(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.Validation("Invalid listing ID"))
		return
	}

	if err := h.service.Delete(id, userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, "Listing has been deleted!")
}

// GetListing returns a single listing. No ownership check; listings
// are publicly readable.
func (h *Handler) GetListing(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, apperrors.Validation("Invalid listing ID"))
		return
	}

	l, err := h.service.Get(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, l)
}

// GetListings returns the listings matching the filter/sort query.
func (h *Handler) GetListings(c *gin.Context) {
	var params query.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.WithError(err).Error("Failed to parse listing query")
		h.respondError(c, apperrors.Validation("Invalid query parameters"))
		return
	}

	desc, err := query.Build(params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	listings, err := h.service.Search(desc)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listings)
}

// respondError writes the error envelope shared by all endpoints.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Request failed")
	}
	c.JSON(status, gin.H{
		"success":    false,
		"statusCode": status,
		"message":    apperrors.MessageOf(err),
	})
}

func (r *ListingUpdateRequest) changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if r.Name != nil {
		changes["name"] = *r.Name
	}
	if r.Description != nil {
		changes["description"] = *r.Description
	}
	if r.Address != nil {
		changes["address"] = *r.Address
	}
	if r.Type != nil {
		changes["type"] = *r.Type
	}
	if r.RegularPrice != nil {
		changes["regular_price"] = *r.RegularPrice
	}
	if r.DiscountPrice != nil {
		changes["discount_price"] = *r.DiscountPrice
	}
	if r.Offer != nil {
		changes["offer"] = *r.Offer
	}
	if r.Bedrooms != nil {
		changes["bedrooms"] = *r.Bedrooms
	}
	if r.Bathrooms != nil {
		changes["bathrooms"] = *r.Bathrooms
	}
	if r.Area != nil {
		changes["area"] = *r.Area
	}
	if r.Parking != nil {
		changes["parking"] = *r.Parking
	}
	if r.Furnished != nil {
		changes["furnished"] = *r.Furnished
	}
	if r.AgeOfConstruction != nil {
		changes["age_of_construction"] = *r.AgeOfConstruction
	}
	if r.ImageURLs != nil {
		changes["image_urls"] = models.StringList(*r.ImageURLs)
	}
	return changes
}
