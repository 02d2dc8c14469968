package handler

import (
	"errors"
	"net/http"
	"strconv"

	"aira/internal/model"
	"aira/internal/repository"
	"aira/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PropertyHandler handles property listing and creation
type PropertyHandler struct {
	properties *service.PropertyService
	logger     *zap.Logger
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(properties *service.PropertyService, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{properties: properties, logger: orNop(logger)}
}

// List handles GET /api/v1/properties, with optional ?q= full-text filter
func (h *PropertyHandler) List(c *gin.Context) {
	properties, err := h.properties.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("failed to list properties", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list properties"})
		return
	}
	c.JSON(http.StatusOK, properties)
}

// Get handles GET /api/v1/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	property, err := h.properties.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to get property", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}
	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	c.JSON(http.StatusOK, property)
}

// Similar handles GET /api/v1/properties/:id/similar
func (h *PropertyHandler) Similar(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	properties, err := h.properties.Similar(c.Request.Context(), c.Param("id"), limit)
	switch {
	case errors.Is(err, service.ErrSimilarUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Similar property search is not enabled"})
	case errors.Is(err, service.ErrPropertyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
	case err != nil:
		h.logger.Error("similar search failed", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Similar search failed"})
	default:
		c.JSON(http.StatusOK, properties)
	}
}

// Upload handles POST /api/v1/properties/upload (multipart: image + listing fields)
func (h *PropertyHandler) Upload(c *gin.Context) {
	var dto model.CreatePropertyDTO
	if err := c.ShouldBind(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: image file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: unreadable image"})
		return
	}
	defer file.Close()

	resp, err := h.properties.Upload(c.Request.Context(), dto.PropertyName, header.Filename, file)
	if err != nil {
		h.logger.Error("IPFS upload failed", zap.String("property", dto.PropertyName), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to upload image to IPFS"})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Add handles POST /api/v1/properties/add
func (h *PropertyHandler) Add(c *gin.Context) {
	var req model.AddPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.properties.Add(c.Request.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidListing), errors.Is(err, model.ErrInvalidProperty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateProperty):
		c.JSON(http.StatusConflict, gin.H{"error": "A property with this token id already exists"})
	case err != nil:
		h.logger.Error("failed to add property", zap.String("token_id", req.TokenID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add property"})
	default:
		c.JSON(http.StatusCreated, resp)
	}
}
