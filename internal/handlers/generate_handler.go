package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"listing-generator/internal/services"
)

// GenerateHandler exposes the generation pipeline and the notification
// function as the two RPC-style endpoints the submit flow invokes.
type GenerateHandler struct {
	generationService   *services.GenerationService
	notificationService *services.NotificationService
}

// NewGenerateHandler creates a new GenerateHandler
func NewGenerateHandler(generationService *services.GenerationService, notificationService *services.NotificationService) *GenerateHandler {
	return &GenerateHandler{
		generationService:   generationService,
		notificationService: notificationService,
	}
}

// GenerateListing runs the generation pipeline for a listing. Any pipeline
// failure comes back as a non-2xx {error} body with the underlying message;
// the caller surfaces it to the end user.
// POST /api/generate
func (h *GenerateHandler) GenerateListing(c *gin.Context) {
	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Listing ID is required"})
		return
	}

	if err := h.generationService.Generate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing generated successfully",
	})
}

// SendListingEmail composes and sends the listing-ready email
// POST /api/notify
func (h *GenerateHandler) SendListingEmail(c *gin.Context) {
	var req struct {
		ListingID uint `json:"listingId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Listing ID is required"})
		return
	}

	message, err := h.notificationService.Notify(c.Request.Context(), req.ListingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
