package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"listing-generator/internal/auth"
	"listing-generator/internal/services"
)

// ListingHandler handles the listing browser endpoints
type ListingHandler struct {
	listingService *services.ListingService
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// GetListings returns the current user's listings, newest first
// GET /api/listings
func (h *ListingHandler) GetListings(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listings, err := h.listingService.GetUserListings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
	})
}

// GetListing returns one listing with its images and the clipboard text
// GET /api/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listingID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	listing, err := h.listingService.GetUserListing(userID, listingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing":   listing,
		"copy_text": listing.CopyText(),
	})
}

// DeleteListing removes a listing row. Image rows are left in place.
// DELETE /api/listings/:id
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listingID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	if err := h.listingService.DeleteListing(userID, listingID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing deleted successfully",
	})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
