package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"listing-generator/internal/models"
	"listing-generator/internal/storage"
	"listing-generator/internal/wizard"
)

// ListingService handles listing rows and their image uploads
type ListingService struct {
	db       *gorm.DB
	uploader storage.Uploader
}

// NewListingService creates a new ListingService
func NewListingService(db *gorm.DB, uploader storage.Uploader) *ListingService {
	return &ListingService{db: db, uploader: uploader}
}

// CreateListing inserts a new listing row
func (s *ListingService) CreateListing(listing *models.Listing) error {
	if err := s.db.Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// UploadImages stores the staged images one at a time, in order. Each file's
// object write and image-row insert complete before the next file starts; the
// first failure aborts the remaining uploads and already-inserted rows are
// left in place.
func (s *ListingService) UploadImages(ctx context.Context, listingID uint, images []wizard.Image) error {
	for _, img := range images {
		ext := strings.TrimPrefix(filepath.Ext(img.Name), ".")
		key := fmt.Sprintf("%d/%s.%s", listingID, uuid.NewString(), ext)

		publicURL, err := s.uploader.Upload(ctx, key, img.ContentType, bytes.NewReader(img.Data))
		if err != nil {
			return fmt.Errorf("failed to upload image %s: %w", img.Name, err)
		}

		row := models.ListingImage{
			ListingID: listingID,
			ImageURL:  publicURL,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to record image %s: %w", img.Name, err)
		}
	}
	return nil
}

// GetUserListings retrieves all listings for a user, newest first
func (s *ListingService) GetUserListings(userID uint) ([]models.Listing, error) {
	var listings []models.Listing
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Preload("Images").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// GetUserListing retrieves one listing owned by the user
func (s *ListingService) GetUserListing(userID, listingID uint) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.Where("id = ? AND user_id = ?", listingID, userID).Preload("Images").First(&listing).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("listing not found")
		}
		return nil, err
	}
	return &listing, nil
}

// DeleteListing removes the listing row. Image rows are intentionally left
// in place; stored objects are never deleted.
func (s *ListingService) DeleteListing(userID, listingID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", listingID, userID).Delete(&models.Listing{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("listing not found")
	}
	return nil
}
