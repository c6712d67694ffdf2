package services

import (
	"fmt"

	"gorm.io/gorm"

	"listing-generator/internal/models"
)

// ProfileService handles profile reads and settings updates
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService creates a new ProfileService
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetProfileByUserID retrieves the profile for a user
func (s *ProfileService) GetProfileByUserID(userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("profile not found")
		}
		return nil, err
	}
	return &profile, nil
}

// SetEmailNotifications toggles the notification gate the email function
// checks before sending.
func (s *ProfileService) SetEmailNotifications(userID uint, enabled bool) error {
	result := s.db.Model(&models.Profile{}).Where("user_id = ?", userID).Update("email_notifications", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}
