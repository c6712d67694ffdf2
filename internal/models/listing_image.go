package models

import (
	"time"
)

// ListingImage is one uploaded image for a listing, stored as a public URL.
// Rows are written once during submission and never mutated; deleting a
// listing does not cascade to its image rows.
type ListingImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"index;not null" json:"listing_id"`
	ImageURL  string    `gorm:"not null" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for ListingImage model
func (ListingImage) TableName() string {
	return "listing_images"
}
