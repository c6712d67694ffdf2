package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Listing is a property listing together with its generated marketing copy.
// FullDescription, ShortSummary and KeyFeatures stay null until the
// generation pipeline succeeds at least once; regeneration overwrites them
// in place (last write wins, no history).
type Listing struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	UserID                 uint           `gorm:"index;not null" json:"user_id"`
	User                   *User          `gorm:"foreignKey:UserID" json:"-"`
	Title                  string         `gorm:"not null" json:"title"`
	ListingType            string         `gorm:"not null" json:"listing_type"`
	PropertyType           string         `gorm:"not null" json:"property_type"`
	Bedrooms               int            `json:"bedrooms"`
	Bathrooms              int            `json:"bathrooms"`
	Location               string         `gorm:"not null" json:"location"`
	StandoutFeatures       datatypes.JSON `json:"standout_features"`
	AdditionalDetails      string         `json:"additional_details"`
	GenerationInstructions string         `json:"generation_instructions"`
	FullDescription        *string        `json:"full_description"`
	ShortSummary           *string        `json:"short_summary"`
	KeyFeatures            datatypes.JSON `json:"key_features"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`

	Images []ListingImage `gorm:"foreignKey:ListingID" json:"images,omitempty"`
}

// TableName specifies the table name for Listing model
func (Listing) TableName() string {
	return "listings"
}

// StandoutFeatureList decodes the stored standout features array.
func (l *Listing) StandoutFeatureList() []string {
	return decodeStringArray(l.StandoutFeatures)
}

// KeyFeatureList decodes the stored key features array. Empty until the
// pipeline has populated the generated fields.
func (l *Listing) KeyFeatureList() []string {
	return decodeStringArray(l.KeyFeatures)
}

// CopyText builds the clipboard text the listing browser exposes: the full
// description, the key features one per line, then the short summary.
func (l *Listing) CopyText() string {
	if l.FullDescription == nil && l.ShortSummary == nil {
		return ""
	}

	var parts []string
	if l.FullDescription != nil {
		parts = append(parts, *l.FullDescription)
	}
	if features := l.KeyFeatureList(); len(features) > 0 {
		parts = append(parts, strings.Join(features, "\n"))
	}
	if l.ShortSummary != nil {
		parts = append(parts, *l.ShortSummary)
	}
	return strings.Join(parts, "\n\n")
}

// StringArray encodes a string slice for a datatypes.JSON column.
func StringArray(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

func decodeStringArray(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}
