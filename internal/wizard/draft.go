package wizard

import (
	"strconv"

	"listing-generator/internal/models"
)

// ListingTypes is the fixed catalog the first wizard step selects from.
var ListingTypes = []string{
	"Residential Sale",
	"Auction Sale",
	"Commercial Sale",
	"Residential Letting",
	"Student Letting",
	"Commercial Lease",
	"Other",
}

// PropertyTypes is the fixed catalog the first wizard step selects from.
var PropertyTypes = []string{
	"Detached",
	"Semi-Detached",
	"Terraced",
	"Flat / Apartment",
	"Bungalow",
	"Maisonette",
	"Townhouse",
	"Land",
	"Park Home",
	"Commercial Building",
	"Other",
}

// Image is one staged upload candidate. Data is held in memory until the
// draft is submitted; staged images never exceed MaxImageCount x MaxImageSize.
type Image struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Draft is the transient value the wizard collects. Bedrooms and bathrooms
// stay as free text until submission, matching the form inputs.
type Draft struct {
	Title                  string   `json:"title"`
	ListingType            string   `json:"listing_type"`
	PropertyType           string   `json:"property_type"`
	Bedrooms               string   `json:"bedrooms"`
	Bathrooms              string   `json:"bathrooms"`
	Location               string   `json:"location"`
	StandoutFeatures       []string `json:"standout_features"`
	AdditionalDetails      string   `json:"additional_details"`
	GenerationInstructions string   `json:"generation_instructions"`
	Images                 []Image  `json:"-"`
}

// FieldUpdate carries one PATCH worth of field changes. Nil pointers leave
// the corresponding draft field untouched.
type FieldUpdate struct {
	Title                  *string   `json:"title"`
	ListingType            *string   `json:"listing_type"`
	PropertyType           *string   `json:"property_type"`
	Bedrooms               *string   `json:"bedrooms"`
	Bathrooms              *string   `json:"bathrooms"`
	Location               *string   `json:"location"`
	StandoutFeatures       *[]string `json:"standout_features"`
	AdditionalDetails      *string   `json:"additional_details"`
	GenerationInstructions *string   `json:"generation_instructions"`
}

// ToListing converts the draft into a listing row for the given owner.
// Generated fields start null; unparseable bedroom/bathroom text becomes 0.
func (d *Draft) ToListing(userID uint) *models.Listing {
	bedrooms, _ := strconv.Atoi(d.Bedrooms)
	bathrooms, _ := strconv.Atoi(d.Bathrooms)

	return &models.Listing{
		UserID:                 userID,
		Title:                  d.Title,
		ListingType:            d.ListingType,
		PropertyType:           d.PropertyType,
		Bedrooms:               bedrooms,
		Bathrooms:              bathrooms,
		Location:               d.Location,
		StandoutFeatures:       models.StringArray(d.StandoutFeatures),
		AdditionalDetails:      d.AdditionalDetails,
		GenerationInstructions: d.GenerationInstructions,
	}
}

func catalogContains(catalog []string, value string) bool {
	for _, entry := range catalog {
		if entry == value {
			return true
		}
	}
	return false
}
