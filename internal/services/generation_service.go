package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"listing-generator/internal/models"
	"listing-generator/internal/openai"
)

const copywriterSystemPrompt = "You are a professional real estate copywriter. Always respond with valid JSON."

// GenerateRequest carries the listing identifier plus the full submitted
// field set. The pipeline does not re-read most fields from the listing row;
// only the owner's profile and the image rows are fetched server-side.
type GenerateRequest struct {
	ListingID              uint     `json:"listingId" binding:"required"`
	Title                  string   `json:"title"`
	ListingType            string   `json:"listingType"`
	PropertyType           string   `json:"propertyType"`
	Bedrooms               string   `json:"bedrooms"`
	Bathrooms              string   `json:"bathrooms"`
	Location               string   `json:"location"`
	StandoutFeatures       []string `json:"standoutFeatures"`
	AdditionalDetails      string   `json:"additionalDetails"`
	GenerationInstructions string   `json:"generationInstructions"`
}

type generatedContent struct {
	FullDescription string   `json:"full_description"`
	ShortSummary    string   `json:"short_summary"`
	KeyFeatures     []string `json:"key_features"`
}

// GenerationService orchestrates the listing copy pipeline: profile fetch,
// image fetch, vision analysis, text generation, persistence. One pass, no
// retries; any step failure aborts the whole operation. Nothing persists
// before the final update, so a failed run is safe to re-invoke, and two
// concurrent runs on the same listing are last-write-wins.
type GenerationService struct {
	db     *gorm.DB
	openai *openai.Client
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(db *gorm.DB, openaiClient *openai.Client) *GenerationService {
	return &GenerationService{db: db, openai: openaiClient}
}

// Generate runs the pipeline for one listing.
func (s *GenerationService) Generate(ctx context.Context, req GenerateRequest) error {
	// Resolve the listing's owner
	var listing models.Listing
	if err := s.db.Select("id", "user_id").First(&listing, req.ListingID).Error; err != nil {
		return fmt.Errorf("failed to fetch listing details")
	}

	var profile models.Profile
	if err := s.db.Where("user_id = ?", listing.UserID).First(&profile).Error; err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	var images []models.ListingImage
	if err := s.db.Where("listing_id = ?", req.ListingID).Find(&images).Error; err != nil {
		return fmt.Errorf("failed to fetch listing images: %w", err)
	}

	// Vision analysis happens only when images exist; if the call fails the
	// pipeline aborts rather than falling back to an empty analysis.
	imageAnalysis := ""
	if len(images) > 0 {
		urls := make([]string, 0, len(images))
		for _, img := range images {
			urls = append(urls, img.ImageURL)
		}

		analysis, err := s.openai.AnalyzeImages(ctx, urls)
		if err != nil {
			return err
		}
		imageAnalysis = analysis
	}

	prompt := composePrompt(profile.AgencyName, req, imageAnalysis)

	content, err := s.openai.GenerateJSON(ctx, copywriterSystemPrompt, prompt)
	if err != nil {
		return err
	}

	var generated generatedContent
	if err := json.Unmarshal([]byte(content), &generated); err != nil {
		return fmt.Errorf("failed to parse OpenAI response")
	}

	// Single all-or-nothing update of the three generated fields
	updates := map[string]interface{}{
		"full_description": generated.FullDescription,
		"short_summary":    generated.ShortSummary,
		"key_features":     models.StringArray(generated.KeyFeatures),
	}
	if err := s.db.Model(&models.Listing{}).Where("id = ?", req.ListingID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	s.recordUsage(&profile)

	return nil
}

// recordUsage bumps the owner's monthly counter. The generation already
// persisted, so a counter failure is logged rather than surfaced.
func (s *GenerationService) recordUsage(profile *models.Profile) {
	updates := map[string]interface{}{
		"monthly_usage_count": gorm.Expr("monthly_usage_count + 1"),
	}
	if profile.UsageResetDate.IsZero() {
		updates["usage_reset_date"] = time.Now().AddDate(0, 1, 0)
	}

	if err := s.db.Model(&models.Profile{}).Where("id = ?", profile.ID).Updates(updates).Error; err != nil {
		log.Printf("Warning: failed to record usage for profile %d: %v", profile.ID, err)
	}
}

func composePrompt(agencyName string, req GenerateRequest, imageAnalysis string) string {
	additionalDetails := req.AdditionalDetails
	if additionalDetails == "" {
		additionalDetails = "None provided"
	}
	instructions := req.GenerationInstructions
	if instructions == "" {
		instructions = "None provided"
	}
	followInstructions := req.GenerationInstructions
	if followInstructions == "" {
		followInstructions = "Create a professional and engaging listing"
	}

	return fmt.Sprintf(`As a professional real estate copywriter for %s, create a compelling property listing with the following details:

Type: %s - %s
Details: %s bedrooms, %s bathrooms
Location: %s
Key Features: %s

Additional Information: %s
Image Analysis: %s

Special Instructions: %s

Please follow these specific generation instructions carefully: %s

Based on all the provided information, including the agency name and specific instructions, please provide:
1. A professional and engaging full description that incorporates all details
2. A concise summary for preview cards (max 150 characters)
3. A list of 5 key selling points

Return your response in the following JSON format:
{
  "full_description": "your full description here",
  "short_summary": "your short summary here",
  "key_features": ["feature 1", "feature 2", "feature 3", "feature 4", "feature 5"]
}`,
		agencyName,
		req.ListingType, req.PropertyType,
		req.Bedrooms, req.Bathrooms,
		req.Location,
		strings.Join(req.StandoutFeatures, ", "),
		additionalDetails,
		imageAnalysis,
		instructions,
		followInstructions,
	)
}
