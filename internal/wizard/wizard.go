package wizard

import (
	"fmt"
	"strings"

	"listing-generator/internal/models"
)

// Step identifies the wizard position.
type Step int

const (
	StepBasicInfo         Step = 1
	StepPropertyDetails   Step = 2
	StepAdditionalDetails Step = 3
	// StepSubmitting is terminal; no transitions leave it.
	StepSubmitting Step = 4
)

const (
	// MaxImageCount is the hard cap on one staged selection.
	MaxImageCount = 10
	// MaxImageSize is the per-file byte limit (2MB).
	MaxImageSize = 2 * 1024 * 1024
)

// ErrTooManyImages rejects a whole selection exceeding MaxImageCount.
var ErrTooManyImages = fmt.Errorf("you can only upload up to %d images", MaxImageCount)

// Wizard is the three-step form state machine. It owns one Draft and
// enforces the per-step guards; forward movement is only possible one step
// at a time, so no guard can be skipped.
type Wizard struct {
	step  Step
	draft Draft
}

// New creates a wizard at the first step with an empty draft.
func New() *Wizard {
	return &Wizard{step: StepBasicInfo}
}

// NewFromListing creates a wizard prefilled from an existing listing for the
// regeneration flow. Every field is seeded except images, which always start
// empty.
func NewFromListing(listing *models.Listing) *Wizard {
	w := New()
	w.draft = Draft{
		Title:                  listing.Title,
		ListingType:            listing.ListingType,
		PropertyType:           listing.PropertyType,
		Bedrooms:               fmt.Sprintf("%d", listing.Bedrooms),
		Bathrooms:              fmt.Sprintf("%d", listing.Bathrooms),
		Location:               listing.Location,
		StandoutFeatures:       listing.StandoutFeatureList(),
		AdditionalDetails:      listing.AdditionalDetails,
		GenerationInstructions: listing.GenerationInstructions,
	}
	return w
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	return w.step
}

// Draft returns the current draft value.
func (w *Wizard) Draft() Draft {
	return w.draft
}

// Apply merges a field update into the draft. Updates are accepted at any
// step; the guards only run on forward transitions.
func (w *Wizard) Apply(update FieldUpdate) error {
	if w.step == StepSubmitting {
		return fmt.Errorf("draft already submitted")
	}

	if update.Title != nil {
		w.draft.Title = *update.Title
	}
	if update.ListingType != nil {
		w.draft.ListingType = *update.ListingType
	}
	if update.PropertyType != nil {
		w.draft.PropertyType = *update.PropertyType
	}
	if update.Bedrooms != nil {
		w.draft.Bedrooms = *update.Bedrooms
	}
	if update.Bathrooms != nil {
		w.draft.Bathrooms = *update.Bathrooms
	}
	if update.Location != nil {
		w.draft.Location = *update.Location
	}
	if update.StandoutFeatures != nil {
		w.draft.StandoutFeatures = *update.StandoutFeatures
	}
	if update.AdditionalDetails != nil {
		w.draft.AdditionalDetails = *update.AdditionalDetails
	}
	if update.GenerationInstructions != nil {
		w.draft.GenerationInstructions = *update.GenerationInstructions
	}
	return nil
}

// Next advances one step if the current step's guard is satisfied. On a
// guard failure the step does not change and the error names the problem.
func (w *Wizard) Next() error {
	switch w.step {
	case StepBasicInfo:
		if err := w.checkBasicInfo(); err != nil {
			return err
		}
		w.step = StepPropertyDetails
		return nil
	case StepPropertyDetails:
		if err := w.checkPropertyDetails(); err != nil {
			return err
		}
		w.step = StepAdditionalDetails
		return nil
	case StepAdditionalDetails:
		return fmt.Errorf("already at the final step; submit the draft instead")
	default:
		return fmt.Errorf("draft already submitted")
	}
}

// Back moves one step backward. Backward transitions carry no validation.
func (w *Wizard) Back() error {
	switch w.step {
	case StepPropertyDetails:
		w.step = StepBasicInfo
		return nil
	case StepAdditionalDetails:
		w.step = StepPropertyDetails
		return nil
	case StepBasicInfo:
		return fmt.Errorf("already at the first step")
	default:
		return fmt.Errorf("draft already submitted")
	}
}

// Submit moves the wizard into its terminal state. It re-checks every guard
// so a draft can never be submitted with a step's requirements unmet.
func (w *Wizard) Submit() error {
	if w.step != StepAdditionalDetails {
		return fmt.Errorf("draft can only be submitted from the final step")
	}
	if err := w.checkBasicInfo(); err != nil {
		return err
	}
	if err := w.checkPropertyDetails(); err != nil {
		return err
	}
	w.step = StepSubmitting
	return nil
}

// Reopen returns a submitting wizard to the final step so a failed submit
// leaves the form populated for retry.
func (w *Wizard) Reopen() {
	if w.step == StepSubmitting {
		w.step = StepAdditionalDetails
	}
}

// StageImages applies the image intake contract to one selection event:
// more than MaxImageCount files rejects the whole selection; otherwise files
// failing the media-type or size checks are silently dropped and a warning
// is returned when any were. The accepted set replaces whatever was staged
// before, it is not additive across selections.
func (w *Wizard) StageImages(files []Image) (string, error) {
	if w.step == StepSubmitting {
		return "", fmt.Errorf("draft already submitted")
	}
	if len(files) > MaxImageCount {
		return "", ErrTooManyImages
	}

	valid := make([]Image, 0, len(files))
	for _, file := range files {
		if !strings.HasPrefix(file.ContentType, "image/") {
			continue
		}
		if file.Size > MaxImageSize {
			continue
		}
		valid = append(valid, file)
	}

	w.draft.Images = valid

	if len(valid) != len(files) {
		return "Some files were skipped: please ensure all files are images under 2MB", nil
	}
	return "", nil
}

func (w *Wizard) checkBasicInfo() error {
	if strings.TrimSpace(w.draft.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if w.draft.ListingType == "" {
		return fmt.Errorf("listing type is required")
	}
	if !catalogContains(ListingTypes, w.draft.ListingType) {
		return fmt.Errorf("unknown listing type: %s", w.draft.ListingType)
	}
	if w.draft.PropertyType == "" {
		return fmt.Errorf("property type is required")
	}
	if !catalogContains(PropertyTypes, w.draft.PropertyType) {
		return fmt.Errorf("unknown property type: %s", w.draft.PropertyType)
	}
	return nil
}

func (w *Wizard) checkPropertyDetails() error {
	if strings.TrimSpace(w.draft.Location) == "" {
		return fmt.Errorf("location is required")
	}
	return nil
}
