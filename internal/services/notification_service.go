package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"gorm.io/gorm"

	"listing-generator/internal/models"
	"listing-generator/internal/resend"
)

// NotificationDisabledMessage is returned when the owner has opted out.
const NotificationDisabledMessage = "Email notifications disabled for this user"

var emailTemplate = template.Must(template.New("listing-email").Parse(`
<h1>{{.Listing.Title}}</h1>
<h2>Listing Details:</h2>
<ul>
  <li><strong>Type:</strong> {{.Listing.ListingType}} - {{.Listing.PropertyType}}</li>
  <li><strong>Location:</strong> {{.Listing.Location}}</li>
  <li><strong>Bedrooms:</strong> {{.Listing.Bedrooms}}</li>
  <li><strong>Bathrooms:</strong> {{.Listing.Bathrooms}}</li>
</ul>

<div style="margin-top: 20px;">
  <strong>Standout Features:</strong>
  <ul>
    {{range .StandoutFeatures}}<li>{{.}}</li>{{else}}None specified{{end}}
  </ul>
</div>

{{if .Listing.AdditionalDetails}}
<div style="margin-top: 20px;">
  <strong>Additional Details:</strong>
  <p>{{.Listing.AdditionalDetails}}</p>
</div>
{{end}}

{{if .Listing.GenerationInstructions}}
<div style="margin-top: 20px;">
  <strong>Generation Instructions:</strong>
  <p>{{.Listing.GenerationInstructions}}</p>
</div>
{{end}}

<h2>Listing:</h2>
<h4>Full Description:</h4>
<p>{{.FullDescription}}</p>

<h4>Short Summary:</h4>
<p>{{.ShortSummary}}</p>

<h4>Key Features:</h4>
<ul>
  {{range .KeyFeatures}}<li>{{.}}</li>{{end}}
</ul>

{{if .Images}}
<h4>Uploaded Images:</h4>
<ul>
  {{range .Images}}<li><a href="{{.ImageURL}}">View Image</a></li>{{end}}
</ul>
{{end}}

<div style="margin-top: 30px; padding: 20px; background-color: #f5f5f5; border-radius: 5px;">
  <p style="font-style: italic;">Due to the nature of AI, extra details or inaccuracies may sometimes appear in generated descriptions. Please ensure that all of the information in the generated description is accurate to your listing and edit as necessary before using in your particulars. Electric AI takes no responsibility in any inaccurate information generated in listing descriptions.</p>
</div>

<div style="margin-top: 30px;">
  <p>With Love,<br>Hector @ Electric AI</p>
</div>
`))

type emailData struct {
	Listing          *models.Listing
	StandoutFeatures []string
	KeyFeatures      []string
	FullDescription  string
	ShortSummary     string
	Images           []models.ListingImage
}

// NotificationService composes and sends the listing-ready email. Callers in
// the submit flow treat it as best-effort: a failure here never fails the
// create-listing action.
type NotificationService struct {
	db          *gorm.DB
	resend      *resend.Client
	fromAddress string
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(db *gorm.DB, resendClient *resend.Client, fromAddress string) *NotificationService {
	return &NotificationService{db: db, resend: resendClient, fromAddress: fromAddress}
}

// Notify emails the listing summary to its owner. When the owner has email
// notifications disabled it returns successfully without sending anything.
func (s *NotificationService) Notify(ctx context.Context, listingID uint) (string, error) {
	var listing models.Listing
	if err := s.db.Preload("Images").First(&listing, listingID).Error; err != nil {
		return "", fmt.Errorf("failed to fetch listing details")
	}

	var profile models.Profile
	if err := s.db.Where("user_id = ?", listing.UserID).First(&profile).Error; err != nil {
		return "", fmt.Errorf("failed to fetch listing details")
	}

	if !profile.EmailNotifications {
		return NotificationDisabledMessage, nil
	}

	html, err := composeEmail(&listing)
	if err != nil {
		return "", err
	}

	email := resend.Email{
		From:    s.fromAddress,
		To:      []string{profile.Email},
		Subject: fmt.Sprintf("%s - Your Listing is Ready", listing.Title),
		HTML:    html,
	}
	if err := s.resend.Send(ctx, email); err != nil {
		return "", err
	}

	return "Email sent successfully", nil
}

func composeEmail(listing *models.Listing) (string, error) {
	data := emailData{
		Listing:          listing,
		StandoutFeatures: listing.StandoutFeatureList(),
		KeyFeatures:      listing.KeyFeatureList(),
		Images:           listing.Images,
	}
	if listing.FullDescription != nil {
		data.FullDescription = *listing.FullDescription
	}
	if listing.ShortSummary != nil {
		data.ShortSummary = *listing.ShortSummary
	}

	var sb strings.Builder
	if err := emailTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to compose email: %w", err)
	}
	return sb.String(), nil
}
