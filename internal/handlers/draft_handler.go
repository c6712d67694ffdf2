package handlers

import (
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"listing-generator/internal/auth"
	"listing-generator/internal/services"
	"listing-generator/internal/wizard"
)

// draftSession guards its wizard with its own mutex: the handler mutex only
// protects the session map, while gin serves requests for the same draft id
// on separate goroutines.
type draftSession struct {
	mu     sync.Mutex
	userID uint
	wizard *wizard.Wizard
}

// DraftHandler exposes the listing wizard as in-memory draft sessions.
// Drafts are transient: they live until submitted or the process restarts,
// the same lifetime the original form state had.
type DraftHandler struct {
	mu       sync.Mutex
	sessions map[string]*draftSession

	listingService      *services.ListingService
	generationService   *services.GenerationService
	notificationService *services.NotificationService
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(listingService *services.ListingService, generationService *services.GenerationService, notificationService *services.NotificationService) *DraftHandler {
	return &DraftHandler{
		sessions:            make(map[string]*draftSession),
		listingService:      listingService,
		generationService:   generationService,
		notificationService: notificationService,
	}
}

// CreateDraft opens a new wizard, optionally prefilled from an existing
// listing for the regeneration flow (images always start empty).
// POST /api/drafts
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		PrefillListingID *uint `json:"prefill_listing_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var w *wizard.Wizard
	if req.PrefillListingID != nil {
		listing, err := h.listingService.GetUserListing(userID, *req.PrefillListingID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		w = wizard.NewFromListing(listing)
	} else {
		w = wizard.New()
	}

	// Snapshot before publishing: once the session is in the map another
	// request could be mutating the wizard.
	step := w.Step()
	draft := w.Draft()

	draftID := uuid.NewString()
	h.mu.Lock()
	h.sessions[draftID] = &draftSession{userID: userID, wizard: w}
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"draft_id": draftID,
		"step":     step,
		"draft":    draft,
	})
}

// GetDraft returns the draft state and staged image names
// GET /api/drafts/:id
func (h *DraftHandler) GetDraft(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	draft := session.wizard.Draft()
	names := make([]string, 0, len(draft.Images))
	for _, img := range draft.Images {
		names = append(names, img.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"step":          session.wizard.Step(),
		"draft":         draft,
		"staged_images": names,
	})
}

// UpdateDraft merges field changes into the draft
// PATCH /api/drafts/:id
func (h *DraftHandler) UpdateDraft(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var update wizard.FieldUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.wizard.Apply(update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"step":  session.wizard.Step(),
		"draft": session.wizard.Draft(),
	})
}

// NextStep advances the wizard; a failed guard leaves the step unchanged
// POST /api/drafts/:id/next
func (h *DraftHandler) NextStep(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.wizard.Next(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "step": session.wizard.Step()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"step": session.wizard.Step()})
}

// PreviousStep moves the wizard back without validation
// POST /api/drafts/:id/previous
func (h *DraftHandler) PreviousStep(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.wizard.Back(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "step": session.wizard.Step()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"step": session.wizard.Step()})
}

// StageImages applies one multipart selection to the draft under the image
// intake contract; an oversized selection stages nothing.
// POST /api/drafts/:id/images
func (h *DraftHandler) StageImages(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}

	files := form.File["images"]

	// Reject an oversized selection before buffering any file bytes
	if len(files) > wizard.MaxImageCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": wizard.ErrTooManyImages.Error()})
		return
	}

	selection := make([]wizard.Image, 0, len(files))
	for _, header := range files {
		img := wizard.Image{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
		}

		// Only read bytes for files that could pass the intake checks;
		// oversized or non-image files get dropped by StageImages anyway.
		if img.Size <= wizard.MaxImageSize {
			file, err := header.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot open file"})
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read file"})
				return
			}
			img.Data = data
		}

		selection = append(selection, img)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	warning, err := session.wizard.StageImages(selection)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"staged_count": len(session.wizard.Draft().Images)}
	if warning != "" {
		resp["warning"] = warning
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitDraft runs the submit sequence the original client performed: create
// the listing row, upload the staged images one at a time, invoke the
// generation pipeline, then fire the best-effort notification. A failure
// before the notification step reopens the draft for retry; the notification
// never fails the flow.
// POST /api/drafts/:id/submit
func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	draftID := c.Param("id")
	session, ok := h.session(c)
	if !ok {
		return
	}

	// Held for the whole sequence so a double-clicked submit serializes:
	// the second attempt sees the terminal step and is rejected.
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.wizard.Submit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft := session.wizard.Draft()
	listing := draft.ToListing(session.userID)

	if err := h.listingService.CreateListing(listing); err != nil {
		session.wizard.Reopen()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(draft.Images) > 0 {
		if err := h.listingService.UploadImages(c.Request.Context(), listing.ID, draft.Images); err != nil {
			// Already-uploaded image rows stay in place; no rollback
			session.wizard.Reopen()
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	genReq := services.GenerateRequest{
		ListingID:              listing.ID,
		Title:                  draft.Title,
		ListingType:            draft.ListingType,
		PropertyType:           draft.PropertyType,
		Bedrooms:               draft.Bedrooms,
		Bathrooms:              draft.Bathrooms,
		Location:               draft.Location,
		StandoutFeatures:       draft.StandoutFeatures,
		AdditionalDetails:      draft.AdditionalDetails,
		GenerationInstructions: draft.GenerationInstructions,
	}
	if err := h.generationService.Generate(c.Request.Context(), genReq); err != nil {
		session.wizard.Reopen()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.notificationService.Notify(c.Request.Context(), listing.ID); err != nil {
		log.Printf("Error sending email for listing %d: %v", listing.ID, err)
	}

	h.mu.Lock()
	delete(h.sessions, draftID)
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":    "Your listing has been created and is being generated",
		"listing_id": listing.ID,
	})
}

func (h *DraftHandler) session(c *gin.Context) (*draftSession, bool) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}

	h.mu.Lock()
	session, found := h.sessions[c.Param("id")]
	h.mu.Unlock()

	if !found || session.userID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
		return nil, false
	}
	return session, true
}
