package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"listing-generator/internal/models"
	"listing-generator/internal/openai"
	"listing-generator/internal/resend"
	"listing-generator/internal/services"
	"listing-generator/internal/wizard"
)

func setupDraftRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Profile{}, &models.Listing{}, &models.ListingImage{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	listingService := services.NewListingService(db, nil)
	generationService := services.NewGenerationService(db, openai.NewClient("test-key", "http://127.0.0.1:0", "gpt-4o"))
	notificationService := services.NewNotificationService(db, resend.NewClient("test-key", "http://127.0.0.1:0"), "test@example.com")
	handler := NewDraftHandler(listingService, generationService, notificationService)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("email", "agent@example.com")
	})
	drafts := router.Group("/api/drafts")
	{
		drafts.POST("", handler.CreateDraft)
		drafts.GET("/:id", handler.GetDraft)
		drafts.PATCH("/:id", handler.UpdateDraft)
		drafts.POST("/:id/next", handler.NextStep)
		drafts.POST("/:id/previous", handler.PreviousStep)
		drafts.POST("/:id/images", handler.StageImages)
	}
	return router
}

func createDraft(t *testing.T, router *gin.Engine) string {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/drafts", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("create draft: status %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		DraftID string `json:"draft_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("create draft response: %v", err)
	}
	if resp.DraftID == "" {
		t.Fatal("create draft returned no id")
	}
	return resp.DraftID
}

func TestConcurrentDraftAccess(t *testing.T) {
	router := setupDraftRouter(t)
	draftID := createDraft(t, router)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)

		go func(n int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"title":"Riverside Flat %d"}`, n)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("PATCH", "/api/drafts/"+draftID, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("patch: status %d, body %s", w.Code, w.Body.String())
			}
		}(i)

		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/drafts/"+draftID, nil)
			router.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("get: status %d, body %s", w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/drafts/"+draftID, nil)
	router.ServeHTTP(w, req)

	var resp struct {
		Draft struct {
			Title string `json:"title"`
		} `json:"draft"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("get draft response: %v", err)
	}
	if !strings.HasPrefix(resp.Draft.Title, "Riverside Flat ") {
		t.Errorf("expected one of the written titles to survive, got %q", resp.Draft.Title)
	}
}

func TestStageImagesRejectsSelectionBeforeReading(t *testing.T) {
	router := setupDraftRouter(t)
	draftID := createDraft(t, router)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i < wizard.MaxImageCount+1; i++ {
		part, err := mw.CreateFormFile("images", fmt.Sprintf("photo-%d.jpg", i))
		if err != nil {
			t.Fatalf("build form: %v", err)
		}
		part.Write([]byte("jpegdata"))
	}
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/drafts/"+draftID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for %d files, got %d", wizard.MaxImageCount+1, w.Code)
	}
	if !strings.Contains(w.Body.String(), wizard.ErrTooManyImages.Error()) {
		t.Errorf("expected the selection-size error, got %s", w.Body.String())
	}

	// Nothing staged after the rejection
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/drafts/"+draftID, nil)
	router.ServeHTTP(w, req)

	var resp struct {
		StagedImages []string `json:"staged_images"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("get draft response: %v", err)
	}
	if len(resp.StagedImages) != 0 {
		t.Errorf("expected no staged images, got %d", len(resp.StagedImages))
	}
}
