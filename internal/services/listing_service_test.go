package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"listing-generator/internal/models"
	"listing-generator/internal/wizard"
)

// fakeUploader records upload order and can fail on a chosen call.
type fakeUploader struct {
	keys      []string
	failAfter int // fail on call number failAfter+1; -1 never fails
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if f.failAfter >= 0 && len(f.keys) == f.failAfter {
		return "", fmt.Errorf("bucket unavailable")
	}
	io.Copy(io.Discard, r)
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func stagedImage(name string) wizard.Image {
	return wizard.Image{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        3,
		Data:        []byte("jpg"),
	}
}

func TestUploadImagesInOrder(t *testing.T) {
	db := setupTestDB(t)
	_, listing := seedListing(t, db)

	uploader := &fakeUploader{failAfter: -1}
	service := NewListingService(db, uploader)

	images := []wizard.Image{stagedImage("front.jpg"), stagedImage("kitchen.png"), stagedImage("garden.jpg")}
	if err := service.UploadImages(context.Background(), listing.ID, images); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if len(uploader.keys) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(uploader.keys))
	}
	prefix := fmt.Sprintf("%d/", listing.ID)
	for _, key := range uploader.keys {
		if !strings.HasPrefix(key, prefix) {
			t.Errorf("object key %q not namespaced under listing", key)
		}
	}
	if !strings.HasSuffix(uploader.keys[1], ".png") {
		t.Errorf("original extension not preserved: %q", uploader.keys[1])
	}

	var rows []models.ListingImage
	db.Where("listing_id = ?", listing.ID).Order("id").Find(&rows)
	if len(rows) != 3 {
		t.Fatalf("expected 3 image rows, got %d", len(rows))
	}
	for i, row := range rows {
		want := "https://cdn.example.com/" + uploader.keys[i]
		if row.ImageURL != want {
			t.Errorf("row %d: got %q, want %q", i, row.ImageURL, want)
		}
	}
}

func TestUploadImagesAbortsOnFirstFailure(t *testing.T) {
	db := setupTestDB(t)
	_, listing := seedListing(t, db)

	uploader := &fakeUploader{failAfter: 1}
	service := NewListingService(db, uploader)

	images := []wizard.Image{stagedImage("a.jpg"), stagedImage("b.jpg"), stagedImage("c.jpg")}
	err := service.UploadImages(context.Background(), listing.ID, images)
	if err == nil {
		t.Fatal("expected failure on the second upload")
	}
	if !strings.Contains(err.Error(), "b.jpg") {
		t.Errorf("error should name the failing file: %v", err)
	}

	// The first file completed before the failure and its row stays in place
	var count int64
	db.Model(&models.ListingImage{}).Where("listing_id = ?", listing.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 surviving image row, got %d", count)
	}
	if len(uploader.keys) != 1 {
		t.Errorf("remaining uploads must not be attempted, got %d completed", len(uploader.keys))
	}
}

func TestGetUserListingsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	user, first := seedListing(t, db)

	second := models.Listing{
		UserID: user.ID, Title: "Second", ListingType: "Residential Letting",
		PropertyType: "Terraced", Location: "York",
	}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("failed to create listing: %v", err)
	}
	// Force a distinct, older timestamp on the first listing
	db.Model(&models.Listing{}).Where("id = ?", first.ID).
		Update("created_at", first.CreatedAt.AddDate(0, 0, -1))

	service := NewListingService(db, &fakeUploader{failAfter: -1})
	listings, err := service.GetUserListings(user.ID)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].ID != second.ID {
		t.Error("listings not ordered newest first")
	}
}

func TestDeleteListingKeepsImageRows(t *testing.T) {
	db := setupTestDB(t)
	user, listing := seedListing(t, db, "https://img.example.com/1.jpg")

	service := NewListingService(db, &fakeUploader{failAfter: -1})
	if err := service.DeleteListing(user.ID, listing.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var listingCount, imageCount int64
	db.Model(&models.Listing{}).Where("id = ?", listing.ID).Count(&listingCount)
	db.Model(&models.ListingImage{}).Where("listing_id = ?", listing.ID).Count(&imageCount)
	if listingCount != 0 {
		t.Error("listing row not deleted")
	}
	if imageCount != 1 {
		t.Errorf("image rows must survive a listing delete, got %d", imageCount)
	}
}

func TestDeleteListingEnforcesOwnership(t *testing.T) {
	db := setupTestDB(t)
	_, listing := seedListing(t, db)

	service := NewListingService(db, &fakeUploader{failAfter: -1})
	if err := service.DeleteListing(listing.UserID+1, listing.ID); err == nil {
		t.Fatal("expected not-found for a foreign listing")
	}

	var count int64
	db.Model(&models.Listing{}).Where("id = ?", listing.ID).Count(&count)
	if count != 1 {
		t.Error("foreign delete must not remove the row")
	}
}

func TestCopyTextAssembly(t *testing.T) {
	desc := "Full description."
	summary := "Short summary."
	listing := models.Listing{
		FullDescription: &desc,
		ShortSummary:    &summary,
		KeyFeatures:     models.StringArray([]string{"One", "Two"}),
	}

	want := "Full description.\n\nOne\nTwo\n\nShort summary."
	if got := listing.CopyText(); got != want {
		t.Errorf("copy text mismatch:\n got: %q\nwant: %q", got, want)
	}
}
