package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"listing-generator/internal/models"
	"listing-generator/internal/resend"
)

type fakeResend struct {
	calls int
	last  resend.Email
}

func (f *fakeResend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.calls++
		json.NewDecoder(r.Body).Decode(&f.last)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"test"}`))
	}
}

const testFromAddress = "Electric AI Listing Generator <notifications@email.subyak.com>"

func TestNotifySendsEmail(t *testing.T) {
	db := setupTestDB(t)
	_, listing := seedListing(t, db, "https://img.example.com/1.jpg")

	desc := "A lovely riverside flat."
	summary := "Lovely flat in Leeds."
	db.Model(&models.Listing{}).Where("id = ?", listing.ID).Updates(map[string]interface{}{
		"full_description": desc,
		"short_summary":    summary,
		"key_features":     models.StringArray([]string{"River views", "Hardwood floors"}),
	})

	fake := &fakeResend{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	service := NewNotificationService(db, resend.NewClient("test-key", server.URL), testFromAddress)

	msg, err := service.Notify(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if msg != "Email sent successfully" {
		t.Errorf("unexpected message: %q", msg)
	}
	if fake.calls != 1 {
		t.Fatalf("expected one email, got %d", fake.calls)
	}

	if fake.last.From != testFromAddress {
		t.Errorf("wrong sender: %q", fake.last.From)
	}
	if len(fake.last.To) != 1 || fake.last.To[0] != "agent@example.com" {
		t.Errorf("wrong recipient: %v", fake.last.To)
	}
	if fake.last.Subject != "Riverside Flat - Your Listing is Ready" {
		t.Errorf("wrong subject: %q", fake.last.Subject)
	}
	for _, want := range []string{desc, summary, "River views", "https://img.example.com/1.jpg", "Hector @ Electric AI"} {
		if !strings.Contains(fake.last.HTML, want) {
			t.Errorf("email body missing %q", want)
		}
	}
}

func TestNotifyRespectsOptOut(t *testing.T) {
	db := setupTestDB(t)
	user, listing := seedListing(t, db)
	db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Update("email_notifications", false)

	fake := &fakeResend{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	service := NewNotificationService(db, resend.NewClient("test-key", server.URL), testFromAddress)

	msg, err := service.Notify(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("opt-out must not be an error: %v", err)
	}
	if msg != NotificationDisabledMessage {
		t.Errorf("unexpected message: %q", msg)
	}
	if fake.calls != 0 {
		t.Errorf("no email may be sent when notifications are disabled, got %d", fake.calls)
	}
}

func TestNotifyUnknownListing(t *testing.T) {
	db := setupTestDB(t)

	fake := &fakeResend{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	service := NewNotificationService(db, resend.NewClient("test-key", server.URL), testFromAddress)

	if _, err := service.Notify(context.Background(), 999); err == nil {
		t.Fatal("expected an error for a missing listing")
	}
	if fake.calls != 0 {
		t.Errorf("no email may be sent for a missing listing, got %d", fake.calls)
	}
}

func TestNotifySurfacesDeliveryFailure(t *testing.T) {
	db := setupTestDB(t)
	_, listing := seedListing(t, db)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid sender"}`))
	}))
	defer server.Close()

	service := NewNotificationService(db, resend.NewClient("test-key", server.URL), testFromAddress)

	_, err := service.Notify(context.Background(), listing.ID)
	if err == nil {
		t.Fatal("expected delivery failure to surface")
	}
	if !strings.Contains(err.Error(), "invalid sender") {
		t.Errorf("upstream body not surfaced: %v", err)
	}
}
