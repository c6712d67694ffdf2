package services

import (
	"testing"

	"listing-generator/internal/models"
)

func TestSignUpCreatesProfile(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db)

	user, err := service.SignUp("new@example.com", "password123", "Sam Agent", "Hilltop Homes")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plaintext")
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if !profile.EmailNotifications {
		t.Error("notifications must default to enabled")
	}
	if profile.AgencyName != "Hilltop Homes" {
		t.Errorf("agency name not stored: %q", profile.AgencyName)
	}
	if profile.MonthlyUsageCount != 0 {
		t.Errorf("usage count must start at zero, got %d", profile.MonthlyUsageCount)
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db)

	if _, err := service.SignUp("dup@example.com", "password123", "A", "B"); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if _, err := service.SignUp("dup@example.com", "different456", "C", "D"); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}
}

func TestSignInVerifiesPassword(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db)

	created, err := service.SignUp("login@example.com", "password123", "A", "B")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	user, err := service.SignIn("login@example.com", "password123")
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if user.ID != created.ID {
		t.Error("wrong user returned")
	}

	if _, err := service.SignIn("login@example.com", "wrongpass"); err == nil {
		t.Fatal("wrong password must be rejected")
	}
	if _, err := service.SignIn("nobody@example.com", "password123"); err == nil {
		t.Fatal("unknown email must be rejected")
	}
}

func TestSetEmailNotifications(t *testing.T) {
	db := setupTestDB(t)
	auth := NewAuthService(db)
	profiles := NewProfileService(db)

	user, err := auth.SignUp("prefs@example.com", "password123", "A", "B")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	if err := profiles.SetEmailNotifications(user.ID, false); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	profile, err := profiles.GetProfileByUserID(user.ID)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if profile.EmailNotifications {
		t.Error("opt-out not persisted")
	}

	if err := profiles.SetEmailNotifications(999, true); err == nil {
		t.Fatal("expected error for an unknown user")
	}
}
