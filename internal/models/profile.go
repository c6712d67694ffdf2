package models

import (
	"time"
)

// Profile holds the agent-facing account details, one per user.
// The generation pipeline reads AgencyName to personalize the prompt and
// the notification function reads Email/EmailNotifications to gate sending.
type Profile struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User               *User     `gorm:"foreignKey:UserID" json:"-"`
	FullName           string    `json:"full_name"`
	AgencyName         string    `json:"agency_name"`
	Email              string    `gorm:"not null" json:"email"`
	EmailNotifications bool      `gorm:"default:true" json:"email_notifications"`
	MonthlyUsageCount  int       `gorm:"default:0" json:"monthly_usage_count"`
	UsageResetDate     time.Time `json:"usage_reset_date"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName specifies the table name for Profile model
func (Profile) TableName() string {
	return "profiles"
}
