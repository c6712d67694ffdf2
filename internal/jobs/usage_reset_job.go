package jobs

import (
	"log"
	"time"

	"gorm.io/gorm"

	"listing-generator/internal/models"
)

// UsageResetJob periodically zeroes monthly usage counters whose reset date
// has passed and advances the reset date by one month.
type UsageResetJob struct {
	db *gorm.DB
}

func NewUsageResetJob(db *gorm.DB) *UsageResetJob {
	return &UsageResetJob{db: db}
}

// Start begins the periodic usage reset job
func (j *UsageResetJob) Start(interval time.Duration) {
	go func() {
		// Run immediately on start
		if err := j.resetExpired(); err != nil {
			log.Printf("Initial usage reset error: %v", err)
		}

		// Then run periodically
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			if err := j.resetExpired(); err != nil {
				log.Printf("Usage reset error: %v", err)
			}
		}
	}()
}

func (j *UsageResetJob) resetExpired() error {
	now := time.Now()

	var profiles []models.Profile
	if err := j.db.Where("usage_reset_date <= ? AND usage_reset_date IS NOT NULL", now).Find(&profiles).Error; err != nil {
		return err
	}

	for _, profile := range profiles {
		nextReset := profile.UsageResetDate
		for !nextReset.After(now) {
			nextReset = nextReset.AddDate(0, 1, 0)
		}

		updates := map[string]interface{}{
			"monthly_usage_count": 0,
			"usage_reset_date":    nextReset,
		}
		if err := j.db.Model(&models.Profile{}).Where("id = ?", profile.ID).Updates(updates).Error; err != nil {
			log.Printf("Warning: failed to reset usage for profile %d: %v", profile.ID, err)
			continue
		}

		log.Printf("Monthly usage reset for profile %d (next reset %s)", profile.ID, nextReset.Format("2006-01-02"))
	}

	return nil
}
