package listing

import (
	"context"
	"encoding/json"
	"time"

	"chamba/internal/jobs"

	"gorm.io/gorm"
)

// Sweeper deactivates active listings whose paid window has lapsed.
// One run is a single transaction; running it again immediately, or
// concurrently, matches nothing and affects zero rows. Listings in
// draft_unpaid or pending_verification are never touched, and the
// sweep never writes expirations.
type Sweeper struct {
	DB *gorm.DB
}

// Run returns how many listings were deactivated. An expiry-notice job
// is enqueued for each one in the same transaction, so a rolled-back
// sweep leaves no stray notifications.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	var affected int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var expired []Listing
		if err := tx.Select("id", "employer_id", "title").
			Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", StatusActive, now).
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(expired))
		for _, l := range expired {
			ids = append(ids, l.ID)
		}

		res := tx.Model(&Listing{}).
			Where("id IN ? AND status = ? AND expires_at IS NOT NULL AND expires_at < ?",
				ids, StatusActive, now).
			Update("status", StatusInactive)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected

		for _, l := range expired {
			payload, _ := json.Marshal(map[string]any{
				"listing_id": l.ID,
				"title":      l.Title,
			})
			j := jobs.Job{
				UserID:  l.EmployerID,
				Type:    jobs.TypeExpiryNotice,
				Payload: payload,
				RunAt:   now,
				Status:  "PENDING",
			}
			if err := tx.Create(&j).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
