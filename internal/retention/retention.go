// Package retention purges long-closed chat sessions and their messages.
package retention

import (
	"fmt"
	"time"

	"github.com/moabank/counsel/internal/models"
	"gorm.io/gorm"
)

// PurgeClosedBefore deletes every closed session whose closed_at is before
// cutoff, together with its messages. Waiting and chatting rows are never
// touched, so the purge is safe against live traffic, and deleting nothing
// is a valid outcome, so re-runs are no-ops. Returns the number of sessions
// removed.
func PurgeClosedBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	var purged int64
	err := db.Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.ChatSession{}).
			Select("id").
			Where("status = ? AND closed_at IS NOT NULL AND closed_at < ?", models.SessionClosed, cutoff)

		if err := tx.Where("session_id IN (?)", expired).
			Delete(&models.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}

		result := tx.Where("status = ? AND closed_at IS NOT NULL AND closed_at < ?", models.SessionClosed, cutoff).
			Delete(&models.ChatSession{})
		if result.Error != nil {
			return fmt.Errorf("delete sessions: %w", result.Error)
		}
		purged = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("retention: purge before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return purged, nil
}

// Cutoff derives the purge cutoff from an explicit now and retention window,
// keeping the purge itself free of wall-clock dependencies.
func Cutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
