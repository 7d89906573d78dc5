// Package dispatch owns chat-session lifecycle transitions and the
// waiting-queue ordering contract.
package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moabank/counsel/internal/models"
	"github.com/moabank/counsel/internal/priority"
	"gorm.io/gorm"
)

// ClaimResult reports the outcome of a claim attempt. Losing a race is an
// expected outcome, not an error.
type ClaimResult string

const (
	ClaimAssigned     ClaimResult = "assigned"
	ClaimAlreadyTaken ClaimResult = "already_taken"
	ClaimNotFound     ClaimResult = "not_found"
)

// CloseResult reports the outcome of a close attempt.
type CloseResult string

const (
	CloseClosed        CloseResult = "closed"
	CloseAlreadyClosed CloseResult = "already_closed"
	CloseNotFound      CloseResult = "not_found"
)

// StartOrResume returns the customer's open session, creating a new waiting
// one if none exists. The boolean is true when a session was created. A
// customer holds at most one non-terminal session; repeated starts while a
// session is waiting or chatting return that session unchanged.
func StartOrResume(db *gorm.DB, customerID int64, tier, category string) (*models.ChatSession, bool, error) {
	if customerID <= 0 {
		return nil, false, fmt.Errorf("dispatch: customerID is required")
	}
	if category == "" {
		category = models.CategoryGeneral
	}

	var session *models.ChatSession
	created := false

	err := db.Transaction(func(tx *gorm.DB) error {
		// Oldest open session wins, so two racing first contacts converge
		// on one row from the next call onward.
		var existing models.ChatSession
		result := tx.Where("customer_id = ? AND status IN ?", customerID,
			[]string{models.SessionWaiting, models.SessionChatting}).
			Order("created_at ASC, id ASC").
			Limit(1).
			Find(&existing)
		if result.Error != nil {
			return fmt.Errorf("find open session for customer %d: %w", customerID, result.Error)
		}
		if result.RowsAffected > 0 {
			session = &existing
			return nil
		}

		session = &models.ChatSession{
			Reference:  uuid.NewString(),
			CustomerID: customerID,
			Category:   category,
			Priority:   priority.Score(tier, category),
			Status:     models.SessionWaiting,
		}
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("create session for customer %d: %w", customerID, err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("dispatch: %w", err)
	}
	return session, created, nil
}

// ListWaiting returns all waiting sessions in dispatch order: priority
// descending, then creation time ascending. This ordering is the queue
// fairness contract.
func ListWaiting(db *gorm.DB) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := db.Where("status = ?", models.SessionWaiting).
		Order("priority DESC, created_at ASC, id ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("dispatch: list waiting: %w", err)
	}
	return sessions, nil
}

// ListActiveFor returns all chatting sessions bound to the consultant.
func ListActiveFor(db *gorm.DB, consultantID int64) ([]models.ChatSession, error) {
	if consultantID <= 0 {
		return nil, fmt.Errorf("dispatch: consultantID is required")
	}
	var sessions []models.ChatSession
	if err := db.Where("status = ? AND consultant_id = ?", models.SessionChatting, consultantID).
		Order("created_at ASC, id ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("dispatch: list active for %d: %w", consultantID, err)
	}
	return sessions, nil
}

// Claim attempts to bind a specific waiting session to a consultant. The
// transition is a single conditional update guarded on the current status,
// so of any number of concurrent callers exactly one observes Assigned and
// the rest AlreadyTaken. No row lock is held across a round-trip.
func Claim(db *gorm.DB, sessionID uint, consultantID int64) (ClaimResult, error) {
	if consultantID <= 0 {
		return "", fmt.Errorf("dispatch: consultantID is required")
	}

	var outcome ClaimResult
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ChatSession{}).
			Where("id = ? AND status = ?", sessionID, models.SessionWaiting).
			Updates(map[string]interface{}{
				"status":        models.SessionChatting,
				"consultant_id": consultantID,
			})
		if result.Error != nil {
			return fmt.Errorf("claim session %d: %w", sessionID, result.Error)
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.ChatSession{}).Where("id = ?", sessionID).
				Count(&count).Error; err != nil {
				return fmt.Errorf("check session %d: %w", sessionID, err)
			}
			if count == 0 {
				outcome = ClaimNotFound
			} else {
				outcome = ClaimAlreadyTaken
			}
			return nil
		}

		if err := tx.Model(&models.Consultant{}).Where("id = ?", consultantID).
			Update("status", models.ConsultantBusy).Error; err != nil {
			return fmt.Errorf("mark consultant %d busy: %w", consultantID, err)
		}
		outcome = ClaimAssigned
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("dispatch: %w", err)
	}
	return outcome, nil
}

// ClaimNext claims the highest-ordered waiting session for the consultant.
// If a candidate is taken by a concurrent caller between listing and
// claiming, the next still-waiting candidate is tried, until one is claimed
// or the waiting set is exhausted. Returns nil, nil when the queue is empty.
func ClaimNext(db *gorm.DB, consultantID int64) (*models.ChatSession, error) {
	if consultantID <= 0 {
		return nil, fmt.Errorf("dispatch: consultantID is required")
	}

	candidates, err := ListWaiting(db)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		result, err := Claim(db, candidate.ID, consultantID)
		if err != nil {
			return nil, err
		}
		if result != ClaimAssigned {
			// Lost the race; try the next candidate.
			continue
		}
		var session models.ChatSession
		if err := db.First(&session, candidate.ID).Error; err != nil {
			return nil, fmt.Errorf("dispatch: reload session %d: %w", candidate.ID, err)
		}
		return &session, nil
	}
	return nil, nil
}

// Close transitions a waiting or chatting session to closed. Closing is
// idempotent: a second call reports AlreadyClosed and mutates nothing.
// When releaseConsultant is set, a bound consultant returns to idle.
func Close(db *gorm.DB, sessionID uint, releaseConsultant bool) (CloseResult, error) {
	var outcome CloseResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.ChatSession
		result := tx.Where("id = ?", sessionID).Limit(1).Find(&session)
		if result.Error != nil {
			return fmt.Errorf("find session %d: %w", sessionID, result.Error)
		}
		if result.RowsAffected == 0 {
			outcome = CloseNotFound
			return nil
		}

		now := time.Now()
		res := tx.Model(&models.ChatSession{}).
			Where("id = ? AND status != ?", sessionID, models.SessionClosed).
			Updates(map[string]interface{}{
				"status":    models.SessionClosed,
				"closed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("close session %d: %w", sessionID, res.Error)
		}
		if res.RowsAffected == 0 {
			outcome = CloseAlreadyClosed
			return nil
		}

		if releaseConsultant && session.ConsultantID != nil {
			if err := tx.Model(&models.Consultant{}).Where("id = ?", *session.ConsultantID).
				Update("status", models.ConsultantIdle).Error; err != nil {
				return fmt.Errorf("release consultant %d: %w", *session.ConsultantID, err)
			}
		}
		outcome = CloseClosed
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("dispatch: %w", err)
	}
	return outcome, nil
}
