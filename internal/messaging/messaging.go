// Package messaging provides the per-session chat transcript and read
// tracking primitives.
package messaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/moabank/counsel/internal/models"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when the target session does not exist.
var ErrSessionNotFound = errors.New("messaging: session not found")

// ErrSessionClosed is returned when appending to a closed session. Closed
// sessions accept no new activity.
var ErrSessionClosed = errors.New("messaging: session is closed")

// Append adds a message to the session transcript. The session must be
// waiting or chatting; the status check and insert run in one transaction
// so a concurrent close cannot slip a message onto a dead session.
func Append(db *gorm.DB, sessionID uint, senderRole string, senderID int64, content string) (*models.ChatMessage, error) {
	if senderRole != models.RoleCustomer && senderRole != models.RoleConsultant {
		return nil, fmt.Errorf("messaging: unknown sender role %q", senderRole)
	}
	if senderID <= 0 {
		return nil, fmt.Errorf("messaging: senderID is required")
	}
	if content == "" {
		return nil, fmt.Errorf("messaging: content is required")
	}

	var msg *models.ChatMessage
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.ChatSession
		result := tx.Where("id = ?", sessionID).Limit(1).Find(&session)
		if result.Error != nil {
			return fmt.Errorf("find session %d: %w", sessionID, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		if !session.Open() {
			return ErrSessionClosed
		}

		msg = &models.ChatMessage{
			SessionID:  sessionID,
			SenderRole: senderRole,
			SenderID:   senderID,
			Content:    content,
			SentAt:     time.Now(),
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("append to session %d: %w", sessionID, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("messaging: %w", err)
	}
	return msg, nil
}

// History returns the session transcript in send order. A purged or unknown
// session yields an empty transcript, not an error: customers whose history
// was retired see an empty view.
func History(db *gorm.DB, sessionID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := db.Where("session_id = ?", sessionID).
		Order("sent_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("messaging: history of session %d: %w", sessionID, err)
	}
	return msgs, nil
}

// MarkRead stamps every unread message in the session authored by the
// opposite role, in one batch update. Returns the number of messages
// marked. The single UPDATE means a send racing a read cannot lose the
// marker for messages already visible.
func MarkRead(db *gorm.DB, sessionID uint, readerRole string) (int64, error) {
	column, err := readMarkerColumn(readerRole)
	if err != nil {
		return 0, err
	}

	result := db.Model(&models.ChatMessage{}).
		Where("session_id = ? AND sender_role != ? AND "+column+" IS NULL", sessionID, readerRole).
		Update(column, time.Now())
	if result.Error != nil {
		return 0, fmt.Errorf("messaging: mark read session %d: %w", sessionID, result.Error)
	}
	return result.RowsAffected, nil
}

// UnreadCount returns how many messages from the opposite role the reader
// has not yet marked.
func UnreadCount(db *gorm.DB, sessionID uint, readerRole string) (int64, error) {
	column, err := readMarkerColumn(readerRole)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&models.ChatMessage{}).
		Where("session_id = ? AND sender_role != ? AND "+column+" IS NULL", sessionID, readerRole).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("messaging: unread count session %d: %w", sessionID, err)
	}
	return count, nil
}

// readMarkerColumn maps a reader role to its marker column.
func readMarkerColumn(readerRole string) (string, error) {
	switch readerRole {
	case models.RoleCustomer:
		return "read_by_customer_at", nil
	case models.RoleConsultant:
		return "read_by_consultant_at", nil
	default:
		return "", fmt.Errorf("messaging: unknown reader role %q", readerRole)
	}
}
