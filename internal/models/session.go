package models

import "time"

// Session status values. A session starts waiting, is bound to a consultant
// exactly once (waiting → chatting), and ends closed. Closed is terminal.
const (
	SessionWaiting  = "waiting"
	SessionChatting = "chatting"
	SessionClosed   = "closed"
)

// Inquiry categories. Unknown categories are accepted and score zero.
const (
	CategoryGeneral   = "general"
	CategoryComplaint = "complaint"
	CategoryProduct   = "product"
)

// ChatSession is one customer support conversation with a lifecycle state.
type ChatSession struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Reference    string `gorm:"size:36;uniqueIndex"`
	CustomerID   int64  `gorm:"not null;index:idx_customer_status,priority:1"`
	ConsultantID *int64 `gorm:"index"`
	Category     string `gorm:"size:16;default:general"`
	Priority     int    `gorm:"default:0;index"`
	Status       string `gorm:"size:16;default:waiting;index:idx_customer_status,priority:2"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time

	Messages []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// Open reports whether the session can still accept activity.
func (s *ChatSession) Open() bool {
	return s.Status == SessionWaiting || s.Status == SessionChatting
}
