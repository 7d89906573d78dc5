package models

import "time"

// Sender roles for chat messages and read marking.
const (
	RoleCustomer   = "customer"
	RoleConsultant = "consultant"
)

// ChatMessage is one entry in a session's append-only transcript. Rows are
// never updated except to set the read markers, and are deleted only when
// the owning session is purged.
type ChatMessage struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement"`
	SessionID          uint       `gorm:"not null;index"`
	SenderRole         string     `gorm:"size:16;not null"`
	SenderID           int64      `gorm:"not null"`
	Content            string     `gorm:"type:text;not null"`
	SentAt             time.Time
	ReadByCustomerAt   *time.Time
	ReadByConsultantAt *time.Time

	Session ChatSession `gorm:"foreignKey:SessionID"`
}
