package models

import "time"

// Consultant status values, toggled as a side effect of dispatch.
const (
	ConsultantIdle = "idle"
	ConsultantBusy = "busy"
)

// Consultant is a support agent who pulls sessions from the waiting queue.
type Consultant struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	LoginID   string `gorm:"size:64;not null;uniqueIndex"`
	Name      string `gorm:"size:64"`
	Status    string `gorm:"size:16;default:idle;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
