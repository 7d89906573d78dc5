package models

import "time"

// Customer tiers used as priority input. Identity and tier assignment are
// owned by the wider banking platform; this table only mirrors the handle
// and tier needed to start and score sessions.
const (
	TierBasic = "basic"
	TierVIP   = "vip"
)

// Customer maps a platform login identifier to a numeric handle and tier.
type Customer struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	LoginID   string `gorm:"size:64;not null;uniqueIndex"`
	Tier      string `gorm:"size:16;default:basic"`
	CreatedAt time.Time
}
