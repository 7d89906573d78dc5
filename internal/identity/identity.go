// Package identity resolves login identifiers to numeric handles and tiers.
// Identity itself is owned by the wider banking platform; this package only
// exposes the narrow lookup surface the dispatch paths need.
package identity

import (
	"errors"
	"fmt"

	"github.com/moabank/counsel/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned for unknown login identifiers or handles.
var ErrNotFound = errors.New("identity: not found")

// Directory resolves customers for the session-start path.
type Directory interface {
	// ResolveNumericHandle maps a login identifier to a customer handle.
	ResolveNumericHandle(loginID string) (int64, error)
	// TierOf returns the customer's tier, used only as priority input.
	TierOf(customerID int64) (string, error)
}

// GormDirectory is a Directory over the local customers table.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory returns a Directory backed by the given store.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) ResolveNumericHandle(loginID string) (int64, error) {
	if loginID == "" {
		return 0, fmt.Errorf("identity: loginID is required")
	}
	var customer models.Customer
	result := d.db.Where("login_id = ?", loginID).Limit(1).Find(&customer)
	if result.Error != nil {
		return 0, fmt.Errorf("identity: resolve %q: %w", loginID, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return customer.ID, nil
}

func (d *GormDirectory) TierOf(customerID int64) (string, error) {
	var customer models.Customer
	result := d.db.Where("id = ?", customerID).Limit(1).Find(&customer)
	if result.Error != nil {
		return "", fmt.Errorf("identity: tier of %d: %w", customerID, result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return customer.Tier, nil
}

// ResolveConsultant maps a consultant login identifier to its id.
func ResolveConsultant(db *gorm.DB, loginID string) (int64, error) {
	if loginID == "" {
		return 0, fmt.Errorf("identity: loginID is required")
	}
	var consultant models.Consultant
	result := db.Where("login_id = ?", loginID).Limit(1).Find(&consultant)
	if result.Error != nil {
		return 0, fmt.Errorf("identity: resolve consultant %q: %w", loginID, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return consultant.ID, nil
}
