package hospital

import (
	"time"

	"github.com/google/uuid"
)

// TypeGovernment is the hospital type exempt from license-date fields in
// profile completeness checks. Other types are free-text configuration.
const TypeGovernment = "government"

// Hospital maps to the hospitals table.
type Hospital struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	Name         string     `db:"name" json:"name"`
	Type         string     `db:"type" json:"type"`
	Sector       string     `db:"sector" json:"sector"`
	Governorate  string     `db:"governorate" json:"governorate"`
	LicenseStart *time.Time `db:"license_start" json:"license_start,omitempty"`
	LicenseEnd   *time.Time `db:"license_end" json:"license_end,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ProfileComplete reports whether the hospital has filled in everything it
// needs before opening contract requests. Government hospitals do not carry
// license dates.
func (h *Hospital) ProfileComplete() bool {
	if h.Name == "" || h.Type == "" || h.Sector == "" || h.Governorate == "" {
		return false
	}
	if h.Type == TypeGovernment {
		return true
	}
	return h.LicenseStart != nil && h.LicenseEnd != nil
}
