package healthcareservice

import (
	"time"

	"github.com/google/uuid"
)

// HealthcareService is a contractable service a hospital can request. Each
// (hospital, service) pair may hold at most one open request at a time.
type HealthcareService struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
