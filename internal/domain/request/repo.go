package request

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/contrack/contrack/internal/domain/catalog"
	"github.com/contrack/contrack/internal/domain/healthcareservice"
	"github.com/contrack/contrack/internal/domain/hospital"
	"github.com/contrack/contrack/internal/domain/status"
)

// ListFilter narrows request listings. Zero values mean "no constraint".
type ListFilter struct {
	HospitalID     uuid.UUID
	ServiceID      uuid.UUID
	Status         string
	IncludeDeleted bool
}

type Repository interface {
	Create(ctx context.Context, r *Request) error
	// GetByID returns the request regardless of lifecycle state; callers
	// decide whether a soft-deleted request is visible.
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	Update(ctx context.Context, r *Request) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Request, int, error)
	// CountActiveByStatus counts non-deleted requests carrying the status.
	// The status registry consults it before allowing a delete.
	CountActiveByStatus(ctx context.Context, statusName string) (int, error)
	// ExistsActiveWithStatus reports whether the pair has a non-deleted
	// request in any of the given statuses.
	ExistsActiveWithStatus(ctx context.Context, hospitalID, serviceID uuid.UUID, statuses []string) (bool, error)
	// ListClosedWithStatus returns the pair's non-deleted closed requests
	// currently in any of the given statuses.
	ListClosedWithStatus(ctx context.Context, hospitalID, serviceID uuid.UUID, statuses []string) ([]*Request, error)
}

type DocumentRepository interface {
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*Document, error)
	Get(ctx context.Context, requestID uuid.UUID, docType string) (*Document, error)
	Create(ctx context.Context, d *Document) error
	Update(ctx context.Context, d *Document) error
	DeleteByRequest(ctx context.Context, requestID uuid.UUID) error
	// ResyncRequired recomputes the required flag on every document of every
	// non-deleted request owned by a hospital of the given type, from the
	// full optional set. Documents with an admin override keep their flag.
	ResyncRequired(ctx context.Context, hospitalType string, optionalDocs []string) error
}

// Registry is the slice of the status registry the lifecycle consults.
// Implemented by the status service.
type Registry interface {
	Behavior(ctx context.Context, name string) (status.Behavior, error)
	First(ctx context.Context) (string, error)
	IsKnown(ctx context.Context, name string) (bool, error)
	BlockingStatuses(ctx context.Context) (map[string]bool, error)
	CooldownStatuses(ctx context.Context) (map[string]int, error)
	HospitalEditable(ctx context.Context) (map[string]bool, error)
}

// RequirementResolver supplies the document catalog and per-hospital-type
// optional sets. Implemented by the catalog service.
type RequirementResolver interface {
	ListTypes(ctx context.Context) ([]*catalog.DocumentType, error)
	OptionalSet(ctx context.Context, hospitalType string) (map[string]bool, error)
}

// HospitalDirectory resolves hospital identity to its profile. Implemented
// by the hospital service.
type HospitalDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
}

// ServiceDirectory resolves service identity. Implemented by the
// healthcareservice service.
type ServiceDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*healthcareservice.HealthcareService, error)
}
