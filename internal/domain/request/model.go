package request

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle is the active/deleted state of a request. Soft deletion is a
// first-class state, not an inference from timestamps scattered through
// queries.
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "active"
	LifecycleDeleted Lifecycle = "deleted"
)

// Request is one hospital's contract application for one service.
type Request struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	HospitalID  uuid.UUID  `db:"hospital_id" json:"hospital_id"`
	ServiceID   uuid.UUID  `db:"service_id" json:"service_id"`
	Status      string     `db:"status" json:"status"`
	AgeCategory string     `db:"age_category" json:"age_category"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	ClosedAt    *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (r *Request) Lifecycle() Lifecycle {
	if r.DeletedAt != nil {
		return LifecycleDeleted
	}
	return LifecycleActive
}

// Document is one slot on a request, materialized from the document-type
// catalog. Required is resolved from the hospital type at creation and
// refreshed by catalog resyncs unless an admin overrode it per document.
type Document struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	RequestID          uuid.UUID  `db:"request_id" json:"request_id"`
	DocType            string     `db:"doc_type" json:"doc_type"`
	DisplayName        string     `db:"display_name" json:"display_name"`
	Required           bool       `db:"required" json:"required"`
	RequiredOverridden bool       `db:"required_overridden" json:"required_overridden"`
	Satisfied          bool       `db:"satisfied" json:"satisfied"`
	VideoAllowed       bool       `db:"is_video_allowed" json:"is_video_allowed"`
	VideoOnly          bool       `db:"is_video_only" json:"is_video_only"`
	FilePath           *string    `db:"file_path" json:"file_path,omitempty"`
	UploadedAt         *time.Time `db:"uploaded_at" json:"uploaded_at,omitempty"`
	AdminComment       string     `db:"admin_comment" json:"admin_comment"`
}

// Decision is the eligibility gate's answer for one (hospital, service) pair.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Detail bundles a request with its document set for read endpoints.
type Detail struct {
	Request   *Request    `json:"request"`
	Documents []*Document `json:"documents"`
	Complete  bool        `json:"complete"`
}
