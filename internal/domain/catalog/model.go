package catalog

import "time"

// DocumentType maps to the document_types table. Name is the immutable
// internal identity; DisplayName is what admins relabel freely.
type DocumentType struct {
	Name         string    `db:"name" json:"name"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	VideoAllowed bool      `db:"is_video_allowed" json:"is_video_allowed"`
	VideoOnly    bool      `db:"is_video_only" json:"is_video_only"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// OptionalDocs is one hospital type's configured optional-document set.
type OptionalDocs struct {
	HospitalType string   `json:"hospital_type"`
	DocNames     []string `json:"doc_names"`
}
