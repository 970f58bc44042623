package catalog

import "context"

type Repository interface {
	ListTypes(ctx context.Context) ([]*DocumentType, error)
	GetType(ctx context.Context, name string) (*DocumentType, error)
	UpsertType(ctx context.Context, dt *DocumentType) error
	DeleteType(ctx context.Context, name string) error

	// OptionalDocs returns the configured optional document names for a
	// hospital type; empty for an unknown type.
	OptionalDocs(ctx context.Context, hospitalType string) ([]string, error)
	SetOptionalDocs(ctx context.Context, hospitalType string, names []string) error
}

// RequiredResyncer pushes a changed optional-docs mapping out to the document
// rows of existing non-deleted requests. Implemented by the request domain's
// document repository; injected to keep this package free of that dependency.
type RequiredResyncer interface {
	ResyncRequired(ctx context.Context, hospitalType string, optionalDocs []string) error
}
