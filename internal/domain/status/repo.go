package status

import "context"

type Repository interface {
	// List returns all configured statuses ordered by display_order.
	List(ctx context.Context) ([]*Setting, error)
	Get(ctx context.Context, name string) (*Setting, error)
	Upsert(ctx context.Context, s *Setting) error
	Delete(ctx context.Context, name string) error
}

// UsageChecker reports how many non-deleted requests currently carry a
// status. Implemented by the request repository; injected to avoid a
// dependency from this package on the request domain.
type UsageChecker interface {
	CountActiveByStatus(ctx context.Context, name string) (int, error)
}
