package healthcareservice

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *HealthcareService) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthcareService, error)
	Update(ctx context.Context, s *HealthcareService) error
	List(ctx context.Context, activeOnly bool) ([]*HealthcareService, error)
}
