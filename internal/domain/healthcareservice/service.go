package healthcareservice

import (
	"context"

	"github.com/google/uuid"

	"github.com/contrack/contrack/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, hs *HealthcareService) error {
	if hs.Name == "" {
		return apperr.Validationf("service name is required")
	}
	return s.repo.Create(ctx, hs)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*HealthcareService, error) {
	hs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundf("service %s", id)
	}
	return hs, nil
}

func (s *Service) Update(ctx context.Context, hs *HealthcareService) error {
	if _, err := s.repo.GetByID(ctx, hs.ID); err != nil {
		return apperr.NotFoundf("service %s", hs.ID)
	}
	if hs.Name == "" {
		return apperr.Validationf("service name is required")
	}
	return s.repo.Update(ctx, hs)
}

// SetActive toggles availability for new requests. Existing requests for a
// deactivated service are left untouched.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*HealthcareService, error) {
	hs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundf("service %s", id)
	}
	hs.Active = active
	if err := s.repo.Update(ctx, hs); err != nil {
		return nil, err
	}
	return hs, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*HealthcareService, error) {
	return s.repo.List(ctx, activeOnly)
}
