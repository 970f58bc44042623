package hospital

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

func (s *Service) Create(ctx context.Context, h *Hospital) error {
	if h.Code == "" {
		return apperr.Validationf("hospital code is required")
	}
	if h.Name == "" {
		return apperr.Validationf("hospital name is required")
	}
	if h.Type == "" {
		return apperr.Validationf("hospital type is required")
	}
	if existing, err := s.repo.GetByCode(ctx, h.Code); err == nil && existing != nil {
		return apperr.Conflictf("hospital code %q already exists", h.Code)
	}
	return s.repo.Create(ctx, h)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundf("hospital %s", id)
	}
	return h, nil
}

func (s *Service) Update(ctx context.Context, h *Hospital) error {
	current, err := s.repo.GetByID(ctx, h.ID)
	if err != nil {
		return apperr.NotFoundf("hospital %s", h.ID)
	}
	// Code is immutable identity once assigned.
	h.Code = current.Code
	if h.Name == "" || h.Type == "" {
		return apperr.Validationf("hospital name and type are required")
	}
	return s.repo.Update(ctx, h)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.List(ctx, limit, offset)
}
