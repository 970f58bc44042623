package catalog

import (
	"context"

	"github.com/contrack/contrack/internal/apperr"
)

// TxRunner executes fn atomically. The production runner wraps db.WithTx;
// a nil runner degrades to calling fn directly.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service owns the document-type catalog and resolves which documents a
// hospital type must provide: a document is required exactly when it is not
// in the type's optional set. Hospital types are free-text configuration, so
// an unknown type simply has no optional documents.
type Service struct {
	repo     Repository
	resyncer RequiredResyncer
	runTx    TxRunner
}

func NewService(repo Repository, resyncer RequiredResyncer, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{repo: repo, resyncer: resyncer, runTx: runTx}
}

func (s *Service) ListTypes(ctx context.Context) ([]*DocumentType, error) {
	return s.repo.ListTypes(ctx)
}

func (s *Service) GetType(ctx context.Context, name string) (*DocumentType, error) {
	dt, err := s.repo.GetType(ctx, name)
	if err != nil {
		return nil, apperr.NotFoundf("document type %q", name)
	}
	return dt, nil
}

func (s *Service) UpsertType(ctx context.Context, dt *DocumentType) error {
	if dt.Name == "" {
		return apperr.Validationf("document type name is required")
	}
	if dt.VideoOnly && !dt.VideoAllowed {
		return apperr.Validationf("a video-only document type must allow video")
	}
	if dt.DisplayName == "" {
		dt.DisplayName = dt.Name
	}
	return s.repo.UpsertType(ctx, dt)
}

func (s *Service) DeleteType(ctx context.Context, name string) error {
	if _, err := s.repo.GetType(ctx, name); err != nil {
		return apperr.NotFoundf("document type %q", name)
	}
	return s.repo.DeleteType(ctx, name)
}

// OptionalSet returns the optional document names for a hospital type.
func (s *Service) OptionalSet(ctx context.Context, hospitalType string) (map[string]bool, error) {
	names, err := s.repo.OptionalDocs(ctx, hospitalType)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

// RequiredFor reports whether a document type is required for a hospital
// type: required means not in the optional set.
func (s *Service) RequiredFor(ctx context.Context, hospitalType, docName string) (bool, error) {
	set, err := s.OptionalSet(ctx, hospitalType)
	if err != nil {
		return false, err
	}
	return !set[docName], nil
}

// SetOptionalDocs replaces a hospital type's optional set, then resyncs the
// required flag on every document of every non-deleted request owned by a
// hospital of that type. The resync covers the full catalog, not just the
// changed names: a document dropped from the optional set must flip back to
// required on in-flight requests. Per-document admin overrides survive the
// resync.
func (s *Service) SetOptionalDocs(ctx context.Context, hospitalType string, names []string) error {
	if hospitalType == "" {
		return apperr.Validationf("hospital type is required")
	}
	for _, name := range names {
		if _, err := s.repo.GetType(ctx, name); err != nil {
			return apperr.Validationf("unknown document type %q", name)
		}
	}
	// The mapping write and the resync commit together; a failed resync
	// rolls back the stored set.
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetOptionalDocs(ctx, hospitalType, names); err != nil {
			return err
		}
		return s.resyncer.ResyncRequired(ctx, hospitalType, names)
	})
}
