package status

import (
	"context"
	"sync"

	"github.com/contrack/contrack/internal/apperr"
)

// TxRunner executes fn atomically. The production runner wraps db.WithTx;
// a nil runner degrades to calling fn directly.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service is the status registry. It owns the configured status list and the
// cached behavior-set views the eligibility gate reads on every decision;
// every mutation invalidates the cache. Callers hold a reference to the
// service, never a global.
type Service struct {
	repo  Repository
	usage UsageChecker
	runTx TxRunner

	mu    sync.RWMutex
	cache *behaviorSets
}

// behaviorSets is a snapshot of the registry views derived from one List.
type behaviorSets struct {
	ordered  []string
	blocking map[string]bool
	cooldown map[string]int // status name -> blocking window in days
	terminal map[string]bool
}

func NewService(repo Repository, usage UsageChecker, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{repo: repo, usage: usage, runTx: runTx}
}

func (s *Service) List(ctx context.Context) ([]*Setting, error) {
	return s.repo.List(ctx)
}

// Behavior returns the flag set for a status. A status with no registry
// entry, including the distinguished Incomplete placeholder, reads as the
// zero behavior rather than an error.
func (s *Service) Behavior(ctx context.Context, name string) (Behavior, error) {
	sets, err := s.sets(ctx)
	if err != nil {
		return Behavior{}, err
	}
	return Behavior{
		PreventsNewRequest:   sets.blocking[name],
		BlocksServiceForDays: sets.cooldown[name],
		IsFinalState:         sets.terminal[name],
	}, nil
}

// Names returns the configured status names in display order.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	sets, err := s.sets(ctx)
	if err != nil {
		return nil, err
	}
	return sets.ordered, nil
}

// First returns the initial review status: the first entry of the ordered
// registry, which is where a submitted request lands.
func (s *Service) First(ctx context.Context) (string, error) {
	sets, err := s.sets(ctx)
	if err != nil {
		return "", err
	}
	if len(sets.ordered) == 0 {
		return "", apperr.Validationf("no statuses configured")
	}
	return sets.ordered[0], nil
}

// IsKnown reports whether name is a configured status or Incomplete.
func (s *Service) IsKnown(ctx context.Context, name string) (bool, error) {
	if name == Incomplete {
		return true, nil
	}
	sets, err := s.sets(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range sets.ordered {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// BlockingStatuses returns the statuses that prevent opening a new request.
func (s *Service) BlockingStatuses(ctx context.Context) (map[string]bool, error) {
	sets, err := s.sets(ctx)
	if err != nil {
		return nil, err
	}
	return sets.blocking, nil
}

// CooldownStatuses returns the statuses that block resubmission after
// closure, mapped to their configured blocking window in days.
func (s *Service) CooldownStatuses(ctx context.Context) (map[string]int, error) {
	sets, err := s.sets(ctx)
	if err != nil {
		return nil, err
	}
	return sets.cooldown, nil
}

// HospitalEditable returns the statuses from which the owning hospital may
// still edit, upload to, submit, or hard-delete its request: Incomplete, the
// initial review status, and the requirements-not-met status.
func (s *Service) HospitalEditable(ctx context.Context) (map[string]bool, error) {
	editable := map[string]bool{Incomplete: true, RequirementsNotMet: true}
	first, err := s.First(ctx)
	if err == nil {
		editable[first] = true
	}
	return editable, nil
}

func (s *Service) Upsert(ctx context.Context, setting *Setting) error {
	if setting.Name == "" {
		return apperr.Validationf("status name is required")
	}
	if setting.Name == Incomplete {
		return apperr.Validationf("status %q is reserved", Incomplete)
	}
	if setting.BlocksServiceForDays < 0 {
		return apperr.Validationf("blocks_service_for_days must not be negative")
	}
	// Upsert touches both the status row and its settings row; the pair
	// commits as one unit.
	err := s.runTx(ctx, func(ctx context.Context) error {
		return s.repo.Upsert(ctx, setting)
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Delete removes a status from the registry. It fails with a conflict while
// any non-deleted request still carries the status, and the Incomplete
// placeholder can never be removed.
func (s *Service) Delete(ctx context.Context, name string) error {
	if name == Incomplete {
		return apperr.Validationf("status %q cannot be deleted", Incomplete)
	}
	if _, err := s.repo.Get(ctx, name); err != nil {
		return apperr.NotFoundf("status %q", name)
	}
	n, err := s.usage.CountActiveByStatus(ctx, name)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflictf("status %q is used by %d request(s)", name, n)
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, name)
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *Service) sets(ctx context.Context) (*behaviorSets, error) {
	s.mu.RLock()
	cached := s.cache
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	sets := &behaviorSets{
		blocking: make(map[string]bool),
		cooldown: make(map[string]int),
		terminal: make(map[string]bool),
	}
	for _, st := range settings {
		sets.ordered = append(sets.ordered, st.Name)
		if st.PreventsNewRequest {
			sets.blocking[st.Name] = true
		}
		if st.BlocksServiceForDays > 0 {
			sets.cooldown[st.Name] = st.BlocksServiceForDays
		}
		if st.IsFinalState {
			sets.terminal[st.Name] = true
		}
	}

	s.mu.Lock()
	s.cache = sets
	s.mu.Unlock()
	return sets, nil
}
