package request

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/contrack/contrack/internal/domain/status"
)

const (
	ReasonOpenRequest    = "open request exists"
	ReasonCooldownActive = "cooldown active"
)

// Gate decides whether a hospital may open a new request for a service. It
// is a read-only decision function over the status registry and the pair's
// request history; soft-deleted requests never count.
type Gate struct {
	repo     Repository
	registry Registry
	now      func() time.Time
}

func NewGate(repo Repository, registry Registry) *Gate {
	return &Gate{repo: repo, registry: registry, now: time.Now}
}

// CanCreate applies the two blocking rules in order. An open request in a
// prevents-new-request status denies outright. A closed request in a
// cooldown status denies while its configured per-status window, counted
// from closedAt, has not yet elapsed.
func (g *Gate) CanCreate(ctx context.Context, hospitalID, serviceID uuid.UUID) (Decision, error) {
	blocking, err := g.registry.BlockingStatuses(ctx)
	if err != nil {
		return Decision{}, err
	}
	// A request still being drafted always counts as open, even though the
	// Incomplete placeholder carries no configured behavior.
	open, err := g.repo.ExistsActiveWithStatus(ctx, hospitalID, serviceID,
		append(names(blocking), status.Incomplete))
	if err != nil {
		return Decision{}, err
	}
	if open {
		return Decision{Allowed: false, Reason: ReasonOpenRequest}, nil
	}

	cooldown, err := g.registry.CooldownStatuses(ctx)
	if err != nil {
		return Decision{}, err
	}
	if len(cooldown) > 0 {
		statuses := make([]string, 0, len(cooldown))
		for name := range cooldown {
			statuses = append(statuses, name)
		}
		closed, err := g.repo.ListClosedWithStatus(ctx, hospitalID, serviceID, statuses)
		if err != nil {
			return Decision{}, err
		}
		now := g.now()
		for _, r := range closed {
			if r.ClosedAt == nil {
				continue
			}
			days := cooldown[r.Status]
			if now.Before(r.ClosedAt.AddDate(0, 0, days)) {
				return Decision{Allowed: false, Reason: ReasonCooldownActive}, nil
			}
		}
	}

	return Decision{Allowed: true}, nil
}

func names(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	return out
}
