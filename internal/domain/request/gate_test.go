package request

import (
	"context"
	"testing"
	"time"

	"github.com/contrack/contrack/internal/domain/status"
)

// rejectAt closes a fresh request into the given cooldown status at the
// given time.
func (f *fixture) rejectAt(t *testing.T, statusName string, at time.Time) *Request {
	t.Helper()
	req := f.submitted(t)
	f.setClock(at)
	req, err := f.svc.TransitionStatus(context.Background(), req.ID, statusName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ClosedAt == nil {
		t.Fatal("cooldown status must be terminal and stamp closedAt")
	}
	return req
}

func TestGate_CooldownBlocksWithinWindow(t *testing.T) {
	f := newFixture()
	closedAt := time.Now().AddDate(0, 0, -10)
	f.rejectAt(t, "rejected", closedAt)
	f.setClock(time.Now())

	decision, err := f.svc.CanCreate(context.Background(), f.hospitalID, f.serviceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatal("request rejected 10 days ago must block the pair")
	}
	if decision.Reason != ReasonCooldownActive {
		t.Errorf("expected reason %q, got %q", ReasonCooldownActive, decision.Reason)
	}
}

func TestGate_CooldownExpiresAfterWindow(t *testing.T) {
	f := newFixture()
	closedAt := time.Now().AddDate(0, 0, -91)
	f.rejectAt(t, "rejected", closedAt)
	f.setClock(time.Now())

	decision, err := f.svc.CanCreate(context.Background(), f.hospitalID, f.serviceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("91-day-old rejection must not block a 90-day window: %s", decision.Reason)
	}
}

func TestGate_WindowIsPerStatus(t *testing.T) {
	f := newFixture()
	if err := f.registry.Upsert(context.Background(), &status.Setting{
		Name: "suspended", DisplayOrder: 5, BlocksServiceForDays: 30, IsFinalState: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closedAt := time.Now().AddDate(0, 0, -31)
	f.rejectAt(t, "suspended", closedAt)
	f.setClock(time.Now())

	decision, err := f.svc.CanCreate(context.Background(), f.hospitalID, f.serviceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Error("a 30-day status closed 31 days ago must not block")
	}

	f2 := newFixture()
	if err := f2.registry.Upsert(context.Background(), &status.Setting{
		Name: "suspended", DisplayOrder: 5, BlocksServiceForDays: 30, IsFinalState: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f2.rejectAt(t, "suspended", time.Now().AddDate(0, 0, -29))
	f2.setClock(time.Now())

	decision, err = f2.svc.CanCreate(context.Background(), f2.hospitalID, f2.serviceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("a 30-day status closed 29 days ago must still block")
	}
}

func TestGate_SoftDeletedClosureNeverCounts(t *testing.T) {
	f := newFixture()
	req := f.rejectAt(t, "rejected", time.Now().AddDate(0, 0, -10))
	f.setClock(time.Now())

	if err := f.svc.SoftDelete(context.Background(), req.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decision, err := f.svc.CanCreate(context.Background(), f.hospitalID, f.serviceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Error("soft-deleted request must not hold a cooldown")
	}
}

func TestGate_BoundaryAroundConfiguredWindow(t *testing.T) {
	f := newFixture()
	closeTime := time.Now().AddDate(0, 0, -90)
	f.rejectAt(t, "rejected", closeTime)

	f.setClock(closeTime.AddDate(0, 0, 89))
	decision, err := f.svc.CanCreate(context.Background(), f.hospitalID, f.serviceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Error("day 89 is inside the 90-day window")
	}

	f.setClock(closeTime.AddDate(0, 0, 91))
	decision, err = f.svc.CanCreate(context.Background(), f.hospitalID, f.serviceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Error("day 91 is past the 90-day window")
	}
}
