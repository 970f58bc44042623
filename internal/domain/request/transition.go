package request

import "time"

// deriveClosedAt computes the closure timestamp resulting from a status
// write. It is applied uniformly on every transition so the invariant
// "closedAt is non-null iff the current status is terminal" holds everywhere
// status is written.
//
// A terminal destination stamps now, except when the status is unchanged and
// the request is already closed, in which case the original closure time is
// kept. A non-terminal destination clears any earlier closure (the request
// was reopened).
func deriveClosedAt(current *time.Time, sameStatus, destTerminal bool, now time.Time) *time.Time {
	if !destTerminal {
		return nil
	}
	if sameStatus && current != nil {
		return current
	}
	return &now
}
