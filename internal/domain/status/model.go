package status

import "time"

// Incomplete is the distinguished placeholder status every request starts in.
// It is not part of the configurable registry and can never be deleted.
const Incomplete = "incomplete"

// RequirementsNotMet is the conventional name of the configured status
// reviewers use to send a request back to the hospital. Requests in this
// status stay editable by the hospital.
const RequirementsNotMet = "requirements_not_met"

// Setting maps to the request_statuses + status_settings tables: one
// configured status and its three behavior flags.
type Setting struct {
	Name                 string    `db:"name" json:"name"`
	DisplayOrder         int       `db:"display_order" json:"display_order"`
	PreventsNewRequest   bool      `db:"prevents_new_request" json:"prevents_new_request"`
	BlocksServiceForDays int       `db:"blocks_service_for_days" json:"blocks_service_for_days"`
	IsFinalState         bool      `db:"is_final_state" json:"is_final_state"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// Behavior is the per-status flag set consulted on every lifecycle decision.
// The zero value is the safe default for a status with no settings row.
type Behavior struct {
	PreventsNewRequest   bool `json:"prevents_new_request"`
	BlocksServiceForDays int  `json:"blocks_service_for_days"`
	IsFinalState         bool `json:"is_final_state"`
}

func (s *Setting) Behavior() Behavior {
	return Behavior{
		PreventsNewRequest:   s.PreventsNewRequest,
		BlocksServiceForDays: s.BlocksServiceForDays,
		IsFinalState:         s.IsFinalState,
	}
}
