package checkin

import "errors"

// Validation errors surfaced to the caller. Every rejection carries a
// specific, user-facing message because expired codes and mistyped IDs are
// routine, not exceptional.
var (
	ErrMissingField   = errors.New("staff id and token are required")
	ErrTokenFormat    = errors.New("invalid code format, scan again")
	ErrTokenTimestamp = errors.New("invalid code timestamp, scan again")
	ErrTokenExpired   = errors.New("code expired, ask for a fresh one")
	ErrStaffNotFound  = errors.New("staff id not found, complete onboarding first")

	// ErrDuplicateDay is returned by stores when a same-day record already
	// exists for the staff member. The service maps it to idempotent success,
	// never to a user-visible failure.
	ErrDuplicateDay = errors.New("attendance already recorded for this day")
)
