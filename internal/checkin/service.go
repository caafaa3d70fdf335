package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StatusPresent is the only status this flow records.
const StatusPresent = "Present"

// User-facing messages for the two success outcomes. Re-scanning after a
// successful check-in must never alarm the user, so the duplicate path is
// success with a different message, not an error.
const (
	MsgRecorded         = "Attendance recorded"
	MsgAlreadyCheckedIn = "Already checked in for today"
)

// Staff is a member of the staff directory.
type Staff struct {
	StaffID    string    `json:"staff_id"`
	Name       *string   `json:"name,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Department *string   `json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Record is a persisted attendance check-in. Day is the UTC calendar day of
// CheckedInAt; at most one record exists per (staff, day).
type Record struct {
	ID          string    `json:"id"`
	StaffID     string    `json:"staff_id"`
	Status      string    `json:"status"`
	CheckedInAt time.Time `json:"checked_in_at"`
	Day         time.Time `json:"day"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordFilter narrows attendance history listings.
type RecordFilter struct {
	StaffID string
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

// StaffDirectory resolves canonical staff identifiers.
type StaffDirectory interface {
	// FindStaff returns nil, nil when the id is not in the directory.
	FindStaff(ctx context.Context, staffID string) (*Staff, error)
}

// AttendanceStore persists check-in records.
type AttendanceStore interface {
	// FindRecords returns records for a staff member within [from, to).
	FindRecords(ctx context.Context, staffID string, from, to time.Time) ([]Record, error)
	// InsertRecord writes a record, returning ErrDuplicateDay when the
	// (staff, day) uniqueness constraint rejects it.
	InsertRecord(ctx context.Context, rec Record) (Record, error)
}

// Store is the full persistence surface the HTTP layer works against.
type Store interface {
	StaffDirectory
	AttendanceStore
	UpsertStaff(ctx context.Context, st Staff) (Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)
	ListRecords(ctx context.Context, f RecordFilter) ([]Record, error)
	UpsertKiosk(ctx context.Context, kioskID string) error
	SaveRefreshToken(ctx context.Context, kioskID, token string, expiresAt time.Time) error
}

// NormalizeStaffID trims and upper-cases an identifier to its canonical form.
func NormalizeStaffID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// DayStartUTC returns midnight UTC of the day containing t.
func DayStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Service makes the authoritative accept/reject decision for check-ins.
type Service struct {
	staff   StaffDirectory
	records AttendanceStore
	ttl     time.Duration
	now     func() time.Time
}

// NewService creates a validator with the given server-side token TTL.
func NewService(staff StaffDirectory, records AttendanceStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Service{staff: staff, records: records, ttl: ttl, now: time.Now}
}

// Result is the outcome of an accepted check-in.
type Result struct {
	Message string
	Record  Record
	Created bool
}

// CheckIn runs the gate pipeline: input presence, token format, freshness,
// staff resolution, same-day duplicate, insert. Gates run strictly in order
// and the first failure returns immediately.
func (s *Service) CheckIn(ctx context.Context, staffID, token string) (Result, error) {
	staffID = NormalizeStaffID(staffID)
	token = strings.TrimSpace(token)
	if staffID == "" || token == "" {
		return Result{}, ErrMissingField
	}

	issuedAt, err := ParseToken(token)
	if err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	// Negative age means a clock ahead of ours or a forged timestamp;
	// reject it the same way as a stale token.
	if age := now.Sub(issuedAt); age < 0 || age > s.ttl {
		return Result{}, ErrTokenExpired
	}

	st, err := s.staff.FindStaff(ctx, staffID)
	if err != nil {
		return Result{}, fmt.Errorf("staff lookup: %w", err)
	}
	if st == nil {
		return Result{}, ErrStaffNotFound
	}

	dayStart := DayStartUTC(now)
	existing, err := s.records.FindRecords(ctx, staffID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return Result{}, fmt.Errorf("attendance lookup: %w", err)
	}
	if len(existing) > 0 {
		return Result{Message: MsgAlreadyCheckedIn, Record: existing[0]}, nil
	}

	rec, err := s.records.InsertRecord(ctx, Record{
		StaffID:     staffID,
		Status:      StatusPresent,
		CheckedInAt: now,
		Day:         dayStart,
	})
	if err != nil {
		// A concurrent double scan can pass the read gate twice; the
		// (staff, day) uniqueness constraint breaks the tie and the loser
		// still sees the idempotent success message.
		if errors.Is(err, ErrDuplicateDay) {
			return Result{Message: MsgAlreadyCheckedIn}, nil
		}
		return Result{}, fmt.Errorf("attendance insert: %w", err)
	}
	return Result{Message: MsgRecorded, Record: rec, Created: true}, nil
}
