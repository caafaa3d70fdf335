package checkin

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists staff and attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// FindStaff looks up a staff member by canonical id.
func (r *Repository) FindStaff(ctx context.Context, staffID string) (*Staff, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT staff_id, name, email, department, created_at, updated_at
		FROM staff WHERE staff_id = $1
	`, staffID)
	var st Staff
	if err := row.Scan(&st.StaffID, &st.Name, &st.Email, &st.Department, &st.CreatedAt, &st.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// UpsertStaff creates or updates a staff directory entry.
func (r *Repository) UpsertStaff(ctx context.Context, st Staff) (Staff, error) {
	if st.StaffID == "" {
		return Staff{}, errors.New("staff id required")
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO staff (staff_id, name, email, department)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (staff_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, staff.name),
			email = COALESCE(EXCLUDED.email, staff.email),
			department = COALESCE(EXCLUDED.department, staff.department),
			updated_at = NOW()
		RETURNING staff_id, name, email, department, created_at, updated_at
	`, st.StaffID, st.Name, st.Email, st.Department)
	var out Staff
	if err := row.Scan(&out.StaffID, &out.Name, &out.Email, &out.Department, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return Staff{}, err
	}
	return out, nil
}

// ListStaff returns all staff ordered by id.
func (r *Repository) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT staff_id, name, email, department, created_at, updated_at
		FROM staff
		ORDER BY staff_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var st Staff
		if err := rows.Scan(&st.StaffID, &st.Name, &st.Email, &st.Department, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// FindRecords returns a staff member's records within [from, to).
func (r *Repository) FindRecords(ctx context.Context, staffID string, from, to time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, staff_id, status, checked_in_at, attendance_day, created_at
		FROM staff_attendance
		WHERE staff_id = $1 AND checked_in_at >= $2 AND checked_in_at < $3
		ORDER BY checked_in_at
	`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// InsertRecord writes a new attendance record. The unique index on
// (staff_id, attendance_day) turns a concurrent double check-in into
// ErrDuplicateDay rather than a second row.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CheckedInAt.IsZero() {
		rec.CheckedInAt = time.Now().UTC()
	}
	if rec.Day.IsZero() {
		rec.Day = DayStartUTC(rec.CheckedInAt)
	}
	if rec.Status == "" {
		rec.Status = StatusPresent
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO staff_attendance (id, staff_id, status, checked_in_at, attendance_day)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, rec.ID, rec.StaffID, rec.Status, rec.CheckedInAt, rec.Day)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrDuplicateDay
		}
		return Record{}, err
	}
	return rec, nil
}

// ListRecords returns attendance history with basic filters.
func (r *Repository) ListRecords(ctx context.Context, f RecordFilter) ([]Record, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	query := `SELECT id, staff_id, status, checked_in_at, attendance_day, created_at FROM staff_attendance WHERE 1=1`
	args := []any{}
	if f.StaffID != "" {
		args = append(args, f.StaffID)
		query += " AND staff_id = $" + itoa(len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += " AND checked_in_at >= $" + itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += " AND checked_in_at < $" + itoa(len(args))
	}
	args = append(args, f.Limit, f.Offset)
	query += " ORDER BY checked_in_at DESC LIMIT $" + itoa(len(args)-1) + " OFFSET $" + itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// UpsertKiosk ensures a kiosk record exists.
func (r *Repository) UpsertKiosk(ctx context.Context, kioskID string) error {
	if kioskID == "" {
		return errors.New("kiosk id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kiosks (kiosk_id)
		VALUES ($1)
		ON CONFLICT (kiosk_id) DO NOTHING
	`, kioskID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, kioskID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (kiosk_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, kioskID, token, expiresAt)
	return err
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StaffID, &rec.Status, &rec.CheckedInAt, &rec.Day, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
