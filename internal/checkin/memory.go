package checkin

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Store for tests and STORE_BACKEND=memory dev runs.
type Memory struct {
	mu      sync.Mutex
	staff   map[string]Staff
	records map[string]Record
	// byDay indexes record ids by staffID + "|" + day for the uniqueness check.
	byDay         map[string]string
	kiosks        map[string]time.Time
	refreshTokens map[string]time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		staff:         make(map[string]Staff),
		records:       make(map[string]Record),
		byDay:         make(map[string]string),
		kiosks:        make(map[string]time.Time),
		refreshTokens: make(map[string]time.Time),
	}
}

var _ Store = (*Memory)(nil)

func dayKey(staffID string, day time.Time) string {
	return staffID + "|" + day.UTC().Format("2006-01-02")
}

func (m *Memory) FindStaff(_ context.Context, staffID string) (*Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.staff[staffID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *Memory) UpsertStaff(_ context.Context, st Staff) (Staff, error) {
	if st.StaffID == "" {
		return Staff{}, errors.New("staff id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := m.staff[st.StaffID]
	if ok {
		if st.Name != nil {
			existing.Name = st.Name
		}
		if st.Email != nil {
			existing.Email = st.Email
		}
		if st.Department != nil {
			existing.Department = st.Department
		}
		existing.UpdatedAt = now
		m.staff[st.StaffID] = existing
		return existing, nil
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	m.staff[st.StaffID] = st
	return st, nil
}

func (m *Memory) ListStaff(_ context.Context) ([]Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Staff, 0, len(m.staff))
	for _, st := range m.staff {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out, nil
}

func (m *Memory) FindRecords(_ context.Context, staffID string, from, to time.Time) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if rec.StaffID != staffID {
			continue
		}
		if rec.CheckedInAt.Before(from) || !rec.CheckedInAt.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckedInAt.Before(out[j].CheckedInAt) })
	return out, nil
}

func (m *Memory) InsertRecord(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

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
	key := dayKey(rec.StaffID, rec.Day)
	if _, exists := m.byDay[key]; exists {
		return Record{}, ErrDuplicateDay
	}
	rec.CreatedAt = time.Now().UTC()
	m.records[rec.ID] = rec
	m.byDay[key] = rec.ID
	return rec, nil
}

func (m *Memory) ListRecords(_ context.Context, f RecordFilter) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	var out []Record
	for _, rec := range m.records {
		if f.StaffID != "" && rec.StaffID != f.StaffID {
			continue
		}
		if !f.From.IsZero() && rec.CheckedInAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !rec.CheckedInAt.Before(f.To) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckedInAt.After(out[j].CheckedInAt) })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) UpsertKiosk(_ context.Context, kioskID string) error {
	if kioskID == "" {
		return errors.New("kiosk id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.kiosks[kioskID]; !ok {
		m.kiosks[kioskID] = time.Now().UTC()
	}
	return nil
}

func (m *Memory) SaveRefreshToken(_ context.Context, kioskID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshTokens[kioskID+"|"+token] = expiresAt
	return nil
}
