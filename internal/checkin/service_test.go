package checkin

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTTL = 2 * time.Minute

func newTestService(t *testing.T, now time.Time) (*Service, *Memory) {
	t.Helper()
	mem := NewMemory()
	svc := NewService(mem, mem, testTTL)
	svc.now = func() time.Time { return now }

	_, err := mem.UpsertStaff(context.Background(), Staff{StaffID: "TCH001"})
	require.NoError(t, err)
	return svc, mem
}

func TestCheckInRecordsAttendance(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc, mem := newTestService(t, t0.Add(30*time.Second))

	// Round-trip the token through a scanned JSON payload first.
	token := IssueAt(t0)
	raw, err := json.Marshal(BuildPayload("http://kiosk.local", token, "TCH001", t0.Add(time.Minute).UnixMilli()))
	require.NoError(t, err)
	d := Decode(string(raw))
	require.Equal(t, token, d.Token)

	res, err := svc.CheckIn(context.Background(), d.StaffID, d.Token)
	require.NoError(t, err)
	assert.Equal(t, MsgRecorded, res.Message)
	assert.True(t, res.Created)
	assert.Equal(t, StatusPresent, res.Record.Status)
	assert.Equal(t, DayStartUTC(t0), res.Record.Day)

	records, err := mem.FindRecords(context.Background(), "TCH001", DayStartUTC(t0), DayStartUTC(t0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCheckInMissingInput(t *testing.T) {
	svc, _ := newTestService(t, time.Now())

	_, err := svc.CheckIn(context.Background(), "", IssueAt(time.Now()))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.CheckIn(context.Background(), "TCH001", "  ")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestCheckInMalformedToken(t *testing.T) {
	svc, _ := newTestService(t, time.Now())

	_, err := svc.CheckIn(context.Background(), "TCH001", "no-dot-here")
	assert.ErrorIs(t, err, ErrTokenFormat)

	_, err = svc.CheckIn(context.Background(), "TCH001", "abc.!!!")
	assert.ErrorIs(t, err, ErrTokenTimestamp)
}

func TestCheckInFreshnessBoundary(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		issuedAt time.Time
		ok       bool
	}{
		{"just inside TTL", now.Add(-testTTL + time.Millisecond), true},
		{"exactly at TTL", now.Add(-testTTL), true},
		{"just past TTL", now.Add(-testTTL - time.Millisecond), false},
		{"expired long ago", now.Add(-150 * time.Second), false},
		{"issued in the future", now.Add(5 * time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService(t, now)
			res, err := svc.CheckIn(context.Background(), "TCH001", IssueAt(tc.issuedAt))
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, MsgRecorded, res.Message)
			} else {
				assert.ErrorIs(t, err, ErrTokenExpired)
			}
		})
	}
}

func TestCheckInUnknownStaff(t *testing.T) {
	now := time.Now().UTC()
	svc, _ := newTestService(t, now)

	_, err := svc.CheckIn(context.Background(), "ZZZ999", IssueAt(now))
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestCheckInCaseInsensitiveStaffID(t *testing.T) {
	now := time.Now().UTC()
	svc, _ := newTestService(t, now)

	res, err := svc.CheckIn(context.Background(), "  tch001 ", IssueAt(now))
	require.NoError(t, err)
	assert.Equal(t, MsgRecorded, res.Message)
	assert.Equal(t, "TCH001", res.Record.StaffID)
}

func TestCheckInIdempotentSameDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc, mem := newTestService(t, now)

	res, err := svc.CheckIn(context.Background(), "TCH001", IssueAt(now))
	require.NoError(t, err)
	require.Equal(t, MsgRecorded, res.Message)

	// Second scan the same UTC day, different (mixed-case) spelling.
	res, err = svc.CheckIn(context.Background(), "tch001", IssueAt(now))
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyCheckedIn, res.Message)
	assert.False(t, res.Created)

	day := DayStartUTC(now)
	records, err := mem.FindRecords(context.Background(), "TCH001", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCheckInDuplicateConstraintRace(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc, mem := newTestService(t, now)

	// Simulate the loser of a concurrent double scan: the read gate saw no
	// record, but the insert hits the (staff, day) uniqueness constraint.
	_, err := mem.InsertRecord(context.Background(), Record{
		StaffID:     "TCH001",
		CheckedInAt: now,
	})
	require.NoError(t, err)
	svc.records = readBlindStore{mem}

	res, err := svc.CheckIn(context.Background(), "TCH001", IssueAt(now))
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyCheckedIn, res.Message)
	assert.False(t, res.Created)
}

func TestCheckInNextDayAllowedAgain(t *testing.T) {
	day1 := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	svc, _ := newTestService(t, day1)

	res, err := svc.CheckIn(context.Background(), "TCH001", IssueAt(day1))
	require.NoError(t, err)
	require.Equal(t, MsgRecorded, res.Message)

	// Two minutes later it is the next UTC day and a fresh check-in counts.
	day2 := day1.Add(2 * time.Minute)
	svc.now = func() time.Time { return day2 }
	res, err = svc.CheckIn(context.Background(), "TCH001", IssueAt(day2))
	require.NoError(t, err)
	assert.Equal(t, MsgRecorded, res.Message)
	assert.Equal(t, DayStartUTC(day2), res.Record.Day)
}

// readBlindStore hides existing records from the duplicate-check read so the
// insert path has to rely on the uniqueness constraint.
type readBlindStore struct {
	*Memory
}

func (s readBlindStore) FindRecords(context.Context, string, time.Time, time.Time) ([]Record, error) {
	return nil, nil
}
