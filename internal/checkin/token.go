package checkin

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// A check-in token is an opaque bearer credential of the form
// <uuid>.<base36(epoch-ms)>. It is never persisted; freshness is derived
// from the timestamp baked into the token itself.

// Issue returns a fresh token stamped with the current time.
func Issue() string {
	return IssueAt(time.Now())
}

// IssueAt returns a token stamped with the given issue time.
func IssueAt(now time.Time) string {
	return uuid.NewString() + "." + strconv.FormatInt(now.UnixMilli(), 36)
}

// ParseToken extracts the issue time from a token string.
// The token must split into exactly two dot-separated segments and the
// second segment must be a positive base-36 integer.
func ParseToken(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return time.Time{}, ErrTokenFormat
	}
	ms, err := strconv.ParseInt(parts[1], 36, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, ErrTokenTimestamp
	}
	return time.UnixMilli(ms).UTC(), nil
}
