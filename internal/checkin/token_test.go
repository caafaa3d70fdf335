package checkin

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

	token := IssueAt(now)
	parts := strings.Split(token, ".")
	require.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])

	issuedAt, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), issuedAt.UnixMilli())
}

func TestIssueTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := Issue()
		assert.False(t, seen[token], "duplicate token issued: %s", token)
		seen[token] = true
	}
}

func TestParseTokenFormat(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrTokenFormat},
		{"no dot", "abcdef123456", ErrTokenFormat},
		{"too many dots", "a.b.c", ErrTokenFormat},
		{"empty random part", ".1h2j3k", ErrTokenFormat},
		{"empty timestamp part", "abc.", ErrTokenFormat},
		{"timestamp not base36", "abc.!!!", ErrTokenTimestamp},
		{"negative timestamp", "abc.-1h2j", ErrTokenTimestamp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseToken(tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
