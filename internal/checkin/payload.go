package checkin

import (
	"encoding/json"
	"net/url"
	"strings"
)

// PayloadType discriminates staff check-in payloads from other QR content.
const PayloadType = "staff_attendance"

// CheckInPath is the deep-link path embedded in the payload URL.
const CheckInPath = "/staff/attendance/check-in"

// ScanPayload is the structure rendered into the QR code. The exp field is
// informational for the scanning device; the server derives freshness from
// the token timestamp alone.
type ScanPayload struct {
	V       int    `json:"v"`
	Type    string `json:"type"`
	Token   string `json:"token"`
	Exp     int64  `json:"exp"`
	StaffID string `json:"staffId,omitempty"`
	URL     string `json:"url"`
}

// BuildPayload wraps a token in the scan envelope with a fallback deep link.
func BuildPayload(origin, token, staffID string, expMillis int64) ScanPayload {
	q := url.Values{}
	q.Set("token", token)
	if staffID != "" {
		q.Set("staffId", staffID)
	}
	return ScanPayload{
		V:       1,
		Type:    PayloadType,
		Token:   token,
		Exp:     expMillis,
		StaffID: staffID,
		URL:     strings.TrimRight(origin, "/") + CheckInPath + "?" + q.Encode(),
	}
}

// Decoded holds whatever could be recovered from scanned or pasted text.
// Both fields are empty when no strategy matched.
type Decoded struct {
	Token   string `json:"token,omitempty"`
	StaffID string `json:"staffId,omitempty"`
}

// minRawTokenLen guards the raw fallback against stray short strings.
const minRawTokenLen = 10

// Decode recovers (token, staffId) from scanned or pasted text. The same
// flow has to accept a JSON-encoded QR, a deep link, or a bare token pasted
// by hand, so strategies are tried in order and the first match wins.
// Nothing matching is not an error here; validation happens downstream.
func Decode(raw string) Decoded {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Decoded{}
	}
	if d, claimed := decodeJSON(raw); claimed {
		return d
	}
	if d, ok := decodeURL(raw); ok {
		return d
	}
	if d, ok := decodeRaw(raw); ok {
		return d
	}
	return Decoded{}
}

// decodeJSON claims any input that parses as JSON, even when nothing usable
// is inside; valid JSON must not fall through to the raw-token fallback.
func decodeJSON(raw string) (Decoded, bool) {
	var env struct {
		Token   string `json:"token"`
		StaffID string `json:"staffId"`
		URL     string `json:"url"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Decoded{}, false
	}
	if env.Token != "" {
		return Decoded{Token: env.Token, StaffID: env.StaffID}, true
	}
	if env.URL != "" {
		if d, ok := decodeURL(env.URL); ok {
			return d, true
		}
	}
	return Decoded{}, true
}

func decodeURL(raw string) (Decoded, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Decoded{}, false
	}
	q := u.Query()
	if q.Get("token") == "" {
		return Decoded{}, false
	}
	return Decoded{Token: q.Get("token"), StaffID: q.Get("staffId")}, true
}

func decodeRaw(raw string) (Decoded, bool) {
	if len(raw) <= minRawTokenLen {
		return Decoded{}, false
	}
	return Decoded{Token: raw}, true
}
