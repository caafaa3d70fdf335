package checkin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayload(t *testing.T) {
	p := BuildPayload("http://kiosk.example.com/", "tok-abc.1h2j3k", "TCH001", 1700000000000)

	assert.Equal(t, 1, p.V)
	assert.Equal(t, PayloadType, p.Type)
	assert.Equal(t, "tok-abc.1h2j3k", p.Token)
	assert.Equal(t, int64(1700000000000), p.Exp)
	assert.Equal(t, "TCH001", p.StaffID)
	assert.Contains(t, p.URL, "http://kiosk.example.com/staff/attendance/check-in?")
	assert.Contains(t, p.URL, "token=tok-abc.1h2j3k")
	assert.Contains(t, p.URL, "staffId=TCH001")
}

func TestBuildPayloadWithoutStaffID(t *testing.T) {
	p := BuildPayload("http://kiosk.example.com", "tok-abc.1h2j3k", "", 0)
	assert.Empty(t, p.StaffID)
	assert.NotContains(t, p.URL, "staffId")
}

func TestDecodeJSONEnvelope(t *testing.T) {
	payload := BuildPayload("http://kiosk.example.com", "tok-abc.1h2j3k", "TCH001", 1700000000000)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	d := Decode(string(raw))
	assert.Equal(t, "tok-abc.1h2j3k", d.Token)
	assert.Equal(t, "TCH001", d.StaffID)
}

func TestDecodeJSONWithOnlyURL(t *testing.T) {
	d := Decode(`{"url": "http://kiosk.example.com/staff/attendance/check-in?token=tok-abc.1h2j3k&staffId=TCH001"}`)
	assert.Equal(t, "tok-abc.1h2j3k", d.Token)
	assert.Equal(t, "TCH001", d.StaffID)
}

func TestDecodeBareURL(t *testing.T) {
	d := Decode("http://kiosk.example.com/staff/attendance/check-in?token=tok-abc.1h2j3k&staffId=TCH001")
	assert.Equal(t, "tok-abc.1h2j3k", d.Token)
	assert.Equal(t, "TCH001", d.StaffID)
}

func TestDecodeRawToken(t *testing.T) {
	raw := "4f9d2c81-7b1a-4f7e-9c3b-d8e5a1b2c3d4.1h2j3k4m"
	d := Decode(raw)
	assert.Equal(t, raw, d.Token)
	assert.Empty(t, d.StaffID)
}

func TestDecodeAllFormatsAgree(t *testing.T) {
	token := Issue()
	payload := BuildPayload("http://kiosk.example.com", token, "TCH001", 0)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	fromJSON := Decode(string(raw))
	fromURL := Decode(payload.URL)
	assert.Equal(t, fromJSON, fromURL)
}

func TestDecodeNoMatch(t *testing.T) {
	for _, raw := range []string{"", "   ", "short", `{"note": "no token here"}`} {
		d := Decode(raw)
		assert.Empty(t, d.Token, "input %q", raw)
		assert.Empty(t, d.StaffID, "input %q", raw)
	}
}
