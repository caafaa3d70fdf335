package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check-in outcome labels.
const (
	OutcomeRecorded  = "recorded"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// CheckInAttempts counts check-in attempts by outcome.
var CheckInAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "checkin_attempts_total",
	Help: "Check-in attempts by outcome.",
}, []string{"outcome"})

// TokensIssued counts QR tokens issued.
var TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
	Name: "checkin_tokens_issued_total",
	Help: "Check-in tokens issued.",
})
