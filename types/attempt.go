package types

import (
	"time"
)

// Outcome is the resolved classification of one delivery attempt.
type Outcome string

// The three terminal outcomes, plus Pending for attempts that have
// been sent but not yet resolved by the verification poller.
const (
	Delivered Outcome = "delivered"
	TimedOut  Outcome = "timed_out"
	Errored   Outcome = "errored"
	Pending   Outcome = "pending"
)

// Resolved returns whether o is a terminal outcome.
func (o Outcome) Resolved() bool {
	return o == Delivered || o == TimedOut || o == Errored
}

// DeliveryAttempt is one send/verify cycle: a payload delivered to a
// session by a named strategy, and what the verification poller
// concluded about it.
//
// An attempt is created at send time with Outcome Pending, resolved
// exactly once by the poller, and immutable afterwards. The scenario
// report that recorded it is its sole owner.
type DeliveryAttempt struct {
	// ID is a unique token embedded in Payload. It disambiguates
	// this attempt's text from session noise and from other
	// attempts' leftover output.
	ID string `json:"id"`

	// Strategy is the name of the delivery strategy that produced
	// this attempt.
	Strategy string `json:"strategy"`

	// Scenario is the name of the scenario this attempt belongs to.
	Scenario string `json:"scenario,omitempty"`

	// Lane is the execution lane within the scenario. Lanes are only
	// meaningful for concurrent scenarios; single-lane scenarios use
	// lane 0.
	Lane int `json:"lane,omitempty"`

	// Payload is the exact text sent. It always contains ID. The
	// full text is not serialized; PayloadSize is kept instead so
	// oversized runs stay interpretable.
	Payload string `json:"-"`

	// PayloadSize is len(Payload).
	PayloadSize int `json:"payload_size"`

	// SentAt is when the send began; UTC UnixNano format.
	SentAt int64 `json:"sent_at"`

	// Outcome is the resolved classification.
	Outcome Outcome `json:"outcome"`

	// Elapsed is the wall-clock duration from send to resolution.
	Elapsed time.Duration `json:"elapsed"`

	// ErrorDetail is present only when Outcome is Errored.
	ErrorDetail string `json:"error_detail,omitempty"`
}

// NewAttempt creates a pending attempt stamped with the current time.
func NewAttempt(id, strategy, payload string) DeliveryAttempt {
	return DeliveryAttempt{
		ID:          id,
		Strategy:    strategy,
		Payload:     payload,
		PayloadSize: len(payload),
		SentAt:      Timestamp(),
		Outcome:     Pending,
	}
}

// Attempts is a list of DeliveryAttempt that can be sorted by Elapsed.
type Attempts []DeliveryAttempt

func (a Attempts) Len() int           { return len(a) }
func (a Attempts) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a Attempts) Less(i, j int) bool { return a[i].Elapsed < a[j].Elapsed }
