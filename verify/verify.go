// Package verify implements the observation half of a send/verify
// cycle: polling a session's pane until a sent payload shows up, the
// wait budget runs out, or the driver fails.
package verify

import (
	"context"
	"strings"
	"time"

	"github.com/paneprobe/paneprobe/types"
)

// Default polling parameters.
const (
	DefaultInterval = 500 * time.Millisecond
	DefaultMaxWait  = 10 * time.Second
)

// Capturer is the one driver operation the poller needs.
type Capturer interface {
	CapturePane(ctx context.Context, session string) (string, error)
}

// Verdict is the resolved result of one verification.
type Verdict struct {
	Outcome     types.Outcome
	Elapsed     time.Duration
	ErrorDetail string
}

// Poller polls a session for evidence that a payload arrived.
type Poller struct {
	// Interval is the spacing between pane captures.
	Interval time.Duration

	// MaxWait is the verification deadline. Exceeding it yields
	// TimedOut, a negative result, not an error.
	MaxWait time.Duration
}

// NewPoller creates a Poller, substituting defaults for zero values.
func NewPoller(interval, maxWait time.Duration) Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return Poller{Interval: interval, MaxWait: maxWait}
}

// Verify polls c until the payload is observed in a capture that
// differs from baseline, MaxWait elapses, or a driver call fails.
//
// Containment is substring-based: surrounding echo and formatting
// noise is tolerated, and the unique per-attempt id embedded in the
// payload is what prevents a different attempt's leftover text from
// producing a false positive. Driver failures stop polling
// immediately; the poller never retries on its own.
//
// Cancelling ctx (the run-level timeout) forces the in-flight
// verification to TimedOut with the elapsed time measured so far.
func (p Poller) Verify(ctx context.Context, c Capturer, session, payload, baseline string) Verdict {
	start := time.Now()
	deadline := start.Add(p.MaxWait)

	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Verdict{Outcome: types.TimedOut, Elapsed: time.Since(start)}
		case <-timer.C:
		}

		if time.Now().After(deadline) {
			return Verdict{Outcome: types.TimedOut, Elapsed: time.Since(start)}
		}

		capture, err := c.CapturePane(ctx, session)
		if err != nil {
			return Verdict{
				Outcome:     types.Errored,
				Elapsed:     time.Since(start),
				ErrorDetail: err.Error(),
			}
		}

		if strings.Contains(capture, payload) && capture != baseline {
			return Verdict{Outcome: types.Delivered, Elapsed: time.Since(start)}
		}

		timer.Reset(p.Interval)
	}
}
