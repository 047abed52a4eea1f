// Package scenario generates batches of delivery attempts that
// simulate named stress conditions against one target session. Each
// scenario resolves strategies from the registry, drives send/verify
// cycles, and hands resolved attempts to a collector.
package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paneprobe/paneprobe/aggregate"
	"github.com/paneprobe/paneprobe/strategy"
	"github.com/paneprobe/paneprobe/types"
	"github.com/paneprobe/paneprobe/verify"
)

// Driver is the session driver surface scenarios need: everything a
// strategy may call, plus pane capture for baselines.
type Driver interface {
	strategy.Driver
	verify.Capturer
}

// Scenario produces one ScenarioReport by executing a plan of
// (strategy, payload) pairs with a concurrency and timing profile.
type Scenario interface {
	// Type is the scenario name used in configuration and reports.
	Type() string

	// Run executes the scenario. Attempt-level failures never
	// produce an error; a non-nil error means the generator itself
	// failed, and the returned report carries the Aborted reason
	// alongside whatever attempts resolved before the failure.
	Run(ctx context.Context, env Env) (types.ScenarioReport, error)
}

// Env carries the collaborators a scenario drives.
type Env struct {
	Driver  Driver
	Poller  verify.Poller
	Session string

	sleep func(ctx context.Context, d time.Duration)
}

// NewEnv creates an Env for live runs.
func NewEnv(d Driver, p verify.Poller, session string) Env {
	return Env{Driver: d, Poller: p, Session: session}
}

func (e Env) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	if e.sleep != nil {
		e.sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// fillerSentence pads payloads to a requested size. The content is
// inert prose so an echoing target renders it without side effects.
const fillerSentence = "This is filler text used to exercise input delivery with realistic message bulk. "

// buildPayload composes one attempt's payload: a marker carrying the
// scenario name, lane, sequence number, and a unique id, padded with
// filler up to minSize. The id is what verification keys on.
func buildPayload(scenario string, lane, seq, minSize int) (id, payload string) {
	id = strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	payload = fmt.Sprintf("PROBE_%s_L%d_N%d_%s: delivery check", strings.ToUpper(scenario), lane, seq, id)

	if pad := minSize - len(payload); pad > 0 {
		var b strings.Builder
		b.Grow(minSize)
		b.WriteString(payload)
		for b.Len() < minSize {
			b.WriteString(fillerSentence)
		}
		payload = b.String()[:minSize]
	}
	return id, payload
}

// runAttempt performs one full send/verify cycle and records the
// resolved attempt. It never returns an error: driver failures resolve
// the attempt as Errored and the lane moves on. A failure after the
// run deadline has passed is not the driver's fault, so those attempts
// resolve TimedOut, matching what the poller reports when the deadline
// lands during verification.
func runAttempt(ctx context.Context, env Env, s strategy.Strategy, lane int, id, payload string, c *aggregate.Collector) {
	attempt := types.NewAttempt(id, s.Name(), payload)
	attempt.Lane = lane
	start := time.Now()

	baseline, err := env.Driver.CapturePane(ctx, env.Session)
	if err != nil {
		attempt.Outcome = failureOutcome(ctx)
		attempt.Elapsed = time.Since(start)
		attempt.ErrorDetail = fmt.Sprintf("baseline capture: %v", err)
		c.Record(attempt)
		return
	}

	if err := s.Deliver(ctx, env.Driver, env.Session, payload); err != nil {
		attempt.Outcome = failureOutcome(ctx)
		attempt.Elapsed = time.Since(start)
		attempt.ErrorDetail = fmt.Sprintf("send: %v", err)
		c.Record(attempt)
		return
	}

	verdict := env.Poller.Verify(ctx, env.Driver, env.Session, payload, baseline)
	attempt.Outcome = verdict.Outcome
	attempt.Elapsed = time.Since(start)
	attempt.ErrorDetail = verdict.ErrorDetail
	c.Record(attempt)
}

// failureOutcome classifies a failed send or capture: TimedOut when
// the run context is already done, Errored otherwise.
func failureOutcome(ctx context.Context) types.Outcome {
	if ctx.Err() != nil {
		return types.TimedOut
	}
	return types.Errored
}

// marshalParams serializes a scenario's own configuration for its
// report. Serialization of a plain config struct cannot fail; a nil
// result just leaves Params empty.
func marshalParams(s Scenario) json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return b
}

// errBadPlan marks generator misconfigurations that abort a scenario
// before any attempt is sent.
var errBadPlan = fmt.Errorf("invalid scenario plan")

// resolveStrategy looks a strategy up by name, tagging failures as
// generator misconfiguration.
func resolveStrategy(name string) (strategy.Strategy, error) {
	s, err := strategy.ByName(name)
	if err != nil {
		return nil, fmt.Errorf("scenario misconfigured: %w", err)
	}
	return s, nil
}

// Scenario type names.
const (
	TypeBurst      = "burst"
	TypeConcurrent = "concurrent"
	TypeOversized  = "oversized"
	TypeContended  = "contended"
	TypeHostLoad   = "hostload"
	TypeSweep      = "sweep"
)

// New creates a scenario of the named type from raw JSON parameters.
func New(typeName string, config json.RawMessage) (Scenario, error) {
	switch typeName {
	case TypeBurst:
		return NewBurst(config)
	case TypeConcurrent:
		return NewConcurrent(config)
	case TypeOversized:
		return NewOversized(config)
	case TypeContended:
		return NewContended(config)
	case TypeHostLoad:
		return NewHostLoad(config)
	case TypeSweep:
		return NewSweep(config)
	default:
		return nil, fmt.Errorf("unknown scenario type %q", typeName)
	}
}
