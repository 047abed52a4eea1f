package scenario

import (
	"context"
	"encoding/json"
	"time"

	"github.com/paneprobe/paneprobe/aggregate"
	"github.com/paneprobe/paneprobe/types"
)

// Contended occupies the target first with one large busy-making
// payload, then sends N small payloads in quick succession, measuring
// delivery under target-side backpressure.
type Contended struct {
	// Strategy is the delivery strategy name for the small payloads.
	Strategy string `json:"strategy,omitempty"`

	// Count is how many small payloads to send while the target is
	// busy.
	Count int `json:"count,omitempty"`

	// Spacing is the delay between the small sends.
	Spacing time.Duration `json:"spacing,omitempty"`

	// BusySize is the size of the busy-making payload.
	BusySize int `json:"busy_size,omitempty"`

	// BusyWait is how long to let the target start chewing on the
	// busy payload before the probes begin.
	BusyWait time.Duration `json:"busy_wait,omitempty"`
}

// NewContended creates a Contended scenario based on json config.
func NewContended(config json.RawMessage) (Contended, error) {
	c := Contended{
		Strategy: "double-submit",
		Count:    10,
		Spacing:  500 * time.Millisecond,
		BusySize: 2000,
		BusyWait: 2 * time.Second,
	}
	if len(config) == 0 {
		return c, nil
	}
	err := json.Unmarshal(config, &c)
	return c, err
}

// Type returns the scenario type name.
func (Contended) Type() string { return TypeContended }

// Run sends the busy payload (setup, not an attempt: it is neither
// verified nor recorded), waits for the target to get busy, then runs
// the probe attempts single-lane.
func (co Contended) Run(ctx context.Context, env Env) (types.ScenarioReport, error) {
	c := aggregate.NewCollector(TypeContended, marshalParams(co))

	strat, err := resolveStrategy(co.Strategy)
	if err != nil {
		return c.Abort(err.Error()), err
	}

	busyStrat, err := resolveStrategy("single-submit")
	if err != nil {
		return c.Abort(err.Error()), err
	}

	_, busyPayload := buildPayload(TypeContended, 0, -1, co.BusySize)
	if err := busyStrat.Deliver(ctx, env.Driver, env.Session, busyPayload); err != nil {
		reason := "busy payload send: " + err.Error()
		return c.Abort(reason), err
	}
	env.pause(ctx, co.BusyWait)

	for i := 0; i < co.Count; i++ {
		if ctx.Err() != nil {
			break
		}
		id, payload := buildPayload(TypeContended, 0, i, 0)
		runAttempt(ctx, env, strat, 0, id, payload, c)
		env.pause(ctx, co.Spacing)
	}
	return c.Close(), nil
}
