package scenario

import (
	"context"
	"encoding/json"
	"time"

	"github.com/paneprobe/paneprobe/aggregate"
	"github.com/paneprobe/paneprobe/types"
)

// Burst sends N payloads with one strategy at a fixed short spacing,
// measuring throughput degradation under rapid-fire delivery.
type Burst struct {
	// Strategy is the delivery strategy name.
	Strategy string `json:"strategy,omitempty"`

	// Count is how many payloads to send.
	Count int `json:"count,omitempty"`

	// Spacing is the fixed delay between sends.
	Spacing time.Duration `json:"spacing,omitempty"`

	// PayloadSize pads each payload up to this many bytes. Zero
	// leaves payloads at marker size.
	PayloadSize int `json:"payload_size,omitempty"`
}

// NewBurst creates a Burst scenario based on json config.
func NewBurst(config json.RawMessage) (Burst, error) {
	b := Burst{
		Strategy: "single-submit",
		Count:    20,
		Spacing:  100 * time.Millisecond,
	}
	if len(config) == 0 {
		return b, nil
	}
	err := json.Unmarshal(config, &b)
	return b, err
}

// Type returns the scenario type name.
func (Burst) Type() string { return TypeBurst }

// Run executes the burst single-lane: attempt n+1 is not sent until
// attempt n resolves.
func (b Burst) Run(ctx context.Context, env Env) (types.ScenarioReport, error) {
	c := aggregate.NewCollector(TypeBurst, marshalParams(b))

	strat, err := resolveStrategy(b.Strategy)
	if err != nil {
		return c.Abort(err.Error()), err
	}

	for i := 0; i < b.Count; i++ {
		if ctx.Err() != nil {
			break
		}
		id, payload := buildPayload(TypeBurst, 0, i, b.PayloadSize)
		runAttempt(ctx, env, strat, 0, id, payload, c)
		env.pause(ctx, b.Spacing)
	}
	return c.Close(), nil
}
