package scenario

import (
	"context"
	"encoding/json"
	"time"

	"github.com/paneprobe/paneprobe/aggregate"
	"github.com/paneprobe/paneprobe/types"
)

// Oversized sends a few payloads far larger than a typical input line,
// measuring size-induced truncation or loss. A truncated payload shows
// up as TimedOut, not Errored: the driver call succeeds, the target
// just never exhibits the full text.
type Oversized struct {
	// Strategy is the delivery strategy name. Run one instance with
	// single-submit and another with chunked to compare.
	Strategy string `json:"strategy,omitempty"`

	// Count is how many oversized payloads to send.
	Count int `json:"count,omitempty"`

	// Size is the payload size in bytes.
	Size int `json:"size,omitempty"`

	// Spacing is the delay between sends; oversized payloads need
	// room to render.
	Spacing time.Duration `json:"spacing,omitempty"`
}

// NewOversized creates an Oversized scenario based on json config.
func NewOversized(config json.RawMessage) (Oversized, error) {
	o := Oversized{
		Strategy: "single-submit",
		Count:    3,
		Size:     10000,
		Spacing:  2 * time.Second,
	}
	if len(config) == 0 {
		return o, nil
	}
	err := json.Unmarshal(config, &o)
	return o, err
}

// Type returns the scenario type name.
func (Oversized) Type() string { return TypeOversized }

// Run executes the oversized sends single-lane.
func (o Oversized) Run(ctx context.Context, env Env) (types.ScenarioReport, error) {
	c := aggregate.NewCollector(TypeOversized, marshalParams(o))

	strat, err := resolveStrategy(o.Strategy)
	if err != nil {
		return c.Abort(err.Error()), err
	}

	for i := 0; i < o.Count; i++ {
		if ctx.Err() != nil {
			break
		}
		id, payload := buildPayload(TypeOversized, 0, i, o.Size)
		runAttempt(ctx, env, strat, 0, id, payload, c)
		env.pause(ctx, o.Spacing)
	}
	return c.Close(), nil
}
