package scenario

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/paneprobe/paneprobe/aggregate"
	"github.com/paneprobe/paneprobe/types"
)

// Concurrent runs M independent lanes, each sending K payloads against
// the same target session with a fixed strategy. The lanes do not
// synchronize on the session: interleaving corruption between lanes is
// the condition under test, and the per-attempt id in each payload is
// what keeps output attributable.
type Concurrent struct {
	// Strategy is the delivery strategy name.
	Strategy string `json:"strategy,omitempty"`

	// Lanes is the number of parallel execution lanes.
	Lanes int `json:"lanes,omitempty"`

	// PerLane is how many payloads each lane sends sequentially.
	PerLane int `json:"per_lane,omitempty"`

	// Spacing is the delay between sends within one lane. There is
	// no cross-lane coordination of any kind.
	Spacing time.Duration `json:"spacing,omitempty"`
}

// NewConcurrent creates a Concurrent scenario based on json config.
func NewConcurrent(config json.RawMessage) (Concurrent, error) {
	c := Concurrent{
		Strategy: "double-submit",
		Lanes:    3,
		PerLane:  4,
		Spacing:  200 * time.Millisecond,
	}
	if len(config) == 0 {
		return c, nil
	}
	err := json.Unmarshal(config, &c)
	return c, err
}

// Type returns the scenario type name.
func (Concurrent) Type() string { return TypeConcurrent }

// Run starts the lanes and blocks until all of them finish or the run
// context is cancelled. Within a lane attempts are strictly
// sequential; across lanes there is no ordering guarantee.
func (cc Concurrent) Run(ctx context.Context, env Env) (types.ScenarioReport, error) {
	c := aggregate.NewCollector(TypeConcurrent, marshalParams(cc))

	strat, err := resolveStrategy(cc.Strategy)
	if err != nil {
		return c.Abort(err.Error()), err
	}
	if cc.Lanes < 1 || cc.PerLane < 1 {
		return c.Abort("concurrent scenario needs at least one lane and one payload per lane"), errBadPlan
	}

	var wg sync.WaitGroup
	for lane := 0; lane < cc.Lanes; lane++ {
		wg.Add(1)
		go func(lane int) {
			defer wg.Done()
			for i := 0; i < cc.PerLane; i++ {
				if ctx.Err() != nil {
					return
				}
				id, payload := buildPayload(TypeConcurrent, lane, i, 0)
				runAttempt(ctx, env, strat, lane, id, payload, c)
				env.pause(ctx, cc.Spacing)
			}
		}(lane)
	}
	wg.Wait()

	return c.Close(), nil
}
