package scenario

import (
	"context"
	"encoding/json"
	"time"

	"github.com/paneprobe/paneprobe/aggregate"
	"github.com/paneprobe/paneprobe/strategy"
	"github.com/paneprobe/paneprobe/types"
)

// Sweep runs every selected strategy the same number of times and
// lets the run ranking sort them out. With no strategy list it covers
// the whole registry, which is the standard shape for comparing
// strategies head to head.
type Sweep struct {
	// Strategies is the list of strategy names to sweep. Empty means
	// every registered strategy.
	Strategies []string `json:"strategies,omitempty"`

	// Iterations is how many attempts to run per strategy. Kept low
	// by default: a few samples per strategy is enough to separate
	// the reliable ones from the flaky ones.
	Iterations int `json:"iterations,omitempty"`

	// Spacing is the delay between attempts.
	Spacing time.Duration `json:"spacing,omitempty"`
}

// SweepPlan builds a Sweep from command-line selections. Zero
// iterations means the default.
func SweepPlan(strategies []string, iterations int) Sweep {
	s := Sweep{
		Strategies: strategies,
		Iterations: iterations,
		Spacing:    500 * time.Millisecond,
	}
	if s.Iterations <= 0 {
		s.Iterations = 3
	}
	return s
}

// NewSweep creates a Sweep scenario based on json config.
func NewSweep(config json.RawMessage) (Sweep, error) {
	s := SweepPlan(nil, 0)
	if len(config) == 0 {
		return s, nil
	}
	err := json.Unmarshal(config, &s)
	return s, err
}

// Type returns the scenario type name.
func (Sweep) Type() string { return TypeSweep }

// Run resolves the whole strategy list up front, then runs the
// attempts single-lane, strategy by strategy. An unknown strategy name
// aborts the sweep before anything is sent.
func (sw Sweep) Run(ctx context.Context, env Env) (types.ScenarioReport, error) {
	c := aggregate.NewCollector(TypeSweep, marshalParams(sw))

	var strats []strategy.Strategy
	if len(sw.Strategies) == 0 {
		strats = strategy.All()
	} else {
		for _, name := range sw.Strategies {
			s, err := resolveStrategy(name)
			if err != nil {
				return c.Abort(err.Error()), err
			}
			strats = append(strats, s)
		}
	}
	if sw.Iterations < 1 {
		return c.Abort("sweep scenario needs at least one iteration per strategy"), errBadPlan
	}

	seq := 0
	for _, strat := range strats {
		for i := 0; i < sw.Iterations; i++ {
			if ctx.Err() != nil {
				return c.Close(), nil
			}
			id, payload := buildPayload(TypeSweep, 0, seq, 0)
			runAttempt(ctx, env, strat, 0, id, payload, c)
			seq++
			env.pause(ctx, sw.Spacing)
		}
	}
	return c.Close(), nil
}
