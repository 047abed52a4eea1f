package scenario

import (
	"context"
	"encoding/json"
	"runtime"
	"sync"
	"time"

	"github.com/paneprobe/paneprobe/aggregate"
	"github.com/paneprobe/paneprobe/types"
)

// HostLoad sends N payloads while CPU-bound background workers spin on
// the host, measuring host contention's effect on timing-sensitive
// strategies.
type HostLoad struct {
	// Strategy is the delivery strategy name. The delayed re-submit
	// strategy is the default because it is the most timing
	// sensitive.
	Strategy string `json:"strategy,omitempty"`

	// Count is how many payloads to send under load.
	Count int `json:"count,omitempty"`

	// Spacing is the delay between sends.
	Spacing time.Duration `json:"spacing,omitempty"`

	// Workers is how many CPU-spinning goroutines to run. Zero
	// means one per CPU.
	Workers int `json:"workers,omitempty"`
}

// NewHostLoad creates a HostLoad scenario based on json config.
func NewHostLoad(config json.RawMessage) (HostLoad, error) {
	h := HostLoad{
		Strategy: "submit-delay-submit",
		Count:    15,
		Spacing:  time.Second,
	}
	if len(config) == 0 {
		return h, nil
	}
	err := json.Unmarshal(config, &h)
	return h, err
}

// Type returns the scenario type name.
func (HostLoad) Type() string { return TypeHostLoad }

// Run starts the spinners, runs the attempts single-lane, then stops
// the spinners. The load lives exactly as long as the scenario.
func (h HostLoad) Run(ctx context.Context, env Env) (types.ScenarioReport, error) {
	c := aggregate.NewCollector(TypeHostLoad, marshalParams(h))

	strat, err := resolveStrategy(h.Strategy)
	if err != nil {
		return c.Abort(err.Error()), err
	}

	workers := h.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			spin(stop)
		}()
	}

	for i := 0; i < h.Count; i++ {
		if ctx.Err() != nil {
			break
		}
		id, payload := buildPayload(TypeHostLoad, 0, i, 0)
		runAttempt(ctx, env, strat, 0, id, payload, c)
		env.pause(ctx, h.Spacing)
	}

	close(stop)
	wg.Wait()

	return c.Close(), nil
}

// spin burns CPU until stopped. The checksum keeps the loop from being
// optimized away.
func spin(stop <-chan struct{}) {
	var sink uint64
	for {
		select {
		case <-stop:
			_ = sink
			return
		default:
			for i := uint64(0); i < 10000; i++ {
				sink += i * i
			}
		}
	}
}
