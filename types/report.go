package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

// ScenarioReport is one stress scenario's full result set: the ordered
// attempts it produced, derived per-strategy statistics, and scenario
// metadata.
type ScenarioReport struct {
	// Name is the scenario type name (burst, concurrent, ...).
	Name string `json:"name"`

	// Params is the scenario's configuration, kept verbatim so the
	// report is interpretable on its own.
	Params json.RawMessage `json:"params,omitempty"`

	// StartedAt and EndedAt bound the scenario; UTC UnixNano format.
	StartedAt int64 `json:"started_at"`
	EndedAt   int64 `json:"ended_at"`

	// Attempts is the ordered sequence of attempts, in resolution
	// order.
	Attempts Attempts `json:"attempts"`

	// Stats is derived from Attempts, one entry per strategy used.
	Stats []StrategyStats `json:"stats"`

	// Aborted carries the reason when the scenario generator itself
	// failed. Attempt-level failures never set this.
	Aborted string `json:"aborted,omitempty"`
}

// RankEntry names a strategy and the aggregate numbers that earned it
// a best or worst placement.
type RankEntry struct {
	Strategy    string        `json:"strategy"`
	SuccessRate float64       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// RunReport is the top-level artifact of one harness run.
type RunReport struct {
	// Session is the target session name the run drove.
	Session string `json:"session"`

	// StartedAt and EndedAt bound the run; UTC UnixNano format.
	StartedAt int64 `json:"started_at"`
	EndedAt   int64 `json:"ended_at"`

	// Scenarios holds one report per scenario, in execution order.
	Scenarios []ScenarioReport `json:"scenarios"`

	// TotalAttempts and TotalDelivered are overall counts.
	TotalAttempts  int `json:"total_attempts"`
	TotalDelivered int `json:"total_delivered"`

	// OverallSuccessRate is TotalDelivered/TotalAttempts as a
	// percentage, 0 when there are no attempts.
	OverallSuccessRate float64 `json:"overall_success_rate"`

	// Best and Worst rank strategies across the whole run by
	// SuccessRate, ties broken by lower AvgLatency. Both are nil
	// when the run produced no attempts; the ranking is then
	// explicitly undefined rather than fabricated.
	Best  *RankEntry `json:"best,omitempty"`
	Worst *RankEntry `json:"worst,omitempty"`
}

// DisableColor disables ANSI colors in the report default string.
func DisableColor() {
	color.NoColor = true
}

// String returns a human-readable summary table of r.
func (r *RunReport) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "== delivery run against session %q\n", r.Session)
	fmt.Fprintf(&b, "   attempts: %d delivered / %d total (%.1f%%)\n",
		r.TotalDelivered, r.TotalAttempts, r.OverallSuccessRate)

	for _, sc := range r.Scenarios {
		fmt.Fprintf(&b, "-- scenario %s (%d attempts)\n", sc.Name, len(sc.Attempts))
		if sc.Aborted != "" {
			b.WriteString(color.RedString("   aborted: %s\n", sc.Aborted))
			continue
		}
		for _, s := range sc.Stats {
			b.WriteString(statLine(s))
		}
	}

	switch {
	case r.Best == nil:
		b.WriteString("   ranking: undefined (no attempts)\n")
	default:
		fmt.Fprintf(&b, "   best:  %-20s %.1f%% avg %s\n",
			r.Best.Strategy, r.Best.SuccessRate, r.Best.AvgLatency)
		fmt.Fprintf(&b, "   worst: %-20s %.1f%% avg %s\n",
			r.Worst.Strategy, r.Worst.SuccessRate, r.Worst.AvgLatency)
	}

	return b.String()
}

func statLine(s StrategyStats) string {
	line := fmt.Sprintf("   %-20s | success %5.1f%% (%d/%d) | avg %s\n",
		s.Strategy, s.SuccessRate, s.Delivered, s.Total, s.AvgLatency)
	switch {
	case s.SuccessRate >= 100:
		return color.GreenString(line)
	case s.SuccessRate >= 80:
		return color.YellowString(line)
	default:
		return color.RedString(line)
	}
}
