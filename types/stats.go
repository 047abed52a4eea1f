package types

import (
	"sort"
	"time"
)

// MaxSampleErrors bounds how many error descriptions are kept per
// strategy within one scenario. Only the first errors, in insertion
// order, are retained.
const MaxSampleErrors = 5

// StrategyStats aggregates all attempts sharing a strategy name
// within one scenario or run.
type StrategyStats struct {
	// Strategy is the strategy name these stats describe.
	Strategy string `json:"strategy"`

	// Total is the number of attempts made with this strategy.
	Total int `json:"total"`

	// Delivered is the number of attempts that resolved Delivered.
	Delivered int `json:"delivered"`

	// SuccessRate is Delivered/Total as a percentage. It is 0 when
	// Total is 0; the rate is never computed by dividing by zero.
	SuccessRate float64 `json:"success_rate"`

	// AvgLatency is the mean Elapsed over all attempts, successful
	// and failed alike.
	AvgLatency time.Duration `json:"avg_latency"`

	// MinLatency and MaxLatency bound the observed Elapsed values.
	MinLatency time.Duration `json:"min_latency,omitempty"`
	MaxLatency time.Duration `json:"max_latency,omitempty"`

	// SampleErrors holds the first MaxSampleErrors error details,
	// in insertion order.
	SampleErrors []string `json:"sample_errors,omitempty"`
}

// ComputeStrategyStats derives per-strategy statistics from attempts.
// It is a pure function: calling it twice on the same attempts yields
// identical results. Strategies appear in first-seen order.
func ComputeStrategyStats(attempts Attempts) []StrategyStats {
	var order []string
	byName := make(map[string]*StrategyStats)

	for _, a := range attempts {
		s, ok := byName[a.Strategy]
		if !ok {
			order = append(order, a.Strategy)
			s = &StrategyStats{Strategy: a.Strategy}
			byName[a.Strategy] = s
		}

		s.Total++
		if a.Outcome == Delivered {
			s.Delivered++
		}
		if a.Elapsed < s.MinLatency || s.MinLatency == 0 {
			s.MinLatency = a.Elapsed
		}
		if a.Elapsed > s.MaxLatency {
			s.MaxLatency = a.Elapsed
		}
		if a.ErrorDetail != "" && len(s.SampleErrors) < MaxSampleErrors {
			s.SampleErrors = append(s.SampleErrors, a.ErrorDetail)
		}
	}

	for _, name := range order {
		s := byName[name]
		var total time.Duration
		for _, a := range attempts {
			if a.Strategy == name {
				total += a.Elapsed
			}
		}
		if s.Total > 0 {
			s.AvgLatency = total / time.Duration(s.Total)
			s.SuccessRate = float64(s.Delivered) / float64(s.Total) * 100
		}
	}

	out := make([]StrategyStats, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

// SortStatsBySuccess orders stats best-first: higher SuccessRate wins,
// ties broken by lower AvgLatency, then by name for determinism.
func SortStatsBySuccess(stats []StrategyStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].SuccessRate != stats[j].SuccessRate {
			return stats[i].SuccessRate > stats[j].SuccessRate
		}
		if stats[i].AvgLatency != stats[j].AvgLatency {
			return stats[i].AvgLatency < stats[j].AvgLatency
		}
		return stats[i].Strategy < stats[j].Strategy
	})
}
