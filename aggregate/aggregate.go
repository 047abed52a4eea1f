// Package aggregate collects resolved delivery attempts into scenario
// and run reports. A single collector goroutine owns each attempt list,
// so concurrent lanes never share mutable state; they hand finished
// attempts over a channel.
package aggregate

import (
	"encoding/json"

	"github.com/paneprobe/paneprobe/types"
)

// Collector receives resolved attempts from any number of lanes and
// appends them, in arrival order, to one scenario's attempt list.
type Collector struct {
	ch   chan types.DeliveryAttempt
	done chan struct{}

	report types.ScenarioReport
}

// NewCollector starts a collector for one scenario. params is kept
// verbatim in the report.
func NewCollector(scenario string, params json.RawMessage) *Collector {
	c := &Collector{
		ch:   make(chan types.DeliveryAttempt, 16),
		done: make(chan struct{}),
		report: types.ScenarioReport{
			Name:      scenario,
			Params:    params,
			StartedAt: types.Timestamp(),
		},
	}
	go c.collect()
	return c
}

func (c *Collector) collect() {
	for a := range c.ch {
		a.Scenario = c.report.Name
		c.report.Attempts = append(c.report.Attempts, a)
	}
	close(c.done)
}

// Record hands a resolved attempt to the collector. Safe to call from
// multiple lanes concurrently.
func (c *Collector) Record(a types.DeliveryAttempt) {
	c.ch <- a
}

// Close drains the channel, finalizes statistics, and returns the
// completed report. It must be called exactly once, after all lanes
// have stopped recording.
func (c *Collector) Close() types.ScenarioReport {
	close(c.ch)
	<-c.done
	c.report.EndedAt = types.Timestamp()
	c.report.Stats = Finalize(c.report)
	return c.report
}

// Abort marks the scenario as failed at the generator level and
// returns the partial report. Attempts recorded so far are kept.
func (c *Collector) Abort(reason string) types.ScenarioReport {
	report := c.Close()
	report.Aborted = reason
	return report
}

// Finalize computes per-strategy statistics for a completed scenario.
// It is idempotent: repeated calls on the same report yield identical
// stats.
func Finalize(report types.ScenarioReport) []types.StrategyStats {
	return types.ComputeStrategyStats(report.Attempts)
}

// Rank derives the best and worst performing strategies across an
// entire run, aggregating attempts per strategy over all scenarios.
// Ties on success rate are broken by lower average latency. ok is
// false when the run contains no attempts; the ranking is then
// undefined and the caller must not fabricate one.
func Rank(reports []types.ScenarioReport) (best, worst types.RankEntry, ok bool) {
	var all types.Attempts
	for _, r := range reports {
		all = append(all, r.Attempts...)
	}
	if len(all) == 0 {
		return types.RankEntry{}, types.RankEntry{}, false
	}

	stats := types.ComputeStrategyStats(all)
	types.SortStatsBySuccess(stats)

	toEntry := func(s types.StrategyStats) types.RankEntry {
		return types.RankEntry{
			Strategy:    s.Strategy,
			SuccessRate: s.SuccessRate,
			AvgLatency:  s.AvgLatency,
		}
	}
	return toEntry(stats[0]), toEntry(stats[len(stats)-1]), true
}

// BuildRunReport assembles the top-level artifact from completed
// scenario reports. Partial runs produce partial reports; nothing is
// discarded.
func BuildRunReport(session string, startedAt int64, reports []types.ScenarioReport) *types.RunReport {
	run := &types.RunReport{
		Session:   session,
		StartedAt: startedAt,
		EndedAt:   types.Timestamp(),
		Scenarios: reports,
	}

	for _, r := range reports {
		for _, a := range r.Attempts {
			run.TotalAttempts++
			if a.Outcome == types.Delivered {
				run.TotalDelivered++
			}
		}
	}
	if run.TotalAttempts > 0 {
		run.OverallSuccessRate = float64(run.TotalDelivered) / float64(run.TotalAttempts) * 100
	}

	if best, worst, ok := Rank(reports); ok {
		run.Best, run.Worst = &best, &worst
	}
	return run
}
