package types

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

func TestComputeStrategyStats(t *testing.T) {
	attempts := Attempts{
		{Strategy: "single-submit", Outcome: Delivered, Elapsed: 1 * time.Second},
		{Strategy: "single-submit", Outcome: Delivered, Elapsed: 3 * time.Second},
		{Strategy: "double-submit", Outcome: TimedOut, Elapsed: 10 * time.Second},
		{Strategy: "single-submit", Outcome: Errored, Elapsed: 2 * time.Second, ErrorDetail: "send: boom"},
		{Strategy: "double-submit", Outcome: Delivered, Elapsed: 2 * time.Second},
	}

	stats := ComputeStrategyStats(attempts)

	if got, want := len(stats), 2; got != want {
		t.Fatalf("Expected %d strategies, got %d", want, got)
	}

	// First-seen order.
	if got, want := stats[0].Strategy, "single-submit"; got != want {
		t.Errorf("Expected first strategy '%s', got '%s'", want, got)
	}

	single := stats[0]
	if got, want := single.Total, 3; got != want {
		t.Errorf("Expected Total=%d, got %d", want, got)
	}
	if got, want := single.Delivered, 2; got != want {
		t.Errorf("Expected Delivered=%d, got %d", want, got)
	}
	if got, want := single.SuccessRate, float64(2)/float64(3)*100; got != want {
		t.Errorf("Expected SuccessRate=%v, got %v", want, got)
	}
	if got, want := single.AvgLatency, 2*time.Second; got != want {
		t.Errorf("Expected AvgLatency=%v, got %v", want, got)
	}
	if got, want := single.MinLatency, 1*time.Second; got != want {
		t.Errorf("Expected MinLatency=%v, got %v", want, got)
	}
	if got, want := single.MaxLatency, 3*time.Second; got != want {
		t.Errorf("Expected MaxLatency=%v, got %v", want, got)
	}
	if got, want := len(single.SampleErrors), 1; got != want {
		t.Fatalf("Expected %d sample error, got %d", want, got)
	}
	if got, want := single.SampleErrors[0], "send: boom"; got != want {
		t.Errorf("Expected sample error '%s', got '%s'", want, got)
	}

	double := stats[1]
	if got, want := double.SuccessRate, 50.0; got != want {
		t.Errorf("Expected SuccessRate=%v, got %v", want, got)
	}
}

func TestComputeStrategyStatsEmpty(t *testing.T) {
	stats := ComputeStrategyStats(nil)
	if len(stats) != 0 {
		t.Errorf("Expected no stats for no attempts, got %d", len(stats))
	}
}

func TestComputeStrategyStatsNeverDividesByZero(t *testing.T) {
	// An attempt list can legitimately contain a strategy with zero
	// elapsed time everywhere; the rate must still come out defined.
	stats := ComputeStrategyStats(Attempts{{Strategy: "heredoc", Outcome: TimedOut}})
	if got, want := stats[0].SuccessRate, 0.0; got != want {
		t.Errorf("Expected SuccessRate=%v, got %v", want, got)
	}
	if got, want := stats[0].AvgLatency, time.Duration(0); got != want {
		t.Errorf("Expected AvgLatency=%v, got %v", want, got)
	}
}

func TestComputeStrategyStatsIdempotent(t *testing.T) {
	attempts := Attempts{
		{Strategy: "paste-buffer", Outcome: Delivered, Elapsed: time.Second},
		{Strategy: "heredoc", Outcome: TimedOut, Elapsed: 2 * time.Second},
	}

	first := ComputeStrategyStats(attempts)
	second := ComputeStrategyStats(attempts)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical stats on repeated computation\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestComputeStrategyStatsCapsSampleErrors(t *testing.T) {
	var attempts Attempts
	for i := 0; i < MaxSampleErrors+3; i++ {
		attempts = append(attempts, DeliveryAttempt{
			Strategy:    "single-submit",
			Outcome:     Errored,
			ErrorDetail: fmt.Sprintf("err %d", i),
		})
	}

	stats := ComputeStrategyStats(attempts)
	if got, want := len(stats[0].SampleErrors), MaxSampleErrors; got != want {
		t.Fatalf("Expected %d sample errors, got %d", want, got)
	}
	if got, want := stats[0].SampleErrors[0], "err 0"; got != want {
		t.Errorf("Expected first error kept first, got '%s'", got)
	}
}

func TestSortStatsBySuccess(t *testing.T) {
	stats := []StrategyStats{
		{Strategy: "b", SuccessRate: 50},
		{Strategy: "a", SuccessRate: 100, AvgLatency: 2 * time.Second},
		{Strategy: "c", SuccessRate: 100, AvgLatency: 1 * time.Second},
		{Strategy: "d", SuccessRate: 50},
	}

	SortStatsBySuccess(stats)

	want := []string{"c", "a", "b", "d"}
	for i, name := range want {
		if stats[i].Strategy != name {
			t.Errorf("Expected stats[%d]=%s, got %s", i, name, stats[i].Strategy)
		}
	}
}
