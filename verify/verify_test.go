package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paneprobe/paneprobe/types"
)

// fakeCapturer returns canned captures in order, repeating the last one
// once the script runs out.
type fakeCapturer struct {
	captures  []string
	calls     int
	returnErr bool
}

func (f *fakeCapturer) CapturePane(context.Context, string) (string, error) {
	f.calls++
	if f.returnErr {
		return "", errors.New("i'm an error")
	}
	i := f.calls - 1
	if i >= len(f.captures) {
		i = len(f.captures) - 1
	}
	return f.captures[i], nil
}

func TestNewPollerDefaults(t *testing.T) {
	p := NewPoller(0, 0)
	if got, want := p.Interval, DefaultInterval; got != want {
		t.Errorf("Expected Interval=%v, got %v", want, got)
	}
	if got, want := p.MaxWait, DefaultMaxWait; got != want {
		t.Errorf("Expected MaxWait=%v, got %v", want, got)
	}

	p = NewPoller(time.Second, time.Minute)
	if p.Interval != time.Second || p.MaxWait != time.Minute {
		t.Errorf("Expected explicit values to be kept, got %+v", p)
	}
}

func TestVerifyDelivered(t *testing.T) {
	f := &fakeCapturer{captures: []string{"$ prompt", "$ prompt", "$ prompt\nPROBE_X: delivery check"}}
	p := NewPoller(time.Millisecond, time.Second)

	v := p.Verify(context.Background(), f, "sess", "PROBE_X: delivery check", "$ prompt")
	if got, want := v.Outcome, types.Delivered; got != want {
		t.Fatalf("Expected outcome '%s', got '%s' (%s)", want, got, v.ErrorDetail)
	}
	if got, want := f.calls, 3; got != want {
		t.Errorf("Expected %d captures, got %d", want, got)
	}
	if v.Elapsed <= 0 {
		t.Errorf("Expected positive elapsed time, got %v", v.Elapsed)
	}
}

func TestVerifyIgnoresUnchangedBaseline(t *testing.T) {
	// The payload already sits in the pane from a previous paint; a
	// capture identical to the baseline must not count as delivery.
	stale := "$ prompt\nPROBE_X: delivery check"
	f := &fakeCapturer{captures: []string{stale}}
	p := NewPoller(time.Millisecond, 20*time.Millisecond)

	v := p.Verify(context.Background(), f, "sess", "PROBE_X: delivery check", stale)
	if got, want := v.Outcome, types.TimedOut; got != want {
		t.Errorf("Expected outcome '%s', got '%s'", want, got)
	}
}

func TestVerifyTimesOut(t *testing.T) {
	f := &fakeCapturer{captures: []string{"$ prompt"}}
	p := NewPoller(time.Millisecond, 15*time.Millisecond)

	v := p.Verify(context.Background(), f, "sess", "PROBE_X", "$ prompt")
	if got, want := v.Outcome, types.TimedOut; got != want {
		t.Fatalf("Expected outcome '%s', got '%s'", want, got)
	}
	if v.Elapsed < p.MaxWait {
		t.Errorf("Expected elapsed >= %v, got %v", p.MaxWait, v.Elapsed)
	}
	// The verdict resolves within one interval of the deadline. The
	// extra intervals of headroom absorb scheduling jitter.
	if limit := p.MaxWait + 10*p.Interval; v.Elapsed > limit {
		t.Errorf("Expected elapsed <= %v, got %v", limit, v.Elapsed)
	}
}

func TestVerifyCaptureErrorStopsPolling(t *testing.T) {
	f := &fakeCapturer{returnErr: true}
	p := NewPoller(time.Millisecond, time.Second)

	v := p.Verify(context.Background(), f, "sess", "PROBE_X", "")
	if got, want := v.Outcome, types.Errored; got != want {
		t.Fatalf("Expected outcome '%s', got '%s'", want, got)
	}
	if got, want := f.calls, 1; got != want {
		t.Errorf("Expected polling to stop after %d capture, made %d", want, got)
	}
	if v.ErrorDetail == "" {
		t.Error("Expected error detail to be set")
	}
}

func TestVerifyContextCancellation(t *testing.T) {
	f := &fakeCapturer{captures: []string{"$ prompt"}}
	p := NewPoller(5*time.Millisecond, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	v := p.Verify(ctx, f, "sess", "PROBE_X", "$ prompt")
	if got, want := v.Outcome, types.TimedOut; got != want {
		t.Errorf("Expected outcome '%s' on cancellation, got '%s'", want, got)
	}
	if v.Elapsed >= time.Minute {
		t.Errorf("Expected cancellation well before MaxWait, got %v", v.Elapsed)
	}
}
