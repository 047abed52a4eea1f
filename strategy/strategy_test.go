package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeDriver records every call in order as "verb:detail" strings.
type fakeDriver struct {
	calls     []string
	returnErr bool
}

func (f *fakeDriver) err() error {
	if f.returnErr {
		return errors.New("i'm an error")
	}
	return nil
}

func (f *fakeDriver) SendText(_ context.Context, _, text string) error {
	f.calls = append(f.calls, "text:"+text)
	return f.err()
}

func (f *fakeDriver) SendKey(_ context.Context, _, key string) error {
	f.calls = append(f.calls, "key:"+key)
	return f.err()
}

func (f *fakeDriver) LoadBuffer(_ context.Context, payload string) (string, error) {
	f.calls = append(f.calls, "load:"+payload)
	return "buf0", f.err()
}

func (f *fakeDriver) PasteBuffer(_ context.Context, _, buffer string) error {
	f.calls = append(f.calls, "paste:"+buffer)
	return f.err()
}

func (f *fakeDriver) DeleteBuffer(_ context.Context, buffer string) error {
	f.calls = append(f.calls, "delete:"+buffer)
	return f.err()
}

// noSleep is substituted for realSleep so tests run without waits.
func noSleep(context.Context, time.Duration) {}

func TestSubmitStrategyCallOrder(t *testing.T) {
	delayed := NewSubmitDelaySubmit(time.Millisecond)
	delayed.sleep = noSleep
	separated := NewSeparatedCommands(time.Millisecond)
	separated.sleep = noSleep

	tests := []struct {
		strategy Strategy
		want     []string
	}{
		{SingleSubmit{}, []string{"text:hi", "key:Enter"}},
		{DoubleSubmit{}, []string{"text:hi", "key:Enter", "key:Enter"}},
		{TripleSubmit{}, []string{"text:hi", "key:Enter", "key:Enter", "key:Enter"}},
		{delayed, []string{"text:hi", "key:Enter", "key:Enter"}},
		{separated, []string{"text:hi", "key:Enter"}},
		{CarriageReturn{}, []string{"text:hi", "key:C-m"}},
	}

	for _, test := range tests {
		f := new(fakeDriver)
		if err := test.strategy.Deliver(context.Background(), f, "sess", "hi"); err != nil {
			t.Errorf("%s: didn't expect an error: %v", test.strategy.Name(), err)
		}
		if got, want := fmt.Sprint(f.calls), fmt.Sprint(test.want); got != want {
			t.Errorf("%s: expected calls %s, got %s", test.strategy.Name(), want, got)
		}
	}
}

func TestPasteBufferCleansUp(t *testing.T) {
	f := new(fakeDriver)
	if err := (PasteBuffer{}).Deliver(context.Background(), f, "sess", "hi"); err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}

	want := []string{"load:hi", "paste:buf0", "key:Enter", "delete:buf0"}
	if got := fmt.Sprint(f.calls); got != fmt.Sprint(want) {
		t.Errorf("Expected calls %v, got %v", want, f.calls)
	}
}

func TestChunkedSplitsPayload(t *testing.T) {
	c := NewChunked(3, time.Millisecond)
	c.sleep = noSleep

	f := new(fakeDriver)
	if err := c.Deliver(context.Background(), f, "sess", "abcdefgh"); err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}

	want := []string{"text:abc", "text:def", "text:gh", "key:Enter"}
	if got := fmt.Sprint(f.calls); got != fmt.Sprint(want) {
		t.Errorf("Expected calls %v, got %v", want, f.calls)
	}

	if got, want := c.Name(), "chunked(3)"; got != want {
		t.Errorf("Expected name '%s', got '%s'", want, got)
	}
}

func TestHeredocWrapsPayload(t *testing.T) {
	f := new(fakeDriver)
	if err := (Heredoc{}).Deliver(context.Background(), f, "sess", "hi"); err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}

	if got, want := len(f.calls), 2; got != want {
		t.Fatalf("Expected %d calls, got %d", want, got)
	}
	block := strings.TrimPrefix(f.calls[0], "text:")
	if !strings.HasPrefix(block, "cat << 'EOF'\n") || !strings.HasSuffix(block, "\nEOF") {
		t.Errorf("Expected heredoc wrapping, got: %q", block)
	}
	if !strings.Contains(block, "hi") {
		t.Errorf("Expected payload inside heredoc, got: %q", block)
	}
}

func TestStrategyStopsOnDriverError(t *testing.T) {
	f := &fakeDriver{returnErr: true}
	err := (DoubleSubmit{}).Deliver(context.Background(), f, "sess", "hi")
	if err == nil {
		t.Fatal("Expected an error, didn't get one")
	}
	if got, want := len(f.calls), 1; got != want {
		t.Errorf("Expected delivery to stop after %d call, made %d", want, got)
	}
}

func TestAllIsCanonical(t *testing.T) {
	want := []string{
		SingleSubmitName,
		DoubleSubmitName,
		TripleSubmitName,
		SubmitDelaySubmitName,
		SeparatedCommandsName,
		CarriageReturnName,
		PasteBufferName,
		"chunked(500)",
		HeredocName,
	}

	all := All()
	if got := len(all); got != len(want) {
		t.Fatalf("Expected %d strategies, got %d", len(want), got)
	}
	for i, s := range all {
		if s.Name() != want[i] {
			t.Errorf("Expected All()[%d]=%s, got %s", i, want[i], s.Name())
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{
		SingleSubmitName, DoubleSubmitName, TripleSubmitName,
		SubmitDelaySubmitName, SeparatedCommandsName, CarriageReturnName,
		PasteBufferName, ChunkedName, HeredocName,
	} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): didn't expect an error: %v", name, err)
		}
	}

	s, err := ByName("chunked(128)")
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := s.Name(), "chunked(128)"; got != want {
		t.Errorf("Expected name '%s', got '%s'", want, got)
	}

	for _, name := range []string{"", "quadruple-submit", "chunked()", "chunked(-1)", "chunked(x)"} {
		if _, err := ByName(name); err == nil {
			t.Errorf("ByName(%q): expected an error, didn't get one", name)
		}
	}
}

func TestNewWithConfig(t *testing.T) {
	s, err := New(SubmitDelaySubmitName, []byte(`{"delay": 1000000}`))
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	sds, ok := s.(SubmitDelaySubmit)
	if !ok {
		t.Fatalf("Expected a SubmitDelaySubmit, got %T", s)
	}
	if got, want := sds.Delay, time.Millisecond; got != want {
		t.Errorf("Expected Delay=%v, got %v", want, got)
	}
	if sds.sleep == nil {
		t.Error("Expected sleeper to survive config decoding")
	}

	c, err := New(ChunkedName, []byte(`{"size": 64}`))
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := c.Name(), "chunked(64)"; got != want {
		t.Errorf("Expected name '%s', got '%s'", want, got)
	}

	// Empty config keeps defaults.
	s, err = New(SeparatedCommandsName, nil)
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := s.(SeparatedCommands).Delay, DefaultSeparationDelay; got != want {
		t.Errorf("Expected Delay=%v, got %v", want, got)
	}
}
