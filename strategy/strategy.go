// Package strategy defines the delivery strategies under test. Each
// strategy is a named, deterministic composition of session driver
// calls; it holds no state and never looks at results.
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Driver is the subset of session driver operations strategies may
// use. The concrete implementation lives in the tmux package.
type Driver interface {
	SendText(ctx context.Context, session, text string) error
	SendKey(ctx context.Context, session, key string) error
	LoadBuffer(ctx context.Context, payload string) (string, error)
	PasteBuffer(ctx context.Context, session, buffer string) error
	DeleteBuffer(ctx context.Context, buffer string) error
}

// Strategy delivers one payload to one session. Implementations are
// pure with respect to the harness: ordered driver calls plus optional
// delays, nothing else.
type Strategy interface {
	// Name identifies the strategy in reports and configuration.
	Name() string

	// Deliver sends payload to session. A nil return means the
	// driver accepted every call, not that the target processed
	// the input; that is the verification poller's job.
	Deliver(ctx context.Context, d Driver, session, payload string) error
}

// Canonical strategy names.
const (
	SingleSubmitName      = "single-submit"
	DoubleSubmitName      = "double-submit"
	TripleSubmitName      = "triple-submit"
	SubmitDelaySubmitName = "submit-delay-submit"
	SeparatedCommandsName = "separated-commands"
	CarriageReturnName    = "carriage-return"
	PasteBufferName       = "paste-buffer"
	ChunkedName           = "chunked"
	HeredocName           = "heredoc"
)

// Default timing constants, carried over from the behavior being
// reproduced: the delayed re-submit waits 500ms, split text/submit
// delivery waits 100ms, and chunked delivery spaces 500-byte chunks
// 200ms apart.
const (
	DefaultResubmitDelay   = 500 * time.Millisecond
	DefaultSeparationDelay = 100 * time.Millisecond
	DefaultChunkSize       = 500
	DefaultChunkDelay      = 200 * time.Millisecond
)

// All returns the full canonical strategy set, in the order they are
// reported.
func All() []Strategy {
	return []Strategy{
		SingleSubmit{},
		DoubleSubmit{},
		TripleSubmit{},
		NewSubmitDelaySubmit(DefaultResubmitDelay),
		NewSeparatedCommands(DefaultSeparationDelay),
		CarriageReturn{},
		PasteBuffer{},
		NewChunked(DefaultChunkSize, DefaultChunkDelay),
		Heredoc{},
	}
}

// ByName resolves a canonical strategy name, with default parameters.
// The chunked strategy additionally accepts a size in the form
// "chunked(500)".
func ByName(name string) (Strategy, error) {
	switch name {
	case SingleSubmitName:
		return SingleSubmit{}, nil
	case DoubleSubmitName:
		return DoubleSubmit{}, nil
	case TripleSubmitName:
		return TripleSubmit{}, nil
	case SubmitDelaySubmitName:
		return NewSubmitDelaySubmit(DefaultResubmitDelay), nil
	case SeparatedCommandsName:
		return NewSeparatedCommands(DefaultSeparationDelay), nil
	case CarriageReturnName:
		return CarriageReturn{}, nil
	case PasteBufferName:
		return PasteBuffer{}, nil
	case ChunkedName:
		return NewChunked(DefaultChunkSize, DefaultChunkDelay), nil
	case HeredocName:
		return Heredoc{}, nil
	}

	if size, ok := parseChunked(name); ok {
		return NewChunked(size, DefaultChunkDelay), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// New resolves a strategy from a type name and raw JSON parameters,
// for strategies that take configuration.
func New(name string, config json.RawMessage) (Strategy, error) {
	switch name {
	case SubmitDelaySubmitName:
		s := NewSubmitDelaySubmit(DefaultResubmitDelay)
		err := unmarshalInto(config, &s)
		return s, err
	case SeparatedCommandsName:
		s := NewSeparatedCommands(DefaultSeparationDelay)
		err := unmarshalInto(config, &s)
		return s, err
	case ChunkedName:
		s := NewChunked(DefaultChunkSize, DefaultChunkDelay)
		err := unmarshalInto(config, &s)
		return s, err
	default:
		return ByName(name)
	}
}

func unmarshalInto(config json.RawMessage, v interface{}) error {
	if len(config) == 0 {
		return nil
	}
	return json.Unmarshal(config, v)
}

// parseChunked extracts the size from a "chunked(N)" name.
func parseChunked(name string) (int, bool) {
	if !strings.HasPrefix(name, ChunkedName+"(") || !strings.HasSuffix(name, ")") {
		return 0, false
	}
	inner := name[len(ChunkedName)+1 : len(name)-1]
	size, err := strconv.Atoi(inner)
	if err != nil || size <= 0 {
		return 0, false
	}
	return size, true
}

// sleeper is an injectable delay so tests run without real waits. It
// honors context cancellation.
type sleeper func(ctx context.Context, d time.Duration)

func realSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
