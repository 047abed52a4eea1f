package strategy

import (
	"context"
	"encoding/json"
	"time"
)

// submitKey is the logical submit key for interactive targets.
const submitKey = "Enter"

// carriageReturnKey is the raw carriage-return key code, used to probe
// control-key mapping differences against the logical submit key.
const carriageReturnKey = "C-m"

// SingleSubmit is the baseline: one text send and one submit key.
type SingleSubmit struct{}

func (SingleSubmit) Name() string { return SingleSubmitName }

func (SingleSubmit) Deliver(ctx context.Context, d Driver, session, payload string) error {
	if err := d.SendText(ctx, session, payload); err != nil {
		return err
	}
	return d.SendKey(ctx, session, submitKey)
}

// DoubleSubmit sends the text and two submit keys, guarding against a
// dropped first submit.
type DoubleSubmit struct{}

func (DoubleSubmit) Name() string { return DoubleSubmitName }

func (DoubleSubmit) Deliver(ctx context.Context, d Driver, session, payload string) error {
	if err := d.SendText(ctx, session, payload); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := d.SendKey(ctx, session, submitKey); err != nil {
			return err
		}
	}
	return nil
}

// TripleSubmit sends the text and three submit keys.
type TripleSubmit struct{}

func (TripleSubmit) Name() string { return TripleSubmitName }

func (TripleSubmit) Deliver(ctx context.Context, d Driver, session, payload string) error {
	if err := d.SendText(ctx, session, payload); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := d.SendKey(ctx, session, submitKey); err != nil {
			return err
		}
	}
	return nil
}

// SubmitDelaySubmit sends text+submit, waits, then sends a bare
// submit. The delay guards against a race where the first submit
// arrives before the target is ready to read it.
type SubmitDelaySubmit struct {
	Delay time.Duration `json:"delay,omitempty"`

	sleep sleeper
}

// NewSubmitDelaySubmit creates the strategy with the given re-submit
// delay.
func NewSubmitDelaySubmit(delay time.Duration) SubmitDelaySubmit {
	return SubmitDelaySubmit{Delay: delay, sleep: realSleep}
}

func (SubmitDelaySubmit) Name() string { return SubmitDelaySubmitName }

func (s SubmitDelaySubmit) Deliver(ctx context.Context, d Driver, session, payload string) error {
	if err := d.SendText(ctx, session, payload); err != nil {
		return err
	}
	if err := d.SendKey(ctx, session, submitKey); err != nil {
		return err
	}
	s.pause(ctx, s.Delay)
	return d.SendKey(ctx, session, submitKey)
}

func (s SubmitDelaySubmit) pause(ctx context.Context, d time.Duration) {
	if s.sleep != nil {
		s.sleep(ctx, d)
		return
	}
	realSleep(ctx, d)
}

// UnmarshalJSON keeps the sleeper when parameters arrive from config.
func (s *SubmitDelaySubmit) UnmarshalJSON(b []byte) error {
	type plain SubmitDelaySubmit
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	s.Delay = p.Delay
	if s.Delay == 0 {
		s.Delay = DefaultResubmitDelay
	}
	if s.sleep == nil {
		s.sleep = realSleep
	}
	return nil
}

// SeparatedCommands sends the text as one driver call and the submit
// as a second call after a short delay, probing whether atomic
// text+key delivery is less reliable than split delivery.
type SeparatedCommands struct {
	Delay time.Duration `json:"delay,omitempty"`

	sleep sleeper
}

// NewSeparatedCommands creates the strategy with the given separation
// delay.
func NewSeparatedCommands(delay time.Duration) SeparatedCommands {
	return SeparatedCommands{Delay: delay, sleep: realSleep}
}

func (SeparatedCommands) Name() string { return SeparatedCommandsName }

func (s SeparatedCommands) Deliver(ctx context.Context, d Driver, session, payload string) error {
	if err := d.SendText(ctx, session, payload); err != nil {
		return err
	}
	if s.sleep != nil {
		s.sleep(ctx, s.Delay)
	} else {
		realSleep(ctx, s.Delay)
	}
	return d.SendKey(ctx, session, submitKey)
}

// UnmarshalJSON keeps the sleeper when parameters arrive from config.
func (s *SeparatedCommands) UnmarshalJSON(b []byte) error {
	type plain SeparatedCommands
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	s.Delay = p.Delay
	if s.Delay == 0 {
		s.Delay = DefaultSeparationDelay
	}
	if s.sleep == nil {
		s.sleep = realSleep
	}
	return nil
}

// CarriageReturn submits with the raw C-m key code instead of the
// logical submit key.
type CarriageReturn struct{}

func (CarriageReturn) Name() string { return CarriageReturnName }

func (CarriageReturn) Deliver(ctx context.Context, d Driver, session, payload string) error {
	if err := d.SendText(ctx, session, payload); err != nil {
		return err
	}
	return d.SendKey(ctx, session, carriageReturnKey)
}
