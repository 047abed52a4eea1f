// Package paneprobe is a delivery-reliability test harness for
// interactive terminal sessions hosted in tmux. It empirically
// determines which text-injection strategy reliably causes input to be
// received and processed, under varying load, message size, and
// concurrency conditions, and produces a ranked report.
package paneprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/paneprobe/paneprobe/aggregate"
	"github.com/paneprobe/paneprobe/scenario"
	"github.com/paneprobe/paneprobe/types"
	"github.com/paneprobe/paneprobe/verify"
)

// SessionDriver is the full session control surface the harness needs:
// the strategy and verification verbs plus session lookup for target
// resolution.
type SessionDriver interface {
	scenario.Driver
	HasSession(ctx context.Context, session string) bool
	ListSessions(ctx context.Context) ([]string, error)
}

// Storage can persist run reports.
type Storage interface {
	Type() string
	Store(*types.RunReport) error
}

// StorageReader can read reports back from a Storage.
type StorageReader interface {
	// Fetch returns the contents of one report file.
	Fetch(name string) (*types.RunReport, error)
	// GetIndex returns the storage index, as a map where keys are
	// report filenames and values are the associated timestamps.
	GetIndex() (map[string]int64, error)
}

// Maintainer can maintain a store of reports by deleting old report
// files that are no longer needed.
type Maintainer interface {
	Maintain() error
}

// Notifier can alert operators about a completed run, typically when
// the best strategy's success rate falls below expectations.
type Notifier interface {
	Type() string
	Notify(*types.RunReport) error
}

// Harness runs delivery scenarios against one target session.
type Harness struct {
	// Session is the explicit target session name. When empty, the
	// first session matching SessionPattern is used instead.
	Session string

	// SessionPattern is a regular expression used to discover the
	// target when Session is empty.
	SessionPattern string

	// Driver is the session control interface.
	Driver SessionDriver

	// Poller verifies payload arrival after each send.
	Poller verify.Poller

	// Scenarios is the ordered plan for the run.
	Scenarios []scenario.Scenario

	// Storage persists the run report. Required for RunAndStore.
	Storage Storage

	// Notifiers are informed after every stored run.
	Notifiers []Notifier

	// RunTimeout bounds the whole run. When it fires, outstanding
	// lanes are aborted, in-flight attempts resolve TimedOut, and
	// aggregation proceeds with partial results. Zero means no
	// run-level bound.
	RunTimeout time.Duration
}

// ErrNoTargetSession is the fatal harness-initialization failure: no
// explicit session exists and no session matches the pattern.
var ErrNoTargetSession = fmt.Errorf("no candidate target session found")

// ResolveSession determines the target session name. An explicit
// Session must exist; otherwise the first ListSessions entry matching
// SessionPattern wins.
func (h *Harness) ResolveSession(ctx context.Context) (string, error) {
	if h.Session != "" {
		if !h.Driver.HasSession(ctx, h.Session) {
			return "", fmt.Errorf("%w: session %q does not exist", ErrNoTargetSession, h.Session)
		}
		return h.Session, nil
	}

	if h.SessionPattern == "" {
		return "", fmt.Errorf("%w: no session name or pattern configured", ErrNoTargetSession)
	}

	re, err := regexp.Compile(h.SessionPattern)
	if err != nil {
		return "", fmt.Errorf("invalid session pattern %q: %w", h.SessionPattern, err)
	}

	names, err := h.Driver.ListSessions(ctx)
	if err != nil {
		return "", fmt.Errorf("listing sessions: %w", err)
	}
	for _, name := range names {
		if re.MatchString(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: no session matches %q", ErrNoTargetSession, h.SessionPattern)
}

// Run resolves the target session and executes every configured
// scenario sequentially under the run-level timeout. Attempt and
// scenario failures never abort the run; the report always contains
// whatever resolved. An error is returned only for harness-level
// failures (no target, misconfiguration).
func (h *Harness) Run(ctx context.Context) (*types.RunReport, error) {
	if len(h.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios configured")
	}

	session, err := h.ResolveSession(ctx)
	if err != nil {
		return nil, err
	}

	if h.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.RunTimeout)
		defer cancel()
	}

	env := scenario.NewEnv(h.Driver, h.Poller, session)
	startedAt := types.Timestamp()

	reports := make([]types.ScenarioReport, 0, len(h.Scenarios))
	for _, sc := range h.Scenarios {
		report, err := sc.Run(ctx, env)
		if err != nil {
			log.Printf("scenario %s aborted: %v", sc.Type(), err)
		}
		reports = append(reports, report)

		if ctx.Err() != nil {
			log.Printf("run timeout reached; reporting partial results")
			break
		}
	}

	return aggregate.BuildRunReport(session, startedAt, reports), nil
}

// RunAndStore runs the harness, persists the report, performs storage
// maintenance, and informs the notifiers. Notifier failures are logged
// and do not fail the run.
func (h *Harness) RunAndStore(ctx context.Context) (*types.RunReport, error) {
	if h.Storage == nil {
		return nil, fmt.Errorf("no storage mechanism defined")
	}

	report, err := h.Run(ctx)
	if err != nil {
		return nil, err
	}

	errs := types.Errors{h.Storage.Store(report)}
	if m, ok := h.Storage.(Maintainer); ok {
		errs = append(errs, m.Maintain())
	}

	for _, n := range h.Notifiers {
		if err := n.Notify(report); err != nil {
			log.Printf("notifier %s: %v", n.Type(), err)
		}
	}

	if !errs.Empty() {
		return report, errs
	}
	return report, nil
}

// UnmarshalJSON decodes a harness from its JSON configuration. Driver
// construction is left to the caller; everything else (scenarios,
// storage, notifiers, timing) is decoded through the type-name
// factories.
func (h *Harness) UnmarshalJSON(b []byte) error {
	var raw struct {
		Session        string            `json:"session,omitempty"`
		SessionPattern string            `json:"session_pattern,omitempty"`
		PollInterval   time.Duration     `json:"poll_interval,omitempty"`
		MaxWait        time.Duration     `json:"max_wait,omitempty"`
		RunTimeout     time.Duration     `json:"run_timeout,omitempty"`
		Scenarios      []json.RawMessage `json:"scenarios,omitempty"`
		Storage        json.RawMessage   `json:"storage,omitempty"`
		Notifiers      []json.RawMessage `json:"notifiers,omitempty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	h.Session = raw.Session
	h.SessionPattern = raw.SessionPattern
	h.Poller = verify.NewPoller(raw.PollInterval, raw.MaxWait)
	h.RunTimeout = raw.RunTimeout

	h.Scenarios = nil
	for _, rawSc := range raw.Scenarios {
		sc, err := scenarioDecode(typeOf(rawSc), rawSc)
		if err != nil {
			return err
		}
		h.Scenarios = append(h.Scenarios, sc)
	}

	if len(raw.Storage) > 0 {
		st, err := storageDecode(typeOf(raw.Storage), raw.Storage)
		if err != nil {
			return err
		}
		h.Storage = st
	}

	h.Notifiers = nil
	for _, rawN := range raw.Notifiers {
		n, err := notifierDecode(typeOf(rawN), rawN)
		if err != nil {
			return err
		}
		h.Notifiers = append(h.Notifiers, n)
	}
	return nil
}

// typeOf extracts the "type" discriminator from a raw config entry.
func typeOf(raw json.RawMessage) string {
	var t struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(raw, &t)
	return t.Type
}
