// Package tmux wraps the tmux control interface used to drive target
// sessions: sending literal text, sending named keys, capturing pane
// content, and staging text through paste buffers. It is a pure I/O
// adapter with no delivery policy.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/paneprobe/paneprobe/types"
)

// DefaultCommandTimeout bounds each tmux invocation. Exceeding it is a
// driver failure (types.ErrDriverTimeout), not a verification timeout.
const DefaultCommandTimeout = 5 * time.Second

// Named keys accepted by SendKey.
const (
	KeyEnter          = "Enter"
	KeyCarriageReturn = "C-m"
)

// RunFunc executes one tmux subcommand. args exclude the binary and any
// socket flags; stdin is piped to the process when non-empty. The
// default implementation shells out to the real tmux binary. Tests
// substitute it via WithRunner.
type RunFunc func(ctx context.Context, stdin string, args ...string) (string, error)

// Driver issues synchronous commands against named tmux sessions.
type Driver struct {
	binary         string
	socket         string
	commandTimeout time.Duration
	run            RunFunc
}

// Option configures a Driver created by New.
type Option func(*Driver)

// WithBinary sets the tmux binary path. Defaults to "tmux" resolved
// via $PATH.
func WithBinary(path string) Option {
	return func(d *Driver) { d.binary = path }
}

// WithSocket sets the tmux server socket name (-L flag), for isolation
// from the user's default server.
func WithSocket(name string) Option {
	return func(d *Driver) { d.socket = name }
}

// WithCommandTimeout overrides DefaultCommandTimeout.
func WithCommandTimeout(t time.Duration) Option {
	return func(d *Driver) {
		if t > 0 {
			d.commandTimeout = t
		}
	}
}

// WithRunner substitutes the command runner. Used by tests to fake
// tmux without a live server.
func WithRunner(run RunFunc) Option {
	return func(d *Driver) { d.run = run }
}

// New creates a Driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		binary:         "tmux",
		commandTimeout: DefaultCommandTimeout,
	}
	for _, o := range opts {
		o(d)
	}
	if d.run == nil {
		d.run = d.execRun
	}
	return d
}

// CommandError is a tmux command failure carrying the captured stderr.
type CommandError struct {
	Op     string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("tmux %s failed: %v", e.Op, e.Err)
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// execRun is the real runner: one tmux process per call, stdout
// returned, stderr folded into the error.
func (d *Driver) execRun(ctx context.Context, stdin string, args ...string) (string, error) {
	var fullArgs []string
	if d.socket != "" {
		fullArgs = append(fullArgs, "-L", d.socket)
	}
	fullArgs = append(fullArgs, args...)

	cmd := exec.CommandContext(ctx, d.binary, fullArgs...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Op:     args[0],
			Args:   fullArgs,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// command runs one tmux subcommand under the per-call timeout and maps
// the two failure modes the harness distinguishes.
func (d *Driver) command(ctx context.Context, stdin string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.commandTimeout)
	defer cancel()

	out, err := d.run(ctx, stdin, args...)
	if err != nil {
		return out, classify(ctx, err)
	}
	return out, nil
}

// classify maps a raw command failure onto the harness error taxonomy.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", types.ErrDriverTimeout, err)
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && sessionGone(cmdErr.Stderr) {
		return fmt.Errorf("%w: %s", types.ErrSessionNotFound, cmdErr.Stderr)
	}
	return err
}

// sessionGone recognizes the stderr tmux emits when the target session
// (or the whole server) is absent.
func sessionGone(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "can't find session") ||
		strings.Contains(s, "session not found") ||
		strings.Contains(s, "no server running")
}

// SendText transmits literal text to the session's input stream. The
// -l flag keeps tmux from interpreting the text as key names.
func (d *Driver) SendText(ctx context.Context, session, text string) error {
	_, err := d.command(ctx, "", "send-keys", "-t", session, "-l", text)
	return err
}

// SendKey transmits a named control key (e.g. Enter, C-m).
func (d *Driver) SendKey(ctx context.Context, session, key string) error {
	_, err := d.command(ctx, "", "send-keys", "-t", session, key)
	return err
}

// CapturePane returns the current visible contents of the session's
// active pane as plain text.
func (d *Driver) CapturePane(ctx context.Context, session string) (string, error) {
	return d.command(ctx, "", "capture-pane", "-t", session, "-p")
}

// LoadBuffer stages payload in a uniquely named tmux paste buffer via
// stdin, avoiding argv length limits for large payloads. The returned
// handle is passed to PasteBuffer and DeleteBuffer.
func (d *Driver) LoadBuffer(ctx context.Context, payload string) (string, error) {
	name := fmt.Sprintf("paneprobe-%d", time.Now().UnixNano())
	if _, err := d.command(ctx, payload, "load-buffer", "-b", name, "-"); err != nil {
		return "", err
	}
	return name, nil
}

// PasteBuffer instructs the session to consume a staged buffer in one
// paste event.
func (d *Driver) PasteBuffer(ctx context.Context, session, buffer string) error {
	_, err := d.command(ctx, "", "paste-buffer", "-b", buffer, "-t", session)
	return err
}

// DeleteBuffer discards a staged buffer. Best-effort cleanup; callers
// may ignore the error.
func (d *Driver) DeleteBuffer(ctx context.Context, buffer string) error {
	_, err := d.command(ctx, "", "delete-buffer", "-b", buffer)
	return err
}

// HasSession reports whether the named session exists.
func (d *Driver) HasSession(ctx context.Context, session string) bool {
	_, err := d.command(ctx, "", "has-session", "-t", session)
	return err == nil
}

// ListSessions returns the names of all sessions on the server, or an
// empty list when no server is running.
func (d *Driver) ListSessions(ctx context.Context) ([]string, error) {
	out, err := d.command(ctx, "", "list-sessions", "-F", "#{session_name}")
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}
