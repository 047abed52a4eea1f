package tmux

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/paneprobe/paneprobe/types"
)

// fakeRunner records every invocation and replays canned output.
type fakeRunner struct {
	args   [][]string
	stdins []string

	out string
	err error
}

func (f *fakeRunner) run(_ context.Context, stdin string, args ...string) (string, error) {
	f.args = append(f.args, args)
	f.stdins = append(f.stdins, stdin)
	return f.out, f.err
}

func TestDriverVerbArgs(t *testing.T) {
	tests := []struct {
		name string
		call func(d *Driver) error
		want string
	}{
		{"SendText", func(d *Driver) error {
			return d.SendText(context.Background(), "work", "hello")
		}, "send-keys -t work -l hello"},
		{"SendKey", func(d *Driver) error {
			return d.SendKey(context.Background(), "work", KeyEnter)
		}, "send-keys -t work Enter"},
		{"CapturePane", func(d *Driver) error {
			_, err := d.CapturePane(context.Background(), "work")
			return err
		}, "capture-pane -t work -p"},
		{"PasteBuffer", func(d *Driver) error {
			return d.PasteBuffer(context.Background(), "work", "buf0")
		}, "paste-buffer -b buf0 -t work"},
		{"DeleteBuffer", func(d *Driver) error {
			return d.DeleteBuffer(context.Background(), "buf0")
		}, "delete-buffer -b buf0"},
		{"HasSession", func(d *Driver) error {
			d.HasSession(context.Background(), "work")
			return nil
		}, "has-session -t work"},
	}

	for _, test := range tests {
		f := new(fakeRunner)
		d := New(WithRunner(f.run))
		if err := test.call(d); err != nil {
			t.Errorf("%s: didn't expect an error: %v", test.name, err)
		}
		if got := strings.Join(f.args[0], " "); got != test.want {
			t.Errorf("%s: expected args '%s', got '%s'", test.name, test.want, got)
		}
	}
}

func TestLoadBufferPipesStdin(t *testing.T) {
	f := new(fakeRunner)
	d := New(WithRunner(f.run))

	payload := "a large payload"
	name, err := d.LoadBuffer(context.Background(), payload)
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if !strings.HasPrefix(name, "paneprobe-") {
		t.Errorf("Expected a paneprobe- buffer name, got '%s'", name)
	}
	if got, want := f.stdins[0], payload; got != want {
		t.Errorf("Expected payload on stdin, got '%s'", got)
	}

	args := f.args[0]
	if got, want := fmt.Sprint(args), fmt.Sprint([]string{"load-buffer", "-b", name, "-"}); got != want {
		t.Errorf("Expected args %s, got %s", want, got)
	}
}

func TestSessionNotFoundClassification(t *testing.T) {
	for _, stderr := range []string{
		"can't find session: work",
		"no server running on /tmp/tmux-1000/default",
	} {
		f := &fakeRunner{err: &CommandError{Op: "send-keys", Stderr: stderr, Err: errors.New("exit status 1")}}
		d := New(WithRunner(f.run))

		err := d.SendText(context.Background(), "work", "hello")
		if !errors.Is(err, types.ErrSessionNotFound) {
			t.Errorf("stderr %q: expected ErrSessionNotFound, got: %v", stderr, err)
		}
	}
}

func TestOtherErrorsPassThrough(t *testing.T) {
	f := &fakeRunner{err: &CommandError{Op: "send-keys", Stderr: "invalid key", Err: errors.New("exit status 1")}}
	d := New(WithRunner(f.run))

	err := d.SendKey(context.Background(), "work", "Bogus")
	if err == nil {
		t.Fatal("Expected an error, didn't get one")
	}
	if errors.Is(err, types.ErrSessionNotFound) || errors.Is(err, types.ErrDriverTimeout) {
		t.Errorf("Expected an unclassified error, got: %v", err)
	}
}

func TestCommandTimeoutClassification(t *testing.T) {
	slow := func(ctx context.Context, _ string, _ ...string) (string, error) {
		<-ctx.Done()
		return "", &CommandError{Op: "send-keys", Err: ctx.Err()}
	}
	d := New(WithRunner(slow), WithCommandTimeout(5*time.Millisecond))

	err := d.SendText(context.Background(), "work", "hello")
	if !errors.Is(err, types.ErrDriverTimeout) {
		t.Errorf("Expected ErrDriverTimeout, got: %v", err)
	}
}

func TestListSessions(t *testing.T) {
	f := &fakeRunner{out: "work\nscratch\n"}
	d := New(WithRunner(f.run))

	names, err := d.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("Didn't expect an error: %v", err)
	}
	if got, want := fmt.Sprint(names), fmt.Sprint([]string{"work", "scratch"}); got != want {
		t.Errorf("Expected sessions %s, got %s", want, got)
	}

	if got, want := strings.Join(f.args[0], " "), "list-sessions -F #{session_name}"; got != want {
		t.Errorf("Expected args '%s', got '%s'", want, got)
	}
}

func TestListSessionsNoServer(t *testing.T) {
	f := &fakeRunner{err: &CommandError{Op: "list-sessions", Stderr: "no server running on /tmp/tmux-1000/default", Err: errors.New("exit status 1")}}
	d := New(WithRunner(f.run))

	names, err := d.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("Expected no error when no server is running, got: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Expected no sessions, got %v", names)
	}
}

func TestCommandErrorMessage(t *testing.T) {
	e := &CommandError{Op: "send-keys", Stderr: "boom", Err: errors.New("exit status 1")}
	msg := e.Error()
	for _, want := range []string{"send-keys", "exit status 1", "boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected error message to contain '%s', got: %s", want, msg)
		}
	}
}
