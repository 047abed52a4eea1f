package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// PasteBuffer stages the payload out-of-band and instructs the session
// to consume it in a single paste event, avoiding character-by-
// character injection artifacts for large payloads.
type PasteBuffer struct{}

func (PasteBuffer) Name() string { return PasteBufferName }

func (PasteBuffer) Deliver(ctx context.Context, d Driver, session, payload string) error {
	buffer, err := d.LoadBuffer(ctx, payload)
	if err != nil {
		return err
	}
	defer d.DeleteBuffer(ctx, buffer)

	if err := d.PasteBuffer(ctx, session, buffer); err != nil {
		return err
	}
	return d.SendKey(ctx, session, submitKey)
}

// Chunked splits the payload into fixed-size pieces, sends each as a
// separate text call with a small inter-chunk delay, and submits once
// at the end. It probes whether large single-call payloads are
// truncated or dropped.
type Chunked struct {
	Size  int           `json:"size,omitempty"`
	Delay time.Duration `json:"delay,omitempty"`

	sleep sleeper
}

// NewChunked creates the strategy with the given chunk size and
// inter-chunk delay.
func NewChunked(size int, delay time.Duration) Chunked {
	return Chunked{Size: size, Delay: delay, sleep: realSleep}
}

func (c Chunked) Name() string {
	return fmt.Sprintf("%s(%d)", ChunkedName, c.Size)
}

func (c Chunked) Deliver(ctx context.Context, d Driver, session, payload string) error {
	size := c.Size
	if size <= 0 {
		size = DefaultChunkSize
	}

	for start := 0; start < len(payload); start += size {
		end := start + size
		if end > len(payload) {
			end = len(payload)
		}
		if err := d.SendText(ctx, session, payload[start:end]); err != nil {
			return err
		}
		if end < len(payload) {
			c.pause(ctx, c.Delay)
		}
	}
	return d.SendKey(ctx, session, submitKey)
}

func (c Chunked) pause(ctx context.Context, d time.Duration) {
	if c.sleep != nil {
		c.sleep(ctx, d)
		return
	}
	realSleep(ctx, d)
}

// UnmarshalJSON keeps the sleeper when parameters arrive from config.
func (c *Chunked) UnmarshalJSON(b []byte) error {
	type plain Chunked
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	c.Size = p.Size
	c.Delay = p.Delay
	if c.Size <= 0 {
		c.Size = DefaultChunkSize
	}
	if c.Delay == 0 {
		c.Delay = DefaultChunkDelay
	}
	if c.sleep == nil {
		c.sleep = realSleep
	}
	return nil
}

// Heredoc wraps the payload in a shell here-document before sending it
// as one block, probing delivery through an intermediate shell-quoting
// layer.
type Heredoc struct{}

func (Heredoc) Name() string { return HeredocName }

func (Heredoc) Deliver(ctx context.Context, d Driver, session, payload string) error {
	block := fmt.Sprintf("cat << 'EOF'\n%s\nEOF", payload)
	if err := d.SendText(ctx, session, block); err != nil {
		return err
	}
	return d.SendKey(ctx, session, submitKey)
}
