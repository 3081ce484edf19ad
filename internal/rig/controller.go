package rig

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/winlink-canary/wlc/internal/config"
)

// Error is a per-command rig failure: timeout, transport fault, rejected
// command, or malformed response. It never escalates beyond the node being
// probed; retry policy belongs to the caller, since a stuck rig after
// repeated failures should abort the node rather than loop forever.
type Error struct {
	Node   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rig error on %s: %s: %v", e.Node, e.Reason, e.Err)
	}
	return fmt.Sprintf("rig error on %s: %s", e.Node, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Controller owns the single transport to the radio. Commands are mutually
// exclusive; tuning physically retunes the transceiver, implicitly
// abandoning any probe still in flight on the previous frequency.
type Controller struct {
	mu      sync.Mutex
	tr      Transport
	timeout time.Duration
	log     zerolog.Logger
}

// NewController wraps an open transport with the configured per-command
// response timeout.
func NewController(tr Transport, timeout time.Duration, log zerolog.Logger) *Controller {
	return &Controller{tr: tr, timeout: timeout, log: log}
}

// Tune switches the radio to the node's pre-programmed channel and waits
// for the acknowledgement.
func (c *Controller) Tune(ctx context.Context, node config.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	frame, err := EncodeGoToChannel(node.Channel)
	if err != nil {
		return &Error{Node: node.Name, Reason: "encode", Err: err}
	}

	c.log.Debug().Str("node", node.Name).Int("channel", node.Channel).
		Str("frame", string(frame[:len(frame)-1])).Msg("tuning rig")

	c.tr.Drain()

	if err := c.tr.Send(frame); err != nil {
		return &Error{Node: node.Name, Reason: "write", Err: err}
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	raw, err := c.tr.Recv(timeout)
	if err != nil {
		return &Error{Node: node.Name, Reason: "timeout", Err: err}
	}

	ack, err := DecodeAck(raw)
	if err != nil {
		return &Error{Node: node.Name, Reason: "malformed response", Err: err}
	}
	if !ack.OK {
		return &Error{Node: node.Name, Reason: fmt.Sprintf("rejected with code %s", ack.Code)}
	}

	c.log.Debug().Str("node", node.Name).Int("channel", node.Channel).Msg("rig tuned")
	return nil
}

// Close releases the transport.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr.Close()
}
