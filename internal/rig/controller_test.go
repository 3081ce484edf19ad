package rig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winlink-canary/wlc/internal/config"
)

func testNode() config.Node {
	return config.Node{Name: "capitol-hill", FrequencyMHz: 430.85, Peer: "W7ACS-10", Channel: 3}
}

func TestTuneSuccess(t *testing.T) {
	tr := NewMemTransport([]byte(".\r"))
	c := NewController(tr, time.Second, zerolog.Nop())

	require.NoError(t, c.Tune(context.Background(), testNode()))

	require.Len(t, tr.Sent, 1)
	assert.Equal(t, "g013"+Checksum([]byte("g013"))+"\r", string(tr.Sent[0]))
	assert.Equal(t, 1, tr.Drains(), "pending input must be discarded before sending")
}

func TestTuneNack(t *testing.T) {
	body := "e0201"
	tr := NewMemTransport([]byte("." + body + Checksum([]byte(body)) + "\r"))
	c := NewController(tr, time.Second, zerolog.Nop())

	err := c.Tune(context.Background(), testNode())
	require.Error(t, err)

	var rigErr *Error
	require.ErrorAs(t, err, &rigErr)
	assert.Equal(t, "capitol-hill", rigErr.Node)
	assert.Contains(t, rigErr.Reason, "rejected")
	assert.Contains(t, rigErr.Reason, "01")
}

func TestTuneTimeout(t *testing.T) {
	tr := NewMemTransport() // never answers
	c := NewController(tr, 10*time.Millisecond, zerolog.Nop())

	err := c.Tune(context.Background(), testNode())
	require.Error(t, err)

	var rigErr *Error
	require.ErrorAs(t, err, &rigErr)
	assert.Equal(t, "timeout", rigErr.Reason)
}

func TestTuneMalformedResponse(t *testing.T) {
	tr := NewMemTransport([]byte("garbage\r"))
	c := NewController(tr, time.Second, zerolog.Nop())

	err := c.Tune(context.Background(), testNode())
	require.Error(t, err)

	var rigErr *Error
	require.ErrorAs(t, err, &rigErr)
	assert.Equal(t, "malformed response", rigErr.Reason)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestTuneEncodeError(t *testing.T) {
	node := testNode()
	node.Channel = 5000

	tr := NewMemTransport([]byte(".\r"))
	c := NewController(tr, time.Second, zerolog.Nop())

	err := c.Tune(context.Background(), node)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncode)
	assert.Empty(t, tr.Sent, "nothing may reach the radio on encode failures")
}

func TestTuneCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := NewMemTransport([]byte(".\r"))
	c := NewController(tr, time.Second, zerolog.Nop())

	err := c.Tune(ctx, testNode())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, tr.Sent)
}
