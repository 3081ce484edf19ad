package mailbox

import (
	"context"
	"errors"
)

// ErrSend marks a failed compose or RF transmit. Send failures are
// per-node and recoverable; the pass continues with the next node.
var ErrSend = errors.New("SEND_FAILED")

// Gateway is the port to the Winlink client and its mailbox.
type Gateway interface {
	// Send composes a message (the subject carries the probe identifier)
	// and transmits it over RF through the given peer gateway.
	Send(ctx context.Context, peer, to, from, subject, body string) error

	// PollInbox fetches pending mail over the internet path and reports
	// whether a message with the given subject has arrived.
	PollInbox(ctx context.Context, subject string) (bool, error)

	// ListOutbox returns the names of messages still queued for transmit.
	ListOutbox() ([]string, error)

	// PurgeOutbox removes all queued outbox messages.
	PurgeOutbox() error

	// PurgeInbox removes all received messages.
	PurgeInbox() error
}
