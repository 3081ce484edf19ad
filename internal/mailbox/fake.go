package mailbox

import (
	"context"
	"sync"
)

// SentProbe records one Send call observed by the Fake.
type SentProbe struct {
	Peer    string
	To      string
	From    string
	Subject string
	Body    string
}

// Fake is an in-memory Gateway for orchestration tests. It can simulate
// send failures, delayed delivery, and pre-existing outbox debris.
type Fake struct {
	mu sync.Mutex

	outbox []string
	inbox  map[string]bool

	// SendErr, when set, fails every Send and leaves the message queued in
	// the outbox (a failed transmit leaves debris behind).
	SendErr error
	// DeliverAfter is the number of PollInbox calls per subject before the
	// probe is reported arrived; negative means never.
	DeliverAfter int
	// PollErr, when set, fails every PollInbox.
	PollErr error

	SentMessages []SentProbe
	polls        map[string]int
	purgedOutbox int
	purgedInbox  int
}

// NewFake returns an empty fake gateway that confirms probes on the first
// poll.
func NewFake() *Fake {
	return &Fake{
		inbox: make(map[string]bool),
		polls: make(map[string]int),
	}
}

// SeedOutbox pre-loads outbox entries, simulating debris from an aborted
// run or pending operator mail.
func (f *Fake) SeedOutbox(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbox = append(f.outbox, names...)
}

func (f *Fake) Send(ctx context.Context, peer, to, from, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SendErr != nil {
		f.outbox = append(f.outbox, subject)
		return f.SendErr
	}

	f.SentMessages = append(f.SentMessages, SentProbe{
		Peer: peer, To: to, From: from, Subject: subject, Body: body,
	})
	return nil
}

func (f *Fake) PollInbox(ctx context.Context, subject string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PollErr != nil {
		return false, f.PollErr
	}
	if f.DeliverAfter < 0 {
		return false, nil
	}

	f.polls[subject]++
	if f.polls[subject] > f.DeliverAfter {
		f.inbox[subject] = true
		return true, nil
	}
	return false, nil
}

func (f *Fake) ListOutbox() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.outbox))
	copy(out, f.outbox)
	return out, nil
}

func (f *Fake) PurgeOutbox() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbox = nil
	f.purgedOutbox++
	return nil
}

func (f *Fake) PurgeInbox() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = make(map[string]bool)
	f.purgedInbox++
	return nil
}

// OutboxPurges reports how many times the outbox was purged.
func (f *Fake) OutboxPurges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purgedOutbox
}

// InboxPurges reports how many times the inbox was purged.
func (f *Fake) InboxPurges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purgedInbox
}

// Polls reports how many times the given subject was polled.
func (f *Fake) Polls(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[subject]
}

var _ Gateway = (*Fake)(nil)
