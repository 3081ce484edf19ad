package canary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winlink-canary/wlc/internal/config"
	"github.com/winlink-canary/wlc/internal/health"
	"github.com/winlink-canary/wlc/internal/mailbox"
)

// fakeClock advances instantly: After records the requested wait, bumps
// the clock, and fires immediately.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	fire := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- fire
	return ch
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.waits))
	copy(out, c.waits)
	return out
}

type fakeRig struct {
	mu      sync.Mutex
	failFor map[string]error
	tuned   []string
}

func (f *fakeRig) Tune(ctx context.Context, node config.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tuned = append(f.tuned, node.Name)
	if err, ok := f.failFor[node.Name]; ok {
		return err
	}
	return nil
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.RxAuxCall = "N0CALL-1"
	cfg.Sender = "N0CALL"
	cfg.Nodes = []config.Node{
		{Name: "ridge", FrequencyMHz: 145.050, Peer: "W1AW-10", Channel: 3},
		{Name: "valley", FrequencyMHz: 144.950, Peer: "W1AW-11", Channel: 7},
	}
	return cfg
}

type fixture struct {
	runner  *Runner
	cfg     *config.Config
	rig     *fakeRig
	mail    *mailbox.Fake
	tracker *health.Tracker
	clock   *fakeClock
}

func newFixture(cfg *config.Config) *fixture {
	f := &fixture{
		cfg:     cfg,
		rig:     &fakeRig{failFor: map[string]error{}},
		mail:    mailbox.NewFake(),
		clock:   newFakeClock(),
		tracker: health.NewTracker(cfg.HealthWindowSize, cfg.UnhealthyThreshold, cfg.Nodes),
	}
	f.runner = NewRunner(cfg, f.rig, f.mail, f.tracker, zerolog.Nop())
	f.runner.SetClock(f.clock)

	seq := 0
	f.runner.SetProbeIDFunc(func() string {
		seq++
		return fmt.Sprintf("probe-%d", seq)
	})
	return f
}

func lastOutcomes(t *testing.T, tr *health.Tracker) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, n := range tr.Snapshot().Nodes {
		out[n.Name] = n.LastOutcome
	}
	return out
}

func TestPassProbesEveryNodeInOrder(t *testing.T) {
	f := newFixture(testConfig())

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Equal(t, []string{"ridge", "valley"}, f.rig.tuned)
	require.Len(t, f.mail.SentMessages, 2)
	assert.Equal(t, "W1AW-10", f.mail.SentMessages[0].Peer)
	assert.Equal(t, "N0CALL-1", f.mail.SentMessages[0].To)
	assert.Equal(t, "N0CALL", f.mail.SentMessages[0].From)
	assert.Equal(t, "probe-1", f.mail.SentMessages[0].Subject)
	assert.Equal(t, "probe-2", f.mail.SentMessages[1].Subject)

	assert.Equal(t, map[string]string{
		"ridge": "confirmed", "valley": "confirmed",
	}, lastOutcomes(t, f.tracker))

	// One wait per node: first check confirms.
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, f.clock.Waits())
}

func TestSharedMailboxWithPendingMailAbortsPass(t *testing.T) {
	cfg := testConfig()
	cfg.DedicatedMailbox = false
	f := newFixture(cfg)
	f.mail.SeedOutbox("operator-draft")

	err := f.runner.RunPass(context.Background())

	assert.ErrorIs(t, err, ErrSharedMailboxConflict)
	assert.Empty(t, f.rig.tuned, "no node may be probed")
	assert.Empty(t, f.mail.SentMessages)
	assert.Zero(t, f.mail.OutboxPurges(), "operator mail must be left alone")
	assert.Equal(t, map[string]string{"ridge": "", "valley": ""}, lastOutcomes(t, f.tracker))
}

func TestDedicatedMailboxPurgesDebrisAndProceeds(t *testing.T) {
	cfg := testConfig()
	cfg.DedicatedMailbox = true
	f := newFixture(cfg)
	f.mail.SeedOutbox("stale-probe")

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Equal(t, 1, f.mail.OutboxPurges())
	assert.Len(t, f.mail.SentMessages, 2)
	assert.Equal(t, 1, f.mail.InboxPurges(), "dedicated mailbox is swept after the pass")
}

func TestSharedMailboxInboxIsNeverPurged(t *testing.T) {
	f := newFixture(testConfig())

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Zero(t, f.mail.InboxPurges())
}

func TestRigErrorDoesNotBlockLaterNodes(t *testing.T) {
	f := newFixture(testConfig())
	f.rig.failFor["ridge"] = errors.New("NACK code 02")

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Equal(t, map[string]string{
		"ridge": "rig_error", "valley": "confirmed",
	}, lastOutcomes(t, f.tracker))

	// Only valley got a probe message.
	require.Len(t, f.mail.SentMessages, 1)
	assert.Equal(t, "W1AW-11", f.mail.SentMessages[0].Peer)
}

func TestSendErrorRecordedAndDebrisCleared(t *testing.T) {
	cfg := testConfig()
	cfg.DedicatedMailbox = true
	f := newFixture(cfg)
	f.mail.SendErr = errors.New("vara modem unreachable")

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Equal(t, map[string]string{
		"ridge": "send_error", "valley": "send_error",
	}, lastOutcomes(t, f.tracker))
	assert.Equal(t, 2, f.mail.OutboxPurges(), "failed sends leave debris to clear")
	assert.Empty(t, f.clock.Waits(), "no confirmation polling after a failed send")
}

func TestSendErrorOnSharedMailboxLeavesOutboxAlone(t *testing.T) {
	f := newFixture(testConfig())
	f.mail.SendErr = errors.New("vara modem unreachable")

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Equal(t, "send_error", lastOutcomes(t, f.tracker)["ridge"])
	assert.Zero(t, f.mail.OutboxPurges())
}

func TestConfirmedOnDelayedDelivery(t *testing.T) {
	cfg := testConfig()
	cfg.Nodes = cfg.Nodes[:1]
	f := newFixture(cfg)
	f.mail.DeliverAfter = 2 // arrives on the third check

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Equal(t, "confirmed", lastOutcomes(t, f.tracker)["ridge"])
	assert.Equal(t, []time.Duration{
		30 * time.Second, 60 * time.Second, 120 * time.Second,
	}, f.clock.Waits())
}

func TestTimedOutAfterRetryBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Nodes = cfg.Nodes[:1]
	f := newFixture(cfg)
	f.mail.DeliverAfter = -1 // never arrives

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Equal(t, "timed_out", lastOutcomes(t, f.tracker)["ridge"])
	assert.Equal(t, []time.Duration{
		30 * time.Second, 60 * time.Second, 120 * time.Second, 240 * time.Second,
	}, f.clock.Waits())
}

func TestFetchFailureCountsAsAbsent(t *testing.T) {
	cfg := testConfig()
	cfg.Nodes = cfg.Nodes[:1]
	f := newFixture(cfg)
	f.mail.PollErr = errors.New("telnet session refused")

	require.NoError(t, f.runner.RunPass(context.Background()))

	assert.Equal(t, "timed_out", lastOutcomes(t, f.tracker)["ridge"])
	assert.Len(t, f.clock.Waits(), 4, "fetch failures spend checks, not abort the probe")
}

func TestRunStopsAfterPassBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Nodes = cfg.Nodes[:1]
	f := newFixture(cfg)
	f.runner.SetMaxPasses(2)

	require.NoError(t, f.runner.Run(context.Background()))

	// Two passes, one inter-pass delay between them.
	assert.Equal(t, []time.Duration{
		30 * time.Second, cfg.NextPassDelay, 30 * time.Second,
	}, f.clock.Waits())
	assert.Len(t, f.mail.SentMessages, 2)
}

func TestCancelledContextRecordsNoOutcome(t *testing.T) {
	f := newFixture(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.runner.RunPass(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, map[string]string{"ridge": "", "valley": ""}, lastOutcomes(t, f.tracker))
}

func TestRunExitsCleanlyOnCancelledContext(t *testing.T) {
	f := newFixture(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, f.runner.Run(ctx))
	assert.Empty(t, f.rig.tuned)
}
