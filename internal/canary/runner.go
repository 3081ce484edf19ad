package canary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/winlink-canary/wlc/internal/config"
	"github.com/winlink-canary/wlc/internal/health"
	"github.com/winlink-canary/wlc/internal/mailbox"
)

// RigPort is what the runner needs from the rig controller.
type RigPort interface {
	Tune(ctx context.Context, node config.Node) error
}

// ErrSharedMailboxConflict aborts a pass: the mailbox is shared with an
// operator and the outbox holds pending mail that must not be touched.
// The condition may clear by itself, so the next pass retries normally.
var ErrSharedMailboxConflict = errors.New("SHARED_MAILBOX_CONFLICT")

// Runner drives the probe passes. It is the single owner of the rig and
// the mailbox and the single writer into the health tracker.
type Runner struct {
	cfg     *config.Config
	rig     RigPort
	mail    mailbox.Gateway
	tracker *health.Tracker
	log     zerolog.Logger

	clock      Clock
	metrics    *Metrics
	journal    *Journal
	newProbeID func() string

	// maxPasses stops the loop after N passes when positive (one-shot and
	// bounded runs from the CLI); zero means run until shutdown.
	maxPasses int

	prevVerdicts map[string]health.Verdict
}

// NewRunner wires a runner with the real clock and uuid probe IDs.
func NewRunner(cfg *config.Config, rigPort RigPort, mail mailbox.Gateway, tracker *health.Tracker, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		rig:        rigPort,
		mail:       mail,
		tracker:    tracker,
		log:        log,
		clock:      realClock{},
		newProbeID: uuid.NewString,
	}
}

// SetMetrics attaches prometheus instruments.
func (r *Runner) SetMetrics(m *Metrics) { r.metrics = m }

// SetJournal attaches the outcome journal.
func (r *Runner) SetJournal(j *Journal) { r.journal = j }

// SetMaxPasses bounds the number of passes; zero means unbounded.
func (r *Runner) SetMaxPasses(n int) { r.maxPasses = n }

// SetClock replaces the clock for tests.
func (r *Runner) SetClock(c Clock) { r.clock = c }

// SetProbeIDFunc replaces the probe ID generator for tests.
func (r *Runner) SetProbeIDFunc(fn func() string) { r.newProbeID = fn }

// Run executes passes until the context is cancelled or the pass budget is
// spent. Pass-level failures are reported and retried next pass; only
// shutdown ends the loop.
func (r *Runner) Run(ctx context.Context) error {
	r.prevVerdicts = r.tracker.Verdicts()

	passes := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		err := r.RunPass(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrSharedMailboxConflict):
			// An operator has to clear the mailbox or flip dedicated_mailbox
			// before probing can resume.
			r.log.Error().Err(err).Msg("pass aborted: shared mailbox has pending outbox mail")
			r.countAborted()
		case isShutdown(err):
			return nil
		default:
			r.log.Error().Err(err).Msg("pass failed")
		}

		passes++
		if r.maxPasses > 0 && passes >= r.maxPasses {
			r.log.Info().Int("passes", passes).Msg("pass budget spent, exiting")
			return nil
		}

		if sleep(ctx, r.clock, r.cfg.NextPassDelay) != nil {
			return nil
		}
	}
}

// RunPass performs one ordered traversal of all nodes. It returns
// ErrSharedMailboxConflict when the mailbox-safety precondition fails, a
// context error on shutdown, and nil otherwise: node-level failures are
// recorded as outcomes, never returned.
func (r *Runner) RunPass(ctx context.Context) error {
	start := r.clock.Now()

	if err := r.preflight(); err != nil {
		return err
	}

	r.log.Info().Int("nodes", len(r.cfg.Nodes)).Msg("starting probe pass")

	for _, node := range r.cfg.Nodes {
		outcome, attempt, err := r.probeNode(ctx, node)
		if err != nil {
			// Shutdown mid-node: nothing recorded for this or later nodes.
			return err
		}

		r.tracker.Record(node.Name, outcome)
		r.countOutcome(node.Name, outcome)
		r.journalOutcome(node.Name, outcome, attempt)

		r.log.Info().
			Str("node", node.Name).
			Str("outcome", outcome.String()).
			Str("probeId", attempt.probeID).
			Int("retries", attempt.retries).
			Msg("probe recorded")
	}

	r.reportTransitions()
	r.updateVerdictGauge()

	if r.cfg.DedicatedMailbox {
		// Fetched probe mail has served its purpose.
		if err := r.mail.PurgeInbox(); err != nil {
			r.log.Warn().Err(err).Msg("inbox cleanup failed")
		}
	}

	r.countPass(r.clock.Now().Sub(start))
	return nil
}

// preflight enforces the mailbox-safety precondition as one atomic check:
// purge-then-proceed for a dedicated mailbox, abort for a shared one.
func (r *Runner) preflight() error {
	pending, err := r.mail.ListOutbox()
	if err != nil {
		return fmt.Errorf("outbox check failed: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	if !r.cfg.DedicatedMailbox {
		return fmt.Errorf("%w: %d pending outbox message(s)", ErrSharedMailboxConflict, len(pending))
	}

	// Dedicated mailbox: anything queued is debris from an aborted run.
	r.log.Warn().Int("count", len(pending)).Msg("purging leftover outbox debris")
	if err := r.mail.PurgeOutbox(); err != nil {
		return fmt.Errorf("outbox purge failed: %w", err)
	}
	return nil
}

// attemptInfo carries the transient per-probe bookkeeping for logging and
// the journal. It lives only for one node's handling within a pass.
type attemptInfo struct {
	probeID string
	retries int
	started time.Time
}

// probeNode executes one node's probe: tune, send, poll. The returned
// error is non-nil only on shutdown.
func (r *Runner) probeNode(ctx context.Context, node config.Node) (health.Outcome, *attemptInfo, error) {
	attempt := &attemptInfo{started: r.clock.Now()}

	if err := r.rig.Tune(ctx, node); err != nil {
		if isShutdown(err) {
			return 0, nil, err
		}
		r.log.Warn().Err(err).Str("node", node.Name).Msg("rig tune failed")
		return health.OutcomeRigError, attempt, nil
	}

	attempt.probeID = r.newProbeID()
	body := fmt.Sprintf("Canary probe to %s on %.3f MHz at %s",
		node.Name, node.FrequencyMHz, attempt.started.UTC().Format(time.RFC3339))

	if err := r.mail.Send(ctx, node.Peer, r.cfg.RxAuxCall, r.cfg.Sender, attempt.probeID, body); err != nil {
		if isShutdown(err) {
			return 0, nil, err
		}
		r.log.Warn().Err(err).Str("node", node.Name).Msg("probe transmit failed")
		// On a dedicated mailbox the failed send's debris is ours to remove.
		// A shared one may have picked up operator mail mid-pass, so it is
		// left alone.
		if r.cfg.DedicatedMailbox {
			if purgeErr := r.mail.PurgeOutbox(); purgeErr != nil {
				r.log.Warn().Err(purgeErr).Msg("failed to clear outbox after send error")
			}
		}
		return health.OutcomeSendError, attempt, nil
	}

	return r.pollConfirmation(ctx, node, attempt)
}

// pollConfirmation waits for the probe to show up on the internet path,
// doubling the wait between checks until the retry budget is spent.
func (r *Runner) pollConfirmation(ctx context.Context, node config.Node, attempt *attemptInfo) (health.Outcome, *attemptInfo, error) {
	schedule := newBackoff(r.cfg.FetchRetryInterval, r.cfg.FetchRetriesCount)

	checks := 0
	for {
		wait, ok := schedule.Next()
		if !ok {
			break
		}

		r.log.Debug().Str("node", node.Name).Dur("wait", wait).
			Int("check", checks+1).Msg("waiting before inbox check")
		if err := sleep(ctx, r.clock, wait); err != nil {
			return 0, nil, err
		}
		checks++
		attempt.retries = checks - 1

		found, err := r.mail.PollInbox(ctx, attempt.probeID)
		if err != nil {
			if isShutdown(err) {
				return 0, nil, err
			}
			// A failed fetch counts as "not arrived yet".
			r.log.Warn().Err(err).Str("node", node.Name).Msg("inbox fetch failed")
			continue
		}
		if found {
			return health.OutcomeConfirmed, attempt, nil
		}
	}

	r.log.Warn().Str("node", node.Name).Str("probeId", attempt.probeID).
		Int("checks", checks).Msg("giving up on probe confirmation")
	return health.OutcomeTimedOut, attempt, nil
}

// reportTransitions logs verdict changes between passes, the canary's
// operator notification path.
func (r *Runner) reportTransitions() {
	current := r.tracker.Verdicts()
	for name, verdict := range current {
		if prev, ok := r.prevVerdicts[name]; ok && prev != verdict {
			r.log.Warn().
				Str("node", name).
				Str("from", string(prev)).
				Str("to", string(verdict)).
				Msg("node health state changed")
		}
	}
	r.prevVerdicts = current
}

func (r *Runner) updateVerdictGauge() {
	if r.metrics == nil {
		return
	}
	counts := map[health.Verdict]int{
		health.VerdictUnknown: 0, health.VerdictHealthy: 0, health.VerdictUnhealthy: 0,
	}
	for _, verdict := range r.tracker.Verdicts() {
		counts[verdict]++
	}
	for verdict, n := range counts {
		r.metrics.NodesByVerdict.WithLabelValues(string(verdict)).Set(float64(n))
	}
}

func (r *Runner) countOutcome(node string, outcome health.Outcome) {
	if r.metrics != nil {
		r.metrics.Outcomes.WithLabelValues(node, outcome.String()).Inc()
	}
}

func (r *Runner) countPass(d time.Duration) {
	if r.metrics != nil {
		r.metrics.PassesTotal.Inc()
		r.metrics.PassSeconds.Observe(d.Seconds())
	}
}

func (r *Runner) countAborted() {
	if r.metrics != nil {
		r.metrics.PassesAborted.Inc()
	}
}

func (r *Runner) journalOutcome(node string, outcome health.Outcome, attempt *attemptInfo) {
	if r.journal == nil {
		return
	}
	r.journal.Append(JournalEntry{
		Timestamp: r.clock.Now(),
		Node:      node,
		ProbeID:   attempt.probeID,
		Outcome:   outcome.String(),
		LatencyMs: r.clock.Now().Sub(attempt.started).Milliseconds(),
		Retries:   attempt.retries,
	})
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
