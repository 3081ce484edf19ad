package health

import (
	"sync"
	"time"

	"github.com/winlink-canary/wlc/internal/config"
)

// record is one node's bounded outcome history.
type record struct {
	node          config.Node
	outcomes      []Outcome
	lastConfirmed time.Time
}

// Tracker maintains the outcome windows for all monitored nodes.
// Record has single-writer discipline (only the pass runner calls it);
// Verdict and Snapshot may be called concurrently at any time.
type Tracker struct {
	mu        sync.RWMutex
	window    int
	threshold int
	order     []string
	records   map[string]*record

	now func() time.Time
}

// NewTracker sizes the per-node windows and derivation rule from config.
func NewTracker(window, threshold int, nodes []config.Node) *Tracker {
	t := &Tracker{
		window:    window,
		threshold: threshold,
		records:   make(map[string]*record, len(nodes)),
		now:       time.Now,
	}
	for _, node := range nodes {
		t.order = append(t.order, node.Name)
		t.records[node.Name] = &record{node: node}
	}
	return t
}

// Record appends an outcome to the node's window, evicting the oldest
// entry once the window is at capacity. Unknown node names are ignored.
func (t *Tracker) Record(name string, outcome Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[name]
	if !ok {
		return
	}

	r.outcomes = append(r.outcomes, outcome)
	if len(r.outcomes) > t.window {
		r.outcomes = r.outcomes[1:]
	}
	if outcome == OutcomeConfirmed {
		r.lastConfirmed = t.now()
	}
}

// Verdict derives the node's current health state: Unknown until the
// window has filled, then Unhealthy when non-confirmed outcomes reach the
// threshold, Healthy otherwise.
func (t *Tracker) Verdict(name string) Verdict {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.records[name]
	if !ok {
		return VerdictUnknown
	}
	return verdictOf(r.outcomes, t.window, t.threshold)
}

func verdictOf(outcomes []Outcome, window, threshold int) Verdict {
	if len(outcomes) < window {
		return VerdictUnknown
	}
	failed := 0
	for _, o := range outcomes {
		if o != OutcomeConfirmed {
			failed++
		}
	}
	if failed >= threshold {
		return VerdictUnhealthy
	}
	return VerdictHealthy
}

// Verdicts returns the current verdict of every node, for state-change
// reporting between passes.
func (t *Tracker) Verdicts() map[string]Verdict {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Verdict, len(t.order))
	for name, r := range t.records {
		out[name] = verdictOf(r.outcomes, t.window, t.threshold)
	}
	return out
}

// NodeStatus is one node's entry in a snapshot.
type NodeStatus struct {
	Name          string    `json:"name"`
	FrequencyMHz  float64   `json:"frequencyMhz"`
	Peer          string    `json:"peer"`
	Verdict       Verdict   `json:"verdict"`
	History       []string  `json:"history"`
	LastOutcome   string    `json:"lastOutcome,omitempty"`
	LastConfirmed time.Time `json:"lastConfirmed,omitempty"`
}

// Snapshot is an immutable view for the status surface.
type Snapshot struct {
	TakenAt time.Time    `json:"takenAt"`
	Nodes   []NodeStatus `json:"nodes"`
}

// Snapshot copies the current state. The returned value shares nothing
// with the live structure.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{TakenAt: t.now(), Nodes: make([]NodeStatus, 0, len(t.order))}
	for _, name := range t.order {
		r := t.records[name]

		history := make([]string, len(r.outcomes))
		for i, o := range r.outcomes {
			history[i] = o.String()
		}

		status := NodeStatus{
			Name:          name,
			FrequencyMHz:  r.node.FrequencyMHz,
			Peer:          r.node.Peer,
			Verdict:       verdictOf(r.outcomes, t.window, t.threshold),
			History:       history,
			LastConfirmed: r.lastConfirmed,
		}
		if n := len(r.outcomes); n > 0 {
			status.LastOutcome = r.outcomes[n-1].String()
		}
		snap.Nodes = append(snap.Nodes, status)
	}
	return snap
}
