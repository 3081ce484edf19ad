// Package health aggregates probe outcomes into per-node verdicts.
//
// Each node keeps a fixed-capacity ring of its most recent outcomes. The
// pass runner is the single writer; status readers only ever see immutable
// snapshots, so reads never block the probe loop and never observe a
// partially updated window.
package health
