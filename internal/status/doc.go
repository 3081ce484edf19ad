// Package status serves the read-only HTTP surface: an HTML overview
// page for operators, JSON snapshots for machines, the effective
// configuration, and prometheus metrics. It only ever reads from the
// health tracker; probing stays with the canary runner.
package status
