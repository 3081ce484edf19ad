// Package canary runs the probe passes.
//
// A single worker goroutine owns both the rig and the mailbox: the radio is
// one exclusive physical resource, so probes never interleave. Each pass
// checks the mailbox-safety precondition, walks the node list in configured
// order (tune, send, poll with doubling backoff), records exactly one
// outcome per node, and sleeps until the next pass. Node-level failures
// never stall the pass; only a shared-mailbox conflict aborts it, and only
// until the next pass.
package canary
