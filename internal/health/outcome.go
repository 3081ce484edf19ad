package health

// Outcome is the result of one probe attempt against one node. Exactly one
// outcome is recorded per node per pass.
type Outcome int

const (
	// OutcomeConfirmed means the probe was observed on the internet path.
	OutcomeConfirmed Outcome = iota
	// OutcomeTimedOut means the confirmation backoff budget was exhausted.
	OutcomeTimedOut
	// OutcomeSendError means the Winlink client failed to compose or
	// transmit the probe.
	OutcomeSendError
	// OutcomeRigError means the radio could not be tuned for the probe.
	OutcomeRigError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeSendError:
		return "send_error"
	case OutcomeRigError:
		return "rig_error"
	default:
		return "unknown"
	}
}

// Verdict is the derived health state of a node.
type Verdict string

const (
	// VerdictUnknown means the window has not filled yet.
	VerdictUnknown   Verdict = "UNKNOWN"
	VerdictHealthy   Verdict = "HEALTHY"
	VerdictUnhealthy Verdict = "UNHEALTHY"
)
