// Package domain models the churn workflow state machine. A churn record
// moves along one of two tracks depending on whether the client has a signed
// contract, and every transition goes through NextStep so illegal jumps are
// impossible to express.
package domain

// Step is a churn workflow stage.
type Step string

const (
	StepRequested         Step = "requested"
	StepBillingRemoved    Step = "billing_removed"
	StepTerminationSent   Step = "termination_sent"
	StepTerminationSigned Step = "termination_signed"
	StepEffective         Step = "effective"
)

// withContractTrack is the full termination paper trail.
var withContractTrack = []Step{
	StepRequested,
	StepBillingRemoved,
	StepTerminationSent,
	StepTerminationSigned,
}

// withoutContractTrack skips the paperwork entirely.
var withoutContractTrack = []Step{
	StepRequested,
	StepEffective,
}

// Track returns the ordered steps for a record.
func Track(hasContract bool) []Step {
	if hasContract {
		return withContractTrack
	}
	return withoutContractTrack
}

// FirstStep is the entry step of every track.
func FirstStep() Step {
	return StepRequested
}

// NextStep returns the step after current on the given track. ok is false
// when current is terminal or not on the track at all.
func NextStep(hasContract bool, current Step) (Step, bool) {
	track := Track(hasContract)
	for i, step := range track {
		if step == current {
			if i == len(track)-1 {
				return "", false
			}
			return track[i+1], true
		}
	}
	return "", false
}

// IsTerminal reports whether current is the last step of its track.
func IsTerminal(hasContract bool, current Step) bool {
	track := Track(hasContract)
	return current == track[len(track)-1]
}

// IsValid reports whether the step exists on the given track.
func IsValid(hasContract bool, step Step) bool {
	for _, s := range Track(hasContract) {
		if s == step {
			return true
		}
	}
	return false
}
