package parser

import (
	"errors"
	"fmt"
)

// Protocol violations: control messages that break the trial/phase nesting.
var (
	ErrNestedPhase       = errors.New("start_phase while a phase is open")
	ErrDuplicatePhase    = errors.New("phase name already used in this trial")
	ErrPhaseMismatch     = errors.New("end_phase does not match the open phase")
	ErrNoOpenPhase       = errors.New("end_phase without an open phase")
	ErrPhaseOpenAtEnd    = errors.New("end_trial while a phase is open")
	ErrUnterminatedTrial = errors.New("start_trial while a trial is open")
)

// ViolationError reports a protocol violation inside a trial.
type ViolationError struct {
	TrialID any
	Phase   string // phase named by the offending message
	Err     error
}

func (e *ViolationError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("trial %v: phase %q: %v", e.TrialID, e.Phase, e.Err)
	}
	return fmt.Sprintf("trial %v: %v", e.TrialID, e.Err)
}

func (e *ViolationError) Unwrap() error {
	return e.Err
}

// Policy selects how a file driver handles a protocol violation.
type Policy int

const (
	// DiscardTrial drops the trial and continues with the rest of the file.
	DiscardTrial Policy = iota
	// AbortFile stops the file and reports the violation as its error.
	AbortFile
)

func (p Policy) String() string {
	if p == AbortFile {
		return "abort_file"
	}
	return "discard_trial"
}

// ParsePolicy parses "discard_trial" / "discard" or "abort_file" / "abort".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "discard", "discard_trial":
		return DiscardTrial, nil
	case "abort", "abort_file":
		return AbortFile, nil
	}
	return DiscardTrial, fmt.Errorf("unknown policy %q (want discard_trial or abort_file)", s)
}
