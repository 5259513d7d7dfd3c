// Package parser implements the trial/phase state machine that turns the
// token stream of one EyeLink ASCII file into trials.
package parser

import (
	"github.com/eyelog/eyelog-go/internal/event"
	"github.com/eyelog/eyelog-go/internal/token"
)

// State is the nesting level of the machine.
type State int

const (
	// Idle is outside any trial.
	Idle State = iota
	// InTrial has a trial open and no phase.
	InTrial
	// InPhase has a trial and a phase open.
	InPhase
)

func (s State) String() string {
	switch s {
	case InTrial:
		return "in_trial"
	case InPhase:
		return "in_phase"
	default:
		return "idle"
	}
}

// OutcomeKind describes what a Step did.
type OutcomeKind int

const (
	// None means the line was ignored outside a trial.
	None OutcomeKind = iota
	TrialStarted
	TrialClosed
	TrialDiscarded
	PhaseStarted
	PhaseClosed
	VarSet
	SampleAdded
	// Other is any other line inside a trial. Record or DecodeErr may be set.
	Other
)

// Outcome is the result of one Step.
type Outcome struct {
	Kind OutcomeKind

	// Trial is the closed trial for TrialClosed and the new trial for
	// TrialStarted.
	Trial *Trial

	// Record is the decoded record of a non-control line inside a trial.
	Record event.Record

	// DecodeErr is set when a line inside a trial matched a record shape
	// but failed decoding.
	DecodeErr error

	// Violation is set when the line broke the trial/phase protocol. The
	// trial that was open has been discarded.
	Violation error
}

// phase is the open accumulation context.
type phase struct {
	name  string
	trace Trace
}

// Machine is the state machine for one file. It is not safe for concurrent
// use; every file gets its own Machine.
type Machine struct {
	state     State
	eyes      event.Eyes
	eyesFixed bool
	trial     *Trial
	phase     *phase
}

// New returns an idle machine. eyes fixes the recorded eyes for the file;
// event.EyesUnknown enables detection from the recording header, falling
// back to a left-eye recording at the first sample.
func New(eyes event.Eyes) *Machine {
	return &Machine{
		eyes:      eyes,
		eyesFixed: eyes != event.EyesUnknown,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Eyes returns the recorded eyes as known so far.
func (m *Machine) Eyes() event.Eyes { return m.eyes }

// Trial returns the open trial, or nil when idle.
func (m *Machine) Trial() *Trial { return m.trial }

// Phase returns the name of the open phase, or "".
func (m *Machine) Phase() string {
	if m.phase == nil {
		return ""
	}
	return m.phase.name
}

// Step consumes one tokenized line.
func (m *Machine) Step(l token.Line) Outcome {
	switch marker(l) {
	case kwStartTrial:
		return m.startTrial(l[3])
	case kwEndTrial:
		return m.endTrial()
	case kwVar:
		return m.setVar(l[3].Raw, l[4])
	case kwStartPhase:
		return m.startPhase(l[3].Raw)
	case kwEndPhase:
		return m.endPhase(l[3].Raw)
	}

	if !m.eyesFixed {
		if eyes, ok := event.DetectEyes(l); ok {
			m.eyes, m.eyesFixed = eyes, true
		}
	}

	if m.state == Idle {
		return Outcome{Kind: None}
	}
	return m.record(l)
}

// Discard drops the open trial and phase and returns to Idle.
func (m *Machine) Discard() {
	m.trial, m.phase, m.state = nil, nil, Idle
}

// Finish ends the stream. It reports whether a trial was still open; that
// trial is dropped.
func (m *Machine) Finish() (unterminated bool) {
	unterminated = m.state != Idle
	m.Discard()
	return unterminated
}

func (m *Machine) startTrial(id token.Token) Outcome {
	var violation error
	if m.state != Idle {
		violation = m.violation(ErrUnterminatedTrial, "")
	}
	m.trial = NewTrial(id.Value())
	m.phase = nil
	m.state = InTrial
	return Outcome{Kind: TrialStarted, Trial: m.trial, Violation: violation}
}

func (m *Machine) endTrial() Outcome {
	switch m.state {
	case Idle:
		return Outcome{Kind: None}
	case InPhase:
		return m.discard(ErrPhaseOpenAtEnd, m.phase.name)
	}
	tr := m.trial
	m.trial, m.state = nil, Idle
	return Outcome{Kind: TrialClosed, Trial: tr}
}

func (m *Machine) setVar(name string, v token.Token) Outcome {
	if m.state == Idle {
		return Outcome{Kind: None}
	}
	m.trial.SetVar(name, v.Value())
	return Outcome{Kind: VarSet}
}

func (m *Machine) startPhase(name string) Outcome {
	switch {
	case m.state == Idle:
		return Outcome{Kind: None}
	case m.state == InPhase:
		return m.discard(ErrNestedPhase, name)
	case m.trial.HasPhase(name):
		return m.discard(ErrDuplicatePhase, name)
	}
	m.phase = &phase{name: name}
	m.state = InPhase
	return Outcome{Kind: PhaseStarted}
}

func (m *Machine) endPhase(name string) Outcome {
	switch {
	case m.state == Idle:
		return Outcome{Kind: None}
	case m.state == InTrial:
		return m.discard(ErrNoOpenPhase, name)
	case m.phase.name != name:
		return m.discard(ErrPhaseMismatch, name)
	}
	m.trial.setTrace(m.phase.name, m.phase.trace)
	m.phase = nil
	m.state = InTrial
	return Outcome{Kind: PhaseClosed}
}

// record classifies a non-control line inside a trial and feeds samples to
// the open phase.
func (m *Machine) record(l token.Line) Outcome {
	rec, err := event.Classify(l, m.eyes)
	if err != nil {
		return Outcome{Kind: Other, DecodeErr: err}
	}
	s, ok := rec.(*event.Sample)
	if !ok {
		return Outcome{Kind: Other, Record: rec}
	}
	if !m.eyesFixed {
		m.eyes, m.eyesFixed = s.Eyes, true
	}
	if m.state != InPhase {
		return Outcome{Kind: Other, Record: rec}
	}
	x, y, p := s.Gaze()
	m.phase.trace.add(x, y, p)
	return Outcome{Kind: SampleAdded, Record: rec}
}

func (m *Machine) discard(err error, phaseName string) Outcome {
	v := m.violation(err, phaseName)
	m.Discard()
	return Outcome{Kind: TrialDiscarded, Violation: v}
}

func (m *Machine) violation(err error, phaseName string) error {
	var id any
	if m.trial != nil {
		id = m.trial.ID
	}
	return &ViolationError{TrialID: id, Phase: phaseName, Err: err}
}
