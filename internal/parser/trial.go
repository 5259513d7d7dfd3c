package parser

import "slices"

// Trace prefixes of the three per-phase columns.
const (
	PupilPrefix = "ptrace_"
	XPrefix     = "xtrace_"
	YPrefix     = "ytrace_"
)

// Trace holds the index-aligned samples collected during one phase.
type Trace struct {
	Pupil []float64
	X     []float64
	Y     []float64
}

// Len returns the number of samples in the trace.
func (t Trace) Len() int { return len(t.Pupil) }

func (t *Trace) add(x, y, pupil float64) {
	t.Pupil = append(t.Pupil, pupil)
	t.X = append(t.X, x)
	t.Y = append(t.Y, y)
}

// Trial is one trial: an identifier, its variables and its phase traces.
// Variables and phases keep their first-set order.
type Trial struct {
	// ID is the coerced start_trial identifier (int64, float64 or string).
	ID any
	// Path is the file the trial was read from.
	Path string
	// Source is the file base name without extension.
	Source string

	vars     map[string]any
	varOrder []string
	traces   map[string]Trace
	phases   []string
}

// NewTrial returns an empty trial with the given identifier.
func NewTrial(id any) *Trial {
	return &Trial{
		ID:     id,
		vars:   make(map[string]any),
		traces: make(map[string]Trace),
	}
}

// SetVar sets a trial variable, replacing any earlier value.
func (t *Trial) SetVar(name string, v any) {
	if _, ok := t.vars[name]; !ok {
		t.varOrder = append(t.varOrder, name)
	}
	t.vars[name] = v
}

// Var returns a trial variable.
func (t *Trial) Var(name string) (any, bool) {
	v, ok := t.vars[name]
	return v, ok
}

// VarNames returns variable names in the order they were first set.
func (t *Trial) VarNames() []string {
	return slices.Clone(t.varOrder)
}

// Trace returns the trace recorded for a phase.
func (t *Trial) Trace(phase string) (Trace, bool) {
	tr, ok := t.traces[phase]
	return tr, ok
}

// PhaseNames returns the names of closed phases in closing order.
func (t *Trial) PhaseNames() []string {
	return slices.Clone(t.phases)
}

// HasPhase reports whether the phase name was already used by this trial.
func (t *Trial) HasPhase(name string) bool {
	_, ok := t.traces[name]
	return ok
}

func (t *Trial) setTrace(phase string, tr Trace) {
	if _, ok := t.traces[phase]; !ok {
		t.phases = append(t.phases, phase)
	}
	t.traces[phase] = tr
}
