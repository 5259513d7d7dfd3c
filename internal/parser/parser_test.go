package parser

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/eyelog/eyelog-go/internal/event"
	"github.com/eyelog/eyelog-go/internal/token"
)

// run feeds lines to a fresh machine and returns the closed trials and the
// violations seen.
func run(t *testing.T, eyes event.Eyes, input string) ([]*Trial, []error) {
	t.Helper()
	m := New(eyes)
	var trials []*Trial
	var violations []error
	for _, line := range strings.Split(input, "\n") {
		o := m.Step(token.Tokenize(line))
		if o.Violation != nil {
			violations = append(violations, o.Violation)
		}
		if o.Kind == TrialClosed {
			trials = append(trials, o.Trial)
		}
	}
	m.Finish()
	return trials, violations
}

func TestMachine_ConcreteScenario(t *testing.T) {
	input := `MSG 100 start_trial 1
MSG 101 var cond A
MSG 102 start_phase probe
4815155 168.2 406.5 2141.0
MSG 103 end_phase probe
MSG 104 end_trial`

	trials, violations := run(t, event.EyesUnknown, input)
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
	if len(trials) != 1 {
		t.Fatalf("got %d trials, want 1", len(trials))
	}
	tr := trials[0]

	if tr.ID != int64(1) {
		t.Errorf("ID = %#v, want int64(1)", tr.ID)
	}
	if v, _ := tr.Var("cond"); v != "A" {
		t.Errorf("cond = %#v, want \"A\"", v)
	}
	trace, ok := tr.Trace("probe")
	if !ok {
		t.Fatal("missing probe trace")
	}
	if trace.Len() != 1 || trace.Pupil[0] != 2141.0 || trace.X[0] != 168.2 || trace.Y[0] != 406.5 {
		t.Errorf("probe trace = %+v", trace)
	}
}

func TestMachine_TraceAlignment(t *testing.T) {
	input := `MSG 1 start_trial 7
MSG 2 start_phase fix
100 1.0 10.0 1000
101 2.0 20.0 1001
101 a b c d e f
102 . . 0.0 ...
103 4.0 40.0 1003 ...
MSG 3 end_phase fix
MSG 4 end_trial`

	trials, _ := run(t, event.EyesUnknown, input)
	if len(trials) != 1 {
		t.Fatalf("got %d trials, want 1", len(trials))
	}
	trace, _ := trials[0].Trace("fix")
	if trace.Len() != 4 || len(trace.X) != 4 || len(trace.Y) != 4 {
		t.Fatalf("trace lengths = %d/%d/%d, want 4", len(trace.Pupil), len(trace.X), len(trace.Y))
	}
	wantX := []float64{1, 2, math.NaN(), 4}
	for i, want := range wantX {
		got := trace.X[i]
		if math.IsNaN(want) != math.IsNaN(got) || (!math.IsNaN(want) && want != got) {
			t.Errorf("X[%d] = %v, want %v", i, got, want)
		}
	}
	if !math.IsNaN(trace.Pupil[2]) {
		t.Errorf("Pupil[2] = %v, want NaN", trace.Pupil[2])
	}
	if trace.Y[3] != 40 {
		t.Errorf("Y[3] = %v, want 40", trace.Y[3])
	}
}

func TestMachine_Violations(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErr    error
		wantTrials int
	}{
		{
			name: "nested phase",
			input: `MSG 1 start_trial 1
MSG 2 start_phase a
MSG 3 start_phase b
MSG 4 end_phase b
MSG 5 end_phase a
MSG 6 end_trial`,
			wantErr: ErrNestedPhase,
		},
		{
			name: "duplicate phase",
			input: `MSG 1 start_trial 1
MSG 2 start_phase a
MSG 3 end_phase a
MSG 4 start_phase a
MSG 5 end_phase a
MSG 6 end_trial`,
			wantErr: ErrDuplicatePhase,
		},
		{
			name: "mismatched end_phase",
			input: `MSG 1 start_trial 1
MSG 2 start_phase a
MSG 3 end_phase b
MSG 4 end_trial`,
			wantErr: ErrPhaseMismatch,
		},
		{
			name: "end_phase without phase",
			input: `MSG 1 start_trial 1
MSG 3 end_phase b
MSG 4 end_trial`,
			wantErr: ErrNoOpenPhase,
		},
		{
			name: "end_trial with open phase",
			input: `MSG 1 start_trial 1
MSG 2 start_phase a
MSG 4 end_trial`,
			wantErr: ErrPhaseOpenAtEnd,
		},
		{
			name: "start_trial inside trial keeps the new trial",
			input: `MSG 1 start_trial 1
MSG 2 start_trial 2
MSG 3 end_trial`,
			wantErr:    ErrUnterminatedTrial,
			wantTrials: 1,
		},
		{
			name: "parse continues with the next trial",
			input: `MSG 1 start_trial 1
MSG 2 start_phase a
MSG 3 start_phase a
MSG 4 end_trial
MSG 5 start_trial 2
MSG 6 end_trial`,
			wantErr:    ErrNestedPhase,
			wantTrials: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trials, violations := run(t, event.EyesUnknown, tt.input)
			if len(violations) != 1 {
				t.Fatalf("got %d violations (%v), want 1", len(violations), violations)
			}
			if !errors.Is(violations[0], tt.wantErr) {
				t.Errorf("violation = %v, want %v", violations[0], tt.wantErr)
			}
			var ve *ViolationError
			if !errors.As(violations[0], &ve) {
				t.Errorf("violation %T is not a *ViolationError", violations[0])
			}
			if len(trials) != tt.wantTrials {
				t.Errorf("got %d trials, want %d", len(trials), tt.wantTrials)
			}
		})
	}
}

func TestMachine_StateTransitions(t *testing.T) {
	m := New(event.EyesLeft)
	steps := []struct {
		line  string
		kind  OutcomeKind
		state State
	}{
		{"MSG 1 var early 1", None, Idle},
		{"MSG 2 start_phase early", None, Idle},
		{"4815155 168.2 406.5 2141.0", None, Idle},
		{"MSG 3 start_trial 1", TrialStarted, InTrial},
		{"MSG 4 var rt 500", VarSet, InTrial},
		{"4815155 168.2 406.5 2141.0", Other, InTrial},
		{"MSG 5 start_phase probe", PhaseStarted, InPhase},
		{"4815156 168.2 406.5 2141.0", SampleAdded, InPhase},
		{"EFIX R 1651574 1654007 2434 653.3 557.8 4710", Other, InPhase},
		{"MSG 6 var rt", Other, InPhase},
		{"MSG 7 end_phase probe", PhaseClosed, InTrial},
		{"MSG 8 end_trial", TrialClosed, Idle},
		{"MSG 9 end_trial", None, Idle},
	}

	for i, s := range steps {
		o := m.Step(token.Tokenize(s.line))
		if o.Kind != s.kind {
			t.Errorf("step %d (%q): kind = %v, want %v", i, s.line, o.Kind, s.kind)
		}
		if m.State() != s.state {
			t.Errorf("step %d (%q): state = %v, want %v", i, s.line, m.State(), s.state)
		}
	}
}

func TestMachine_RecordsInTrial(t *testing.T) {
	m := New(event.EyesUnknown)
	m.Step(token.Tokenize("MSG 1 start_trial 1"))

	o := m.Step(token.Tokenize("ESACC R 3216221 3216233 13 515.2 381.6 531.2 390.7 0.51 58"))
	if _, ok := o.Record.(*event.Saccade); !ok {
		t.Errorf("Record = %T, want *event.Saccade", o.Record)
	}

	o = m.Step(token.Tokenize("EBLINK R 5294685 x 90"))
	if !errors.Is(o.DecodeErr, event.ErrNotNumeric) {
		t.Errorf("DecodeErr = %v, want ErrNotNumeric", o.DecodeErr)
	}
}

func TestMachine_UnterminatedAtEOF(t *testing.T) {
	m := New(event.EyesUnknown)
	m.Step(token.Tokenize("MSG 1 start_trial 1"))
	m.Step(token.Tokenize("MSG 2 start_phase a"))

	if !m.Finish() {
		t.Error("Finish() = false, want true for an open trial")
	}
	if m.State() != Idle || m.Trial() != nil {
		t.Error("Finish() should leave the machine idle")
	}
	if m.Finish() {
		t.Error("second Finish() = true, want false")
	}
}

func TestMachine_EyeDetection(t *testing.T) {
	t.Run("header fixes eyes", func(t *testing.T) {
		m := New(event.EyesUnknown)
		m.Step(token.Tokenize("START\t10350638 \tRIGHT\tSAMPLES\tEVENTS"))
		if m.Eyes() != event.EyesRight {
			t.Fatalf("Eyes() = %v, want right", m.Eyes())
		}
		// later headers do not change the file's eye set
		m.Step(token.Tokenize("START\t10360638 \tLEFT\tSAMPLES\tEVENTS"))
		if m.Eyes() != event.EyesRight {
			t.Errorf("Eyes() = %v after second header, want right", m.Eyes())
		}
	})

	t.Run("first sample falls back to left", func(t *testing.T) {
		m := New(event.EyesUnknown)
		m.Step(token.Tokenize("MSG 1 start_trial 1"))
		m.Step(token.Tokenize("100 1 2 3"))
		if m.Eyes() != event.EyesLeft {
			t.Errorf("Eyes() = %v, want left", m.Eyes())
		}
	})

	t.Run("fixed eyes ignore headers", func(t *testing.T) {
		m := New(event.EyesBoth)
		m.Step(token.Tokenize("START\t10350638 \tLEFT\tSAMPLES\tEVENTS"))
		if m.Eyes() != event.EyesBoth {
			t.Errorf("Eyes() = %v, want both", m.Eyes())
		}
	})

	t.Run("right eye traces", func(t *testing.T) {
		input := `START 1 RIGHT SAMPLES EVENTS
MSG 1 start_trial 1
MSG 2 start_phase p
100 5 6 7 ...
MSG 3 end_phase p
MSG 4 end_trial`
		trials, _ := run(t, event.EyesUnknown, input)
		if len(trials) != 1 {
			t.Fatalf("got %d trials, want 1", len(trials))
		}
		tr, _ := trials[0].Trace("p")
		if tr.X[0] != 5 || tr.Y[0] != 6 || tr.Pupil[0] != 7 {
			t.Errorf("trace = %+v", tr)
		}
	})
}

func TestMachine_PhaseNamesAreRaw(t *testing.T) {
	trials, _ := run(t, event.EyesUnknown, `MSG 1 start_trial abc
MSG 2 start_phase 01
MSG 3 end_phase 01
MSG 4 end_trial`)
	if len(trials) != 1 {
		t.Fatalf("got %d trials, want 1", len(trials))
	}
	if got := trials[0].PhaseNames(); len(got) != 1 || got[0] != "01" {
		t.Errorf("PhaseNames() = %v, want [01]", got)
	}
	if trials[0].ID != "abc" {
		t.Errorf("ID = %#v, want \"abc\"", trials[0].ID)
	}
}

func TestTrial_VarOrder(t *testing.T) {
	tr := NewTrial(int64(1))
	tr.SetVar("b", 1)
	tr.SetVar("a", 2)
	tr.SetVar("b", 3)

	names := tr.VarNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("VarNames() = %v, want [b a]", names)
	}
	if v, _ := tr.Var("b"); v != 3 {
		t.Errorf("b = %v, want 3", v)
	}
}

func FuzzMachine(f *testing.F) {
	f.Add("MSG 100 start_trial 1\nMSG 102 start_phase probe\n4815155 168.2 406.5 2141.0\nMSG 103 end_phase probe\nMSG 104 end_trial")
	f.Add("MSG 1 start_phase a\nMSG 2 end_trial")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		// Should not panic; traces must stay index-aligned
		m := New(event.EyesUnknown)
		for _, line := range strings.Split(input, "\n") {
			o := m.Step(token.Tokenize(line))
			if o.Kind != TrialClosed {
				continue
			}
			for _, name := range o.Trial.PhaseNames() {
				tr, _ := o.Trial.Trace(name)
				if len(tr.X) != tr.Len() || len(tr.Y) != tr.Len() {
					t.Fatalf("phase %q traces are not aligned", name)
				}
			}
		}
		m.Finish()
	})
}
