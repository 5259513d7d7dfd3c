package eyelog

import (
	"github.com/eyelog/eyelog-go/internal/parser"
	"github.com/eyelog/eyelog-go/pkg/eyelog/table"
)

// Fixed columns of every row.
const (
	ColTrialID = "trialid"
	ColPath    = "path"
)

// Trace column prefixes. A phase named p yields ptrace_p, xtrace_p and
// ytrace_p.
const (
	PupilPrefix = parser.PupilPrefix
	XPrefix     = parser.XPrefix
	YPrefix     = parser.YPrefix
)

// ToTable returns a table with one row per trial: trialid, path, the trial
// variables and three series columns per phase. A trial with a variable
// named like a trace column, its own or one already in the table, gets no
// row and is returned in skipped.
func ToTable(trials []*Trial) (t *table.Table, skipped []*Trial) {
	t = table.New()
	for _, tr := range trials {
		row, err := trialRow(tr)
		if err != nil || len(t.Append(row)) > 0 {
			skipped = append(skipped, tr)
		}
	}
	return t, skipped
}

// trialRow returns a one-row table holding tr.
func trialRow(tr *Trial) (*table.Table, error) {
	t := table.New()
	row := t.AppendRow()
	if err := t.Set(row, ColTrialID, tr.ID); err != nil {
		return nil, err
	}
	if err := t.Set(row, ColPath, tr.Path); err != nil {
		return nil, err
	}
	for _, name := range tr.VarNames() {
		v, _ := tr.Var(name)
		if err := t.Set(row, name, v); err != nil {
			return nil, err
		}
	}
	for _, phase := range tr.PhaseNames() {
		trace, _ := tr.Trace(phase)
		if err := t.SetSeries(row, PupilPrefix+phase, trace.Pupil); err != nil {
			return nil, err
		}
		if err := t.SetSeries(row, XPrefix+phase, trace.X); err != nil {
			return nil, err
		}
		if err := t.SetSeries(row, YPrefix+phase, trace.Y); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// traceSamples returns the number of samples in the traces of tr.
func traceSamples(tr *Trial) int {
	n := 0
	for _, phase := range tr.PhaseNames() {
		trace, _ := tr.Trace(phase)
		n += len(trace.Pupil)
	}
	return n
}
