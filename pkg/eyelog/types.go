package eyelog

import (
	"github.com/eyelog/eyelog-go/internal/event"
	"github.com/eyelog/eyelog-go/internal/parser"
	"github.com/eyelog/eyelog-go/internal/token"
	"github.com/eyelog/eyelog-go/pkg/eyelog/table"
)

// Trial is one parsed trial: identifier, variables and phase traces.
// A Trial passed to a hook may be modified only during the callback.
type Trial = parser.Trial

// NewTrial returns an empty trial, for hooks and tests that build trials
// outside a parse.
func NewTrial(id any) *Trial {
	return parser.NewTrial(id)
}

// Trace is the pupil, x and y series collected during one phase.
type Trace = parser.Trace

// Token is one word of a tokenized line.
type Token = token.Token

// Record is a decoded data line: *Sample, *Fixation, *Saccade or *Blink.
type Record = event.Record

// Record types.
type (
	Sample   = event.Sample
	Fixation = event.Fixation
	Saccade  = event.Saccade
	Blink    = event.Blink
)

// Eyes names the eyes recorded in a file.
type Eyes = event.Eyes

// Eye selection values for WithEyes.
const (
	// EyesAuto detects the recorded eyes from the file header.
	EyesAuto  = event.EyesUnknown
	EyesLeft  = event.EyesLeft
	EyesRight = event.EyesRight
	EyesBoth  = event.EyesBoth
)

// ParseEyes parses "auto", "left", "right" or "both".
func ParseEyes(s string) (Eyes, error) {
	return event.ParseEyes(s)
}

// Policy selects how protocol violations are handled.
type Policy = parser.Policy

// Policy values for WithPolicy.
const (
	DiscardTrial = parser.DiscardTrial
	AbortFile    = parser.AbortFile
)

// ParsePolicy parses "discard_trial" or "abort_file".
func ParsePolicy(s string) (Policy, error) {
	return parser.ParsePolicy(s)
}

// Line is a line seen while a trial is open, as passed to
// Hooks.ParseExtraLine.
type Line struct {
	// Num is the 1-based line number in the file.
	Num int
	// Text is the line without its line terminator.
	Text string
	// Tokens is the tokenized line.
	Tokens []Token
	// Record is the decoded record, or nil if the line is not one.
	Record Record
	// Phase is the phase open after the line, or "".
	Phase string
}

// Stats counts what happened while parsing.
type Stats struct {
	Lines        int `json:"lines"`
	Trials       int `json:"trials"`       // trials returned
	Skipped      int `json:"skipped"`      // trials dropped by violations, hook errors or column conflicts
	Unterminated int `json:"unterminated"` // trials still open at end of file
	Samples      int `json:"samples"`      // samples in the traces of returned trials
	Rejected     int `json:"rejected"`     // record lines that failed decoding
	Warnings     int `json:"warnings"`     // ParseExtraLine hook errors
}

// Add adds o to s.
func (s *Stats) Add(o Stats) {
	s.Lines += o.Lines
	s.Trials += o.Trials
	s.Skipped += o.Skipped
	s.Unterminated += o.Unterminated
	s.Samples += o.Samples
	s.Rejected += o.Rejected
	s.Warnings += o.Warnings
}

// FileResult is the outcome of parsing one file.
type FileResult struct {
	Path string
	// Source is the file base name without extension.
	Source string
	Trials []*Trial
	Stats  Stats
}

// CorpusResult is the outcome of parsing a folder.
type CorpusResult struct {
	// Table holds one row per trial, files in discovery order.
	Table *table.Table
	// Files holds the results of the files that parsed, in discovery order.
	Files []*FileResult
	// Stats totals the stats of all parsed files.
	Stats Stats
	// Failed lists files that could not be parsed.
	Failed []*FileError
}
