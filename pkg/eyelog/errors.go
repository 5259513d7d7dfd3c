package eyelog

import (
	"fmt"

	"github.com/eyelog/eyelog-go/internal/event"
	"github.com/eyelog/eyelog-go/internal/logfinder"
	"github.com/eyelog/eyelog-go/internal/parser"
)

// Sentinel errors.
var (
	// ErrDataDirNotFound is returned when the data directory does not exist.
	ErrDataDirNotFound = logfinder.ErrDataDirNotFound
	// ErrNoFiles reports a data directory with no matching files.
	ErrNoFiles = logfinder.ErrNoFiles

	// ErrNotNumeric marks a record field that is not a positive number.
	ErrNotNumeric = event.ErrNotNumeric
	// ErrUnexpected marks a decoder failure that is not a field error.
	ErrUnexpected = event.ErrUnexpected
)

// Protocol violations, wrapped in a *ViolationError.
var (
	ErrNestedPhase       = parser.ErrNestedPhase
	ErrDuplicatePhase    = parser.ErrDuplicatePhase
	ErrPhaseMismatch     = parser.ErrPhaseMismatch
	ErrNoOpenPhase       = parser.ErrNoOpenPhase
	ErrPhaseOpenAtEnd    = parser.ErrPhaseOpenAtEnd
	ErrUnterminatedTrial = parser.ErrUnterminatedTrial
)

// ViolationError reports a protocol violation inside a trial.
type ViolationError = parser.ViolationError

// DecodeError reports a record line that matched a shape but failed decoding.
type DecodeError = event.DecodeError

// FileOp identifies the stage at which a file failed.
type FileOp string

// File operations.
const (
	FileOpOpen   FileOp = "open"
	FileOpRead   FileOp = "read"
	FileOpParse  FileOp = "parse"
	FileOpHook   FileOp = "hook"
	FileOpFinder FileOp = "find"
)

// FileError is an error that occurred while parsing a file.
type FileError struct {
	Op   FileOp
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("eyelog: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("eyelog: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
