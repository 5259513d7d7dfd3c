package pattern

import "fmt"

// ValidationError is a file-level schema error, such as an unsupported
// version or an empty pattern list.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// PatternError is an error in one pattern of a file.
type PatternError struct {
	Index   int    // 0-based position in the file
	ID      string // may be empty when the id field is missing
	Field   string
	Message string
	Cause   error
}

func (e *PatternError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("pattern %q: %s: %s", e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("pattern[%d]: %s: %s", e.Index, e.Field, e.Message)
}

func (e *PatternError) Unwrap() error {
	return e.Cause
}
