package pattern

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/eyelog/eyelog-go/internal/safefile"
)

const (
	// MaxPatternFileSize bounds the size of a pattern file (1 MB).
	MaxPatternFileSize = 1 << 20

	// MaxPatternLength bounds the length of one regex.
	MaxPatternLength = 512

	// MaxPatternCount bounds the number of patterns in a file. Every
	// pattern runs on every line of every trial.
	MaxPatternCount = 256

	// SupportedVersion is the only accepted file format version.
	SupportedVersion = 1
)

// Load reads and validates a pattern file. The path must name a regular
// file; symlinks, FIFOs and devices are rejected.
func Load(path string) (*PatternFile, error) {
	data, err := safefile.ReadLimited(path, MaxPatternFileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", safefile.SanitizePathError(err))
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates a pattern file held in memory.
func LoadBytes(data []byte) (*PatternFile, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("pattern file: %w", safefile.ErrEmpty)
	}
	if len(data) > MaxPatternFileSize {
		return nil, fmt.Errorf("pattern file: %w: %d bytes (max %d)", safefile.ErrTooLarge, len(data), MaxPatternFileSize)
	}

	var pf PatternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := pf.Validate(); err != nil {
		return nil, err
	}
	return &pf, nil
}

// Validate checks the schema of the file: version, pattern count, required
// fields, unique ids and regex length. Regexes are compiled later, by
// NewRegexParser.
func (pf *PatternFile) Validate() error {
	if pf.Version != SupportedVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", pf.Version, SupportedVersion),
		}
	}
	if len(pf.Patterns) == 0 {
		return &ValidationError{Field: "patterns", Message: "at least one pattern is required"}
	}
	if len(pf.Patterns) > MaxPatternCount {
		return &ValidationError{
			Field:   "patterns",
			Message: fmt.Sprintf("too many patterns (%d), maximum allowed is %d", len(pf.Patterns), MaxPatternCount),
		}
	}

	seen := make(map[string]int, len(pf.Patterns))
	for i, p := range pf.Patterns {
		if p.ID == "" {
			return &PatternError{Index: i, Field: "id", Message: "id is required"}
		}
		if p.Regex == "" {
			return &PatternError{Index: i, ID: p.ID, Field: "regex", Message: "regex is required"}
		}
		if prev, ok := seen[p.ID]; ok {
			return &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "id",
				Message: fmt.Sprintf("duplicate id (previously defined at pattern[%d])", prev),
			}
		}
		seen[p.ID] = i

		if len(p.Regex) > MaxPatternLength {
			return &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: fmt.Sprintf("pattern too long: %d bytes (max %d)", len(p.Regex), MaxPatternLength),
			}
		}
	}
	return nil
}
