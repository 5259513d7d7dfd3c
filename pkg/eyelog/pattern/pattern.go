// Package pattern sets trial variables from the message lines of a trial,
// using regular expressions declared in a YAML file. Each named group of a
// matching pattern becomes one variable.
package pattern

// PatternFile is the YAML document of a pattern file.
//
// Example YAML file:
//
//	version: 1
//	patterns:
//	  - id: trial_result
//	    regex: '^MSG\s+\d+\s+TRIAL_RESULT\s+(?P<result>\S+)'
//	  - id: trial_var
//	    regex: '^MSG\s+\d+\s+!V TRIAL_VAR\s+(?P<name>\w+)\s+(?P<value>\S+)'
//	    prefix: sr_
type PatternFile struct {
	// Version is the file format version. Only version 1 is supported.
	Version int `yaml:"version"`

	Patterns []Pattern `yaml:"patterns"`
}

// Pattern is one variable pattern.
type Pattern struct {
	// ID names the pattern in error messages. IDs are unique within a file.
	ID string `yaml:"id"`

	// Regex is matched against the raw line. It needs at least one named
	// group (?P<name>...).
	Regex string `yaml:"regex"`

	// Prefix is prepended to every group name to form the variable name.
	Prefix string `yaml:"prefix,omitempty"`

	// Raw keeps captured text as strings. By default captures that look
	// like numbers are stored as int64 or float64.
	Raw bool `yaml:"raw,omitempty"`
}
