package pattern

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/eyelog/eyelog-go/internal/token"
	"github.com/eyelog/eyelog-go/pkg/eyelog"
)

// RegexParser is an eyelog.Parser that sets one trial variable per named
// group of every matching pattern. Patterns are tried in file order; when
// two patterns set the same variable the later one wins.
//
// RegexParser is safe for concurrent use.
type RegexParser struct {
	patterns []*compiledPattern
}

type compiledPattern struct {
	id    string
	regex *regexp.Regexp
	raw   bool
	// vars[i] is the variable name of submatch i, or "" for unnamed groups.
	vars []string
}

// NewRegexParser compiles the patterns of pf.
func NewRegexParser(pf *PatternFile) (*RegexParser, error) {
	if pf == nil {
		return nil, errors.New("pattern file is nil")
	}

	patterns := make([]*compiledPattern, 0, len(pf.Patterns))
	for i, p := range pf.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
				Cause:   err,
			}
		}

		names := re.SubexpNames()
		vars := make([]string, len(names))
		named := 0
		for j := 1; j < len(names); j++ {
			if names[j] != "" {
				vars[j] = p.Prefix + names[j]
				named++
			}
		}
		if named == 0 {
			return nil, &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: "no named group (?P<name>...) to set a variable from",
			}
		}

		patterns = append(patterns, &compiledPattern{id: p.ID, regex: re, raw: p.Raw, vars: vars})
	}
	return &RegexParser{patterns: patterns}, nil
}

// NewRegexParserFromFile loads a pattern file and compiles it.
func NewRegexParserFromFile(path string) (*RegexParser, error) {
	pf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRegexParser(pf)
}

// ParseLine implements eyelog.Parser. The line is matched with any trailing
// carriage return removed. Groups that did not take part in the match are
// skipped.
func (p *RegexParser) ParseLine(ctx context.Context, l eyelog.Line) (eyelog.ParseResult, error) {
	text := strings.TrimSuffix(l.Text, "\r")

	var vars []eyelog.Var
	matched := false
	for _, cp := range p.patterns {
		idx := cp.regex.FindStringSubmatchIndex(text)
		if idx == nil {
			continue
		}
		matched = true
		for j, name := range cp.vars {
			if name == "" || idx[2*j] < 0 {
				continue
			}
			s := text[idx[2*j]:idx[2*j+1]]
			var v any = s
			if !cp.raw {
				v = token.New(s).Value()
			}
			vars = append(vars, eyelog.Var{Name: name, Value: v})
		}
	}
	return eyelog.ParseResult{Vars: vars, Matched: matched}, nil
}

var _ eyelog.Parser = (*RegexParser)(nil)
