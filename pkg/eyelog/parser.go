package eyelog

import (
	"context"
	"errors"
)

// Var is one trial variable produced by a LineParser.
type Var struct {
	Name  string
	Value any
}

// ParseResult represents the result of parsing a line.
type ParseResult struct {
	// Vars are set on the open trial in order.
	Vars []Var

	// Matched indicates whether the parser recognized the line.
	// This can be true even if Vars is empty.
	Matched bool
}

// Parser extracts trial variables from the lines of an open trial.
// Implementations include pattern.RegexParser (YAML regex patterns) and Wasm
// plugins loaded by the CLI.
type Parser interface {
	// ParseLine parses a single line.
	// Returns ParseResult with Matched=true if the line was recognized.
	// Returns error only for unexpected failures, not for unrecognized lines.
	ParseLine(ctx context.Context, l Line) (ParseResult, error)
}

// ParserFunc is an adapter to allow ordinary functions to be used as Parsers.
type ParserFunc func(ctx context.Context, l Line) (ParseResult, error)

// ParseLine implements the Parser interface.
func (f ParserFunc) ParseLine(ctx context.Context, l Line) (ParseResult, error) {
	return f(ctx, l)
}

// ChainMode specifies how ParserChain executes parsers.
type ChainMode int

const (
	// ChainAll executes all parsers and combines results (default).
	ChainAll ChainMode = iota

	// ChainFirst stops at the first parser that matches.
	ChainFirst

	// ChainContinueOnError skips parsers that return errors and continues.
	// Errors are collected and returned together at the end.
	ChainContinueOnError
)

// ParserChain combines multiple parsers.
type ParserChain struct {
	Mode    ChainMode
	Parsers []Parser
}

// ParseLine implements the Parser interface. If the context is cancelled
// between parsers, the variables collected so far are returned with the
// context error.
func (c *ParserChain) ParseLine(ctx context.Context, l Line) (ParseResult, error) {
	var vars []Var
	var errs []error
	anyMatched := false

	for _, p := range c.Parsers {
		if err := ctx.Err(); err != nil {
			return ParseResult{Vars: vars, Matched: anyMatched}, err
		}
		if p == nil {
			continue
		}

		result, err := p.ParseLine(ctx, l)
		if err != nil {
			if c.Mode == ChainContinueOnError {
				errs = append(errs, err)
				continue
			}
			return ParseResult{}, err
		}
		if result.Matched {
			anyMatched = true
			vars = append(vars, result.Vars...)
			if c.Mode == ChainFirst {
				return ParseResult{Vars: vars, Matched: true}, nil
			}
		}
	}

	if len(errs) > 0 {
		return ParseResult{Vars: vars, Matched: anyMatched}, errors.Join(errs...)
	}
	return ParseResult{Vars: vars, Matched: anyMatched}, nil
}

// ParserHooks returns hooks that run p on every extra line of a trial and
// set the variables it returns. Variables returned together with an error
// are still set.
func ParserHooks(p Parser) Hooks {
	return Hooks{
		ParseExtraLine: func(ctx context.Context, tr *Trial, l Line) error {
			result, err := p.ParseLine(ctx, l)
			for _, v := range result.Vars {
				tr.SetVar(v.Name, v.Value)
			}
			return err
		},
	}
}
