package eyelog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/eyelog/eyelog-go/internal/event"
	"github.com/eyelog/eyelog-go/internal/parser"
	"github.com/eyelog/eyelog-go/internal/safefile"
	"github.com/eyelog/eyelog-go/internal/tailer"
	"github.com/eyelog/eyelog-go/internal/token"
)

// ParseFile parses one recording file into trials.
//
// A malformed line never fails the file. Protocol violations drop the
// affected trial, or fail the file with the AbortFile policy. The returned
// error is a *FileError, a validation error for opts, or ctx.Err().
//
// Example:
//
//	res, err := eyelog.ParseFile(ctx, "data/s01.asc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d trials, %d skipped\n", res.Stats.Trials, res.Stats.Skipped)
func ParseFile(ctx context.Context, path string, opts ...ParseOption) (*FileResult, error) {
	cfg := applyParseOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return parseFile(ctx, path, cfg)
}

func parseFile(ctx context.Context, path string, cfg *parseConfig) (*FileResult, error) {
	res := &FileResult{Path: path, Source: SourceName(path)}
	fp := newFileParser(path, cfg, &res.Stats)
	err := fp.run(ctx, func(tr *Trial) bool {
		res.Trials = append(res.Trials, tr)
		return true
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Trials returns an iterator over the trials of one file, in file order.
// On failure the final pair carries a nil trial and the error. Breaking out
// of the loop stops reading the file; OnEndFile is not called then.
//
// Example:
//
//	for tr, err := range eyelog.Trials(ctx, "data/s01.asc") {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(tr.ID)
//	}
func Trials(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[*Trial, error] {
	return func(yield func(*Trial, error) bool) {
		cfg := applyParseOptions(opts)
		if err := cfg.validate(); err != nil {
			yield(nil, err)
			return
		}

		var stats Stats
		stopped := false
		err := newFileParser(path, cfg, &stats).run(ctx, func(tr *Trial) bool {
			if !yield(tr, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// SourceName returns the base name of path without its extension.
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// fileParser runs one file through a state machine.
type fileParser struct {
	path   string
	source string
	cfg    *parseConfig
	stats  *Stats
	log    *slog.Logger
	m      *parser.Machine
}

func newFileParser(path string, cfg *parseConfig, stats *Stats) *fileParser {
	return &fileParser{
		path:   path,
		source: SourceName(path),
		cfg:    cfg,
		stats:  stats,
		log:    cfg.logger.With("path", path),
		m:      parser.New(cfg.eyes),
	}
}

// run reads the file and calls emit for each completed trial. emit returning
// false stops the read without error.
func (p *fileParser) run(ctx context.Context, emit func(*Trial) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := safefile.Check(p.path); err != nil {
		return &FileError{Op: FileOpOpen, Path: p.path, Err: err}
	}
	if h := p.cfg.hooks.OnStartFile; h != nil {
		if err := h(ctx, p.path); err != nil {
			return &FileError{Op: FileOpHook, Path: p.path, Err: fmt.Errorf("on_start_file: %w", err)}
		}
	}

	tl, err := tailer.New(ctx, p.path, tailer.DefaultConfig())
	if err != nil {
		return &FileError{Op: FileOpOpen, Path: p.path, Err: err}
	}
	defer func() { _ = tl.Stop() }()

	p.log.Debug("parsing file", "eyes", p.cfg.eyes, "policy", p.cfg.policy)

	num := 0
	for text := range tl.Lines() {
		num++
		p.stats.Lines++
		tr, err := p.step(ctx, num, text)
		if err != nil {
			return err
		}
		if tr != nil && !emit(tr) {
			return nil
		}
	}
	if err := tl.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return &FileError{Op: FileOpRead, Path: p.path, Err: err}
	}

	if p.m.Finish() {
		p.stats.Unterminated++
		p.log.Warn("trial open at end of file dropped")
	}
	if h := p.cfg.hooks.OnEndFile; h != nil {
		if err := h(ctx, p.path, *p.stats); err != nil {
			return &FileError{Op: FileOpHook, Path: p.path, Err: fmt.Errorf("on_end_file: %w", err)}
		}
	}

	p.log.Info("parsed file",
		"trials", p.stats.Trials,
		"skipped", p.stats.Skipped,
		"rejected", p.stats.Rejected,
		"unterminated", p.stats.Unterminated)
	return nil
}

// step feeds one line to the machine. It returns the trial closed by the
// line, if any.
func (p *fileParser) step(ctx context.Context, num int, text string) (*Trial, error) {
	l := token.Tokenize(text)
	// the trial the line belongs to, for hooks and violation reports
	open := p.m.Trial()
	o := p.m.Step(l)

	if o.Violation != nil {
		p.stats.Skipped++
		if p.cfg.policy == AbortFile {
			return nil, &FileError{Op: FileOpParse, Path: p.path, Err: fmt.Errorf("line %d: %w", num, o.Violation)}
		}
		p.log.Warn("protocol violation, trial dropped", "line", num, "error", o.Violation)
	}

	switch o.Kind {
	case parser.TrialStarted:
		o.Trial.Path = p.path
		o.Trial.Source = p.source
		if h := p.cfg.hooks.OnStartTrial; h != nil {
			if err := h(ctx, o.Trial); err != nil {
				p.m.Discard()
				p.stats.Skipped++
				p.log.Warn("on_start_trial failed, trial dropped", "line", num, "trial", o.Trial.ID, "error", err)
			}
		}
		return nil, nil

	case parser.TrialClosed:
		if h := p.cfg.hooks.OnEndTrial; h != nil {
			if err := h(ctx, o.Trial); err != nil {
				p.stats.Skipped++
				p.log.Warn("on_end_trial failed, trial dropped", "line", num, "trial", o.Trial.ID, "error", err)
				return nil, nil
			}
		}
		p.stats.Trials++
		p.stats.Samples += traceSamples(o.Trial)
		return o.Trial, nil

	case parser.Other:
		if o.DecodeErr != nil {
			p.stats.Rejected++
			if errors.Is(o.DecodeErr, event.ErrUnexpected) {
				p.log.Warn("record decoding failed", "line", num, "error", o.DecodeErr)
			} else {
				p.log.Debug("record rejected", "line", num, "error", o.DecodeErr)
			}
		}

	case parser.VarSet, parser.PhaseStarted, parser.PhaseClosed, parser.SampleAdded:

	default:
		// None, TrialDiscarded
		return nil, nil
	}

	if h := p.cfg.hooks.ParseExtraLine; h != nil && open != nil {
		line := Line{Num: num, Text: text, Tokens: l, Record: o.Record, Phase: p.m.Phase()}
		if err := h(ctx, open, line); err != nil {
			p.stats.Warnings++
			p.log.Warn("parse_extra_line failed", "line", num, "trial", open.ID, "error", err)
		}
	}
	return nil, nil
}
