package eyelog

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/eyelog/eyelog-go/internal/logfinder"
	"github.com/eyelog/eyelog-go/pkg/eyelog/table"
)

// ParseCorpus parses every file in the data directory whose name ends with
// the configured extension and concatenates the trials into one table.
//
// Files are listed in name order and parsed by up to WithWorkers files at a
// time; rows keep the listing order regardless of which file finishes first.
// A file that fails is reported in CorpusResult.Failed and the run
// continues. A folder without matching files gives an empty result and a
// warning. ParseCorpus itself fails only when the directory cannot be
// listed, the options are invalid, or ctx is done.
//
// Example:
//
//	res, err := eyelog.ParseCorpus(ctx,
//	    eyelog.WithDir("data"),
//	    eyelog.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = res.Table.WriteCSV(os.Stdout)
func ParseCorpus(ctx context.Context, opts ...ParseOption) (*CorpusResult, error) {
	cfg := applyParseOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dir, err := logfinder.FindDataDir(cfg.dir)
	if err != nil {
		return nil, &FileError{Op: FileOpFinder, Path: cfg.dir, Err: err}
	}
	paths, err := logfinder.ListFiles(dir, cfg.ext)
	switch {
	case errors.Is(err, logfinder.ErrNoFiles):
		cfg.logger.Warn("no matching files", "dir", dir, "ext", cfg.ext)
	case err != nil:
		return nil, &FileError{Op: FileOpFinder, Path: dir, Err: err}
	}
	cfg.logger.Info("parsing corpus", "dir", dir, "ext", cfg.ext, "files", len(paths), "workers", cfg.workers)

	return parseCorpus(ctx, paths, cfg)
}

// ParsePaths is ParseCorpus over an explicit list of files, in the given
// order. WithDir and WithExt are ignored.
func ParsePaths(ctx context.Context, paths []string, opts ...ParseOption) (*CorpusResult, error) {
	cfg := applyParseOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return parseCorpus(ctx, paths, cfg)
}

// fileOutcome is the slot a worker fills for one file.
type fileOutcome struct {
	res      *FileResult
	fragment *table.Table
	err      error
}

func parseCorpus(ctx context.Context, paths []string, cfg *parseConfig) (*CorpusResult, error) {
	outcomes := make([]fileOutcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := parseFile(gctx, path, cfg)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				outcomes[i].err = err
				return nil
			}
			fragment, dropped := ToTable(res.Trials)
			dropTrials(res, dropped, cfg.logger)
			outcomes[i] = fileOutcome{res: res, fragment: fragment}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &CorpusResult{Table: table.New()}
	for i, o := range outcomes {
		if o.err != nil {
			out.Failed = append(out.Failed, asFileError(paths[i], o.err))
			cfg.logger.Warn("file failed", "path", paths[i], "error", o.err)
			continue
		}
		// rows whose columns an earlier file holds with the other kind
		if rows := out.Table.Append(o.fragment); len(rows) > 0 {
			dropped := make([]*Trial, len(rows))
			for j, r := range rows {
				dropped[j] = o.res.Trials[r]
			}
			dropTrials(o.res, dropped, cfg.logger)
		}
		out.Files = append(out.Files, o.res)
		out.Stats.Add(o.res.Stats)
	}

	cfg.logger.Info("corpus parsed",
		"files", len(out.Files),
		"failed", len(out.Failed),
		"trials", out.Stats.Trials,
		"skipped", out.Stats.Skipped)
	return out, nil
}

// dropTrials removes trials that got no table row from res and counts them
// as skipped.
func dropTrials(res *FileResult, dropped []*Trial, logger *slog.Logger) {
	if len(dropped) == 0 {
		return
	}
	res.Trials = slices.DeleteFunc(res.Trials, func(tr *Trial) bool {
		return slices.Contains(dropped, tr)
	})
	for _, tr := range dropped {
		res.Stats.Trials--
		res.Stats.Skipped++
		res.Stats.Samples -= traceSamples(tr)
		logger.Warn("column conflict, trial dropped", "path", res.Path, "trial", tr.ID)
	}
}

func asFileError(path string, err error) *FileError {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe
	}
	return &FileError{Op: FileOpParse, Path: path, Err: err}
}

// Err joins the errors of all failed files, or returns nil.
func (r *CorpusResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, fe := range r.Failed {
		errs[i] = fe
	}
	return errors.Join(errs...)
}
