package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eyelog/eyelog-go/internal/logfinder"
	"github.com/eyelog/eyelog-go/internal/sqlitesink"
	"github.com/eyelog/eyelog-go/pkg/eyelog"
)

// parseOptions holds the parse flags after the config file is merged in.
type parseOptions struct {
	dir           string
	ext           string
	eyes          string
	policy        string
	workers       int
	format        string
	output        string
	events        bool
	patterns      []string
	plugins       []string
	pluginTimeout time.Duration
	config        string
}

var parseOpts parseOptions

var parseCmd = &cobra.Command{
	Use:   "parse [file.asc...]",
	Short: "Parse recordings into a trial table",
	Long: `Parse EyeLink ASCII recordings into one table with a row per trial.

Without arguments every file with the --ext suffix in the data folder is
parsed. The folder is --dir, else $EYELOG_DATADIR, else ./data. Files that
fail are reported and skipped; the command then exits with status 1 after
writing the rows of the other files.

Examples:
  # Parse ./data into JSON Lines on stdout
  eyelog parse

  # Parse a folder into CSV with fixation, saccade and blink counts
  eyelog parse --dir recordings --events -f csv -o trials.csv

  # Set variables from SR Research messages and store the run in SQLite
  eyelog parse --patterns sr-research.yaml -f sqlite -o trials.db

  # Parse two files, aborting a file on the first protocol violation
  eyelog parse --policy abort_file s01.asc s02.asc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if parseOpts.config != "" {
			cfg, err := loadConfig(parseOpts.config)
			if err != nil {
				return err
			}
			mergeConfig(cmd, cfg, &parseOpts)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runParse(ctx, parseOpts, args, cmd.OutOrStdout(), newLogger(cmd.ErrOrStderr()))
	},
}

func init() {
	f := parseCmd.Flags()
	f.StringVarP(&parseOpts.dir, "dir", "d", "",
		"Data folder (default $EYELOG_DATADIR, then ./data)")
	f.StringVar(&parseOpts.ext, "ext", logfinder.DefaultExt,
		"File name suffix of recordings")
	f.StringVar(&parseOpts.eyes, "eyes", "auto",
		"Recorded eyes: auto, left, right, both")
	f.StringVar(&parseOpts.policy, "policy", "discard_trial",
		"On protocol violations: discard_trial, abort_file")
	f.IntVarP(&parseOpts.workers, "workers", "j", 0,
		"Files parsed in parallel (0 = number of CPUs)")
	f.StringVarP(&parseOpts.format, "format", "f", "jsonl",
		"Output format: jsonl, csv, sqlite")
	f.StringVarP(&parseOpts.output, "output", "o", "",
		"Output file (default stdout; required for sqlite)")
	f.BoolVar(&parseOpts.events, "events", false,
		"Add n_fixations, n_saccades and n_blinks trial variables")
	f.StringSliceVar(&parseOpts.patterns, "patterns", nil,
		"YAML variable pattern files")
	f.StringSliceVar(&parseOpts.plugins, "plugins", nil,
		"Wasm line plugins")
	f.DurationVar(&parseOpts.pluginTimeout, "plugin-timeout", 0,
		"Per-line plugin timeout (0 = plugin default)")
	f.StringVarP(&parseOpts.config, "config", "c", "",
		"YAML config file; flags override its values")

	rootCmd.AddCommand(parseCmd)
}

// mergeConfig copies config file values into o for flags not given on the
// command line.
func mergeConfig(cmd *cobra.Command, cfg *fileConfig, o *parseOptions) {
	unset := func(name string) bool { return !cmd.Flags().Changed(name) }

	if cfg.Dir != "" && unset("dir") {
		o.dir = cfg.Dir
	}
	if cfg.Ext != "" && unset("ext") {
		o.ext = cfg.Ext
	}
	if cfg.Eyes != "" && unset("eyes") {
		o.eyes = cfg.Eyes
	}
	if cfg.Policy != "" && unset("policy") {
		o.policy = cfg.Policy
	}
	if cfg.Workers != 0 && unset("workers") {
		o.workers = cfg.Workers
	}
	if cfg.Format != "" && unset("format") {
		o.format = cfg.Format
	}
	if cfg.Output != "" && unset("output") {
		o.output = cfg.Output
	}
	if cfg.Events != nil && unset("events") {
		o.events = *cfg.Events
	}
	if len(cfg.Patterns) > 0 && unset("patterns") {
		o.patterns = cfg.Patterns
	}
	if len(cfg.Plugins) > 0 && unset("plugins") {
		o.plugins = cfg.Plugins
	}
	if cfg.PluginTimeout != 0 && unset("plugin-timeout") {
		o.pluginTimeout = cfg.PluginTimeout
	}
}

// buildOptions checks o and turns it into parse options.
func buildOptions(o parseOptions, logger *slog.Logger) ([]eyelog.ParseOption, error) {
	if !validFormats[o.format] {
		return nil, fmt.Errorf("unknown format %q (want jsonl, csv or sqlite)", o.format)
	}
	if o.format == "sqlite" && (o.output == "" || o.output == "-") {
		return nil, errors.New("--output is required for the sqlite format")
	}
	eyes, err := eyelog.ParseEyes(o.eyes)
	if err != nil {
		return nil, err
	}
	policy, err := eyelog.ParsePolicy(o.policy)
	if err != nil {
		return nil, err
	}
	if o.workers < 0 {
		return nil, fmt.Errorf("--workers must not be negative, got %d", o.workers)
	}

	opts := []eyelog.ParseOption{
		eyelog.WithExt(o.ext),
		eyelog.WithEyes(eyes),
		eyelog.WithPolicy(policy),
		eyelog.WithLogger(logger),
	}
	if o.workers > 0 {
		opts = append(opts, eyelog.WithWorkers(o.workers))
	}
	if o.events {
		opts = append(opts, eyelog.WithEventCounts())
	}
	return opts, nil
}

func runParse(ctx context.Context, o parseOptions, paths []string, stdout io.Writer, logger *slog.Logger) error {
	opts, err := buildOptions(o, logger)
	if err != nil {
		return err
	}

	parser, cleanup, err := buildParser(ctx, o.patterns, o.plugins, o.pluginTimeout, logger)
	defer cleanup()
	if err != nil {
		return err
	}
	if parser != nil {
		opts = append(opts, eyelog.WithParsers(parser))
	}

	var res *eyelog.CorpusResult
	var source string
	if len(paths) > 0 {
		source = strings.Join(paths, ",")
		res, err = eyelog.ParsePaths(ctx, paths, opts...)
	} else {
		// ParseCorpus reports a bad folder itself.
		source = o.dir
		if dir, ferr := logfinder.FindDataDir(o.dir); ferr == nil {
			source = dir
		}
		res, err = eyelog.ParseCorpus(ctx, append(opts, eyelog.WithDir(o.dir))...)
		if err == nil && len(res.Files) == 0 && len(res.Failed) == 0 {
			return fmt.Errorf("%w in %s (extension %q)", eyelog.ErrNoFiles, source, o.ext)
		}
	}
	if err != nil {
		return err
	}

	if err := emit(ctx, o, res, source, stdout, logger); err != nil {
		return err
	}

	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(res.Failed), len(res.Failed)+len(res.Files))
	}
	return nil
}

func emit(ctx context.Context, o parseOptions, res *eyelog.CorpusResult, source string, stdout io.Writer, logger *slog.Logger) error {
	if o.format == "sqlite" {
		sink, err := sqlitesink.Open(ctx, o.output)
		if err != nil {
			return err
		}
		defer sink.Close()
		runID, err := sink.Write(ctx, res.Table, sqlitesink.Run{Source: source, Stats: res.Stats})
		if err != nil {
			return err
		}
		logger.Info("stored run", "run_id", runID, "db", sink.Path(), "trials", res.Table.Len())
		return nil
	}

	if o.output == "" || o.output == "-" {
		return writeTable(o.format, res.Table, stdout)
	}
	f, err := os.Create(o.output)
	if err != nil {
		return err
	}
	if err := writeTable(o.format, res.Table, f); err != nil {
		f.Close()
		return fmt.Errorf("output error: %w", err)
	}
	logger.Info("wrote table", "path", o.output, "trials", res.Table.Len())
	return f.Close()
}
