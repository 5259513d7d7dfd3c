package eyelog

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/eyelog/eyelog-go/internal/logfinder"
)

// discardLogger is a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ParseOption configures ParseFile, Trials and ParseCorpus using the
// functional options pattern.
type ParseOption func(*parseConfig)

// parseConfig holds internal configuration for parsing.
type parseConfig struct {
	dir     string
	ext     string
	hooks   Hooks
	eyes    Eyes
	policy  Policy
	workers int
	logger  *slog.Logger
}

// defaultParseConfig returns a parseConfig with defaults.
func defaultParseConfig() *parseConfig {
	return &parseConfig{
		ext:     logfinder.DefaultExt,
		eyes:    EyesAuto,
		policy:  DiscardTrial,
		workers: runtime.GOMAXPROCS(0),
		logger:  discardLogger,
	}
}

// applyParseOptions applies functional options to a parseConfig.
func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := defaultParseConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option values.
func (c *parseConfig) validate() error {
	if c.workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.workers)
	}
	switch c.eyes {
	case EyesAuto, EyesLeft, EyesRight, EyesBoth:
	default:
		return fmt.Errorf("invalid eyes value %d", c.eyes)
	}
	switch c.policy {
	case DiscardTrial, AbortFile:
	default:
		return fmt.Errorf("invalid policy value %d", c.policy)
	}
	return nil
}

// WithDir sets the data directory for ParseCorpus.
// If not set, EYELOG_DATADIR is used, then "data".
func WithDir(dir string) ParseOption {
	return func(c *parseConfig) {
		c.dir = dir
	}
}

// WithExt sets the file name suffix ParseCorpus selects. Default: ".asc".
func WithExt(ext string) ParseOption {
	return func(c *parseConfig) {
		c.ext = ext
	}
}

// WithHooks adds hook sets. Repeated calls accumulate; hooks run in the
// order they were added.
func WithHooks(hs ...Hooks) ParseOption {
	return func(c *parseConfig) {
		c.hooks = ChainHooks(append([]Hooks{c.hooks}, hs...)...)
	}
}

// WithParsers adds parsers for the extra lines of each trial, combined with
// ChainAll mode.
func WithParsers(parsers ...Parser) ParseOption {
	return func(c *parseConfig) {
		if len(parsers) == 0 {
			return
		}
		c.hooks = ChainHooks(c.hooks, ParserHooks(&ParserChain{
			Mode:    ChainAll,
			Parsers: parsers,
		}))
	}
}

// WithEventCounts adds the n_fixations, n_saccades and n_blinks variables.
func WithEventCounts() ParseOption {
	return WithHooks(EventCounts())
}

// WithEyes fixes the recorded eyes instead of detecting them from the file
// header. Default: EyesAuto.
func WithEyes(eyes Eyes) ParseOption {
	return func(c *parseConfig) {
		c.eyes = eyes
	}
}

// WithPolicy sets how protocol violations are handled. Default: DiscardTrial.
func WithPolicy(p Policy) ParseOption {
	return func(c *parseConfig) {
		c.policy = p
	}
}

// WithWorkers sets how many files ParseCorpus parses at once.
// Default: runtime.GOMAXPROCS(0).
func WithWorkers(n int) ParseOption {
	return func(c *parseConfig) {
		c.workers = n
	}
}

// WithLogger sets a logger for progress and diagnostics.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) ParseOption {
	return func(c *parseConfig) {
		if logger == nil {
			logger = discardLogger
		}
		c.logger = logger
	}
}
