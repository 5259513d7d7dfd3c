package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eyelog/eyelog-go/internal/wasm"
	"github.com/eyelog/eyelog-go/pkg/eyelog"
	"github.com/eyelog/eyelog-go/pkg/eyelog/pattern"
)

// buildParser builds one parser from pattern files and Wasm plugins, run
// in that order on every line of a trial. It returns a nil parser when
// both lists are empty. The cleanup function is never nil and must be
// called once parsing is done.
func buildParser(ctx context.Context, patternFiles, pluginFiles []string, pluginTimeout time.Duration, logger *slog.Logger) (eyelog.Parser, func(), error) {
	noop := func() {}
	if len(patternFiles) == 0 && len(pluginFiles) == 0 {
		return nil, noop, nil
	}

	var parsers []eyelog.Parser
	for i, path := range patternFiles {
		rp, err := pattern.NewRegexParserFromFile(path)
		if err != nil {
			// pattern errors carry no path
			return nil, noop, fmt.Errorf("pattern file %d: %w", i+1, err)
		}
		parsers = append(parsers, rp)
	}

	var plugins []*wasm.Plugin
	cleanup := func() {
		for _, p := range plugins {
			p.Close()
		}
	}
	opts := []wasm.Option{wasm.WithLogger(logger)}
	if pluginTimeout > 0 {
		opts = append(opts, wasm.WithTimeout(pluginTimeout))
	}
	for i, path := range pluginFiles {
		p, err := wasm.Open(ctx, path, opts...)
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("plugin file %d: %w", i+1, err)
		}
		logger.Debug("loaded plugin", "path", p.Name())
		plugins = append(plugins, p)
		parsers = append(parsers, p)
	}

	return &eyelog.ParserChain{Mode: eyelog.ChainAll, Parsers: parsers}, cleanup, nil
}
