package main

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eyelog/eyelog-go/internal/safefile"
	"github.com/eyelog/eyelog-go/pkg/eyelog"
)

// maxConfigSize bounds the size of a config file.
const maxConfigSize = 64 << 10

// fileConfig is the YAML config file. Every field has the name of the
// matching parse flag; flags given on the command line win.
//
//	dir: recordings
//	ext: .asc
//	eyes: auto
//	policy: discard_trial
//	workers: 4
//	format: csv
//	output: trials.csv
//	events: true
//	patterns: [sr-research.yaml]
//	plugins: [responses.wasm]
//	plugin_timeout: 100ms
type fileConfig struct {
	Dir           string        `yaml:"dir"`
	Ext           string        `yaml:"ext"`
	Eyes          string        `yaml:"eyes"`
	Policy        string        `yaml:"policy"`
	Workers       int           `yaml:"workers"`
	Format        string        `yaml:"format"`
	Output        string        `yaml:"output"`
	Events        *bool         `yaml:"events"`
	Patterns      []string      `yaml:"patterns"`
	Plugins       []string      `yaml:"plugins"`
	PluginTimeout time.Duration `yaml:"plugin_timeout"`
}

// loadConfig reads and validates a config file. Unknown keys are errors.
func loadConfig(path string) (*fileConfig, error) {
	data, err := safefile.ReadLimited(path, maxConfigSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", safefile.SanitizePathError(err))
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg fileConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that can be checked without touching the
// file system.
func (c *fileConfig) Validate() error {
	var errs []error
	if c.Eyes != "" {
		if _, err := eyelog.ParseEyes(c.Eyes); err != nil {
			errs = append(errs, fmt.Errorf("eyes: %w", err))
		}
	}
	if c.Policy != "" {
		if _, err := eyelog.ParsePolicy(c.Policy); err != nil {
			errs = append(errs, fmt.Errorf("policy: %w", err))
		}
	}
	if c.Format != "" && !validFormats[c.Format] {
		errs = append(errs, fmt.Errorf("format: unknown format %q", c.Format))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers: must not be negative"))
	}
	if c.PluginTimeout < 0 {
		errs = append(errs, errors.New("plugin_timeout: must not be negative"))
	}
	return errors.Join(errs...)
}
