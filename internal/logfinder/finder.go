// Package logfinder locates the data directory and lists the recording files
// in it.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnvDataDir is the environment variable naming the data directory.
const EnvDataDir = "EYELOG_DATADIR"

// DefaultDataDir is used when neither an explicit directory nor the
// environment variable is set.
const DefaultDataDir = "data"

// DefaultExt is the default file extension filter.
const DefaultExt = ".asc"

// Sentinel errors.
var (
	ErrDataDirNotFound = errors.New("data directory not found")
	ErrNoFiles         = errors.New("no matching files found")
)

// FindDataDir returns the data directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. EYELOG_DATADIR environment variable
//  3. DefaultDataDir relative to the working directory
//
// The returned path has symlinks resolved.
func FindDataDir(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s is not a directory", ErrDataDirNotFound, explicit)
	}

	if envDir := os.Getenv(EnvDataDir); envDir != "" {
		if resolved := resolveDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrDataDirNotFound, EnvDataDir)
	}

	if resolved := resolveDir(DefaultDataDir); resolved != "" {
		return resolved, nil
	}
	return "", fmt.Errorf("%w: %s", ErrDataDirNotFound, DefaultDataDir)
}

// ListFiles returns the regular files in dir whose names end with ext,
// sorted by name. Subdirectories are not searched. An empty ext matches
// every file.
//
// Returns ErrNoFiles if nothing matches.
func ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			// deleted or unreadable since ReadDir
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	sort.Strings(paths)
	return paths, nil
}

// resolveDir resolves symlinks and returns the path if it is a directory,
// or "" otherwise.
func resolveDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return ""
	}
	return resolved
}
