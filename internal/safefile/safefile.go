// Package safefile opens and reads input files without blocking on FIFOs or
// devices and without unbounded reads.
package safefile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Sentinel errors.
var (
	// ErrNotRegularFile covers symlinks (for OpenRegular), FIFOs, devices,
	// sockets and directories.
	ErrNotRegularFile = errors.New("not a regular file")
	ErrEmpty          = errors.New("file is empty")
	ErrTooLarge       = errors.New("file too large")
)

// Check verifies that path names a regular file, following symlinks. It is
// used for recording files, which are read by path after the check.
func Check(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}
	return info, nil
}

// OpenRegular opens a file that must be a regular file and not a symlink.
// The path is checked with Lstat and the opened descriptor is checked again,
// so a file swapped between the two calls is still rejected unless it is
// regular.
//
// The caller must close the returned file.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}
	return f, info, nil
}

// ReadLimited reads a whole regular file of at most limit bytes. Empty files
// are rejected. The size is checked before and after reading in case the
// file grows in between.
func ReadLimited(path string, limit int64) ([]byte, error) {
	f, info, err := OpenRegular(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if info.Size() == 0 {
		return nil, ErrEmpty
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), limit)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// SanitizePathError strips the path from an *os.PathError so that messages
// shown to users do not carry file system paths.
func SanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}
