// Package tailer streams the lines of a file through github.com/nxadm/tail.
// The file is read once from start to EOF; appended data is not followed.
package tailer

import (
	"context"
	"sync"

	"github.com/nxadm/tail"
)

// Config configures a Tailer.
type Config struct {
	// MaxLineSize splits lines longer than this many bytes. 0 means no limit.
	MaxLineSize int
}

// DefaultConfig returns a configuration that reads a file once to EOF.
func DefaultConfig() Config {
	return Config{}
}

// Tailer delivers the lines of one file on a channel.
type Tailer struct {
	tail     *tail.Tail
	lines    chan string
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	err      error
}

// New opens path and starts reading it. The file must exist.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	tf, err := tail.TailFile(path, tail.Config{
		Follow:      false,
		MustExist:   true,
		MaxLineSize: cfg.MaxLineSize,
		Logger:      tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}

	t := &Tailer{
		tail:  tf,
		lines: make(chan string),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go t.run(ctx)
	return t, nil
}

// Lines returns the line channel. Lines carry no trailing newline. The channel is closed at EOF, on error,
// on Stop, or when the context is done.
func (t *Tailer) Lines() <-chan string {
	return t.lines
}

// Err waits for the Tailer to finish and returns the read error, or the
// context error if the context ended the read. It returns nil after a clean
// EOF or Stop.
func (t *Tailer) Err() error {
	<-t.done
	return t.err
}

// Stop ends reading and releases the file. It is safe to call more than
// once and after EOF.
func (t *Tailer) Stop() error {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
	return nil
}

func (t *Tailer) run(ctx context.Context) {
	defer close(t.done)
	defer close(t.lines)

	for {
		select {
		case <-ctx.Done():
			t.err = ctx.Err()
			t.halt()
			return
		case <-t.stop:
			t.halt()
			return
		case line, ok := <-t.tail.Lines:
			if !ok {
				t.err = t.tail.Wait()
				return
			}
			if line.Err != nil {
				t.err = line.Err
				t.halt()
				return
			}
			select {
			case t.lines <- line.Text:
			case <-ctx.Done():
				t.err = ctx.Err()
				t.halt()
				return
			case <-t.stop:
				t.halt()
				return
			}
		}
	}
}

// halt stops the underlying tail. Lines still in flight are drained so its
// reader goroutine cannot block on a send.
func (t *Tailer) halt() {
	go func() {
		for range t.tail.Lines {
		}
	}()
	_ = t.tail.Stop()
}
