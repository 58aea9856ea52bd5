// Package watch follows a recognizer log file while the recognizer is still
// writing it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultPollInterval re-reads the file even when no event arrives.
// Some filesystems (network mounts, some editors) do not report writes.
const DefaultPollInterval = 500 * time.Millisecond

// Tailer copies bytes appended to a file into a writer
type Tailer struct {
	path         string
	out          io.Writer
	logger       zerolog.Logger
	pollInterval time.Duration
	onRestart    func()

	mu     sync.Mutex
	offset int64
}

// NewTailer creates a tailer for path. Appended bytes are written to out.
func NewTailer(path string, out io.Writer, logger zerolog.Logger) *Tailer {
	return &Tailer{
		path:         filepath.Clean(path),
		out:          out,
		logger:       logger,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval changes the fallback poll interval. Zero disables polling.
func (t *Tailer) SetPollInterval(d time.Duration) {
	t.pollInterval = d
}

// OnRestart sets a hook called when the file is replaced or truncated,
// before any of the new content is written out. Set it before Run.
func (t *Tailer) OnRestart(fn func()) {
	t.onRestart = fn
}

// Offset returns the number of bytes consumed so far
func (t *Tailer) Offset() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offset
}

// Run reads the existing content, then follows the file until ctx is done.
// The file does not have to exist yet.
func (t *Tailer) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so creation and replacement are seen too
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(t.path), err)
	}

	if err := t.drain(); err != nil {
		return err
	}

	var tick <-chan time.Time
	if t.pollInterval > 0 {
		ticker := time.NewTicker(t.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			// pick up whatever was written last
			return t.drain()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				t.logger.Debug().Str("path", t.path).Str("op", event.Op.String()).Msg("log file replaced")
				t.mu.Lock()
				t.restart()
				t.mu.Unlock()
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := t.drain(); err != nil {
					return err
				}
			}
		case <-tick:
			if err := t.drain(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn().Err(err).Str("path", t.path).Msg("log watcher error")
		}
	}
}

// restart rewinds to the start of the file. Caller holds t.mu.
func (t *Tailer) restart() {
	t.offset = 0
	if t.onRestart != nil {
		t.onRestart()
	}
}

// drain copies everything past the current offset. A file that shrank was
// truncated and is read again from the start.
func (t *Tailer) drain() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < t.offset {
		t.logger.Info().Str("path", t.path).Int64("size", info.Size()).Int64("offset", t.offset).Msg("log truncated, restarting")
		t.restart()
	}
	if info.Size() == t.offset {
		return nil
	}

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log: %w", err)
	}
	n, err := io.Copy(t.out, f)
	t.offset += n
	if err != nil {
		return fmt.Errorf("copy log: %w", err)
	}
	return nil
}
