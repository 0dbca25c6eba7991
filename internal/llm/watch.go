package llm

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay lets editors finish writing before the file is re-read.
const settleDelay = 250 * time.Millisecond

// WatchSettings watches the settings file at path and calls onChange with the
// reloaded settings after each change. Unparseable files are logged and
// skipped. It blocks until ctx is done.
func WatchSettings(ctx context.Context, path string, logger *log.Logger, onChange func(Settings)) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors and SaveSettings replace the file by rename.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch add: %w", err)
	}
	logger.Printf("Watching LLM settings: %s", path)

	target := filepath.Clean(path)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				pending = time.After(settleDelay)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Printf("settings watch error: %v", err)
		case <-pending:
			pending = nil
			s, err := LoadSettings(path)
			if err != nil {
				logger.Printf("Ignoring settings change: %v", err)
				continue
			}
			onChange(s)
		}
	}
}
