package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk and
// hands the reloaded configuration to a callback. It is used to adjust
// reporting thresholds at runtime without restarting the host process.
//
// A reload that fails to parse or validate is logged and discarded; the
// previous configuration stays in effect.
type Watcher struct {
	path     string
	onChange func(*Config)

	watcher *fsnotify.Watcher
	logger  *slog.Logger
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for the configuration file at path.
// The callback runs on the watcher's goroutine for every successful reload.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fw,
		logger:   slog.Default().With("component", "config.watcher"),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the configuration file's directory. Editors often
// replace files by rename, so the directory is watched and events are
// filtered to the configured path.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("configuration watcher started", "path", w.path)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	// Debounce rapid event bursts from editors writing in chunks.
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(200 * time.Millisecond)

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("configuration watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfigWithEnvOverrides(w.path)
	if err != nil {
		w.logger.Error("configuration reload failed, keeping previous configuration",
			"path", w.path,
			"error", err,
		)
		return
	}

	w.logger.Info("configuration reloaded",
		"path", w.path,
		"report_interval", cfg.Reporting.ReportInterval,
		"max_uncompressed_report_size", cfg.Reporting.MaxUncompressedReportSize,
	)

	if w.onChange != nil {
		w.onChange(cfg)
	}
}
