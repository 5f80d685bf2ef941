package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events an editor produces for one save.
const reloadDelay = 100 * time.Millisecond

// Watch reloads path whenever it changes and calls onChange when the reloaded
// target host list differs from the last one seen. It blocks until ctx is
// cancelled.
//
// The parent directory is watched rather than the file so that atomic saves
// (write temp file, rename over) keep being noticed. A reload that fails
// validation is logged and skipped.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	current, err := Load(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	slog.Info("config: watching for target host changes", "path", abs)

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(reloadDelay)

		case <-timer.C:
			next, err := Load(abs)
			if err != nil {
				slog.Error("config: reload rejected, target hosts unchanged", "path", abs, "err", err)
				continue
			}
			if slices.Equal(next.Relay.TargetHosts, current.Relay.TargetHosts) {
				slog.Debug("config: reloaded, target hosts unchanged", "path", abs)
				continue
			}
			slog.Info("config: target hosts changed",
				"from", current.Relay.TargetHosts.String(),
				"to", next.Relay.TargetHosts.String(),
			)
			current = next
			onChange(next)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
