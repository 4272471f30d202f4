package ui

import (
	"context"
	"log/slog"

	dark "github.com/thiagokokada/dark-mode-go"
)

// ThemeWatcher follows the OS appearance while the theme is "system". It
// stops when its context is cancelled.
type ThemeWatcher struct {
	changes chan bool // true=dark
}

// NewThemeWatcher starts watching. It returns nil when the platform cannot
// report appearance changes.
func NewThemeWatcher(ctx context.Context) *ThemeWatcher {
	events, errs, err := dark.WatchDarkMode(ctx)
	if err != nil {
		uiLog.Warn("theme_watcher_init_failed", slog.String("error", err.Error()))
		return nil
	}
	tw := &ThemeWatcher{changes: make(chan bool, 1)}
	go tw.loop(ctx, events, errs)
	return tw
}

func (tw *ThemeWatcher) loop(ctx context.Context, events <-chan bool, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case isDark, ok := <-events:
			if !ok {
				return
			}
			// Latest value wins.
			select {
			case <-tw.changes:
			default:
			}
			tw.changes <- isDark
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				uiLog.Warn("theme_watcher_error", slog.String("error", err.Error()))
			}
		}
	}
}

// Changes delivers the new dark-mode state after each OS switch.
func (tw *ThemeWatcher) Changes() <-chan bool {
	return tw.changes
}
