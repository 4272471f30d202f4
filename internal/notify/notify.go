// Package notify plays the "agent finished" signal: a terminal bell or a
// user-supplied shell command.
package notify

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentssh/agentssh/internal/config"
	"github.com/agentssh/agentssh/internal/logging"
)

var notifyLog = logging.ForComponent(logging.CompNotify)

// Agents that finish in the same tick each get a sound, up to burst; a
// runaway stream of completions is thinned to one per interval.
const (
	burst    = 16
	interval = 2 * time.Second
)

// SettingsFunc returns the current notification settings. It is consulted on
// every notification so edits made in the settings panel apply immediately.
type SettingsFunc func() config.Notifications

// Sound implements the notification side effect. Every failure is logged and
// dropped.
type Sound struct {
	settings SettingsFunc
	bellOut  io.Writer
	start    func(command string) error
	limiter  *rate.Limiter
}

// NewSound returns a notifier that reads its settings from the config cache.
func NewSound() *Sound {
	return NewSoundWith(func() config.Notifications {
		cfg, _ := config.Load()
		return cfg.Notifications
	}, os.Stderr)
}

// NewSoundWith is NewSound with explicit settings and bell output.
func NewSoundWith(settings SettingsFunc, bellOut io.Writer) *Sound {
	return &Sound{
		settings: settings,
		bellOut:  bellOut,
		start:    startDetached,
		limiter:  rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Notify signals that the agent in sessionName went quiet.
func (s *Sound) Notify(sessionName string) {
	n := s.settings()
	if !n.GetSoundOnCompletion() {
		return
	}
	if !s.limiter.Allow() {
		notifyLog.Debug("notification_rate_limited", slog.String("session", sessionName))
		return
	}

	switch n.GetSoundMethod() {
	case config.SoundCommand:
		if err := s.start(n.GetSoundCommand()); err != nil {
			notifyLog.Debug("sound_command_failed", slog.String("session", sessionName), slog.String("error", err.Error()))
		}
	default:
		if _, err := s.bellOut.Write([]byte{'\a'}); err != nil {
			notifyLog.Debug("bell_failed", slog.String("error", err.Error()))
		}
	}
}

// startDetached runs command through sh with no stdio and does not wait for
// it beyond reaping.
func startDetached(command string) error {
	cmd := exec.Command("sh", "-c", command)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
