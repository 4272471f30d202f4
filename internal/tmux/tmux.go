// Package tmux drives the tmux binary: it lists sessions with their recent
// output, creates sessions for new agents, types into them, kills them, and
// hands the terminal over on attach.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/agentssh/agentssh/internal/logging"
)

var tmuxLog = logging.ForComponent(logging.CompTmux)

// PreviewLines is how much pane history each listed session carries.
const PreviewLines = 30

const (
	captureTimeout  = 3 * time.Second
	commandTimeout  = 5 * time.Second
	enterDelay      = 100 * time.Millisecond
	captureParallel = 4

	noOutputYet    = "(no output yet)"
	unknownCommand = "unknown"
)

// ErrCaptureTimeout is returned when capture-pane exceeds its timeout.
var ErrCaptureTimeout = errors.New("capture-pane timed out")

const listFormat = "#{session_name}\t#{session_attached}\t#{session_windows}\t#{session_created_string}\t" +
	"#{pane_current_command}\t#{pane_current_path}\t#{pane_title}"

const listFields = 7

// Session is a read-only snapshot of one tmux session and its active pane.
type Session struct {
	Name            string
	Attached        bool
	Windows         int
	Created         string
	CurrentCommand  string
	PaneCurrentPath string
	PaneTitle       string
	Preview         []string // oldest first
	LastLine        string
	CaptureFailed   bool // Preview is unknown, not empty
}

// Runner executes one tmux invocation and returns its combined output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "tmux", args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("tmux %s: %w (output: %s)", args[0], err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// Client talks to the default tmux server. It is safe for concurrent use;
// concurrent ListSessions calls share a single round of tmux invocations.
type Client struct {
	run      Runner
	listOnce singleflight.Group
}

// NewClient returns a client that shells out to tmux.
func NewClient() *Client {
	return &Client{run: execRunner{}}
}

// NewClientWithRunner is for tests and alternative transports.
func NewClientWithRunner(r Runner) *Client {
	return &Client{run: r}
}

// IsAvailable checks that a working tmux binary is installed.
func (c *Client) IsAvailable() error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if _, err := c.run.Run(ctx, "-V"); err != nil {
		return fmt.Errorf("tmux not found or not working: %w", err)
	}
	return nil
}

// sessionTarget addresses a session by exact name, so names that look like
// prefixes or patterns of other sessions are not matched.
func sessionTarget(name string) string { return "=" + name }

func paneTarget(name string) string { return "=" + name + ":" }

// isNoServerError reports whether err just means there are no sessions.
func isNoServerError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no server running") ||
		strings.Contains(msg, "failed to connect to server") ||
		strings.Contains(msg, "error connecting to") ||
		strings.Contains(msg, "no sessions")
}

// ListSessions returns every tmux session with its last PreviewLines lines of
// output. A missing server is an empty list, not an error. Malformed output is
// an error for the whole call.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	v, err, _ := c.listOnce.Do("list", func() (any, error) {
		return c.listSessions(ctx)
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]Session)
	return append([]Session(nil), shared...), nil
}

func (c *Client) listSessions(ctx context.Context) ([]Session, error) {
	out, err := c.run.Run(ctx, "list-sessions", "-F", listFormat)
	if err != nil {
		if isNoServerError(err) {
			return []Session{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions, err := parseSessionList(string(out))
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(captureParallel)
	for i := range sessions {
		s := &sessions[i]
		g.Go(func() error {
			lines, err := c.capture(gctx, s.Name)
			if err != nil {
				// The session may have exited between list and capture.
				tmuxLog.Debug("capture_failed", slog.String("session", s.Name), slog.String("error", err.Error()))
				s.CaptureFailed = true
			}
			s.Preview = lines
			s.LastLine = lastNonBlank(lines)
			return nil
		})
	}
	_ = g.Wait()

	logging.Aggregate(logging.CompTmux, "list_sessions", slog.Int("count", len(sessions)))
	return sessions, nil
}

func parseSessionList(out string) ([]Session, error) {
	var sessions []Session
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		// The pane title is last so a title containing tabs stays intact.
		f := strings.SplitN(line, "\t", listFields)
		if len(f) != listFields {
			return nil, fmt.Errorf("unexpected tmux output line: %q", line)
		}
		windows, err := strconv.Atoi(f[2])
		if err != nil {
			return nil, fmt.Errorf("unexpected tmux output line: %q: bad window count", line)
		}
		cmd := strings.TrimSpace(f[4])
		if cmd == "" {
			cmd = unknownCommand
		}
		sessions = append(sessions, Session{
			Name:            f[0],
			Attached:        f[1] != "" && f[1] != "0",
			Windows:         windows,
			Created:         f[3],
			CurrentCommand:  cmd,
			PaneCurrentPath: f[5],
			PaneTitle:       f[6],
			LastLine:        noOutputYet,
		})
	}
	return sessions, nil
}

func (c *Client) capture(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	out, err := c.run.Run(ctx, "capture-pane", "-p", "-J", "-t", paneTarget(name), "-S", "-"+strconv.Itoa(PreviewLines))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrCaptureTimeout
		}
		return nil, err
	}
	return splitPreview(string(out)), nil
}

// splitPreview turns capture-pane output into lines with trailing spaces
// removed. Trailing blank lines are kept; consumers decide what to ignore.
func splitPreview(out string) []string {
	out = strings.TrimSuffix(out, "\n")
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return lines
}

func lastNonBlank(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return noOutputYet
}

// CreateSession starts a detached session in dir running the user's login
// shell and types command into it. The shell survives if the command exits,
// so its error output stays visible.
func (c *Client) CreateSession(ctx context.Context, name, dir, command string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if _, err := c.run.Run(ctx, "new-session", "-d", "-s", name, "-c", dir); err != nil {
		return fmt.Errorf("failed to create tmux session: %w", err)
	}
	if err := c.sendKeysAndEnter(ctx, name, command); err != nil {
		return fmt.Errorf("failed to start command in %s: %w", name, err)
	}
	tmuxLog.Info("session_created", slog.String("session", name), slog.String("dir", dir))
	return nil
}

func (c *Client) sendKeysAndEnter(ctx context.Context, name, text string) error {
	if _, err := c.run.Run(ctx, "send-keys", "-l", "-t", paneTarget(name), "--", text); err != nil {
		return err
	}
	// Full-screen TUIs drop an Enter that arrives in the same read as the text.
	time.Sleep(enterDelay)
	_, err := c.run.Run(ctx, "send-keys", "-t", paneTarget(name), "Enter")
	return err
}

// SendKeysDelayed types text followed by Enter into the session after delay.
// It returns immediately; failures are logged and never reported back.
func (c *Client) SendKeysDelayed(name, text string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := c.sendKeysAndEnter(ctx, name, text); err != nil {
			tmuxLog.Warn("delayed_send_failed", slog.String("session", name), slog.String("error", err.Error()))
			return
		}
		tmuxLog.Debug("delayed_send_done", slog.String("session", name))
	})
}

// KillSession destroys the session and everything running in it.
func (c *Client) KillSession(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if _, err := c.run.Run(ctx, "kill-session", "-t", sessionTarget(name)); err != nil {
		return fmt.Errorf("failed to kill session %s: %w", name, err)
	}
	tmuxLog.Info("session_killed", slog.String("session", name))
	return nil
}
