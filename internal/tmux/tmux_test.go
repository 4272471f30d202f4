package tmux

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	respond func(args []string) ([]byte, error)
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(args)
}

func (f *fakeRunner) callsTo(sub string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, c := range f.calls {
		if c[0] == sub {
			out = append(out, c)
		}
	}
	return out
}

func TestParseSessionList(t *testing.T) {
	out := "agentssh_codex_1000\t1\t2\tMon Jan  1 10:00:00 2024\tcodex\t/home/u/repo\tmyrepo: codex\n" +
		"scratch\t0\t1\tMon Jan  1 11:00:00 2024\t\t/tmp\ttitle\twith tab\n"

	sessions, err := parseSessionList(out)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, Session{
		Name:            "agentssh_codex_1000",
		Attached:        true,
		Windows:         2,
		Created:         "Mon Jan  1 10:00:00 2024",
		CurrentCommand:  "codex",
		PaneCurrentPath: "/home/u/repo",
		PaneTitle:       "myrepo: codex",
		LastLine:        noOutputYet,
	}, sessions[0])

	assert.False(t, sessions[1].Attached)
	assert.Equal(t, unknownCommand, sessions[1].CurrentCommand)
	assert.Equal(t, "title\twith tab", sessions[1].PaneTitle)
}

func TestParseSessionList_Malformed(t *testing.T) {
	tests := []string{
		"only\tthree\tfields\n",
		"name\t1\tmany\tcreated\tcmd\t/path\ttitle\n",
	}
	for _, out := range tests {
		_, err := parseSessionList(out)
		assert.ErrorContains(t, err, "unexpected tmux output line")
	}
}

func TestSplitPreviewAndLastLine(t *testing.T) {
	lines := splitPreview("$ codex   \nworking...\t\n\n\n")
	assert.Equal(t, []string{"$ codex", "working...", "", ""}, lines)
	assert.Equal(t, "working...", lastNonBlank(lines))
	assert.Equal(t, noOutputYet, lastNonBlank(splitPreview("\n\n")))
	assert.Nil(t, splitPreview(""))
}

func TestListSessions_CapturesEachSession(t *testing.T) {
	r := &fakeRunner{respond: func(args []string) ([]byte, error) {
		switch args[0] {
		case "list-sessions":
			return []byte("a\t0\t1\tc\tzsh\t/x\tt\nb\t0\t1\tc\tcodex\t/y\tt\n"), nil
		case "capture-pane":
			target := args[4]
			return []byte("output of " + strings.Trim(target, "=:") + "\n"), nil
		}
		return nil, nil
	}}

	sessions, err := NewClientWithRunner(r).ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, []string{"output of a"}, sessions[0].Preview)
	assert.Equal(t, "output of b", sessions[1].LastLine)
	assert.False(t, sessions[0].CaptureFailed)

	captures := r.callsTo("capture-pane")
	require.Len(t, captures, 2)
	assert.Contains(t, captures[0], "-S")
	assert.Contains(t, captures[0], "-30")
}

func TestListSessions_CaptureFailureIsNotFatal(t *testing.T) {
	r := &fakeRunner{respond: func(args []string) ([]byte, error) {
		if args[0] == "list-sessions" {
			return []byte("gone\t0\t1\tc\tcodex\t/y\tt\n"), nil
		}
		return nil, errors.New("can't find session: gone")
	}}

	sessions, err := NewClientWithRunner(r).ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, noOutputYet, sessions[0].LastLine)
	assert.True(t, sessions[0].CaptureFailed)
}

func TestListSessions_NoServer(t *testing.T) {
	r := &fakeRunner{respond: func([]string) ([]byte, error) {
		return nil, errors.New("tmux list-sessions: exit status 1 (output: no server running on /tmp/tmux-1000/default)")
	}}
	sessions, err := NewClientWithRunner(r).ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestListSessions_OtherErrorsSurface(t *testing.T) {
	r := &fakeRunner{respond: func([]string) ([]byte, error) {
		return nil, errors.New("permission denied")
	}}
	_, err := NewClientWithRunner(r).ListSessions(context.Background())
	assert.ErrorContains(t, err, "failed to list sessions")
}

func TestCreateSession_TypesCommandIntoShell(t *testing.T) {
	r := &fakeRunner{}
	c := NewClientWithRunner(r)

	require.NoError(t, c.CreateSession(context.Background(), "agentssh_codex_1", "/work", "codex --yolo"))

	require.Len(t, r.calls, 3)
	assert.Equal(t, []string{"new-session", "-d", "-s", "agentssh_codex_1", "-c", "/work"}, r.calls[0])
	assert.Equal(t, []string{"send-keys", "-l", "-t", "=agentssh_codex_1:", "--", "codex --yolo"}, r.calls[1])
	assert.Equal(t, []string{"send-keys", "-t", "=agentssh_codex_1:", "Enter"}, r.calls[2])
}

func TestCreateSession_Failure(t *testing.T) {
	r := &fakeRunner{respond: func([]string) ([]byte, error) {
		return nil, errors.New("duplicate session")
	}}
	err := NewClientWithRunner(r).CreateSession(context.Background(), "x", "/", "codex")
	assert.ErrorContains(t, err, "failed to create tmux session")
	assert.Len(t, r.calls, 1)
}

func TestSendKeysDelayed(t *testing.T) {
	r := &fakeRunner{}
	c := NewClientWithRunner(r)

	c.SendKeysDelayed("agentssh_codex_1", "hello", 200*time.Millisecond)
	assert.Empty(t, r.callsTo("send-keys"), "must not send before the delay")

	assert.Eventually(t, func() bool {
		return len(r.callsTo("send-keys")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	sends := r.callsTo("send-keys")
	assert.Equal(t, "hello", sends[0][len(sends[0])-1])
	assert.Equal(t, "Enter", sends[1][len(sends[1])-1])
}

func TestKillSessionUsesExactTarget(t *testing.T) {
	r := &fakeRunner{}
	require.NoError(t, NewClientWithRunner(r).KillSession(context.Background(), "agentssh_codex_1"))
	assert.Equal(t, []string{"kill-session", "-t", "=agentssh_codex_1"}, r.calls[0])
}

func TestLiveTmuxRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not available")
	}
	c := NewClient()
	ctx := context.Background()
	name := "agentssh_test_" + time.Now().Format("150405")

	require.NoError(t, c.CreateSession(ctx, name, t.TempDir(), "echo live-marker"))
	t.Cleanup(func() { _ = c.KillSession(ctx, name) })

	assert.True(t, c.HasSession(ctx, name))
	assert.Eventually(t, func() bool {
		sessions, err := c.ListSessions(ctx)
		if err != nil {
			return false
		}
		for _, s := range sessions {
			if s.Name == name {
				return strings.Contains(strings.Join(s.Preview, "\n"), "live-marker")
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)
}
