package spawn

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/git"
	"github.com/agentssh/agentssh/internal/logging"
	"github.com/agentssh/agentssh/internal/statedb"
)

var spawnLog = logging.ForComponent(logging.CompSpawn)

// Mux is the part of the tmux client the launcher drives.
type Mux interface {
	CreateSession(ctx context.Context, name, dir, command string) error
	SendKeysDelayed(name, text string, delay time.Duration)
}

// Worktrees materializes git worktrees.
type Worktrees interface {
	IsGitRepo(dir string) bool
	CreateWorktree(repoDir, id string) (string, error)
}

// History records launched sessions. It may be nil.
type History interface {
	RecordSpawn(row statedb.SpawnRow) error
	SetMeta(key, value string) error
}

type gitWorktrees struct{}

func (gitWorktrees) IsGitRepo(dir string) bool { return git.IsGitRepo(dir) }

func (gitWorktrees) CreateWorktree(repoDir, id string) (string, error) {
	return git.CreateWorktree(repoDir, id)
}

// Options are the config values a launch depends on.
type Options struct {
	GitWorktrees   bool
	TitleInjection bool
	InjectionDelay time.Duration
}

// Launched describes a session that was created.
type Launched struct {
	SessionName  string
	Dir          string
	WorktreePath string
	// Notice reports a non-fatal problem, such as a worktree fallback.
	Notice string
}

// Launcher starts agents in new managed tmux sessions. A failed launch is
// never retried.
type Launcher struct {
	mux       Mux
	worktrees Worktrees
	history   History
	now       func() time.Time
}

// NewLauncher returns a launcher using git for worktrees.
func NewLauncher(mux Mux, history History) *Launcher {
	return &Launcher{mux: mux, worktrees: gitWorktrees{}, history: history, now: time.Now}
}

// Launch starts def in dir.
func (l *Launcher) Launch(ctx context.Context, def agent.Definition, dir string, opts Options) (Launched, error) {
	now := l.now()
	out := Launched{Dir: dir, SessionName: agent.ManagedName(def.ID, now.Unix())}

	if opts.GitWorktrees && l.worktrees.IsGitRepo(dir) {
		id := def.ID + "-" + strconv.FormatInt(now.Unix(), 10)
		wt, err := l.worktrees.CreateWorktree(dir, id)
		if err != nil {
			out.Notice = fmt.Sprintf("Worktree failed: %v, using original dir", err)
			spawnLog.Warn("worktree_fallback", slog.String("dir", dir), slog.String("error", err.Error()))
		} else {
			out.Dir = wt
			out.WorktreePath = wt
		}
	}

	command := agent.BuildLaunchCommand(def, opts.TitleInjection)
	if err := l.mux.CreateSession(ctx, out.SessionName, out.Dir, command); err != nil {
		spawnLog.Error("launch_failed",
			slog.String("session", out.SessionName),
			slog.String("agent", def.ID),
			slog.String("error", err.Error()))
		return out, err
	}

	if opts.TitleInjection && agent.NeedsTitleInjection(def) {
		l.mux.SendKeysDelayed(out.SessionName, agent.TitleInjectionMessage(out.SessionName), opts.InjectionDelay)
	}

	spawnLog.Info("agent_launched",
		slog.String("session", out.SessionName),
		slog.String("agent", def.ID),
		slog.String("dir", out.Dir))
	l.record(def, dir, command, now, out)
	return out, nil
}

func (l *Launcher) record(def agent.Definition, dir, command string, now time.Time, out Launched) {
	if l.history == nil {
		return
	}
	row := statedb.SpawnRow{
		SessionName:  out.SessionName,
		AgentID:      def.ID,
		WorkDir:      out.Dir,
		WorktreePath: out.WorktreePath,
		Command:      command,
		CreatedAt:    now,
	}
	if err := l.history.RecordSpawn(row); err != nil {
		spawnLog.Warn("record_spawn_failed", slog.String("session", out.SessionName), slog.String("error", err.Error()))
	}
	for k, v := range map[string]string{statedb.MetaLastAgent: def.ID, statedb.MetaLastDir: dir} {
		if err := l.history.SetMeta(k, v); err != nil {
			spawnLog.Debug("set_meta_failed", slog.String("key", k), slog.String("error", err.Error()))
		}
	}
}

// StartedStatus is the status line after a successful launch.
func StartedStatus(def agent.Definition, l Launched) string {
	s := fmt.Sprintf("Started %s in %s", def.Label, l.Dir)
	if l.Notice != "" {
		s = l.Notice + "; " + s
	}
	return s
}

// FailedStatus is the status line after a failed launch.
func FailedStatus(def agent.Definition, err error) string {
	return fmt.Sprintf("Failed to start %s: %v", def.Label, err)
}
