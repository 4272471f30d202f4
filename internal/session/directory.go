package session

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"time"

	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/logging"
	"github.com/agentssh/agentssh/internal/tmux"
)

var agentLog = logging.ForComponent(logging.CompAgent)

// Lister lists tmux sessions.
type Lister interface {
	ListSessions(ctx context.Context) ([]tmux.Session, error)
}

// Snapshot is the result of one refresh. It is immutable once returned.
type Snapshot struct {
	Available []agent.Definition
	Instances []Instance
	At        time.Time
}

// Status is the status bar summary for a successful refresh.
func (s Snapshot) Status() string {
	return fmt.Sprintf("%d running │ %d agents detected", len(s.Instances), len(s.Available))
}

// FailedStatus is the status bar text for a failed refresh.
func FailedStatus(err error) string {
	return fmt.Sprintf("refresh failed: %v", err)
}

// Index returns the position of the instance named name, or -1.
func (s Snapshot) Index(name string) int {
	for i, inst := range s.Instances {
		if inst.Session.Name == name {
			return i
		}
	}
	return -1
}

// Directory produces snapshots. It holds no state between refreshes.
type Directory struct {
	lister    Lister
	custom    func() []agent.Definition
	lookPath  agent.LookPathFunc
	readTitle func(string) string
	now       func() time.Time
}

// NewDirectory returns a Directory that re-reads custom agent definitions on
// every refresh so config edits take effect without a restart.
func NewDirectory(lister Lister, custom func() []agent.Definition) *Directory {
	return &Directory{
		lister:    lister,
		custom:    custom,
		lookPath:  exec.LookPath,
		readTitle: agent.ReadTitleOverride,
		now:       time.Now,
	}
}

// Refresh detects agents, lists sessions and classifies them, sorted by name.
// On a listing error the snapshot has no instances and the error is returned;
// the next refresh starts over.
func (d *Directory) Refresh(ctx context.Context) (Snapshot, error) {
	var custom []agent.Definition
	if d.custom != nil {
		custom = d.custom()
	}
	snap := Snapshot{
		Available: agent.DetectAvailable(custom, d.lookPath),
		At:        d.now(),
	}

	sessions, err := d.lister.ListSessions(ctx)
	if err != nil {
		agentLog.Warn("refresh_failed", slog.String("error", err.Error()))
		return snap, err
	}

	snap.Instances = Build(sessions, snap.Available, d.readTitle)
	sort.Slice(snap.Instances, func(i, j int) bool {
		return snap.Instances[i].Session.Name < snap.Instances[j].Session.Name
	})
	logging.Aggregate(logging.CompAgent, "refresh",
		slog.Int("sessions", len(sessions)),
		slog.Int("instances", len(snap.Instances)))
	return snap, nil
}
