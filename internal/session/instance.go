// Package session joins raw tmux sessions with agent classification to form
// the dashboard's instance list.
package session

import (
	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/tmux"
)

// Instance is one classified agent session. Instances are rebuilt on every
// refresh and never mutated afterwards.
type Instance struct {
	Agent         agent.Definition
	Session       tmux.Session
	Managed       bool
	TitleOverride string
}

// Name is the tmux session name.
func (i Instance) Name() string { return i.Session.Name }

// Title is the human-readable label for the row.
func (i Instance) Title() string {
	return agent.DeriveTitle(i.Session.Name, i.Session.PaneTitle, i.Session.PaneCurrentPath, i.TitleOverride)
}

// ShortName is <agent>_<suffix> for managed sessions, else the session name.
func (i Instance) ShortName() string { return agent.ShortName(i.Session.Name) }

// FilterValue is the text the dashboard filter matches against.
func (i Instance) FilterValue() string {
	return i.Title() + " " + i.Agent.ID + " " + i.Session.Name
}

// Build classifies sessions against available and drops the ones no agent
// claims. readTitle supplies the side-channel title override.
func Build(sessions []tmux.Session, available []agent.Definition, readTitle func(sessionName string) string) []Instance {
	out := make([]Instance, 0, len(sessions))
	for _, s := range sessions {
		def, ok := agent.Classify(s.Name, s.CurrentCommand, available)
		if !ok {
			continue
		}
		inst := Instance{
			Agent:   def,
			Session: s,
			Managed: agent.IsManaged(s.Name),
		}
		if readTitle != nil {
			inst.TitleOverride = readTitle(s.Name)
		}
		out = append(out, inst)
	}
	return out
}
