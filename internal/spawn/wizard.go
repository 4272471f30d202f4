// Package spawn holds the new-agent wizard and the code that turns its result
// into a running tmux session.
package spawn

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/git"
	"github.com/agentssh/agentssh/internal/pathnav"
)

// Step is one state of the wizard. Each variant carries only the data that
// state needs; the navigator lives on the Wizard so its position survives a
// trip back to the agent list.
type Step interface {
	stepName() string
}

// AgentStep chooses which agent to launch.
type AgentStep struct {
	Selected int
}

// PathStep browses for the working directory.
type PathStep struct {
	Agent int
}

// NewDirStep collects a name for a directory to create under the current path.
// Name is the last submitted value.
type NewDirStep struct {
	Agent int
	Name  string
}

// CloneStep collects a repository URL to clone into the current path. URL is
// the last submitted value.
type CloneStep struct {
	Agent int
	URL   string
}

func (*AgentStep) stepName() string  { return "agent" }
func (*PathStep) stepName() string   { return "path" }
func (*NewDirStep) stepName() string { return "new_dir" }
func (*CloneStep) stepName() string  { return "clone" }

// ActionKind enumerates wizard inputs.
type ActionKind int

const (
	ActNext ActionKind = iota
	ActPrev
	ActPageDown
	ActPageUp
	ActConfirm
	ActBack
	ActCancel
)

// Action is one operator input. Text carries the field value when a text
// step is confirmed.
type Action struct {
	Kind ActionKind
	Text string
}

// Submit confirms a text step with the value the operator typed.
func Submit(text string) Action { return Action{Kind: ActConfirm, Text: text} }

// OutcomeKind tells the caller what to do after Handle.
type OutcomeKind int

const (
	// Continue keeps the wizard open. Status, when set, goes to the status bar.
	Continue OutcomeKind = iota
	// Cancelled closes the wizard without side effects.
	Cancelled
	// Launch closes the wizard; the caller starts Agent in Dir.
	Launch
)

// Outcome is the result of Handle. Err marks Status as a failure.
type Outcome struct {
	Kind   OutcomeKind
	Status string
	Err    bool
	Agent  agent.Definition
	Dir    string
}

func failed(format string, args ...any) Outcome {
	return Outcome{Kind: Continue, Status: fmt.Sprintf(format, args...), Err: true}
}

// Cloner clones url into destDir and returns the clone's path.
type Cloner interface {
	Clone(url, destDir string) (string, error)
}

// ClonerFunc adapts a function to Cloner.
type ClonerFunc func(url, destDir string) (string, error)

func (f ClonerFunc) Clone(url, destDir string) (string, error) { return f(url, destDir) }

// GitCloner clones with the git CLI.
var GitCloner Cloner = ClonerFunc(git.CloneRepo)

// Wizard walks Agent, Path, and the optional NewDir and Clone sub-steps.
type Wizard struct {
	agents []agent.Definition
	nav    *pathnav.Navigator
	cloner Cloner
	step   Step
}

// NewWizard opens the wizard on the agent list with preferredID preselected
// when present. It fails if startDir cannot be listed.
func NewWizard(agents []agent.Definition, startDir, preferredID string, cloner Cloner) (*Wizard, error) {
	nav, err := pathnav.Open(startDir)
	if err != nil {
		return nil, fmt.Errorf("cannot open path browser: %w", err)
	}
	if cloner == nil {
		cloner = GitCloner
	}

	selected := 0
	for i, def := range agents {
		if def.ID == preferredID {
			selected = i
			break
		}
	}
	return &Wizard{
		agents: agents,
		nav:    nav,
		cloner: cloner,
		step:   &AgentStep{Selected: selected},
	}, nil
}

// Step returns the current state.
func (w *Wizard) Step() Step { return w.step }

// Agents returns the selectable agents.
func (w *Wizard) Agents() []agent.Definition { return w.agents }

// Navigator exposes the directory browser for rendering.
func (w *Wizard) Navigator() *pathnav.Navigator { return w.nav }

// SelectedAgent is the agent chosen in (or carried from) the agent step.
func (w *Wizard) SelectedAgent() (agent.Definition, bool) {
	var i int
	switch s := w.step.(type) {
	case *AgentStep:
		i = s.Selected
	case *PathStep:
		i = s.Agent
	case *NewDirStep:
		i = s.Agent
	case *CloneStep:
		i = s.Agent
	}
	if i < 0 || i >= len(w.agents) {
		return agent.Definition{}, false
	}
	return w.agents[i], true
}

// Handle applies one action.
func (w *Wizard) Handle(a Action) Outcome {
	switch s := w.step.(type) {
	case *AgentStep:
		return w.handleAgent(s, a)
	case *PathStep:
		return w.handlePath(s, a)
	case *NewDirStep:
		return w.handleNewDir(s, a)
	case *CloneStep:
		return w.handleClone(s, a)
	}
	return Outcome{Kind: Cancelled}
}

func (w *Wizard) handleAgent(s *AgentStep, a Action) Outcome {
	n := len(w.agents)
	switch a.Kind {
	case ActCancel, ActBack:
		return Outcome{Kind: Cancelled}
	case ActNext:
		if n > 0 {
			s.Selected = (s.Selected + 1) % n
		}
	case ActPrev:
		if n > 0 {
			s.Selected = (s.Selected - 1 + n) % n
		}
	case ActConfirm:
		if s.Selected >= 0 && s.Selected < n {
			w.step = &PathStep{Agent: s.Selected}
		}
	}
	return Outcome{Kind: Continue}
}

func (w *Wizard) handlePath(s *PathStep, a Action) Outcome {
	switch a.Kind {
	case ActCancel:
		return Outcome{Kind: Cancelled}
	case ActBack:
		w.step = &AgentStep{Selected: s.Agent}
	case ActNext:
		w.nav.Next()
	case ActPrev:
		w.nav.Previous()
	case ActPageDown:
		w.nav.PageDown()
	case ActPageUp:
		w.nav.PageUp()
	case ActConfirm:
		res, err := w.nav.Activate()
		if err != nil {
			return failed("Path navigation failed: %v", err)
		}
		switch res.Kind {
		case pathnav.Selected:
			return Outcome{Kind: Launch, Agent: w.agents[s.Agent], Dir: res.Path}
		case pathnav.StartCreateDirectory:
			w.step = &NewDirStep{Agent: s.Agent}
		case pathnav.StartCloneFromURL:
			w.step = &CloneStep{Agent: s.Agent}
		}
	}
	return Outcome{Kind: Continue}
}

func (w *Wizard) handleNewDir(s *NewDirStep, a Action) Outcome {
	switch a.Kind {
	case ActCancel, ActBack:
		w.step = &PathStep{Agent: s.Agent}
	case ActConfirm:
		s.Name = cleanText(a.Text)
		path, err := w.nav.CreateDirectory(s.Name)
		if err != nil {
			return failed("Create directory failed: %v", err)
		}
		w.step = &PathStep{Agent: s.Agent}
		return Outcome{Kind: Continue, Status: "Created " + path}
	}
	return Outcome{Kind: Continue}
}

func (w *Wizard) handleClone(s *CloneStep, a Action) Outcome {
	switch a.Kind {
	case ActCancel, ActBack:
		w.step = &PathStep{Agent: s.Agent}
	case ActConfirm:
		s.URL = strings.TrimSpace(cleanText(a.Text))
		path, err := w.cloner.Clone(s.URL, w.nav.Path())
		if err != nil {
			return failed("Clone failed: %v", err)
		}
		w.step = &PathStep{Agent: s.Agent}
		if err := w.nav.Reopen(path); err != nil {
			return failed("Cloned into %s (Path navigation failed: %v)", path, err)
		}
		return Outcome{Kind: Continue, Status: "Cloned into " + path}
	}
	return Outcome{Kind: Continue}
}

// cleanText drops control characters a paste may carry.
func cleanText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
