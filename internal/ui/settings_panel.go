package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentssh/agentssh/internal/config"
)

type settingKind int

const (
	settingText settingKind = iota
	settingNumber
	settingToggle
	settingCycle
)

type setting struct {
	label string
	kind  settingKind
	get   func(c *config.Config) string
	set   func(c *config.Config, v string) error
	// choices for settingCycle, in order.
	choices []string
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func positiveInt(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return n, nil
}

var settings = []setting{
	{
		label: "Refresh interval",
		kind:  settingNumber,
		get:   func(c *config.Config) string { return strconv.Itoa(c.GetRefreshInterval()) },
		set: func(c *config.Config, v string) error {
			n, err := positiveInt(v)
			if err != nil {
				return err
			}
			c.RefreshInterval = config.IntPtr(max(n, 1))
			return nil
		},
	},
	{
		label: "Default spawn dir",
		kind:  settingText,
		get:   func(c *config.Config) string { return c.DefaultSpawnDir },
		set: func(c *config.Config, v string) error {
			c.DefaultSpawnDir = strings.TrimSpace(v)
			return nil
		},
	},
	{
		label: "Title injection",
		kind:  settingToggle,
		get:   func(c *config.Config) string { return onOff(c.GetTitleInjectionEnabled()) },
		set: func(c *config.Config, _ string) error {
			c.TitleInjectionEnabled = config.BoolPtr(!c.GetTitleInjectionEnabled())
			return nil
		},
	},
	{
		label: "Title injection delay",
		kind:  settingNumber,
		get:   func(c *config.Config) string { return strconv.Itoa(c.GetTitleInjectionDelay()) },
		set: func(c *config.Config, v string) error {
			n, err := positiveInt(v)
			if err != nil {
				return err
			}
			c.TitleInjectionDelay = config.IntPtr(n)
			return nil
		},
	},
	{
		label: "Git worktrees",
		kind:  settingToggle,
		get:   func(c *config.Config) string { return onOff(c.GitWorktrees) },
		set: func(c *config.Config, _ string) error {
			c.GitWorktrees = !c.GitWorktrees
			return nil
		},
	},
	{
		label: "Sound on completion",
		kind:  settingToggle,
		get:   func(c *config.Config) string { return onOff(c.Notifications.GetSoundOnCompletion()) },
		set: func(c *config.Config, _ string) error {
			c.Notifications.SoundOnCompletion = config.BoolPtr(!c.Notifications.GetSoundOnCompletion())
			return nil
		},
	},
	{
		label:   "Sound method",
		kind:    settingCycle,
		choices: []string{config.SoundBell, config.SoundCommand},
		get:     func(c *config.Config) string { return c.Notifications.GetSoundMethod() },
		set: func(c *config.Config, v string) error {
			c.Notifications.SoundMethod = v
			return nil
		},
	},
	{
		label: "Sound command",
		kind:  settingText,
		get:   func(c *config.Config) string { return c.Notifications.GetSoundCommand() },
		set: func(c *config.Config, v string) error {
			c.Notifications.SoundCommand = strings.TrimSpace(v)
			return nil
		},
	},
	{
		label:   "Theme",
		kind:    settingCycle,
		choices: []string{"dark", "light", "system"},
		get:     func(c *config.Config) string { return c.GetTheme() },
		set: func(c *config.Config, v string) error {
			c.Theme = v
			return nil
		},
	},
}

func nextChoice(choices []string, cur string) string {
	for i, c := range choices {
		if c == cur {
			return choices[(i+1)%len(choices)]
		}
	}
	return choices[0]
}

// settingsResult tells Home what the last key did.
type settingsResult struct {
	Close   bool
	Changed bool
	Err     error
}

// SettingsPanel edits the scalar settings of a config copy. Custom agents are
// edited in config.toml only.
type SettingsPanel struct {
	cfg     *config.Config
	cursor  int
	editing bool
	input   textinput.Model
	width   int
	height  int
}

// NewSettingsPanel edits a copy of cfg.
func NewSettingsPanel(cfg *config.Config) *SettingsPanel {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = ""
	return &SettingsPanel{cfg: cfg.Clone(), input: ti}
}

// Config returns the edited copy.
func (p *SettingsPanel) Config() *config.Config { return p.cfg }

// SetSize updates panel dimensions.
func (p *SettingsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	if width > 40 {
		p.input.Width = width/2 - 10
	}
}

// Update applies one key press.
func (p *SettingsPanel) Update(msg tea.KeyMsg) (settingsResult, tea.Cmd) {
	if p.editing {
		switch msg.String() {
		case "esc":
			p.editing = false
			p.input.Blur()
			return settingsResult{}, nil
		case "enter":
			p.editing = false
			p.input.Blur()
			if err := settings[p.cursor].set(p.cfg, p.input.Value()); err != nil {
				return settingsResult{Err: err}, nil
			}
			return settingsResult{Changed: true}, nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return settingsResult{}, cmd
	}

	switch msg.String() {
	case "esc", "q", "s":
		return settingsResult{Close: true}, nil
	case "down", "j":
		p.cursor = (p.cursor + 1) % len(settings)
	case "up", "k":
		p.cursor = (p.cursor - 1 + len(settings)) % len(settings)
	case "enter", " ":
		s := settings[p.cursor]
		switch s.kind {
		case settingToggle:
			_ = s.set(p.cfg, "")
			return settingsResult{Changed: true}, nil
		case settingCycle:
			_ = s.set(p.cfg, nextChoice(s.choices, s.get(p.cfg)))
			return settingsResult{Changed: true}, nil
		default:
			p.editing = true
			p.input.SetValue(s.get(p.cfg))
			p.input.CursorEnd()
			return settingsResult{}, p.input.Focus()
		}
	}
	return settingsResult{}, nil
}

// View renders the panel.
func (p *SettingsPanel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("settings"))
	b.WriteString("\n\n")

	for i, s := range settings {
		selected := i == p.cursor
		label := padRight(s.label, 24)

		var value string
		switch {
		case selected && p.editing:
			value = p.input.View()
		case s.kind == settingToggle && s.get(p.cfg) == "on" && !selected:
			value = SuccessStyle.Render("on")
		default:
			value = s.get(p.cfg)
			if !selected {
				value = DimStyle.Render(value)
			}
		}

		if selected && !p.editing {
			b.WriteString(SelectedRowStyle.Render(label + s.get(p.cfg)))
		} else if selected {
			b.WriteString(SelectedRowStyle.Render(label))
			b.WriteString(value)
		} else {
			b.WriteString(TextStyle.Render(label))
			b.WriteString(value)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(DimStyle.Render("Custom [[agents]] entries are edited in config.toml."))
	b.WriteString("\n\n")
	if p.editing {
		b.WriteString(renderHint("enter", "save", "esc", "discard"))
	} else {
		b.WriteString(renderHint("↑/↓", "navigate", "enter", "edit/toggle", "esc", "back"))
	}
	return b.String()
}
