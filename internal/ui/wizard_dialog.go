package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentssh/agentssh/internal/pathnav"
	"github.com/agentssh/agentssh/internal/spawn"
)

// WizardDialog renders a spawn.Wizard and translates keys into wizard
// actions. The directory-name and clone-URL steps are edited in a textinput
// whose value is submitted on enter.
type WizardDialog struct {
	wizard *spawn.Wizard
	input  textinput.Model
	// inputFor is the text step input was last reset for.
	inputFor spawn.Step
	width    int
	height   int
}

// NewWizardDialog wraps w.
func NewWizardDialog(w *spawn.Wizard) *WizardDialog {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 512
	ti.Width = 60
	return &WizardDialog{wizard: w, input: ti}
}

// SetSize updates dialog dimensions.
func (d *WizardDialog) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// Update applies one key press.
func (d *WizardDialog) Update(msg tea.KeyMsg) spawn.Outcome {
	defer d.syncInput()

	if isTextStep(d.wizard.Step()) {
		switch msg.String() {
		case "esc", "ctrl+c":
			return d.wizard.Handle(spawn.Action{Kind: spawn.ActCancel})
		case "enter":
			return d.wizard.Handle(spawn.Submit(d.input.Value()))
		}
		// Everything else edits the field, so j and k type letters here.
		d.input, _ = d.input.Update(msg)
		return spawn.Outcome{Kind: spawn.Continue}
	}

	for _, a := range actionsFor(msg) {
		out := d.wizard.Handle(a)
		if out.Kind != spawn.Continue || out.Status != "" {
			return out
		}
	}
	return spawn.Outcome{Kind: spawn.Continue}
}

// syncInput resets and focuses the field when the wizard enters a text step.
// A failed submit stays on the same step and keeps what was typed.
func (d *WizardDialog) syncInput() {
	step := d.wizard.Step()
	if step == d.inputFor {
		return
	}
	d.inputFor = step
	if !isTextStep(step) {
		d.input.Blur()
		return
	}
	d.input.Reset()
	switch step.(type) {
	case *spawn.NewDirStep:
		d.input.Placeholder = "my-project"
	case *spawn.CloneStep:
		d.input.Placeholder = "git@github.com:owner/repo.git"
	}
	d.input.Focus()
}

func isTextStep(step spawn.Step) bool {
	switch step.(type) {
	case *spawn.NewDirStep, *spawn.CloneStep:
		return true
	}
	return false
}

// actionsFor maps a key to a list-step action.
func actionsFor(msg tea.KeyMsg) []spawn.Action {
	act := func(k spawn.ActionKind) []spawn.Action { return []spawn.Action{{Kind: k}} }

	switch msg.String() {
	case "esc", "ctrl+c":
		return act(spawn.ActCancel)
	case "enter":
		return act(spawn.ActConfirm)
	case "down", "j":
		return act(spawn.ActNext)
	case "up", "k":
		return act(spawn.ActPrev)
	case "pgdown":
		return act(spawn.ActPageDown)
	case "pgup":
		return act(spawn.ActPageUp)
	case "left", "h":
		return act(spawn.ActBack)
	}
	return nil
}

// View renders the dialog box.
func (d *WizardDialog) View() string {
	w := d.width * 3 / 4
	if w < 50 {
		w = 50
	}
	inner := w - 6

	var b strings.Builder
	b.WriteString(TitleStyle.Render("new agent"))
	b.WriteString("\n\n")

	var hint string
	switch s := d.wizard.Step().(type) {
	case *spawn.AgentStep:
		b.WriteString(DimStyle.Render("choose an agent"))
		b.WriteString("\n\n")
		for i, def := range d.wizard.Agents() {
			b.WriteString(renderRow(def.Label+DimStyle.Render("  "+def.ID), i == s.Selected, inner))
			b.WriteString("\n")
		}
		hint = renderHint("enter", "next", "j/k", "move", "esc", "cancel")

	case *spawn.PathStep:
		d.writeAgentLine(&b)
		b.WriteString(renderNavigator(d.wizard.Navigator(), inner, d.listCapacity()))
		hint = renderHint("enter", "open/use", "pgup/pgdn", "page", "h", "back", "esc", "cancel")

	case *spawn.NewDirStep:
		d.writeAgentLine(&b)
		b.WriteString(TextStyle.Render("Directory name in " + truncatePath(d.wizard.Navigator().Path(), inner-18) + ":"))
		b.WriteString("\n\n  ")
		b.WriteString(d.input.View())
		b.WriteString("\n")
		hint = renderHint("enter", "create", "esc", "back")

	case *spawn.CloneStep:
		d.writeAgentLine(&b)
		b.WriteString(TextStyle.Render("Repository URL (clones into " + truncatePath(d.wizard.Navigator().Path(), inner-28) + "):"))
		b.WriteString("\n\n  ")
		b.WriteString(d.input.View())
		b.WriteString("\n")
		hint = renderHint("enter", "clone", "esc", "back")
	}

	b.WriteString("\n")
	b.WriteString(hint)
	return DialogBoxStyle.Width(w).Render(b.String())
}

func (d *WizardDialog) writeAgentLine(b *strings.Builder) {
	if def, ok := d.wizard.SelectedAgent(); ok {
		b.WriteString(DimStyle.Render("agent: "))
		b.WriteString(AccentStyle.Render(def.Label))
		b.WriteString("\n\n")
	}
}

func (d *WizardDialog) listCapacity() int {
	c := d.height - 14
	if c < 5 {
		c = 5
	}
	return c
}

func renderNavigator(nav *pathnav.Navigator, width, capacity int) string {
	entries := nav.Entries()
	start, end := visibleWindow(len(entries), nav.Selected(), capacity)

	var b strings.Builder
	if start > 0 {
		b.WriteString(DimStyle.Render("  ..."))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		e := entries[i]
		label := e.Label
		switch e.Kind {
		case pathnav.UseCurrentDirectory:
			label = "Use " + truncatePath(e.Path, width-8)
		case pathnav.Subdirectory:
			label += "/"
		}
		b.WriteString(renderRow(label, i == nav.Selected(), width))
		b.WriteString("\n")
	}
	if end < len(entries) {
		b.WriteString(DimStyle.Render("  ..."))
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(label string, selected bool, width int) string {
	label = truncate(label, width-2)
	if selected {
		return SelectedRowStyle.Width(width).Render("> " + label)
	}
	return TextStyle.Render("  " + label)
}

func renderHint(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, MenuKeyStyle.Render(pairs[i])+MenuDescStyle.Render(" "+pairs[i+1]))
	}
	return strings.Join(parts, MenuDescStyle.Render("   "))
}

// visibleWindow returns the [start, end) slice of a list of total rows that
// keeps selected on screen within capacity rows.
func visibleWindow(total, selected, capacity int) (int, int) {
	if capacity <= 0 || total <= capacity {
		return 0, total
	}
	start := selected - capacity/2
	if start < 0 {
		start = 0
	}
	end := start + capacity
	if end > total {
		end = total
		start = end - capacity
	}
	return start, end
}

func centerOverlay(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
