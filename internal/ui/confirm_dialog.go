package ui

import (
	"fmt"
	"strings"
)

// ConfirmDialog asks before stopping a session.
type ConfirmDialog struct {
	visible    bool
	targetName string
	title      string
	worktree   string
}

// NewConfirmDialog creates a hidden dialog.
func NewConfirmDialog() *ConfirmDialog {
	return &ConfirmDialog{}
}

// ShowKill asks to stop sessionName. worktree, when set, is removed too.
func (c *ConfirmDialog) ShowKill(sessionName, title, worktree string) {
	c.visible = true
	c.targetName = sessionName
	c.title = title
	c.worktree = worktree
}

// Hide hides the dialog.
func (c *ConfirmDialog) Hide() {
	c.visible = false
	c.targetName = ""
	c.title = ""
	c.worktree = ""
}

// IsVisible reports whether the dialog is showing.
func (c *ConfirmDialog) IsVisible() bool { return c.visible }

// Target is the session being confirmed.
func (c *ConfirmDialog) Target() string { return c.targetName }

// View renders the dialog.
func (c *ConfirmDialog) View() string {
	if !c.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(ErrorStyle.Render("Stop session?"))
	b.WriteString("\n\n")
	b.WriteString(TextStyle.Render(fmt.Sprintf("This kills the tmux session %q", c.targetName)))
	if c.title != "" && c.title != c.targetName {
		b.WriteString("\n")
		b.WriteString(DimStyle.Render("  " + c.title))
	}
	b.WriteString("\n")
	if c.worktree != "" {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("The worktree and its branch are removed too:"))
		b.WriteString("\n")
		b.WriteString(DimStyle.Render("  " + c.worktree))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderHint("y", "stop", "n/esc", "cancel"))

	return DialogBoxStyle.BorderForeground(colors.Red).Render(b.String())
}
