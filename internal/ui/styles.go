package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme names the active palette.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type palette struct {
	Bg, Surface, Border, Text, TextDim lipgloss.Color
	Accent, Highlight, Green, Yellow   lipgloss.Color
	Red                                lipgloss.Color
}

// Warm clay palette for dark terminals.
var darkPalette = palette{
	Bg:        lipgloss.Color("#000000"),
	Surface:   lipgloss.Color("#1c1917"),
	Border:    lipgloss.Color("#463c37"),
	Text:      lipgloss.Color("#d7cdc3"),
	TextDim:   lipgloss.Color("#82786e"),
	Accent:    lipgloss.Color("#cf9059"),
	Highlight: lipgloss.Color("#bf6f4a"),
	Green:     lipgloss.Color("#a9c38c"),
	Yellow:    lipgloss.Color("#e4af69"),
	Red:       lipgloss.Color("#e06c60"),
}

var lightPalette = palette{
	Bg:        lipgloss.Color("#faf6f1"),
	Surface:   lipgloss.Color("#efe8df"),
	Border:    lipgloss.Color("#b8aa9b"),
	Text:      lipgloss.Color("#3b302a"),
	TextDim:   lipgloss.Color("#7d6f63"),
	Accent:    lipgloss.Color("#a2592c"),
	Highlight: lipgloss.Color("#bf6f4a"),
	Green:     lipgloss.Color("#4f6b33"),
	Yellow:    lipgloss.Color("#8f5e15"),
	Red:       lipgloss.Color("#a33a2f"),
}

var (
	currentTheme = ThemeDark
	colors       palette
	themeMu      sync.RWMutex
)

// Styles rebuilt by InitTheme.
var (
	BaseStyle        lipgloss.Style
	TitleStyle       lipgloss.Style
	DimStyle         lipgloss.Style
	TextStyle        lipgloss.Style
	AccentStyle      lipgloss.Style
	SelectedRowStyle lipgloss.Style
	ErrorStyle       lipgloss.Style
	SuccessStyle     lipgloss.Style
	WarningStyle     lipgloss.Style

	PanelStyle      lipgloss.Style
	DialogBoxStyle  lipgloss.Style
	WarningBoxStyle lipgloss.Style

	MenuKeyStyle  lipgloss.Style
	MenuDescStyle lipgloss.Style

	PreviewHeaderStyle lipgloss.Style
	PreviewMetaStyle   lipgloss.Style
)

// InitTheme switches the palette. Call it before rendering and again on a
// live theme change.
func InitTheme(theme string) {
	themeMu.Lock()
	defer themeMu.Unlock()

	if theme == string(ThemeLight) {
		currentTheme = ThemeLight
		colors = lightPalette
	} else {
		currentTheme = ThemeDark
		colors = darkPalette
	}
	initStyles()
}

// CurrentTheme returns the active theme.
func CurrentTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

func init() {
	InitTheme(string(ThemeDark))
}

func initStyles() {
	c := colors

	BaseStyle = lipgloss.NewStyle().Foreground(c.Text)
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(c.Accent)
	DimStyle = lipgloss.NewStyle().Foreground(c.TextDim)
	TextStyle = lipgloss.NewStyle().Foreground(c.Text)
	AccentStyle = lipgloss.NewStyle().Foreground(c.Accent)
	SelectedRowStyle = lipgloss.NewStyle().
		Foreground(c.Bg).
		Background(c.Highlight).
		Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(c.Red).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(c.Green)
	WarningStyle = lipgloss.NewStyle().Foreground(c.Yellow).Bold(true)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.Border).
		Padding(0, 1)
	DialogBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.Accent).
		Padding(1, 2)
	WarningBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.Yellow).
		Padding(1, 2)

	MenuKeyStyle = lipgloss.NewStyle().Foreground(c.Text).Bold(true)
	MenuDescStyle = lipgloss.NewStyle().Foreground(c.TextDim)

	PreviewHeaderStyle = lipgloss.NewStyle().Foreground(c.Accent).Bold(true)
	PreviewMetaStyle = lipgloss.NewStyle().Foreground(c.TextDim)
}
