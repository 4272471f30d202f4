package ui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/config"
	"github.com/agentssh/agentssh/internal/session"
	"github.com/agentssh/agentssh/internal/spawn"
)

func newTestWizard(t *testing.T) (*WizardDialog, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "proj"), 0o755))
	w, err := spawn.NewWizard([]agent.Definition{codexDef, aiderDef}, dir, "", nil)
	require.NoError(t, err)
	d := NewWizardDialog(w)
	d.SetSize(100, 40)
	return d, dir
}

func TestActionsFor_ListSteps(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want spawn.ActionKind
	}{
		{runes("j"), spawn.ActNext},
		{tea.KeyMsg{Type: tea.KeyDown}, spawn.ActNext},
		{runes("k"), spawn.ActPrev},
		{tea.KeyMsg{Type: tea.KeyPgDown}, spawn.ActPageDown},
		{tea.KeyMsg{Type: tea.KeyPgUp}, spawn.ActPageUp},
		{enterKey, spawn.ActConfirm},
		{escKey, spawn.ActCancel},
		{runes("h"), spawn.ActBack},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			got := actionsFor(tt.key)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Kind)
		})
	}
	assert.Empty(t, actionsFor(runes("z")))
}

func openNewDirStep(t *testing.T, d *WizardDialog) {
	t.Helper()
	d.Update(enterKey)
	d.Update(runes("j"))
	d.Update(enterKey)
	require.IsType(t, &spawn.NewDirStep{}, d.wizard.Step())
}

func TestWizardDialog_TextStepEditsInput(t *testing.T) {
	d, _ := newTestWizard(t)
	openNewDirStep(t, d)

	d.Update(runes("jk"))
	d.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	d.Update(runes("x"))
	assert.Equal(t, "jk x", d.input.Value())
	assert.IsType(t, &spawn.NewDirStep{}, d.wizard.Step())

	d.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Equal(t, "jk ", d.input.Value())

	d.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	d.Update(tea.KeyMsg{Type: tea.KeyHome})
	d.Update(runes(">"))
	assert.Equal(t, ">jk", d.input.Value())
}

func TestWizardDialog_CtrlCLeavesTextStep(t *testing.T) {
	d, _ := newTestWizard(t)
	openNewDirStep(t, d)

	d.Update(runes("abc"))
	d.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.IsType(t, &spawn.PathStep{}, d.wizard.Step())

	// Re-entering starts with an empty field.
	d.Update(enterKey)
	require.IsType(t, &spawn.NewDirStep{}, d.wizard.Step())
	assert.Empty(t, d.input.Value())
}

func TestWizardDialog_FailedSubmitKeepsText(t *testing.T) {
	d, _ := newTestWizard(t)
	openNewDirStep(t, d)

	d.Update(runes("a/b"))
	out := d.Update(enterKey)
	assert.True(t, out.Err)
	assert.IsType(t, &spawn.NewDirStep{}, d.wizard.Step())
	assert.Equal(t, "a/b", d.input.Value())
}

func TestWizardDialog_CreateDirectoryFlow(t *testing.T) {
	d, dir := newTestWizard(t)

	assert.Equal(t, spawn.Continue, d.Update(enterKey).Kind)
	assert.Contains(t, d.View(), "proj/")

	// Entries: use, create, clone, .., proj.
	d.Update(runes("j"))
	assert.Equal(t, spawn.Continue, d.Update(enterKey).Kind)
	require.IsType(t, &spawn.NewDirStep{}, d.wizard.Step())

	d.Update(runes("new app"))
	assert.Contains(t, d.View(), "new app")

	out := d.Update(enterKey)
	assert.Equal(t, spawn.Continue, out.Kind)
	assert.Contains(t, out.Status, "Created")
	assert.DirExists(t, filepath.Join(dir, "new app"))
	assert.Equal(t, filepath.Join(dir, "new app"), d.wizard.Navigator().Path())
}

func TestWizardDialog_View(t *testing.T) {
	d, _ := newTestWizard(t)
	view := d.View()
	assert.Contains(t, view, "new agent")
	assert.Contains(t, view, "Codex")
	assert.Contains(t, view, "Aider")
}

func TestVisibleWindow(t *testing.T) {
	tests := []struct {
		name                      string
		total, selected, capacity int
		start, end                int
	}{
		{"fits", 5, 4, 10, 0, 5},
		{"top", 50, 0, 10, 0, 10},
		{"middle", 50, 25, 10, 20, 30},
		{"bottom", 50, 49, 10, 40, 50},
		{"no capacity", 5, 0, 0, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e := visibleWindow(tt.total, tt.selected, tt.capacity)
			assert.Equal(t, tt.start, s)
			assert.Equal(t, tt.end, e)
		})
	}
}

func TestSettingsPanel_EditNumber(t *testing.T) {
	p := NewSettingsPanel(&config.Config{})

	res, _ := p.Update(enterKey) // refresh interval
	assert.False(t, res.Changed)
	require.True(t, p.editing)

	p.input.SetValue("7")
	res, _ = p.Update(enterKey)
	assert.True(t, res.Changed)
	assert.Equal(t, 7, p.Config().GetRefreshInterval())
}

func TestSettingsPanel_ZeroTitleDelayIsKept(t *testing.T) {
	p := NewSettingsPanel(&config.Config{})
	for settings[p.cursor].label != "Title injection delay" {
		p.Update(runes("j"))
	}

	p.Update(enterKey)
	p.input.SetValue("0")
	res, _ := p.Update(enterKey)
	assert.True(t, res.Changed)
	assert.Equal(t, 0, p.Config().GetTitleInjectionDelay())
}

func TestSettingsPanel_RejectsBadNumber(t *testing.T) {
	p := NewSettingsPanel(&config.Config{})
	p.Update(enterKey)
	p.input.SetValue("soon")

	res, _ := p.Update(enterKey)
	assert.Error(t, res.Err)
	assert.False(t, res.Changed)
	assert.Equal(t, config.DefaultRefreshInterval, p.Config().GetRefreshInterval())
}

func TestSettingsPanel_CyclesAndToggles(t *testing.T) {
	orig := &config.Config{}
	p := NewSettingsPanel(orig)

	for p.cursor != len(settings)-1 {
		p.Update(runes("j"))
	}
	res, _ := p.Update(enterKey)
	assert.True(t, res.Changed)
	assert.Equal(t, "light", p.Config().GetTheme())
	p.Update(enterKey)
	p.Update(enterKey)
	assert.Equal(t, "dark", p.Config().GetTheme())

	p.Update(runes("k")) // sound command
	p.Update(runes("k")) // sound method
	p.Update(enterKey)
	assert.Equal(t, config.SoundCommand, p.Config().Notifications.GetSoundMethod())

	assert.Equal(t, config.SoundBell, orig.Notifications.GetSoundMethod(), "original config untouched")
}

func TestSettingsPanel_Close(t *testing.T) {
	p := NewSettingsPanel(&config.Config{})
	res, _ := p.Update(escKey)
	assert.True(t, res.Close)
	assert.Contains(t, p.View(), "Title injection")
}

func TestFilterInstances(t *testing.T) {
	insts := testSnapshot().Instances

	assert.Equal(t, []int{0, 1, 2}, filterInstances("", insts))
	assert.Equal(t, []int{1}, filterInstances("login", insts))
	assert.Equal(t, []int{0, 2}, filterInstances("codex", insts))
	assert.Empty(t, filterInstances("zzzz", insts))
	assert.Empty(t, filterInstances("x", []session.Instance{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 6))
	assert.Equal(t, "", truncate("hello", 0))
	assert.Equal(t, "日本...", truncate("日本語テキスト", 7))
}

func TestTruncatePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "~/src/app", truncatePath(filepath.Join(home, "src", "app"), 40))
	assert.Equal(t, "...c/d/e", truncatePath("/aaaa/bbbb/c/d/e", 8))
}

func TestDoneLabel(t *testing.T) {
	now := time.Unix(10_000, 0)
	assert.Empty(t, doneLabel(time.Time{}, now))
	assert.Equal(t, "done 5 minutes ago", doneLabel(now.Add(-5*time.Minute), now))
}

func TestInitTheme(t *testing.T) {
	defer InitTheme(string(ThemeDark))

	InitTheme("light")
	assert.Equal(t, ThemeLight, CurrentTheme())
	InitTheme("bogus")
	assert.Equal(t, ThemeDark, CurrentTheme())
}
