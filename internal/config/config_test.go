package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentssh/agentssh/internal/agent"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvDir, dir)
	ClearCache()
	SetOverrides(Overrides{})
	t.Cleanup(func() {
		ClearCache()
		SetOverrides(Overrides{})
	})
	return dir
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o600))
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.GetRefreshInterval())
	assert.True(t, cfg.GetTitleInjectionEnabled())
	assert.Equal(t, 5, cfg.GetTitleInjectionDelay())
	assert.False(t, cfg.GitWorktrees)
	assert.True(t, cfg.Notifications.GetSoundOnCompletion())
	assert.Equal(t, SoundBell, cfg.Notifications.GetSoundMethod())
	assert.Equal(t, DefaultSoundCommand, cfg.Notifications.GetSoundCommand())
	assert.Equal(t, "dark", cfg.GetTheme())
}

func TestLoad_ParsesFile(t *testing.T) {
	dir := useTempConfigDir(t)
	writeConfig(t, dir, `
refresh_interval = 7
title_injection_enabled = false
title_injection_delay = 9
git_worktrees = true
theme = "light"

[notifications]
sound_on_completion = false
sound_method = "command"
sound_command = "paplay done.oga"

[[agents]]
id = "codex"
label = "Codex (work)"
binary = "codex"
launch = "codex --full-auto"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.GetRefreshInterval())
	assert.False(t, cfg.GetTitleInjectionEnabled())
	assert.Equal(t, 9, cfg.GetTitleInjectionDelay())
	assert.True(t, cfg.GitWorktrees)
	assert.Equal(t, "light", cfg.GetTheme())
	assert.False(t, cfg.Notifications.GetSoundOnCompletion())
	assert.Equal(t, SoundCommand, cfg.Notifications.GetSoundMethod())
	assert.Equal(t, "paplay done.oga", cfg.Notifications.GetSoundCommand())
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, agent.Definition{ID: "codex", Label: "Codex (work)", Binary: "codex", Launch: "codex --full-auto"}, cfg.Agents[0])
}

func TestLoad_ParseErrorReturnsDefaults(t *testing.T) {
	dir := useTempConfigDir(t)
	writeConfig(t, dir, "refresh_interval = [oops")

	cfg, err := Load()
	assert.ErrorContains(t, err, "parse error")
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultRefreshInterval, cfg.GetRefreshInterval())
}

func TestRefreshIntervalBounds(t *testing.T) {
	useTempConfigDir(t)
	assert.Equal(t, 1, (&Config{RefreshInterval: IntPtr(-4)}).GetRefreshInterval())

	SetOverrides(Overrides{RefreshSeconds: 10})
	assert.Equal(t, 10, (&Config{RefreshInterval: IntPtr(2)}).GetRefreshInterval())
}

func TestLoad_ExplicitZeroes(t *testing.T) {
	dir := useTempConfigDir(t)
	writeConfig(t, dir, "refresh_interval = 0\ntitle_injection_delay = 0\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.GetRefreshInterval(), "explicit 0 clamps to 1, not the default")
	assert.Equal(t, 0, cfg.GetTitleInjectionDelay(), "explicit 0 is honored")

	require.NoError(t, Save(cfg))
	reloaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.GetTitleInjectionDelay())
}

func TestSaveRoundTrip(t *testing.T) {
	dir := useTempConfigDir(t)

	cfg := &Config{
		RefreshInterval:       IntPtr(4),
		DefaultSpawnDir:       "~/src",
		TitleInjectionEnabled: BoolPtr(false),
		GitWorktrees:          true,
		Notifications:         Notifications{SoundOnCompletion: BoolPtr(true), SoundMethod: SoundCommand},
		Agents:                []agent.Definition{{ID: "goose", Label: "Goose", Binary: "goose", Launch: "goose session"}},
	}
	require.NoError(t, Save(cfg))

	assert.NoFileExists(t, filepath.Join(dir, FileName+".tmp"))
	info, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveClearsCache(t *testing.T) {
	useTempConfigDir(t)

	first, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRefreshInterval, first.GetRefreshInterval())

	edited := first.Clone()
	edited.RefreshInterval = IntPtr(8)
	require.NoError(t, Save(edited))

	second, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, second.GetRefreshInterval())
	assert.Nil(t, first.RefreshInterval, "Clone must not alias the cached config")
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Config{TitleInjectionEnabled: BoolPtr(true), Agents: []agent.Definition{{ID: "a"}}}
	c := orig.Clone()
	*c.TitleInjectionEnabled = false
	c.Agents[0].ID = "b"
	assert.True(t, *orig.TitleInjectionEnabled)
	assert.Equal(t, "a", orig.Agents[0].ID)
}

func TestGetSpawnDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, (&Config{DefaultSpawnDir: dir}).GetSpawnDir())

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, (&Config{DefaultSpawnDir: filepath.Join(dir, "missing")}).GetSpawnDir())
}

func TestWatcherReportsExternalEdits(t *testing.T) {
	dir := useTempConfigDir(t)

	w, err := NewWatcher()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.db"), []byte("x"), 0o600))
	select {
	case <-w.Changes():
		t.Fatal("change reported for unrelated file")
	case <-time.After(400 * time.Millisecond):
	}

	writeConfig(t, dir, "refresh_interval = 6\n")
	select {
	case <-w.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported for config edit")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.GetRefreshInterval())
}
