// Package config loads and saves ~/.config/agentssh/config.toml.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/logging"
)

var configLog = logging.ForComponent(logging.CompConfig)

const (
	// FileName is the config file inside Dir().
	FileName = "config.toml"

	// EnvDir overrides the config directory (used by tests and packaging).
	EnvDir = "AGENTSSH_CONFIG_DIR"

	DefaultRefreshInterval     = 3
	DefaultTitleInjectionDelay = 5
	DefaultSoundCommand        = "afplay /System/Library/Sounds/Glass.aiff"

	SoundBell    = "bell"
	SoundCommand = "command"
)

// Config mirrors config.toml. Pointer fields distinguish "unset" from an
// explicit false or zero; use the getters, which apply defaults.
type Config struct {
	RefreshInterval       *int   `toml:"refresh_interval,omitempty"`
	DefaultSpawnDir       string `toml:"default_spawn_dir,omitempty"`
	TitleInjectionEnabled *bool  `toml:"title_injection_enabled,omitempty"`
	TitleInjectionDelay   *int   `toml:"title_injection_delay,omitempty"`
	GitWorktrees          bool   `toml:"git_worktrees"`
	Theme                 string `toml:"theme,omitempty"`

	Notifications Notifications      `toml:"notifications"`
	Logs          LogSettings        `toml:"logs"`
	Agents        []agent.Definition `toml:"agents,omitempty"`
}

// Notifications configures what happens when an agent goes quiet.
type Notifications struct {
	SoundOnCompletion *bool  `toml:"sound_on_completion,omitempty"`
	SoundMethod       string `toml:"sound_method,omitempty"`
	SoundCommand      string `toml:"sound_command,omitempty"`
}

// LogSettings configures the debug log file.
type LogSettings struct {
	Enabled    bool   `toml:"enabled"`
	Level      string `toml:"level,omitempty"`
	Format     string `toml:"format,omitempty"`
	MaxSizeMB  int    `toml:"max_size_mb,omitempty"`
	MaxBackups int    `toml:"max_backups,omitempty"`
}

// Overrides are command-line values that win over the file.
type Overrides struct {
	RefreshSeconds int
}

var (
	cache     *Config
	overrides Overrides
	cacheMu   sync.RWMutex
)

// Dir returns the agentssh configuration and state directory.
func Dir() (string, error) {
	if d := os.Getenv(EnvDir); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "agentssh"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load returns the cached config, reading it on first use. A missing file
// yields defaults. A malformed file yields defaults plus the parse error so the
// caller can show it.
func Load() (*Config, error) {
	cacheMu.RLock()
	if cache != nil {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache != nil {
		return cache, nil
	}

	cfg, err := readFile()
	cache = cfg
	return cache, err
}

func readFile() (*Config, error) {
	path, err := Path()
	if err != nil {
		return &Config{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		configLog.Warn("config_parse_failed", slog.String("path", path), slog.String("error", err.Error()))
		return &Config{}, fmt.Errorf("config.toml parse error: %w", err)
	}
	return &cfg, nil
}

// Reload drops the cache and reads the file again.
func Reload() (*Config, error) {
	ClearCache()
	return Load()
}

// ClearCache forgets the cached config; the next Load reads from disk.
func ClearCache() {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
}

// SetOverrides installs command-line overrides.
func SetOverrides(o Overrides) {
	cacheMu.Lock()
	overrides = o
	cacheMu.Unlock()
}

// Save writes cfg atomically (temp file, fsync, rename) and clears the cache.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# agentssh configuration\n")
	buf.WriteString("# Edit this file or use Settings (press s) in the dashboard\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := writeSynced(tmp, buf.Bytes()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize config save: %w", err)
	}

	ClearCache()
	configLog.Info("config_saved", slog.String("path", path))
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Clone returns a deep copy suitable for editing before Save.
func (c *Config) Clone() *Config {
	out := *c
	if c.TitleInjectionEnabled != nil {
		v := *c.TitleInjectionEnabled
		out.TitleInjectionEnabled = &v
	}
	if c.RefreshInterval != nil {
		v := *c.RefreshInterval
		out.RefreshInterval = &v
	}
	if c.TitleInjectionDelay != nil {
		v := *c.TitleInjectionDelay
		out.TitleInjectionDelay = &v
	}
	if c.Notifications.SoundOnCompletion != nil {
		v := *c.Notifications.SoundOnCompletion
		out.Notifications.SoundOnCompletion = &v
	}
	out.Agents = append([]agent.Definition(nil), c.Agents...)
	return &out
}

// --- Getters (defaults applied) ---

// GetRefreshInterval returns the refresh interval in seconds, at least 1.
// An explicit 0 in the file means as fast as allowed, not the default.
func (c *Config) GetRefreshInterval() int {
	cacheMu.RLock()
	o := overrides.RefreshSeconds
	cacheMu.RUnlock()
	if o > 0 {
		return o
	}
	if c.RefreshInterval == nil {
		return DefaultRefreshInterval
	}
	return max(*c.RefreshInterval, 1)
}

// GetTitleInjectionEnabled defaults to true.
func (c *Config) GetTitleInjectionEnabled() bool {
	if c.TitleInjectionEnabled == nil {
		return true
	}
	return *c.TitleInjectionEnabled
}

// GetTitleInjectionDelay returns seconds to wait before typing the title
// instruction into a new session. An explicit 0 types it immediately.
func (c *Config) GetTitleInjectionDelay() int {
	if c.TitleInjectionDelay == nil {
		return DefaultTitleInjectionDelay
	}
	return max(*c.TitleInjectionDelay, 0)
}

// GetSpawnDir returns the wizard's starting directory: the configured
// default, else the current directory, else the home directory.
func (c *Config) GetSpawnDir() string {
	if c.DefaultSpawnDir != "" {
		if info, err := os.Stat(expandHome(c.DefaultSpawnDir)); err == nil && info.IsDir() {
			return expandHome(c.DefaultSpawnDir)
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	home, _ := os.UserHomeDir()
	return home
}

// GetSoundOnCompletion defaults to true.
func (n Notifications) GetSoundOnCompletion() bool {
	if n.SoundOnCompletion == nil {
		return true
	}
	return *n.SoundOnCompletion
}

// GetSoundMethod returns "bell" or "command".
func (n Notifications) GetSoundMethod() string {
	if n.SoundMethod == SoundCommand {
		return SoundCommand
	}
	return SoundBell
}

// GetSoundCommand returns the shell command for the "command" method.
func (n Notifications) GetSoundCommand() string {
	if n.SoundCommand == "" {
		return DefaultSoundCommand
	}
	return n.SoundCommand
}

// GetTheme returns "dark", "light" or "system".
func (c *Config) GetTheme() string {
	switch c.Theme {
	case "light", "system":
		return c.Theme
	}
	return "dark"
}

// ResolveTheme resolves "system" to the OS appearance, falling back to dark.
func (c *Config) ResolveTheme() string {
	theme := c.GetTheme()
	if theme != "system" {
		return theme
	}
	isDark, err := dark.IsDarkMode()
	if err != nil || isDark {
		return "dark"
	}
	return "light"
}

func expandHome(p string) string {
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}

// BoolPtr is a helper for building configs in code.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to n, for optional numeric settings.
func IntPtr(n int) *int { return &n }
