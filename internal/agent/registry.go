// Package agent knows which AI coding agents exist, how to recognise them in
// a tmux session, and how to launch them.
package agent

import (
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agentssh/agentssh/internal/logging"
)

var agentLog = logging.ForComponent(logging.CompAgent)

// Definition describes one launchable agent CLI.
type Definition struct {
	ID         string `toml:"id"`
	Label      string `toml:"label"`
	Binary     string `toml:"binary"`
	Launch     string `toml:"launch"`
	PromptFlag string `toml:"prompt_flag"`
}

var builtins = []Definition{
	{ID: "codex", Label: "Codex", Binary: "codex", Launch: "codex"},
	{ID: "claude", Label: "Claude Code", Binary: "claude", Launch: "claude", PromptFlag: "--append-system-prompt"},
	{ID: "aider", Label: "Aider", Binary: "aider", Launch: "aider"},
	{ID: "gemini", Label: "Gemini CLI", Binary: "gemini", Launch: "gemini"},
	{ID: "opencode", Label: "OpenCode", Binary: "opencode", Launch: "opencode"},
}

// Builtins returns a copy of the built-in agent table.
func Builtins() []Definition {
	return append([]Definition(nil), builtins...)
}

// LookPathFunc resolves a binary name to an absolute path.
type LookPathFunc func(file string) (string, error)

// DetectAvailable returns the built-in agents whose binary is on PATH, with
// Launch set to the resolved path, overlaid by custom definitions. A custom
// definition replaces a built-in with the same ID; otherwise it is appended.
func DetectAvailable(custom []Definition, lookPath LookPathFunc) []Definition {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var out []Definition
	for _, def := range builtins {
		path, err := lookPath(def.Binary)
		if err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		def.Launch = shellQuote(path)
		out = append(out, def)
	}

	for _, c := range custom {
		if c.ID == "" {
			agentLog.Warn("custom_agent_without_id", slog.String("label", c.Label))
			continue
		}
		replaced := false
		for i := range out {
			if out[i].ID == c.ID {
				out[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	return out
}

// matcher tries to map a session to an agent. Matchers are tried in order.
type matcher func(sessionName, currentCommand string, available []Definition) (Definition, bool)

var classifiers = []matcher{
	matchManagedName,
	matchRunningBinary,
}

// Classify maps a tmux session to an agent definition, or reports false when
// the session does not look like an agent.
func Classify(sessionName, currentCommand string, available []Definition) (Definition, bool) {
	for _, m := range classifiers {
		if def, ok := m(sessionName, currentCommand, available); ok {
			return def, true
		}
	}
	return Definition{}, false
}

func matchManagedName(sessionName, _ string, available []Definition) (Definition, bool) {
	id, _, ok := ParseManagedName(sessionName)
	if !ok {
		return Definition{}, false
	}
	if def, ok := findByID(available, id); ok {
		return def, true
	}
	// The agent may have been uninstalled since the session was started.
	return findByID(builtins, id)
}

func matchRunningBinary(_, currentCommand string, available []Definition) (Definition, bool) {
	leaf := leafBinary(currentCommand)
	if leaf == "" {
		return Definition{}, false
	}
	if def, ok := findByBinary(available, leaf); ok {
		return def, true
	}
	return findByBinary(builtins, leaf)
}

func findByID(defs []Definition, id string) (Definition, bool) {
	for _, d := range defs {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

func findByBinary(defs []Definition, actual string) (Definition, bool) {
	for _, d := range defs {
		if binaryMatches(actual, filepath.Base(d.Binary)) {
			return d, true
		}
	}
	return Definition{}, false
}

// binaryMatches accepts platform suffixes such as "codex.exe" or "aider.py".
func binaryMatches(actual, expected string) bool {
	if expected == "" || expected == "." {
		return false
	}
	return actual == expected || strings.HasPrefix(actual, expected+".")
}

func leafBinary(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return filepath.Base(fields[0])
}

// shellQuote single-quotes s when it contains characters the shell would
// interpret.
func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()*?[]#~!{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
