package agent

import (
	"os"
	"path/filepath"
	"strings"
)

// TitleDir is where agents write their side-channel title files. It is fixed
// rather than os.TempDir() because the path is part of the instruction text
// sent to the agent, which may run with a different TMPDIR.
const TitleDir = "/tmp"

var shellNames = map[string]bool{
	"zsh": true, "bash": true, "fish": true, "sh": true, "dash": true,
	"ksh": true, "tcsh": true, "csh": true, "nu": true, "nushell": true,
}

// IsShell reports whether command is a bare interactive shell name. Login
// shells ("-zsh") and absolute paths are accepted.
func IsShell(command string) bool {
	name := filepath.Base(strings.TrimPrefix(strings.TrimSpace(command), "-"))
	return shellNames[name]
}

// TitleFilePath returns the side-channel file a session's agent writes its
// current task summary to.
func TitleFilePath(sessionName string) string {
	return filepath.Join(TitleDir, "agentssh_"+sessionName+".title")
}

// ReadTitleOverride returns the trimmed side-channel title, or "" when the
// file is missing or unreadable.
func ReadTitleOverride(sessionName string) string {
	data, err := os.ReadFile(TitleFilePath(sessionName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// DeriveTitle picks the display title for a session: the agent-written
// override, then a non-default pane title, then the basename of the pane's
// working directory, then the short session name.
func DeriveTitle(sessionName, paneTitle, panePath, override string) string {
	home, _ := os.UserHomeDir()
	host, _ := os.Hostname()
	return deriveTitle(sessionName, paneTitle, panePath, override, home, host)
}

func deriveTitle(sessionName, paneTitle, panePath, override, home, host string) string {
	if t := strings.TrimSpace(override); t != "" {
		return t
	}
	if t := strings.TrimSpace(paneTitle); t != "" && !isDefaultPaneTitle(t, host) {
		return t
	}
	if t := pathTitle(panePath, home); t != "" {
		return t
	}
	return ShortName(sessionName)
}

func pathTitle(path, home string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == "/" {
		return ""
	}
	clean := filepath.Clean(path)
	if home != "" && clean == filepath.Clean(home) {
		return "~"
	}
	base := filepath.Base(clean)
	if base == "/" || base == "." {
		return ""
	}
	return base
}

// isDefaultPaneTitle recognises titles that tmux or the shell set on their
// own: bare shell names, "<word>: <path or single token>", and the hostname.
func isDefaultPaneTitle(title, host string) bool {
	if IsShell(title) {
		return true
	}
	if host != "" && (title == host || title == shortHost(host)) {
		return true
	}

	word, cmd, found := strings.Cut(title, ": ")
	if !found || word == "" || strings.ContainsAny(word, " \t") {
		return false
	}
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return true
	}
	if strings.HasPrefix(cmd, "/") || strings.HasPrefix(cmd, "~") {
		return true
	}
	return !strings.ContainsAny(cmd, " \t")
}

func shortHost(host string) string {
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}
