package agent

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	testHome = "/home/u"
	testHost = "devbox.local"
)

func TestDeriveTitle_Priority(t *testing.T) {
	const session = "agentssh_codex_1000"

	tests := []struct {
		name     string
		pane     string
		path     string
		override string
		want     string
	}{
		{"override wins", "Refactor parser", "/home/u/repo", "  Fix login  ", "Fix login"},
		{"pane title beats path", "Refactor parser", "/home/u/repo", "", "Refactor parser"},
		{"path beats fallback", "", "/home/u/repo", "", "repo"},
		{"fallback", "", "", "", "codex_1000"},
		{"home becomes tilde", "", "/home/u", "", "~"},
		{"root skipped", "", "/", "", "codex_1000"},
		{"blank override ignored", "", "/srv/app", "   ", "app"},
		{"default pane title rejected", "myrepo: /usr/bin/codex", "/home/u/myrepo", "", "myrepo"},
		{"shell pane title rejected", "zsh", "/home/u/api", "", "api"},
		{"hostname pane title rejected", "devbox", "/home/u/api", "", "api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveTitle(session, tt.pane, tt.path, tt.override, testHome, testHost)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveTitle_UnmanagedFallback(t *testing.T) {
	assert.Equal(t, "scratch", deriveTitle("scratch", "", "", "", testHome, testHost))
}

func TestIsDefaultPaneTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"zsh", true},
		{"bash", true},
		{"-fish", true},
		{"nushell", true},
		{"dir: /abs/path", true},
		{"dir: ~/src", true},
		{"dir: bareword", true},
		{"dir: word with spaces", false},
		{"Fixing the auth flow", false},
		{"two words: codex", false},
		{"devbox.local", true},
		{"devbox", true},
	}
	for _, tt := range tests {
		if got := isDefaultPaneTitle(tt.title, testHost); got != tt.want {
			t.Errorf("isDefaultPaneTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestReadTitleOverride(t *testing.T) {
	session := "agentssh_test_" + t.Name()
	path := TitleFilePath(session)
	assert.Equal(t, "/tmp/agentssh_"+session+".title", path)

	assert.Equal(t, "", ReadTitleOverride(session))

	if err := os.WriteFile(path, []byte("  Writing docs\n"), 0o644); err != nil {
		t.Skipf("cannot write to %s: %v", TitleDir, err)
	}
	t.Cleanup(func() { os.Remove(path) })

	assert.Equal(t, "Writing docs", ReadTitleOverride(session))
}
