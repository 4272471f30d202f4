package clipboard

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentssh/agentssh/internal/platform"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

type fakeHost struct {
	installed map[string]bool
	env       map[string]string
	runErr    error
	ran       []string
	stdin     string
	tty       bytes.Buffer
	ttyErr    error
}

func (h *fakeHost) copier(p platform.Platform) *Copier {
	return &Copier{
		platform: p,
		lookPath: func(name string) (string, error) {
			if h.installed[name] {
				return "/usr/bin/" + name, nil
			}
			return "", exec.ErrNotFound
		},
		getenv: func(k string) string { return h.env[k] },
		run: func(name string, args []string, text string) error {
			h.ran = append(h.ran, name)
			h.stdin = text
			return h.runErr
		},
		tty: func() (io.WriteCloser, error) {
			if h.ttyErr != nil {
				return nil, h.ttyErr
			}
			return nopCloser{&h.tty}, nil
		},
	}
}

func TestCopy_Empty(t *testing.T) {
	h := &fakeHost{}
	_, err := h.copier(platform.Linux).Copy("")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCopy_NativeTool(t *testing.T) {
	tests := []struct {
		name      string
		platform  platform.Platform
		installed []string
		env       map[string]string
		want      string
	}{
		{"macos", platform.MacOS, []string{"pbcopy"}, nil, "pbcopy"},
		{"wsl", platform.WSL2, []string{"clip.exe"}, nil, "clip.exe"},
		{"x11 prefers xclip", platform.Linux, []string{"xclip", "xsel"}, nil, "xclip"},
		{"x11 xsel", platform.Linux, []string{"xsel"}, nil, "xsel"},
		{"wayland", platform.Linux, []string{"wl-copy", "xclip"}, map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, "wl-copy"},
		{"wayland without wl-copy", platform.Linux, []string{"xclip"}, map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, "xclip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHost{installed: map[string]bool{}, env: tt.env}
			for _, n := range tt.installed {
				h.installed[n] = true
			}
			method, err := h.copier(tt.platform).Copy("tmux attach -t =s1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, method)
			assert.Equal(t, "tmux attach -t =s1", h.stdin)
			assert.Zero(t, h.tty.Len())
		})
	}
}

func TestCopy_FallsBackToOSC52(t *testing.T) {
	h := &fakeHost{installed: map[string]bool{"xclip": true}, runErr: errors.New("no display")}

	method, err := h.copier(platform.Linux).Copy("hello")
	require.NoError(t, err)
	assert.Equal(t, MethodOSC52, method)
	assert.Equal(t, "\x1b]52;c;aGVsbG8=\x07", h.tty.String())
}

func TestCopy_OSC52InsideTmux(t *testing.T) {
	h := &fakeHost{env: map[string]string{"TMUX": "/tmp/tmux-1000/default,1,0"}}

	_, err := h.copier(platform.Unknown).Copy("hello")
	require.NoError(t, err)
	assert.Contains(t, h.tty.String(), "\x1bPtmux;")
	assert.Contains(t, h.tty.String(), "aGVsbG8=")
}

func TestCopy_AllMethodsFail(t *testing.T) {
	h := &fakeHost{
		installed: map[string]bool{"pbcopy": true},
		runErr:    errors.New("exit status 1"),
		ttyErr:    errors.New("no tty"),
	}

	_, err := h.copier(platform.MacOS).Copy("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pbcopy")
	assert.Contains(t, err.Error(), "no tty")
}
