// Package clipboard copies short strings (attach commands, paths) to the
// system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/agentssh/agentssh/internal/platform"
)

// ErrEmpty is returned for an empty copy.
var ErrEmpty = errors.New("no content to copy")

// MethodOSC52 names the terminal escape fallback.
const MethodOSC52 = "osc52"

type tool struct {
	name string
	args []string
}

// Copier tries native clipboard tools in order, then OSC 52.
type Copier struct {
	platform platform.Platform
	lookPath func(string) (string, error)
	getenv   func(string) string
	run      func(name string, args []string, text string) error
	tty      func() (io.WriteCloser, error)
}

// New returns a Copier for the running host.
func New() *Copier {
	return &Copier{
		platform: platform.Detect(),
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
		run:      runTool,
		tty:      openTTY,
	}
}

// Copy puts text on the clipboard and returns the method used.
func (c *Copier) Copy(text string) (string, error) {
	if text == "" {
		return "", ErrEmpty
	}

	var errs []error
	for _, t := range c.tools() {
		path, err := c.lookPath(t.name)
		if err != nil {
			continue
		}
		if err := c.run(path, t.args, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
			continue
		}
		return t.name, nil
	}

	if err := c.copyOSC52(text); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", MethodOSC52, err))
		return "", errors.Join(errs...)
	}
	return MethodOSC52, nil
}

// tools lists candidate commands for the platform, preferred first.
func (c *Copier) tools() []tool {
	switch c.platform {
	case platform.MacOS:
		return []tool{{name: "pbcopy"}}
	case platform.WSL1, platform.WSL2:
		return []tool{{name: "clip.exe"}}
	case platform.Linux:
		var out []tool
		if c.getenv("WAYLAND_DISPLAY") != "" {
			out = append(out, tool{name: "wl-copy"})
		}
		return append(out,
			tool{name: "xclip", args: []string{"-selection", "clipboard"}},
			tool{name: "xsel", args: []string{"--clipboard", "--input"}},
		)
	}
	return nil
}

// copyOSC52 writes the escape to the controlling terminal, wrapped for tmux
// passthrough when running inside tmux.
func (c *Copier) copyOSC52(text string) error {
	seq := osc52.New(text)
	if c.getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	w, err := c.tty()
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = seq.WriteTo(w)
	return err
}

func runTool(name string, args []string, text string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w (output: %s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// openTTY bypasses stdout, which the dashboard owns.
func openTTY() (io.WriteCloser, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open /dev/tty: %w", err)
	}
	return tty, nil
}
