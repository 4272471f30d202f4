//go:build !windows

package tmux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// DetachKey is Ctrl+Q. Pressing it while attached returns to the dashboard
// without touching tmux's own prefix bindings.
const DetachKey = 0x11

// Terminals answer capability queries right after attach; those replies must
// not reach the agent.
const attachSettle = 50 * time.Millisecond

// HasSession reports whether a session with exactly this name exists.
func (c *Client) HasSession(ctx context.Context, name string) bool {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	_, err := c.run.Run(ctx, "has-session", "-t", sessionTarget(name))
	return err == nil
}

// Attach connects the current terminal to the session through a pty and
// blocks until the operator detaches (Ctrl+Q or the tmux detach binding) or
// the session ends.
func (c *Client) Attach(ctx context.Context, name string) error {
	if !c.HasSession(ctx, name) {
		return fmt.Errorf("session %s does not exist", name)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "tmux", "attach-session", "-t", sessionTarget(name))
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start pty: %w", err)
	}
	defer ptmx.Close()

	stdinFd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(stdinFd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer func() { _ = term.Restore(stdinFd, oldState) }()

	var wg sync.WaitGroup
	stopResize := forwardResize(ptmx, &wg)
	defer func() {
		stopResize()
		wg.Wait()
	}()

	detached := make(chan struct{})
	go func() {
		_, err := io.Copy(os.Stdout, ptmx)
		if err != nil && !errors.Is(err, io.EOF) {
			tmuxLog.Debug("attach_output_closed", slog.String("session", name), slog.String("error", err.Error()))
		}
	}()
	// The stdin reader blocks in Read and cannot be interrupted; it exits on
	// the first keystroke after detach when the pty write fails.
	go forwardInput(ptmx, detached, cancel)

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case <-detached:
		return nil
	case <-ctx.Done():
		return nil
	case err := <-waitErr:
		return normalizeAttachExit(ctx, err)
	}
}

func forwardResize(ptmx *os.File, wg *sync.WaitGroup) (stop func()) {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-winch:
				if ws, err := pty.GetsizeFull(os.Stdin); err == nil {
					_ = pty.Setsize(ptmx, ws)
				}
			}
		}
	}()
	winch <- syscall.SIGWINCH

	return func() {
		signal.Stop(winch)
		close(done)
	}
}

func forwardInput(ptmx *os.File, detached chan<- struct{}, cancel context.CancelFunc) {
	started := time.Now()
	buf := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if time.Since(started) < attachSettle {
			continue
		}
		if n == 1 && buf[0] == DetachKey {
			close(detached)
			cancel()
			return
		}
		if _, err := ptmx.Write(buf[:n]); err != nil {
			return
		}
	}
}

// normalizeAttachExit treats tmux's own detach (exit 0 or 1) and our
// cancellation as a clean return.
func normalizeAttachExit(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && (exitErr.ExitCode() == 0 || exitErr.ExitCode() == 1) {
		return nil
	}
	return fmt.Errorf("attach failed: %w", err)
}
