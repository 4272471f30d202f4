package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/agentssh/agentssh/internal/activity"
	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/clipboard"
	"github.com/agentssh/agentssh/internal/config"
	"github.com/agentssh/agentssh/internal/git"
	"github.com/agentssh/agentssh/internal/logging"
	"github.com/agentssh/agentssh/internal/notify"
	"github.com/agentssh/agentssh/internal/platform"
	"github.com/agentssh/agentssh/internal/session"
	"github.com/agentssh/agentssh/internal/spawn"
	"github.com/agentssh/agentssh/internal/statedb"
	"github.com/agentssh/agentssh/internal/tmux"
	"github.com/agentssh/agentssh/internal/ui"
)

const Version = "0.4.0"

// HistoryFileName is the SQLite database inside config.Dir().
const HistoryFileName = "history.db"

func init() {
	initColorProfile()
}

// initColorProfile picks the lipgloss color profile. AGENTSSH_COLOR
// (truecolor, 256, 16, none) overrides detection.
func initColorProfile() {
	if colorEnv := os.Getenv("AGENTSSH_COLOR"); colorEnv != "" {
		switch strings.ToLower(colorEnv) {
		case "truecolor", "true", "24bit":
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		case "256", "ansi256":
			lipgloss.SetColorProfile(termenv.ANSI256)
			return
		case "16", "ansi", "basic":
			lipgloss.SetColorProfile(termenv.ANSI)
			return
		case "none", "off", "ascii":
			lipgloss.SetColorProfile(termenv.Ascii)
			return
		}
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	term := os.Getenv("TERM")
	for _, t := range []string{"xterm-256color", "screen-256color", "tmux-256color", "xterm-direct", "alacritty", "kitty", "wezterm"} {
		if strings.Contains(term, t) {
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		}
	}

	if os.Getenv("ITERM_SESSION_ID") != "" ||
		os.Getenv("TERMINAL_EMULATOR") != "" ||
		os.Getenv("KONSOLE_VERSION") != "" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	// SSH and older emulators.
	lipgloss.SetColorProfile(termenv.ANSI256)
}

type options struct {
	refreshSeconds int
	version        bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("agentssh", flag.ContinueOnError)
	fs.IntVar(&o.refreshSeconds, "refresh-seconds", 0, "dashboard and activity poll interval in seconds (overrides config)")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	fs.BoolVar(&o.version, "v", false, "print version and exit (shorthand)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: agentssh [flags]")
		fmt.Fprintln(fs.Output())
		fmt.Fprintln(fs.Output(), "Dashboard for AI coding agents running in tmux.")
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if o.refreshSeconds < 0 {
		return o, fmt.Errorf("--refresh-seconds must be positive, got %d", o.refreshSeconds)
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Printf("agentssh v%s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	config.SetOverrides(config.Overrides{RefreshSeconds: opts.refreshSeconds})
	cfg, cfgErr := config.Load()
	if cfg == nil {
		return cfgErr
	}

	baseDir, err := config.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", baseDir, err)
	}

	initLogging(cfg, baseDir)
	defer logging.Shutdown()
	log := logging.ForComponent(logging.CompUI)
	if cfgErr != nil {
		log.Warn("config_load_failed", slog.String("error", cfgErr.Error()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGUSR1 dumps the ring buffer for post-mortem debugging.
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-usr1:
				dumpPath := filepath.Join(baseDir, fmt.Sprintf("crash-dump-%d.jsonl", time.Now().Unix()))
				if err := logging.DumpRingBuffer(dumpPath); err != nil {
					log.Error("crash_dump_failed", slog.String("error", err.Error()))
				} else {
					log.Info("crash_dump_written", slog.String("path", dumpPath))
				}
			}
		}
	}()

	client := tmux.NewClient()
	directory := session.NewDirectory(client, func() []agent.Definition {
		c, _ := config.Load()
		if c == nil {
			return nil
		}
		return c.Agents
	})

	deps := ui.Deps{
		Mux:            client,
		Directory:      directory,
		Cloner:         spawn.GitCloner,
		RemoveWorktree: git.RemoveWorktree,
		IsWorktreePath: git.IsWorktreePath,
		Copy:           clipboard.New().Copy,
	}

	// History is optional: without it the dashboard works but forgets
	// completions and worktree ownership across restarts.
	db, err := statedb.Open(filepath.Join(baseDir, HistoryFileName))
	if err == nil {
		err = db.Migrate()
	}
	if err != nil {
		log.Warn("history_unavailable", slog.String("error", err.Error()))
		if db != nil {
			db.Close()
		}
		deps.Launcher = spawn.NewLauncher(client, nil)
	} else {
		defer db.Close()
		deps.History = db
		deps.Launcher = spawn.NewLauncher(client, db)
	}

	if w, err := config.NewWatcher(); err != nil {
		log.Warn("config_watch_failed", slog.String("error", err.Error()))
	} else {
		deps.ConfigChanges = w.Changes()
		go w.Run(ctx)
	}
	if warn := platform.FsnotifyWarning(baseDir); warn != "" {
		log.Warn("config_watch_unreliable", slog.String("platform", platform.Detect().String()), slog.String("detail", warn))
		deps.Notice = warn
	}

	done := ui.NewDoneFeed()
	deps.Done = done.Messages()

	home := ui.NewHome(ctx, cfg, deps)
	p := tea.NewProgram(home, tea.WithAltScreen())

	notifiers := activity.Multi{notify.NewSound()}
	if deps.History != nil {
		notifiers = append(notifiers, activity.NotifierFunc(func(name string) {
			if err := db.RecordCompletion(name, time.Now()); err != nil {
				log.Debug("record_completion_failed", slog.String("session", name), slog.String("error", err.Error()))
			}
		}))
	}
	notifiers = append(notifiers, done)

	interval := time.Duration(cfg.GetRefreshInterval()) * time.Second
	go activity.New(client, notifiers, interval).Run(ctx)

	log.Info("started", slog.String("version", Version), slog.Int("pid", os.Getpid()))
	_, err = p.Run()
	return err
}

func initLogging(cfg *config.Config, baseDir string) {
	debug := os.Getenv("AGENTSSH_DEBUG") != ""
	if !debug && !cfg.Logs.Enabled {
		logging.Init(logging.Config{})
		return
	}
	level := cfg.Logs.Level
	if debug {
		level = "debug"
	}
	logging.Init(logging.Config{
		Dir:        baseDir,
		Level:      level,
		Format:     cfg.Logs.Format,
		MaxSizeMB:  cfg.Logs.MaxSizeMB,
		MaxBackups: cfg.Logs.MaxBackups,
		Debug:      debug,
	})
}
