package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names attached to every record as the "component" attribute.
const (
	CompTmux     = "tmux"
	CompAgent    = "agent"
	CompSpawn    = "spawn"
	CompActivity = "activity"
	CompNotify   = "notify"
	CompGit      = "git"
	CompConfig   = "config"
	CompHistory  = "history"
	CompUI       = "ui"
)

// LogFileName is the active log file inside Config.Dir.
const LogFileName = "agentssh.log"

// Config holds logging configuration.
type Config struct {
	// Dir is where the rotated log file lives (e.g. ~/.config/agentssh)
	Dir string

	// Level is the minimum level: "debug", "info", "warn", "error"
	Level string

	// Format is "json" (default) or "text"
	Format string

	// MaxSizeMB before rotation (default: 10)
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept (default: 3)
	MaxBackups int

	// MaxAgeDays is how long rotated files are kept (default: 7)
	MaxAgeDays int

	Compress bool

	// RingBufferSize is the in-memory crash buffer in bytes (default: 1MB)
	RingBufferSize int

	// SummaryInterval is how often aggregated events are flushed (default: 60s)
	SummaryInterval time.Duration

	// Debug enables file logging (AGENTSSH_DEBUG)
	Debug bool
}

var (
	mu      sync.RWMutex
	root    *slog.Logger
	ring    *RingBuffer
	summary *Aggregator
	rotator *lumberjack.Logger
)

func (c *Config) applyDefaults() {
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 7
	}
	if c.RingBufferSize <= 0 {
		c.RingBufferSize = 1 << 20
	}
	if c.SummaryInterval <= 0 {
		c.SummaryInterval = time.Minute
	}
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Init installs the process-wide logger. Without Debug or a Dir every record
// is discarded, so the dashboard never writes into the terminal it draws on.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	cfg.applyDefaults()

	if !cfg.Debug && cfg.Dir == "" {
		root = slog.New(slog.NewJSONHandler(io.Discard, nil))
		ring = NewRingBuffer(4096)
		summary = NewAggregator(nil, cfg.SummaryInterval)
		return
	}

	rotator = &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, LogFileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	ring = NewRingBuffer(cfg.RingBufferSize)
	out := io.MultiWriter(rotator, ring)

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	}
	root = slog.New(h)

	summary = NewAggregator(root, cfg.SummaryInterval)
	summary.Start()
}

// Logger returns the process-wide logger. Safe to call before Init.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return root
}

// ForComponent returns a logger tagged with the component name. Package-level
// loggers are created before Init runs, so the handler is resolved per record.
func ForComponent(name string) *slog.Logger {
	return slog.New(&lateHandler{component: name})
}

type lateHandler struct {
	component string
	attrs     []slog.Attr
	groups    []string
}

func (h *lateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return Logger().Handler().Enabled(ctx, level)
}

func (h *lateHandler) Handle(ctx context.Context, r slog.Record) error {
	target := Logger().Handler().WithAttrs([]slog.Attr{slog.String("component", h.component)})
	if len(h.attrs) > 0 {
		target = target.WithAttrs(h.attrs)
	}
	for _, g := range h.groups {
		target = target.WithGroup(g)
	}
	return target.Handle(ctx, r)
}

func (h *lateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &lateHandler{component: h.component, attrs: merged, groups: h.groups}
}

func (h *lateHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string{}, h.groups...), name)
	return &lateHandler{component: h.component, attrs: h.attrs, groups: groups}
}

// Aggregate counts a high-frequency event; one summary line per event is
// written every SummaryInterval.
func Aggregate(component, event string, fields ...slog.Attr) {
	mu.RLock()
	agg := summary
	mu.RUnlock()
	if agg != nil {
		agg.Record(component, event, fields...)
	}
}

// DumpRingBuffer writes the most recent log bytes to path.
func DumpRingBuffer(path string) error {
	mu.RLock()
	rb := ring
	mu.RUnlock()
	if rb == nil {
		return nil
	}
	return rb.DumpToFile(path)
}

// Shutdown flushes pending summaries and closes the log file.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()

	if summary != nil {
		summary.Stop()
		summary = nil
	}
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	root = nil
	ring = nil
}
