// Package activity decides from pane output alone when an agent has gone
// quiet after working, and fires a one-shot notification for it.
package activity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/logging"
	"github.com/agentssh/agentssh/internal/tmux"
)

var activityLog = logging.ForComponent(logging.CompActivity)

// SettleTime is how long output must stay unchanged after activity before
// the agent counts as finished.
const SettleTime = 8 * time.Second

// Record is the detector's view of one managed session.
type Record struct {
	Hash       string
	LastChange time.Time
	WasActive  bool // output has changed at least once since first sighting
	Notified   bool // a notification already fired for the current quiet period
}

// Sample is one session's output at poll time.
type Sample struct {
	Name    string
	Preview []string
	Stale   bool // output could not be read this poll; the record is left as is
}

// HashPreview hashes the preview with trailing blank lines removed, so a
// resize that only adds or removes empty rows is not a change.
func HashPreview(lines []string) string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	sum := sha256.Sum256([]byte(strings.Join(lines[:end], "\n")))
	return hex.EncodeToString(sum[:])
}

// Detect advances records by one poll and returns the sessions that just
// became quiet. Records for sessions absent from samples are dropped.
func Detect(records map[string]*Record, samples []Sample, now time.Time, settle time.Duration) []string {
	var done []string
	seen := make(map[string]struct{}, len(samples))

	for _, s := range samples {
		seen[s.Name] = struct{}{}
		if s.Stale {
			continue
		}
		hash := HashPreview(s.Preview)

		rec, ok := records[s.Name]
		switch {
		case !ok:
			// Existing output is not activity; the session must change first.
			records[s.Name] = &Record{Hash: hash, LastChange: now, Notified: true}
		case rec.Hash != hash:
			rec.Hash = hash
			rec.LastChange = now
			rec.WasActive = true
			rec.Notified = false
		case rec.WasActive && !rec.Notified && now.Sub(rec.LastChange) >= settle:
			rec.Notified = true
			done = append(done, s.Name)
		}
	}

	for name := range records {
		if _, ok := seen[name]; !ok {
			delete(records, name)
		}
	}
	return done
}

// Lister is the part of the tmux client the detector polls.
type Lister interface {
	ListSessions(ctx context.Context) ([]tmux.Session, error)
}

// Notifier receives one call per finished agent. Implementations must not
// block for long; errors are theirs to swallow.
type Notifier interface {
	Notify(sessionName string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(sessionName string)

func (f NotifierFunc) Notify(sessionName string) { f(sessionName) }

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(sessionName string) {
	for _, n := range m {
		n.Notify(sessionName)
	}
}

// Detector polls tmux on its own ticker. Its record map is owned by the Run
// goroutine and never shared, so it keeps working while the dashboard is
// suspended during attach.
type Detector struct {
	lister   Lister
	notifier Notifier
	interval time.Duration
	settle   time.Duration
	now      func() time.Time
	records  map[string]*Record
}

// New returns a detector polling every interval.
func New(lister Lister, notifier Notifier, interval time.Duration) *Detector {
	if interval <= 0 {
		interval = time.Second
	}
	return &Detector{
		lister:   lister,
		notifier: notifier,
		interval: interval,
		settle:   SettleTime,
		now:      time.Now,
		records:  make(map[string]*Record),
	}
}

// Run polls until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	activityLog.Info("detector_started", slog.Duration("interval", d.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.safeTick(ctx)
		}
	}
}

func (d *Detector) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			activityLog.Error("detector_panic",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	d.tick(ctx)
}

func (d *Detector) tick(ctx context.Context) {
	sessions, err := d.lister.ListSessions(ctx)
	if err != nil {
		// Keep records; a transient tmux error must not reset quiet timers.
		activityLog.Debug("list_sessions_failed", slog.String("error", err.Error()))
		return
	}

	samples := make([]Sample, 0, len(sessions))
	for _, s := range sessions {
		if agent.IsManaged(s.Name) {
			samples = append(samples, Sample{Name: s.Name, Preview: s.Preview, Stale: s.CaptureFailed})
		}
	}

	done := Detect(d.records, samples, d.now(), d.settle)
	logging.Aggregate(logging.CompActivity, "tick", slog.Int("tracked", len(d.records)))

	for _, name := range done {
		activityLog.Info("agent_quiet", slog.String("session", name))
		if d.notifier != nil {
			d.notifier.Notify(name)
		}
	}
}
