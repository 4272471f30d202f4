package logging

import (
	"log/slog"
	"sync"
	"time"
)

type eventKey struct {
	component string
	event     string
}

type eventCount struct {
	n      int64
	fields []slog.Attr
}

// Aggregator counts repetitive events (one per poll tick, for example) and
// writes a single "event_summary" line per event each interval.
type Aggregator struct {
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	counts map[eventKey]*eventCount

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewAggregator returns an aggregator. A nil logger drops every event.
func NewAggregator(logger *slog.Logger, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Aggregator{
		logger:   logger,
		interval: interval,
		counts:   make(map[eventKey]*eventCount),
		stop:     make(chan struct{}),
	}
}

// Start launches the flush loop.
func (a *Aggregator) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		t := time.NewTicker(a.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				a.Flush()
			case <-a.stop:
				return
			}
		}
	}()
}

// Stop ends the flush loop and writes whatever is pending.
func (a *Aggregator) Stop() {
	close(a.stop)
	a.wg.Wait()
	a.Flush()
}

// Record bumps the counter for (component, event). The latest fields win.
func (a *Aggregator) Record(component, event string, fields ...slog.Attr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := eventKey{component, event}
	c := a.counts[k]
	if c == nil {
		c = &eventCount{}
		a.counts[k] = c
	}
	c.n++
	if len(fields) > 0 {
		c.fields = fields
	}
}

// Flush writes one summary line per recorded event and resets the counters.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	pending := a.counts
	a.counts = make(map[eventKey]*eventCount)
	a.mu.Unlock()

	if a.logger == nil {
		return
	}
	for k, c := range pending {
		args := []any{
			slog.String("component", k.component),
			slog.String("event", k.event),
			slog.Int64("count", c.n),
			slog.Duration("window", a.interval),
		}
		for _, f := range c.fields {
			args = append(args, f)
		}
		a.logger.Info("event_summary", args...)
	}
}
