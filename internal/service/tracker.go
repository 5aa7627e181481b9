package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CycleStats summarizes the cycles a CycleTracker has seen
type CycleStats struct {
	Completed         int
	Aborted           int
	ConsecutiveAborts int
	LastCycleID       string
	LastPublished     time.Time
}

// CycleTracker subscribes to cycle events and reports how long the
// published snapshot has gone without a refresh.
type CycleTracker struct {
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	stats CycleStats
}

// NewCycleTracker creates a tracker
func NewCycleTracker(logger *slog.Logger) *CycleTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CycleTracker{logger: logger, now: time.Now}
}

// Run consumes events until ctx is done or events is closed
func (t *CycleTracker) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			t.Observe(e)
		}
	}
}

// Observe applies one event
func (t *CycleTracker) Observe(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case EventCycleCompleted:
		if t.stats.ConsecutiveAborts > 0 {
			t.logger.Info("collection recovered",
				"cycle", e.CycleID,
				"aborted_cycles", t.stats.ConsecutiveAborts,
			)
		}
		t.stats.Completed++
		t.stats.ConsecutiveAborts = 0
		t.stats.LastCycleID = e.CycleID
		t.stats.LastPublished = t.now()
	case EventCycleAborted:
		t.stats.Aborted++
		t.stats.ConsecutiveAborts++
		t.stats.LastCycleID = e.CycleID

		args := []any{
			"cycle", e.CycleID,
			"consecutive_aborts", t.stats.ConsecutiveAborts,
			"reason", e.Payload,
		}
		if t.stats.LastPublished.IsZero() {
			args = append(args, "last_published", "never")
		} else {
			args = append(args, "stale_for", t.now().Sub(t.stats.LastPublished).Round(time.Second))
		}
		t.logger.Warn("previous snapshot kept", args...)
	}
}

// Stats returns a copy of the current counters
func (t *CycleTracker) Stats() CycleStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
