package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"clientparser/internal/domain"
)

// DefaultPollInterval is how often a sleeping scheduler re-checks the clock
const DefaultPollInterval = time.Second

// State is the scheduler's position in the cycle
type State int32

const (
	StateIdle State = iota
	StateCollecting
	StatePublishing
	StateSleeping
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StatePublishing:
		return "publishing"
	case StateSleeping:
		return "sleeping"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Collector gathers one cycle's records from every source
type Collector interface {
	Collect(ctx context.Context, at time.Time) (*domain.Batch, error)
}

// SnapshotPublisher routes and persists a cycle's records
type SnapshotPublisher interface {
	Snapshot(cycleID string, at time.Time, batch *domain.Batch) (*domain.Snapshot, error)
	Publish(ctx context.Context, snap *domain.Snapshot) error
}

// Scheduler runs collection cycles
type Scheduler struct {
	collector    Collector
	publisher    SnapshotPublisher
	events       *EventBus
	logger       *slog.Logger
	interval     time.Duration
	pollInterval time.Duration

	state atomic.Int32
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithInterval sets the time between cycle starts. Zero means single-shot.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithPollInterval sets how often a sleeping scheduler checks the clock
func WithPollInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithEventBus publishes cycle events on bus
func WithEventBus(bus *EventBus) SchedulerOption {
	return func(s *Scheduler) {
		s.events = bus
	}
}

// WithSchedulerLogger sets the logger
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a scheduler in the Idle state
func NewScheduler(collector Collector, publisher SnapshotPublisher, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		collector:    collector,
		publisher:    publisher,
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev == next {
		return
	}
	s.logger.Debug("scheduler state", "from", prev.String(), "to", next.String())
	s.events.Publish(Event{Type: EventStateChanged, Payload: next})
}

// Run executes cycles until ctx is cancelled. With a zero interval it runs
// one cycle and returns that cycle's error. In repeating mode a failed
// cycle is logged and the next one still runs; Run then returns nil once
// ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.setState(StateDone)

	// cycles in flight are not cancelled
	cycleCtx := context.WithoutCancel(ctx)

	if s.interval == 0 {
		return s.RunCycle(cycleCtx)
	}

	s.logger.Info("scheduler started", "interval", s.interval)
	for {
		start := time.Now()
		if err := s.runCycle(cycleCtx, start); err != nil {
			s.logger.Error("cycle failed", "error", err)
		}

		s.setState(StateSleeping)
		if !s.sleepUntil(ctx, start.Add(s.interval)) {
			s.logger.Info("scheduler stopped")
			return nil
		}
	}
}

// sleepUntil polls until deadline, reporting false if ctx ends first
func (s *Scheduler) sleepUntil(ctx context.Context, deadline time.Time) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		s.logger.Debug("waiting for next cycle", "remaining", remaining.Round(time.Second))

		timer := time.NewTimer(min(s.pollInterval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

// RunCycle collects from every source and publishes the result. Any
// failure is wrapped in a *domain.CycleAbortError; nothing is published
// when collection fails.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	return s.runCycle(ctx, time.Now())
}

func (s *Scheduler) runCycle(ctx context.Context, start time.Time) error {
	id := uuid.NewString()
	logger := s.logger.With("cycle", id)

	s.setState(StateCollecting)
	s.events.Publish(Event{Type: EventCycleStarted, CycleID: id})
	logger.Info("cycle started")

	batch, err := s.collector.Collect(ctx, start)
	if err != nil {
		return s.abort(id, err)
	}
	if batch.Empty() {
		logger.Warn("no leases or dns records collected; tables will be emptied")
	}

	snap, err := s.publisher.Snapshot(id, start, batch)
	if err != nil {
		return s.abort(id, err)
	}

	s.setState(StatePublishing)
	if err := s.publisher.Publish(ctx, snap); err != nil {
		return s.abort(id, err)
	}

	logger.Info("cycle completed",
		"leases", snap.LeaseCount(),
		"dns_records", len(snap.DNS),
		"duration", time.Since(start),
	)
	s.events.Publish(Event{Type: EventCycleCompleted, CycleID: id})
	return nil
}

func (s *Scheduler) abort(id string, err error) error {
	abort := &domain.CycleAbortError{CycleID: id, Err: err}
	s.events.Publish(Event{Type: EventCycleAborted, CycleID: id, Payload: err.Error()})
	return abort
}
