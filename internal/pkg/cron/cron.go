// Package cron runs named maintenance jobs on fixed intervals inside the
// server process.
package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeNever   Outcome = "never"
	OutcomeRunning Outcome = "running"
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
)

// Job is a recurring task. Fn receives the scheduler context and should
// return promptly once it is cancelled.
type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	RunOnStart  bool
	Fn          func(ctx context.Context) error
}

// Snapshot describes a job for the health endpoint.
type Snapshot struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Interval    string     `json:"interval"`
	Outcome     Outcome    `json:"outcome"`
	Error       string     `json:"error,omitempty"`
	Runs        int        `json:"runs"`
	LastRunAt   *time.Time `json:"lastRunAt,omitempty"`
	LastTookMs  int64      `json:"lastTookMs"`
}

type entry struct {
	job Job

	mu       sync.Mutex
	outcome  Outcome
	errText  string
	runs     int
	lastRun  *time.Time
	lastTook time.Duration
}

type Scheduler struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		entries: make(map[string]*entry),
		logger:  logger.Named("Scheduler"),
	}
}

// Register adds job. Jobs registered after Start are only reachable by Run.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[job.Name] = &entry{job: job, outcome: OutcomeNever}
}

// Start runs every job on its interval until ctx ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.entries)))
}

// Wait returns once every job loop has exited.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()
	if e.job.RunOnStart {
		s.runEntry(ctx, e)
	}
	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runEntry(ctx, e)
		}
	}
}

// runEntry executes the job unless a previous run is still in progress.
func (s *Scheduler) runEntry(ctx context.Context, e *entry) {
	e.mu.Lock()
	if e.outcome == OutcomeRunning {
		e.mu.Unlock()
		return
	}
	e.outcome = OutcomeRunning
	e.mu.Unlock()

	started := time.Now()
	err := e.job.Fn(ctx)
	took := time.Since(started)

	e.mu.Lock()
	e.runs++
	e.lastRun = &started
	e.lastTook = took
	e.outcome, e.errText = OutcomeOK, ""
	if err != nil {
		e.outcome, e.errText = OutcomeFailed, err.Error()
	}
	e.mu.Unlock()

	if err != nil {
		s.logger.Warn("job failed", zap.String("job", e.job.Name), zap.Duration("took", took), zap.Error(err))
		return
	}
	s.logger.Debug("job done", zap.String("job", e.job.Name), zap.Duration("took", took))
}

// Run executes the named job synchronously.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("cron: unknown job %q", name)
	}
	s.runEntry(ctx, e)
	return nil
}

// List returns job snapshots ordered by name.
func (s *Scheduler) List() []Snapshot {
	s.mu.RLock()
	out := make([]Snapshot, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.Lock()
		out = append(out, Snapshot{
			Name:        e.job.Name,
			Description: e.job.Description,
			Interval:    e.job.Interval.String(),
			Outcome:     e.outcome,
			Error:       e.errText,
			Runs:        e.runs,
			LastRunAt:   e.lastRun,
			LastTookMs:  e.lastTook.Milliseconds(),
		})
		e.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
