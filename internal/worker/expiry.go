// internal/worker/expiry.go
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the sweep once an hour.
const DefaultSchedule = "@every 1h"

// Expirer marks overdue cards as expired and reports how many changed.
type Expirer interface {
	ExpireOverdueCards(ctx context.Context) (int, error)
}

// ExpirySweeper runs the card expiry sweep on a cron schedule.
// Runs never overlap; a tick that fires while a sweep is still running is skipped.
type ExpirySweeper struct {
	expirer  Expirer
	schedule string
	timeout  time.Duration
	logger   *slog.Logger

	cron    *cron.Cron
	initial sync.WaitGroup
	mu      sync.Mutex
}

// NewExpirySweeper creates a sweeper. An empty schedule falls back to DefaultSchedule.
func NewExpirySweeper(expirer Expirer, schedule string, logger *slog.Logger) *ExpirySweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &ExpirySweeper{
		expirer:  expirer,
		schedule: schedule,
		timeout:  5 * time.Minute,
		logger:   logger,
	}
}

// Start schedules the sweep and kicks off a first run in the background.
// The first run shares the scheduled job's guard, so a tick arriving while it
// is still going is skipped.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	schedule, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return fmt.Errorf("invalid expiry sweep schedule %q: %w", s.schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).
		Then(cron.FuncJob(func() { s.RunOnce(ctx) }))
	c := cron.New()
	c.Schedule(schedule, job)
	s.cron = c

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		job.Run()
	}()
	c.Start()
	s.logger.Info("Expiry sweeper started", "schedule", s.schedule)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.initial.Wait()
	s.logger.Info("Expiry sweeper stopped")
}

// RunOnce performs a single sweep and logs its outcome.
func (s *ExpirySweeper) RunOnce(ctx context.Context) int {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.expirer.ExpireOverdueCards(runCtx)
	if err != nil {
		s.logger.Error("Expiry sweep failed", "expired", n, "error", err)
		return n
	}
	s.logger.Debug("Expiry sweep finished", "expired", n)
	return n
}
