// Package scheduler runs the periodic background jobs: advancing match
// statuses without waiting for a read, and purging dead refresh tokens.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StatusSweeper advances match statuses.
type StatusSweeper interface {
	SweepStatuses(ctx context.Context) (int, error)
}

// TokenPurger deletes refresh tokens that can no longer be used.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler owns a cron instance running in the venue time zone.
type Scheduler struct {
	cron    *cron.Cron
	log     logrus.FieldLogger
	mu      sync.Mutex
	running bool
	jobs    []cron.EntryID
}

func New(loc *time.Location, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.WithField("component", "scheduler"),
	}
}

// ScheduleStatusSweep runs sweeper on spec, e.g. "@every 1m".
func (s *Scheduler) ScheduleStatusSweep(spec string, sweeper StatusSweeper) error {
	return s.add(spec, "status-sweep", func(ctx context.Context) {
		n, err := sweeper.SweepStatuses(ctx)
		if err != nil {
			s.log.WithError(err).Warn("status sweep finished with errors")
		}
		if n > 0 {
			s.log.WithField("changed", n).Info("match statuses advanced")
		}
	})
}

// ScheduleTokenPurge deletes refresh tokens that expired or were revoked more
// than retain ago.
func (s *Scheduler) ScheduleTokenPurge(spec string, retain time.Duration, purger TokenPurger) error {
	return s.add(spec, "token-purge", func(ctx context.Context) {
		n, err := purger.PurgeExpired(ctx, time.Now().UTC().Add(-retain))
		if err != nil {
			s.log.WithError(err).Warn("token purge failed")
			return
		}
		s.log.WithField("deleted", n).Debug("refresh tokens purged")
	})
}

func (s *Scheduler) add(spec, name string, job func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("cannot schedule %s while scheduler is running", name)
	}
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs = append(s.jobs, id)
	s.log.WithFields(logrus.Fields{"job": name, "spec": spec}).Info("job scheduled")
	return nil
}

// Start runs the scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || len(s.jobs) == 0 {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.running = false
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
