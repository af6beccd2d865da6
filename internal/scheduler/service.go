// Package scheduler runs background jobs on a cron schedule while serving.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Task is a unit of scheduled work.
type Task func(ctx context.Context) error

// Service runs one task on a cron schedule. Runs never overlap: a tick that
// fires while the previous run is still going is skipped.
type Service struct {
	name     string
	schedule string
	task     Task
	cron     *cron.Cron
	cancel   context.CancelFunc
}

// NewService creates a scheduler for task. schedule accepts standard
// five-field cron expressions and descriptors such as "@every 6h".
func NewService(name, schedule string, task Task) *Service {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	return &Service{
		name:     name,
		schedule: schedule,
		task:     task,
		cron:     cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
	}
}

// Validate reports whether schedule parses.
func Validate(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// Start registers the task and starts the scheduler.
func (s *Service) Start() error {
	if err := Validate(s.schedule); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	_, err := s.cron.AddFunc(s.schedule, func() {
		logrus.WithField("job", s.name).Info("Starting scheduled run")
		if err := s.task(ctx); err != nil {
			logrus.WithField("job", s.name).Errorf("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.cron.Start()
	logrus.WithFields(logrus.Fields{"job": s.name, "schedule": s.schedule}).Info("Scheduler started")
	return nil
}

// Stop cancels a running task and waits for it to return.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	logrus.WithField("job", s.name).Info("Scheduler stopped")
}
