// Package scheduler runs the background maintenance jobs on cron
// schedules: the search index rebuild and the cache cleanup sweep.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of background work.
type Job interface {
	Name() string
	Run() error
}

// Scheduler wraps a cron runner with logging around each job.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
	log  zerolog.Logger
}

// New creates a scheduler. Schedules use the six-field cron format with
// a leading seconds field.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// AddJob registers a job under the given cron spec.
func (s *Scheduler) AddJob(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}
	s.jobs = append(s.jobs, job)
	s.log.Info().Str("job", job.Name()).Str("schedule", spec).Msg("Scheduled job")
	return nil
}

func (s *Scheduler) runJob(job Job) {
	s.log.Info().Str("job", job.Name()).Msg("Running job")
	if err := job.Run(); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("Job failed")
		return
	}
	s.log.Info().Str("job", job.Name()).Msg("Job finished")
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Run()
		}
	}
	return fmt.Errorf("unknown job: %s", name)
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
