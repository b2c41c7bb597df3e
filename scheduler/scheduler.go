package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

var ErrNoSchedule = errors.New("SCHEDULE_CRON is not set")

// Job is one scheduled unit of work, typically a bulk run that resumes from
// the checkpoint.
type Job func(ctx context.Context) error

// Scheduler fires a job on a cron expression. A firing that arrives while the
// previous one is still running is skipped.
type Scheduler struct {
	expr string
	job  Job
	cron *cron.Cron

	mu      sync.Mutex
	running bool
	runs    int
}

func New(expr string, job Job) *Scheduler {
	return &Scheduler{
		expr: expr,
		job:  job,
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.expr == "" {
		return ErrNoSchedule
	}

	log.Printf("Starting scheduler with cron: %s", s.expr)
	_, err := s.cron.AddFunc(s.expr, func() {
		if err := s.TriggerNow(ctx); err != nil {
			log.Printf("Scheduled run error: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop stops firing new runs and waits for a running one to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// TriggerNow runs the job immediately unless a run is already in progress.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("Warning: previous run still in progress, skipping")
		return nil
	}
	s.running = true
	s.runs++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.job(ctx)
}

// Runs reports how many times the job has started.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
