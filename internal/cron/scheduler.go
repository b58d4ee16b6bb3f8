// Package cron runs the periodic refresh jobs that keep cached NBA resources
// warm. Jobs are plain interval tasks; every execution is recorded so the
// admin API can show run history.
package cron

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/boxscore-backend/internal/db"
)

// RunRecorder persists job executions. *db.DB implements it.
type RunRecorder interface {
	CreateCronRun(ctx context.Context, jobName, triggeredBy string) (uuid.UUID, error)
	CompleteCronRun(ctx context.Context, runID uuid.UUID, status string, itemsUpdated int, errMsg string) error
}

// NopRecorder discards run records. Used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) CreateCronRun(context.Context, string, string) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (NopRecorder) CompleteCronRun(context.Context, uuid.UUID, string, int, string) error {
	return nil
}

// Job is one named refresh task. Run returns how many resources it updated.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) (itemsUpdated int, err error)
}

// Scheduler runs registered jobs on their intervals and on demand.
type Scheduler struct {
	mu       sync.Mutex
	jobs     []Job
	recorder RunRecorder
	stop     chan struct{}
	wg       sync.WaitGroup
	started  bool
}

// NewScheduler creates a scheduler that records runs through recorder.
func NewScheduler(recorder RunRecorder) *Scheduler {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Scheduler{
		recorder: recorder,
		stop:     make(chan struct{}),
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// JobNames lists registered jobs in registration order.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

// Start launches one ticker goroutine per job.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(job)
	}
}

// Stop halts all job loops and waits for in-flight runs to finish. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var job *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			job = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()

	if job == nil {
		return fmt.Errorf("unknown job: %s", name)
	}
	return s.execute(ctx, *job, "manual")
}

func (s *Scheduler) loop(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.execute(context.Background(), job, "cron"); err != nil {
				log.Printf("[cron] %s: %v", job.Name, err)
			}
		case <-s.stop:
			return
		}
	}
}

// execute runs one job with its timeout and records the outcome.
func (s *Scheduler) execute(ctx context.Context, job Job, triggeredBy string) error {
	runID, err := s.recorder.CreateCronRun(ctx, job.Name, triggeredBy)
	if err != nil {
		return fmt.Errorf("failed to record run start for %s: %w", job.Name, err)
	}

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	updated, runErr := job.Run(runCtx)
	elapsed := time.Since(start)

	status := db.RunStatusSuccess
	errMsg := ""
	if runErr != nil {
		status = db.RunStatusFailed
		errMsg = runErr.Error()
	}

	if err := s.recorder.CompleteCronRun(ctx, runID, status, updated, errMsg); err != nil {
		log.Printf("[cron] %s: failed to record completion: %v", job.Name, err)
	}

	log.Printf("[cron] %s (%s): %s, %d updated in %v", job.Name, triggeredBy, status, updated, elapsed)
	return runErr
}
