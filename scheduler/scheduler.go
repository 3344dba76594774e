package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobTimeout bounds a single run of any job.
const JobTimeout = 30 * time.Minute

// ErrJobRunning is returned by RunJobNow when the job is already running.
var ErrJobRunning = errors.New("job already running")

// Job represents a scheduled job
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron      *cron.Cron
	mu        sync.Mutex
	jobs      map[string]*guardedJob
	entries   map[string][]cron.EntryID
	isRunning bool
}

// NewScheduler creates a new scheduler. Specs use six fields, seconds first.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cron.VerbosePrintfLogger(log.Default())),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		jobs:    make(map[string]*guardedJob),
		entries: make(map[string][]cron.EntryID),
	}
}

// guardedJob serializes every run of a job, whichever spec or caller starts it.
type guardedJob struct {
	Job
	running sync.Mutex
}

// AddJob registers job under its name and schedules it on every spec. A name
// can only be registered once; all specs are validated before any is added.
func (s *Scheduler) AddJob(job Job, specs ...string) error {
	name := job.Name()
	if len(specs) == 0 {
		return fmt.Errorf("job %s has no schedule", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for _, spec := range specs {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
		}
	}

	g := &guardedJob{Job: job}
	ids := make([]cron.EntryID, 0, len(specs))
	for _, spec := range specs {
		id, err := s.cron.AddFunc(spec, func() { s.runScheduled(g) })
		if err != nil {
			for _, added := range ids {
				s.cron.Remove(added)
			}
			return fmt.Errorf("failed to add job %s: %w", name, err)
		}
		ids = append(ids, id)
	}

	s.jobs[name] = g
	s.entries[name] = ids
	log.Printf("Scheduled job %s: %v", name, specs)
	return nil
}

func (s *Scheduler) runScheduled(job *guardedJob) {
	name := job.Name()
	if !job.running.TryLock() {
		log.Printf("Skipping job %s: previous run still in progress", name)
		return
	}
	defer job.running.Unlock()

	log.Printf("Starting scheduled job: %s", name)
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), JobTimeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		log.Printf("Error running job %s: %v", name, err)
		return
	}
	log.Printf("Completed job %s in %s", name, time.Since(startTime))
}

// Jobs returns the registered job names in sorted order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextRun returns the earliest upcoming run of the named job. It is zero
// until the scheduler is started.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	ids := s.entries[name]
	s.mu.Unlock()

	var next time.Time
	for _, id := range ids {
		t := s.cron.Entry(id).Next
		if !t.IsZero() && (next.IsZero() || t.Before(next)) {
			next = t
		}
	}
	return next
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
	log.Println("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Println("Scheduler stopped")
}

// RunJobNow runs a job immediately outside of schedule. It returns
// ErrJobRunning if a scheduled or manual run of the job is in progress.
func (s *Scheduler) RunJobNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, exists := s.jobs[name]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not registered", name)
	}
	if !job.running.TryLock() {
		return fmt.Errorf("job %s: %w", name, ErrJobRunning)
	}
	defer job.running.Unlock()

	log.Printf("Manually running job: %s", name)
	ctx, cancel := context.WithTimeout(ctx, JobTimeout)
	defer cancel()

	return job.Run(ctx)
}
