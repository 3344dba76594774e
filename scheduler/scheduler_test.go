package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// Mock job for testing
type MockJob struct {
	name     string
	runCount atomic.Int32
	err      error
}

func (j *MockJob) Name() string {
	return j.name
}

func (j *MockJob) Run(ctx context.Context) error {
	j.runCount.Add(1)
	return j.err
}

func TestScheduler(t *testing.T) {
	s := NewScheduler()
	mockJob := &MockJob{name: "test_job"}

	// Run every second
	if err := s.AddJob(mockJob, "* * * * * *"); err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}

	s.Start()
	defer s.Stop()

	if s.NextRun("test_job").IsZero() {
		t.Error("NextRun should be set once started")
	}

	// Wait for the job to run at least once
	time.Sleep(2 * time.Second)

	if mockJob.runCount.Load() == 0 {
		t.Error("Job did not run")
	}

	initialRunCount := mockJob.runCount.Load()
	if err := s.RunJobNow(context.Background(), "test_job"); err != nil {
		t.Fatalf("Failed to run job now: %v", err)
	}
	if mockJob.runCount.Load() < initialRunCount+1 {
		t.Errorf("RunJobNow did not increment run count")
	}

	if err := s.RunJobNow(context.Background(), "non_existent_job"); err == nil {
		t.Error("Running non-existent job should have failed")
	}
}

func TestAddJobWithSeveralSpecs(t *testing.T) {
	s := NewScheduler()
	mockJob := &MockJob{name: "morning_evening"}

	if err := s.AddJob(mockJob, "0 0 10 * * *", "0 0 17 * * *"); err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}
	if got := len(s.entries["morning_evening"]); got != 2 {
		t.Errorf("entries = %d, want 2", got)
	}
	if names := s.Jobs(); len(names) != 1 || names[0] != "morning_evening" {
		t.Errorf("Jobs() = %v", names)
	}

	if err := s.AddJob(mockJob, "0 0 12 * * *"); err == nil {
		t.Error("registering the same name twice should fail")
	}
}

func TestAddJobRejectsBadSpecs(t *testing.T) {
	s := NewScheduler()

	if err := s.AddJob(&MockJob{name: "none"}); err == nil {
		t.Error("job without specs should fail")
	}
	if err := s.AddJob(&MockJob{name: "bad"}, "0 0 10 * * *", "not a spec"); err == nil {
		t.Error("invalid spec should fail")
	}
	if len(s.cron.Entries()) != 0 {
		t.Errorf("cron has %d entries after failed adds", len(s.cron.Entries()))
	}
	if err := s.RunJobNow(context.Background(), "bad"); err == nil {
		t.Error("failed job should not be registered")
	}
}

func TestRunJobNowReturnsJobError(t *testing.T) {
	s := NewScheduler()
	boom := errors.New("boom")
	if err := s.AddJob(&MockJob{name: "failing", err: boom}, "@daily"); err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}

	if err := s.RunJobNow(context.Background(), "failing"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler()
	s.Stop()
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

type blockingJob struct {
	started  chan struct{}
	release  chan struct{}
	runCount atomic.Int32
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.runCount.Add(1)
	j.started <- struct{}{}
	<-j.release
	return nil
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	s := NewScheduler()
	job := &blockingJob{started: make(chan struct{}, 1), release: make(chan struct{})}
	if err := s.AddJob(job, "0 0 10 * * *", "0 0 17 * * *"); err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.RunJobNow(context.Background(), "blocking") }()
	<-job.started

	if err := s.RunJobNow(context.Background(), "blocking"); !errors.Is(err, ErrJobRunning) {
		t.Errorf("second RunJobNow err = %v, want ErrJobRunning", err)
	}
	s.runScheduled(s.jobs["blocking"])
	if got := job.runCount.Load(); got != 1 {
		t.Errorf("runCount = %d while first run in progress, want 1", got)
	}

	close(job.release)
	if err := <-done; err != nil {
		t.Fatalf("first RunJobNow: %v", err)
	}

	s.runScheduled(s.jobs["blocking"])
	if got := job.runCount.Load(); got != 2 {
		t.Errorf("runCount = %d after release, want 2", got)
	}
}
