package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubJob struct {
	name string
	err  error
	runs int
	// cancel, when set, is called during Run to simulate an interrupt.
	cancel context.CancelFunc
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	if j.cancel != nil {
		j.cancel()
		return fmt.Errorf("crawl: %w", ctx.Err())
	}
	return j.err
}

func TestRunOnceRunsBothJobs(t *testing.T) {
	movie := &stubJob{name: "movie"}
	hot := &stubJob{name: "hot", err: errors.New("hot board down")}

	if err := runOnce(context.Background(), movie, hot); err != nil {
		t.Fatalf("runOnce: %v", err)
	}
	if movie.runs != 1 || hot.runs != 1 {
		t.Errorf("runs = movie %d hot %d, want 1 and 1", movie.runs, hot.runs)
	}
}

func TestRunOnceReturnsTopListError(t *testing.T) {
	movie := &stubJob{name: "movie", err: errors.New("db locked")}
	hot := &stubJob{name: "hot"}

	if err := runOnce(context.Background(), movie, hot); err == nil {
		t.Fatal("expected top list error")
	}
	if hot.runs != 0 {
		t.Errorf("hot search ran %d times after top list failure", hot.runs)
	}
}

func TestRunOnceInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	movie := &stubJob{name: "movie", cancel: cancel}
	hot := &stubJob{name: "hot"}

	err := runOnce(ctx, movie, hot)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if hot.runs != 0 {
		t.Errorf("hot search ran %d times after interrupt", hot.runs)
	}
}

func TestRunOnceSkipsHotSearchWhenCancelledBetweenJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	movie := &stubJob{name: "movie"}
	hot := &stubJob{name: "hot"}
	cancel()

	// A job that ignores ctx still returns nil; the next one must not start.
	err := runOnce(ctx, movie, hot)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if movie.runs != 1 || hot.runs != 0 {
		t.Errorf("runs = movie %d hot %d, want 1 and 0", movie.runs, hot.runs)
	}
}
