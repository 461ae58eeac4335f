package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunAtStartFiresImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int64
	s := New(Task{
		Name:       "warm",
		Interval:   time.Hour,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start(ctx)

	deadline := time.After(time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("task with RunAtStart did not fire")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	s.Wait()

	if n := runs.Load(); n != 1 {
		t.Fatalf("runs = %d, want 1 (interval is an hour)", n)
	}
}

func TestSchedulerFiresOnInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int64
	s := New(Task{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start(ctx)

	deadline := time.After(time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("task fired %d times, want at least 3", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	s.Wait()
}

func TestSchedulerRetriesOnceThenWaitsForNextTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int64
	s := New(Task{
		Name:       "flaky",
		Interval:   time.Hour,
		RunAtStart: true,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			attempts.Add(1)
			return errors.New("boom")
		},
	})

	s.Start(ctx)

	deadline := time.After(time.Second)
	for attempts.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("attempts = %d, want initial run plus one retry", attempts.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Give the loop a moment to prove it stops at MaxRetries.
	time.Sleep(50 * time.Millisecond)
	if n := attempts.Load(); n != 2 {
		t.Fatalf("attempts = %d, want exactly 2 until the next tick", n)
	}

	cancel()
	s.Wait()
}

func TestSchedulerTaskFailureDoesNotStopOtherTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var healthy atomic.Int64
	s := New(
		Task{
			Name:       "failing",
			Interval:   10 * time.Millisecond,
			RunAtStart: true,
			Run: func(ctx context.Context) error {
				return errors.New("always fails")
			},
		},
		Task{
			Name:     "healthy",
			Interval: 10 * time.Millisecond,
			Run: func(ctx context.Context) error {
				healthy.Add(1)
				return nil
			},
		},
	)

	s.Start(ctx)

	deadline := time.After(time.Second)
	for healthy.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("healthy task fired %d times alongside a failing task", healthy.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	s.Wait()
}

func TestSchedulerContainsPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int64
	s := New(Task{
		Name:     "panicky",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			panic("kaboom")
		},
	})

	s.Start(ctx)

	deadline := time.After(time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("task did not keep running after panic, runs = %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	s.Wait()
}
