package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// A periodic background task. Tasks are independent: a slow run of one task
// never delays another task's ticks.
type Task struct {
	Name     string
	Interval time.Duration

	// Fire once immediately when the scheduler starts, before the first
	// interval elapses.
	RunAtStart bool

	// When a run fails, retry up to MaxRetries times, waiting RetryDelay
	// between attempts. After that the failure is logged and the next
	// scheduled tick tries again.
	MaxRetries int
	RetryDelay time.Duration

	Run func(ctx context.Context) error
}

// Scheduler drives a fixed set of periodic tasks, one goroutine each.
// Task failures and panics are contained per run; nothing a task does can
// stop its loop short of context cancellation.
type Scheduler struct {
	tasks []Task
	wg    sync.WaitGroup
}

func New(tasks ...Task) *Scheduler {
	return &Scheduler{tasks: tasks}
}

// Start launches every task loop. It returns immediately; cancel ctx and
// call Wait to shut down.
func (s *Scheduler) Start(ctx context.Context) {
	for _, task := range s.tasks {
		s.wg.Add(1)
		go func(task Task) {
			defer s.wg.Done()
			s.loop(ctx, task)
		}(task)
	}
}

// Wait blocks until all task loops have observed cancellation and exited.
// In-flight work is abandoned at process shutdown; every persisted write in
// this system is a single atomic statement, so nothing needs cleanup.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	if task.RunAtStart {
		s.runOnce(ctx, task)
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("task=%s stopped", task.Name)
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

// runOnce executes one scheduled firing, applying the task's retry policy.
func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	for attempt := 0; ; attempt++ {
		err := s.runProtected(ctx, task)
		if err == nil {
			return
		}

		if attempt >= task.MaxRetries {
			log.Printf("task=%s attempt=%d err=%v (giving up until next tick)", task.Name, attempt+1, err)
			return
		}

		log.Printf("task=%s attempt=%d err=%v (retrying in %s)", task.Name, attempt+1, err, task.RetryDelay)

		timer := time.NewTimer(task.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// A panicking task run is converted to a logged failure so the loop and the
// process survive.
func (s *Scheduler) runProtected(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("task=%s panic=%v", task.Name, r)
			err = nil // panic is terminal for this run; never retried
		}
	}()

	return task.Run(ctx)
}
