// Package scheduler runs independent periodic tasks. Each live entity owns
// one task; a task's runs never overlap, but runs of different tasks may
// interleave arbitrarily.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler schedules a callback to run at a fixed interval. The returned
// stop function cancels the task; calling it more than once is safe.
type Scheduler interface {
	Every(interval time.Duration, fn func(ctx context.Context)) (stop func())
}

// Ticking is the production Scheduler. Every task gets its own goroutine
// driven by a time.Ticker; the callback is invoked synchronously inside the
// loop, so a slow run delays the task's next tick rather than duplicating it.
type Ticking struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTicking creates a ticking scheduler
func NewTicking() *Ticking {
	ctx, cancel := context.WithCancel(context.Background())
	return &Ticking{ctx: ctx, cancel: cancel}
}

// Every starts a periodic task
func (s *Ticking) Every(interval time.Duration, fn func(ctx context.Context)) func() {
	taskCtx, taskCancel := context.WithCancel(s.ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-taskCtx.Done():
				return
			case <-ticker.C:
				fn(taskCtx)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(taskCancel)
	}
}

// Close stops every task and waits for their goroutines to exit
func (s *Ticking) Close() {
	s.cancel()
	s.wg.Wait()
}
