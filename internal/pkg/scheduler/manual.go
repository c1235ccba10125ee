package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/deepdelve/dungeon-api/internal/pkg/clock"
)

type manualTask struct {
	interval time.Duration
	next     time.Time
	fn       func(ctx context.Context)
}

// Manual is a Scheduler for tests. Tasks only run when Advance is called;
// runs happen on the caller's goroutine in timestamp order, and the attached
// manual clock moves in lockstep so callbacks observe consistent time.
type Manual struct {
	clk    *clock.Manual
	mu     sync.Mutex
	tasks  map[int]*manualTask
	nextID int
}

// NewManual creates a manual scheduler driven by the given clock
func NewManual(clk *clock.Manual) *Manual {
	return &Manual{
		clk:   clk,
		tasks: make(map[int]*manualTask),
	}
}

// Every registers a periodic task; it first runs one interval from now
func (m *Manual) Every(interval time.Duration, fn func(ctx context.Context)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.tasks[id] = &manualTask{
		interval: interval,
		next:     m.clk.Now().Add(interval),
		fn:       fn,
	}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.tasks, id)
			m.mu.Unlock()
		})
	}
}

// Advance moves time forward by d, running every task due in that window
func (m *Manual) Advance(d time.Duration) {
	target := m.clk.Now().Add(d)

	for {
		m.mu.Lock()
		var dueID int
		var due *manualTask
		for id, t := range m.tasks {
			if t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) {
				due = t
				dueID = id
			}
		}
		m.mu.Unlock()

		if due == nil {
			break
		}

		if gap := due.next.Sub(m.clk.Now()); gap > 0 {
			m.clk.Advance(gap)
		}
		due.fn(context.Background())

		m.mu.Lock()
		// The callback may have stopped its own task.
		if t, ok := m.tasks[dueID]; ok && t == due {
			t.next = t.next.Add(t.interval)
		}
		m.mu.Unlock()
	}

	if rest := target.Sub(m.clk.Now()); rest > 0 {
		m.clk.Advance(rest)
	}
}
