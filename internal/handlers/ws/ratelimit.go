package ws

import (
	"sync"
	"time"

	"github.com/deepdelve/dungeon-api/internal/pkg/clock"
)

const (
	moveRateLimit  = 30
	moveRateWindow = time.Second
)

// slidingWindow admits at most limit events per rolling window. Rejected
// events are simply dropped; there is no queueing.
type slidingWindow struct {
	clk    clock.Clock
	limit  int
	window time.Duration

	mu     sync.Mutex
	stamps []time.Time
}

func newSlidingWindow(clk clock.Clock, limit int, window time.Duration) *slidingWindow {
	return &slidingWindow{clk: clk, limit: limit, window: window}
}

// Allow records one event if the window has room
func (l *slidingWindow) Allow() bool {
	now := l.clk.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.stamps[:0]
	for _, t := range l.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.stamps = kept

	if len(l.stamps) >= l.limit {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}
