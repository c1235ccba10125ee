package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deepdelve/dungeon-api/internal/pkg/clock"
)

func TestSlidingWindowCapsBurst(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	limiter := newSlidingWindow(clk, 30, time.Second)

	// 31 updates inside 900ms: exactly 30 make it through.
	accepted := 0
	for i := 0; i < 31; i++ {
		if limiter.Allow() {
			accepted++
		}
		clk.Advance(30 * time.Millisecond)
	}
	assert.Equal(t, 30, accepted)
}

func TestSlidingWindowRecovers(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	limiter := newSlidingWindow(clk, 30, time.Second)

	for i := 0; i < 30; i++ {
		assert.True(t, limiter.Allow())
	}
	assert.False(t, limiter.Allow(), "window is full")

	// The window rolls; old entries fall out and capacity returns.
	clk.Advance(time.Second + time.Millisecond)
	assert.True(t, limiter.Allow())
}

func TestSlidingWindowRollsGradually(t *testing.T) {
	clk := clock.NewManual(time.Unix(1000, 0))
	limiter := newSlidingWindow(clk, 2, time.Second)

	assert.True(t, limiter.Allow())
	clk.Advance(600 * time.Millisecond)
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	// Only the first entry has aged out.
	clk.Advance(500 * time.Millisecond)
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
}
