package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_StrictlyIncreasingWhenWallClockStalls(t *testing.T) {
	frozen := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c := &Clock{now: func() time.Time { return frozen }}

	first := c.Now()
	second := c.Now()
	third := c.Now()

	assert.True(t, frozen.Equal(first))
	assert.Equal(t, time.Nanosecond, second.Sub(first))
	assert.Equal(t, time.Nanosecond, third.Sub(second))
}

func TestClock_WallClockStepsBack(t *testing.T) {
	wall := time.Date(2026, 5, 1, 0, 0, 10, 0, time.UTC)
	c := &Clock{now: func() time.Time { return wall }}

	before := c.Now()
	wall = wall.Add(-5 * time.Second)
	after := c.Now()

	assert.True(t, after.After(before))
}

func TestClock_ConcurrentUnique(t *testing.T) {
	c := NewClock()
	const goroutines = 16
	const each = 500

	var mu sync.Mutex
	seen := make(map[int64]struct{}, goroutines*each)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, each)
			for i := 0; i < each; i++ {
				local = append(local, c.Now().UnixNano())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, ts := range local {
				seen[ts] = struct{}{}
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, goroutines*each)
}
