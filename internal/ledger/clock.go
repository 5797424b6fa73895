package ledger

import (
	"sync/atomic"
	"time"
)

// Clock hands out strictly increasing timestamps. When the wall clock stalls or
// steps backwards the previous value is bumped by one nanosecond, which acts as
// a logical counter.
type Clock struct {
	last atomic.Int64
	now  func() time.Time
}

// NewClock returns a clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Now returns a timestamp greater than every one returned before it.
func (c *Clock) Now() time.Time {
	for {
		prev := c.last.Load()
		next := c.now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return time.Unix(0, next).UTC()
		}
	}
}
