package host

import (
	"time"

	"go.uber.org/atomic"
)

// Clock is the trusted time source, in seconds since epoch.
type Clock interface {
	Now() uint64
}

type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// FixedClock only moves when told to.
type FixedClock struct {
	now *atomic.Uint64
}

func NewFixedClock(now uint64) *FixedClock {
	return &FixedClock{now: atomic.NewUint64(now)}
}

func (c *FixedClock) Now() uint64 {
	return c.now.Load()
}

func (c *FixedClock) Set(now uint64) {
	c.now.Store(now)
}

func (c *FixedClock) Advance(d time.Duration) uint64 {
	return c.now.Add(uint64(d / time.Second))
}
