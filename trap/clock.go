package trap

import (
	"context"
	"time"

	db "cfsos/debug"
	"cfsos/proc"
	"cfsos/serr"
	"cfsos/spinlock"
	"cfsos/stats"
)

// Clock is the timer device. Each tick advances ticks and wakes
// processes sleeping on it.
type Clock struct {
	lock   spinlock.Spinlock
	ticks  uint64
	t      *proc.Table
	period time.Duration
}

func NewClock(t *proc.Table, period time.Duration) *Clock {
	c := &Clock{t: t, period: period}
	c.lock.Init("time")
	return c
}

// Run ticks every period until ctx is cancelled.
func (c *Clock) Run(ctx context.Context) error {
	tick := time.NewTicker(c.period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			db.DPrintf(db.CLOCK, "clock stopped at %d", c.Ticks())
			return nil
		case <-tick.C:
			c.Clockintr()
		}
	}
}

func (c *Clock) Clockintr() {
	c.lock.Lock()
	c.ticks += 1
	stats.Inc(&c.t.Stats().Nticks, 1)
	c.t.Wakeup(nil, &c.ticks)
	c.lock.Unlock()
}

func (c *Clock) Ticks() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ticks
}

// Sleep puts p to sleep for n ticks. It returns early with an error if p
// is killed. The time lock is released explicitly: a table shutdown ends
// p's goroutine inside Sleep, and a deferred release would then run
// against a lock p no longer holds.
func (c *Clock) Sleep(p *proc.Proc, n uint64) error {
	c.lock.Lock()
	t0 := c.ticks
	for c.ticks-t0 < n {
		if c.t.Killed(p) {
			c.lock.Unlock()
			return serr.NewErr(serr.TErrKilled, p.Pid())
		}
		c.t.Sleep(p, &c.ticks, &c.lock)
	}
	c.lock.Unlock()
	return nil
}
