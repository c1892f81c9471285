package sched

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	db "cfsos/debug"
	"cfsos/proc"
	"cfsos/stats"
)

// Scheduler runs one scheduling loop per CPU. The fair flag selects the
// policy for all CPUs at once.
type Scheduler struct {
	rr   *RoundRobin
	fair *Fair
	cfs  atomic.Bool
	idle time.Duration
	st   *stats.StatInfo
}

func NewScheduler(t *proc.Table, latency, min, max int, idle time.Duration) *Scheduler {
	return &Scheduler{
		rr:   NewRoundRobin(t),
		fair: NewFair(t, latency, min, max),
		idle: idle,
		st:   t.Stats(),
	}
}

// Enable switches every CPU to the fair policy.
func (s *Scheduler) Enable() {
	s.cfs.Store(true)
	db.DPrintf(db.SCHED, "cfs on")
}

// Disable switches every CPU back to round robin.
func (s *Scheduler) Disable() {
	s.cfs.Store(false)
	db.DPrintf(db.SCHED, "cfs off")
}

func (s *Scheduler) Enabled() bool {
	return s.cfs.Load()
}

func (s *Scheduler) Fair() *Fair {
	return s.fair
}

func (s *Scheduler) Policy() Policy {
	if s.cfs.Load() {
		return s.fair
	}
	return s.rr
}

// Run runs the scheduler on each of cpus until ctx is cancelled. A CPU
// notices cancellation only between dispatches.
func (s *Scheduler) Run(ctx context.Context, cpus []*proc.Cpu) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range cpus {
		c := c
		g.Go(func() error {
			return s.scheduler(ctx, c)
		})
	}
	return g.Wait()
}

func (s *Scheduler) scheduler(ctx context.Context, c *proc.Cpu) error {
	db.DPrintf(db.CPU, "%v: starting", c)
	for {
		select {
		case <-ctx.Done():
			db.DPrintf(db.CPU, "%v: stopping", c)
			return nil
		default:
		}
		// Avoid deadlock by ensuring that devices can interrupt.
		c.IntrOn()
		if !s.Policy().Schedule(c) {
			stats.Inc(&s.st.Nidle, 1)
			time.Sleep(s.idle)
		}
	}
}
