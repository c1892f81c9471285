package sched

import (
	"cfsos/proc"
)

// RoundRobin sweeps the table in slot order and runs every RUNNABLE
// process it finds.
type RoundRobin struct {
	procs []*proc.Proc
}

func NewRoundRobin(t *proc.Table) *RoundRobin {
	return &RoundRobin{procs: t.Procs()}
}

func (rr *RoundRobin) Name() string {
	return "rr"
}

func (rr *RoundRobin) Schedule(c Dispatcher) bool {
	ran := false
	for _, p := range rr.procs {
		p.Lock()
		if p.State() == proc.RUNNABLE {
			// Switch to chosen process. It is the process's job to
			// release its lock and then reacquire it before jumping
			// back to us.
			c.Dispatch(p)
			ran = true
		}
		p.Unlock()
	}
	return ran
}
