// Package sched is the per-CPU scheduler: a round-robin policy, a
// weighted-fair policy, and the loop that runs the active one on every
// CPU.
package sched

import (
	"cfsos/proc"
)

// Dispatcher runs a process on a CPU until it gives the CPU back.
// Caller holds the process's lock, and the process is RUNNABLE.
type Dispatcher interface {
	Dispatch(p *proc.Proc)
}

type Policy interface {
	// Schedule makes one scheduling decision on c. It reports whether a
	// process ran.
	Schedule(c Dispatcher) bool
	Name() string
}
