package sched

import (
	"sync"

	db "cfsos/debug"
	"cfsos/proc"
)

// Fair is the weighted-fair policy. One instance is shared by all CPUs.
// The process it has picked runs for a timeslice proportional to its
// weight; when it stops, its virtual runtime is charged for the slices it
// was dispatched and the RUNNABLE process with the smallest virtual
// runtime is picked next.
//
// A process handed to a CPU stays out until that CPU's dispatch returns.
// Other CPUs never pick a process that is out, so each dispatch is
// counted once and charged once.
//
// The selection scans read process state without process locks.
// Stale reads only skew fairness; Dispatch rechecks under the lock.
type Fair struct {
	sync.Mutex
	procs   []*proc.Proc
	latency int
	min     int
	max     int
	out     map[*proc.Proc]bool

	cur    *proc.Proc
	curpid int
	len    int // timeslices assigned to cur
	ran    int // timeslices of cur dispatched so far
}

func NewFair(t *proc.Table, latency, min, max int) *Fair {
	return &Fair{
		procs:   t.Procs(),
		latency: latency,
		min:     min,
		max:     max,
		out:     make(map[*proc.Proc]bool),
	}
}

func (f *Fair) Name() string {
	return "cfs"
}

// Current returns the process the policy has picked, and its assigned
// and remaining timeslices.
func (f *Fair) Current() (*proc.Proc, int, int) {
	f.Lock()
	defer f.Unlock()
	return f.cur, f.len, f.len - f.ran
}

func (f *Fair) weightSum() int64 {
	sum := int64(0)
	for _, p := range f.procs {
		if p.State() == proc.RUNNABLE {
			sum += Weight(p.Nice())
		}
	}
	return sum
}

// shortest returns the first RUNNABLE process in slot order with the
// smallest virtual runtime, skipping processes that are out.
func (f *Fair) shortest() *proc.Proc {
	var sp *proc.Proc
	for _, p := range f.procs {
		if p.State() == proc.RUNNABLE && !f.out[p] {
			if sp == nil || p.Vruntime() < sp.Vruntime() {
				sp = p
			}
		}
	}
	return sp
}

// charge adds the virtual runtime for n timeslices to p, if p is still
// the process with pid.
func (f *Fair) charge(p *proc.Proc, pid, n int) {
	if n == 0 || p.Pid() != pid {
		return
	}
	p.AddVruntime(VruntimeInc(n, Weight(p.Nice())))
}

// pick decides which process to run next and marks it out. The slice
// is counted against cur here; release undoes the count if the dispatch
// doesn't happen.
func (f *Fair) pick() (*proc.Proc, int) {
	f.Lock()
	defer f.Unlock()

	if f.cur != nil {
		if f.cur.Pid() == f.curpid && f.ran < f.len && !f.out[f.cur] && f.cur.State() == proc.RUNNABLE {
			f.ran += 1
			f.out[f.cur] = true
			return f.cur, f.curpid
		}
		f.charge(f.cur, f.curpid, f.ran)
		db.DPrintf(db.CFS, "process %d used up %d of its assigned %d timeslices and is swapped out", f.curpid, f.ran, f.len)
		f.cur = nil
	}

	sp := f.shortest()
	if sp == nil {
		return nil, 0
	}
	f.cur = sp
	f.curpid = sp.Pid()
	f.len = Timeslice(f.latency, Weight(sp.Nice()), f.weightSum(), f.min, f.max)
	f.ran = 1
	f.out[sp] = true
	db.DPrintf(db.CFS, "process %d will run for %d timeslices next", f.curpid, f.len)
	return sp, f.curpid
}

// release puts p back after its dispatch returned, or after the dispatch
// was skipped because p changed between pick and lock.
func (f *Fair) release(p *proc.Proc, pid int, ran bool) {
	f.Lock()
	defer f.Unlock()
	delete(f.out, p)
	if !ran && f.cur == p && f.curpid == pid {
		f.ran -= 1
	}
}

func (f *Fair) Schedule(c Dispatcher) bool {
	p, pid := f.pick()
	if p == nil {
		return false
	}
	ran := false
	p.Lock()
	if p.State() == proc.RUNNABLE && p.Pid() == pid {
		c.Dispatch(p)
		ran = true
	}
	p.Unlock()
	f.release(p, pid, ran)
	return ran
}
