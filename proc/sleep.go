package proc

import (
	"sync"

	db "cfsos/debug"
	"cfsos/stats"
)

// sched switches from p to its CPU's scheduler. p must hold only its
// own lock and have changed its state.
func (t *Table) sched(p *Proc) {
	c := p.cpu
	if c == nil || c.Proc() != p {
		db.DFatalf("sched %v: not on a cpu", p)
	}
	if !p.lock.HeldBy(c) {
		db.DFatalf("sched %v: p.lock not held for %v", p, c)
	}
	if p.State() == RUNNING {
		db.DFatalf("sched %v: running", p)
	}
	if c.Intr() {
		db.DFatalf("sched %v: interruptible", p)
	}
	p.yields.Add(1)
	ctx := p.ctx
	c.sched <- struct{}{}
	ctx.wait(t)
}

// Yield gives up the CPU for one scheduling round.
func (t *Table) Yield(p *Proc) {
	p.acquire()
	p.setState(RUNNABLE)
	stats.Inc(&t.st.Nyield, 1)
	t.sched(p)
	p.lock.Unlock()
}

// Sleep atomically releases lk and sleeps on chn. It reacquires lk when
// awakened. Caller holds lk.
func (t *Table) Sleep(p *Proc, chn any, lk sync.Locker) {
	// Once p holds its own lock it is guaranteed not to miss a wakeup,
	// since wakeup locks p.
	p.acquire()
	lk.Unlock()

	p.chn = chn
	p.setState(SLEEPING)
	stats.Inc(&t.st.Nsleep, 1)
	db.DPrintf(db.SLEEP, "sleep %v on %p", p, chn)

	t.sched(p)

	p.chn = nil
	p.lock.Unlock()
	lk.Lock()
}

// Wakeup makes every process sleeping on chn runnable, other than self.
// Caller must not hold any process lock.
func (t *Table) Wakeup(self *Proc, chn any) {
	for _, p := range t.procs {
		if p == self {
			continue
		}
		p.lock.Lock()
		if p.State() == SLEEPING && p.chn == chn {
			p.setState(RUNNABLE)
			stats.Inc(&t.st.Nwakeup, 1)
			db.DPrintf(db.SLEEP, "wakeup %v", p)
		}
		p.lock.Unlock()
	}
}

// WaitLock is the relationship lock: it guards every parent field and
// is acquired before any process lock.
func (t *Table) WaitLock() sync.Locker {
	return &t.waitLock
}
