package proc

import (
	"fmt"
	"sync/atomic"

	db "cfsos/debug"
	"cfsos/stats"
)

// Cpu is the state of one CPU. Each CPU's scheduler loop runs on its
// own goroutine.
type Cpu struct {
	id    int
	proc  atomic.Pointer[Proc] // the process running on this cpu, or nil
	sched chan struct{}
	intr  atomic.Bool
	t     *Table
}

func (t *Table) NewCpu(id int) *Cpu {
	return &Cpu{id: id, sched: make(chan struct{}), t: t}
}

func (c *Cpu) String() string {
	return fmt.Sprintf("cpu%d", c.id)
}

func (c *Cpu) Id() int {
	return c.id
}

// Proc returns the process running on c, or nil.
func (c *Cpu) Proc() *Proc {
	return c.proc.Load()
}

func (c *Cpu) IntrOn() {
	c.intr.Store(true)
}

func (c *Cpu) IntrOff() {
	c.intr.Store(false)
}

func (c *Cpu) Intr() bool {
	return c.intr.Load()
}

// Dispatch marks p RUNNING and switches to it. It returns once p gives
// up the CPU. Caller holds p's lock and p must be RUNNABLE.
func (c *Cpu) Dispatch(p *Proc) {
	if !p.lock.Holding() {
		db.DFatalf("%v: dispatch %v without lock", c, p)
	}
	if st := p.State(); st != RUNNABLE {
		db.DFatalf("%v: dispatch %v in state %v", c, p, st)
	}
	if !p.oncpu.CompareAndSwap(nil, c) {
		db.DFatalf("%v: %v already on %v", c, p, p.oncpu.Load())
	}
	p.lock.SetOwner(c)
	p.setState(RUNNING)
	c.proc.Store(p)
	p.cpu = c
	c.IntrOff()
	stats.Inc(&c.t.st.Ndispatch, 1)

	c.swtch(p)

	// Process is done running for now. It should have changed its
	// state before coming back.
	c.proc.Store(nil)
	p.oncpu.Store(nil)
}

func (c *Cpu) swtch(p *Proc) {
	ctx := p.ctx
	ctx.start()
	ctx.resume <- struct{}{}
	<-c.sched
	stats.Inc(&c.t.st.Nswitch, 1)
}
