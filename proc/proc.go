// Package proc implements the process table: process control blocks,
// their lifecycle (allocation, fork, exit, wait, kill), sleep and
// wakeup, and the per-CPU context switch into a process.
package proc

import (
	"fmt"
	"sync/atomic"

	db "cfsos/debug"
	"cfsos/defs"
	"cfsos/fs"
	"cfsos/spinlock"
	"cfsos/vm"
)

const NOPARENT = -1

type Proc struct {
	lock spinlock.Spinlock

	// p.lock must be held when writing these. state, pid, and nice may
	// be read without it by the fair scheduler's selection scans.
	state  atomic.Uint32
	chn    any // sleeping on chn
	killed bool
	xstate int // exit status returned to the parent's wait
	pid    atomic.Int64

	// t.waitLock must be held when using this.
	parent int // slot of the parent, or NOPARENT

	// Scheduling metadata.
	nice     atomic.Int32
	vruntime atomic.Int64
	yields   atomic.Uint64

	// These are private to the process, so p.lock need not be held.
	slot   int
	kstack []byte
	as     *vm.AddrSpace
	tf     *vm.Trapframe
	ctx    *Context
	ofile  []*fs.File
	cwd    *fs.Inode
	name   string
	cpu    *Cpu

	oncpu atomic.Pointer[Cpu]
	t     *Table
}

func (p *Proc) String() string {
	return fmt.Sprintf("{slot %d pid %d %v %q nice %d vrt %d}", p.slot, p.Pid(), p.State(), p.name, p.Nice(), p.Vruntime())
}

func (p *Proc) Lock() {
	p.lock.Lock()
}

func (p *Proc) Unlock() {
	p.lock.Unlock()
}

func (p *Proc) Holding() bool {
	return p.lock.Holding()
}

// acquire takes p's lock from the process's own context, turning off
// interrupts on its CPU first. The lock is tagged with that CPU, which
// sched checks before handing it to the scheduler.
func (p *Proc) acquire() {
	if p.cpu != nil {
		p.cpu.IntrOff()
	}
	p.lock.Lock()
	p.lock.SetOwner(p.cpu)
}

func (p *Proc) Pid() int {
	return int(p.pid.Load())
}

func (p *Proc) Slot() int {
	return p.slot
}

func (p *Proc) State() Tstate {
	return Tstate(p.state.Load())
}

func (p *Proc) setState(st Tstate) {
	p.state.Store(uint32(st))
}

// SetStateL changes p's state. Caller holds p's lock.
func (p *Proc) SetStateL(st Tstate) {
	if !p.lock.Holding() {
		db.DFatalf("setstate %v without lock", p)
	}
	p.setState(st)
}

func (p *Proc) Name() string {
	return p.name
}

func (p *Proc) SetNameL(name string) {
	if !p.lock.Holding() {
		db.DFatalf("setname %v without lock", p)
	}
	p.name = name
}

func (p *Proc) Nice() int {
	return int(p.nice.Load())
}

// SetNice applies n if it lies in [NICE_MIN, NICE_MAX] and ignores it
// otherwise. It returns p's niceness afterwards.
func (p *Proc) SetNice(n int) int {
	if n >= defs.NICE_MIN && n <= defs.NICE_MAX {
		p.lock.Lock()
		p.nice.Store(int32(n))
		p.lock.Unlock()
	}
	return p.Nice()
}

func (p *Proc) Vruntime() int64 {
	return p.vruntime.Load()
}

// AddVruntime charges inc, which must be positive, to p's virtual
// runtime.
func (p *Proc) AddVruntime(inc int64) {
	if inc < 1 {
		db.DFatalf("vruntime inc %d for %v", inc, p)
	}
	p.vruntime.Add(inc)
}

func (p *Proc) Yields() uint64 {
	return p.yields.Load()
}

func (p *Proc) Trapframe() *vm.Trapframe {
	return p.tf
}

func (p *Proc) AddrSpace() *vm.AddrSpace {
	return p.as
}

func (p *Proc) Cpu() *Cpu {
	return p.cpu
}

func (p *Proc) Cwd() *fs.Inode {
	return p.cwd
}

// Ofile returns the open file at fd, or nil.
func (p *Proc) Ofile(fd int) *fs.File {
	if fd < 0 || fd >= len(p.ofile) {
		return nil
	}
	return p.ofile[fd]
}

// Fdalloc installs f in the lowest free descriptor.
func (p *Proc) Fdalloc(f *fs.File) int {
	for fd, of := range p.ofile {
		if of == nil {
			p.ofile[fd] = f
			return fd
		}
	}
	return -1
}

// Fdclose clears fd and returns the file that was there.
func (p *Proc) Fdclose(fd int) *fs.File {
	f := p.Ofile(fd)
	if f != nil {
		p.ofile[fd] = nil
	}
	return f
}

func (p *Proc) Copyout(va uint64, b []byte) error {
	return p.t.mem.Copyout(p.as, va, b)
}

func (p *Proc) Copyin(b []byte, va uint64) error {
	return p.t.mem.Copyin(p.as, b, va)
}
