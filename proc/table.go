package proc

import (
	"sync"

	db "cfsos/debug"
	"cfsos/defs"
	"cfsos/fs"
	"cfsos/serr"
	"cfsos/spinlock"
	"cfsos/stats"
	"cfsos/vm"
)

// Memory is what the process table needs from the memory system.
type Memory interface {
	Kalloc() ([]byte, error)
	AllocTrapframe() (*vm.Trapframe, error)
	FreeTrapframe(*vm.Trapframe)
	Pagetable(*vm.Trapframe) (*vm.AddrSpace, error)
	FreePagetable(*vm.AddrSpace)
	Uvmfirst(*vm.AddrSpace, []byte) error
	Uvmalloc(as *vm.AddrSpace, oldsz, newsz uint64) (uint64, error)
	Uvmdealloc(as *vm.AddrSpace, oldsz, newsz uint64) uint64
	Uvmcopy(old, new *vm.AddrSpace) error
	Copyout(as *vm.AddrSpace, dstva uint64, src []byte) error
	Copyin(as *vm.AddrSpace, dst []byte, srcva uint64) error
}

// Storage is what the process table needs from the file system.
type Storage interface {
	Namei(pn string) (*fs.Inode, error)
	Idup(*fs.Inode) *fs.Inode
	Iput(*fs.Inode)
	BeginOp()
	EndOp()
	Filedup(*fs.File) *fs.File
	Fileclose(*fs.File)
}

// Trapper returns a process to user mode. Usertrapret runs the process
// until it exits and never returns.
type Trapper interface {
	Usertrapret(p *Proc)
}

// Table is the fixed-size process table and the state shared by every
// operation on it.
type Table struct {
	procs    []*Proc
	pidLock  sync.Mutex
	nextpid  int
	waitLock spinlock.Spinlock // helps ensure that wakeups of wait()ing parents are not lost
	initproc *Proc
	nofile   int

	mem  Memory
	fs   Storage
	trap Trapper
	st   *stats.StatInfo

	wg   sync.WaitGroup
	done chan struct{}
}

// NewTable initializes a table with nproc unused slots.
func NewTable(nproc, nofile int, mem Memory, fsys Storage, st *stats.StatInfo) *Table {
	t := &Table{
		procs:   make([]*Proc, nproc),
		nextpid: 1,
		nofile:  nofile,
		mem:     mem,
		fs:      fsys,
		st:      st,
		done:    make(chan struct{}),
	}
	t.waitLock.Init("wait_lock")
	for i := range t.procs {
		p := &Proc{slot: i, parent: NOPARENT, t: t}
		p.lock.Init("proc")
		p.setState(UNUSED)
		t.procs[i] = p
	}
	return t
}

// SetTrap installs the trap layer, which is built after the table.
func (t *Table) SetTrap(tr Trapper) {
	t.trap = tr
}

func (t *Table) Procs() []*Proc {
	return t.procs
}

func (t *Table) Nproc() int {
	return len(t.procs)
}

func (t *Table) Initproc() *Proc {
	return t.initproc
}

func (t *Table) Stats() *stats.StatInfo {
	return t.st
}

// Mapstacks allocates a kernel stack page for each slot.
func (t *Table) Mapstacks() error {
	for _, p := range t.procs {
		pg, err := t.mem.Kalloc()
		if err != nil {
			return err
		}
		p.kstack = pg
	}
	return nil
}

func (t *Table) allocpid() int {
	t.pidLock.Lock()
	defer t.pidLock.Unlock()
	pid := t.nextpid
	t.nextpid += 1
	return pid
}

// Allocproc looks for an unused slot and initializes the state required
// to run in the kernel. On success it returns with the slot's lock held.
func (t *Table) Allocproc() (*Proc, error) {
	var p *Proc
	for _, pp := range t.procs {
		pp.lock.Lock()
		if pp.State() == UNUSED {
			p = pp
			break
		}
		pp.lock.Unlock()
	}
	if p == nil {
		db.DPrintf(db.PROC, "allocproc: table full")
		return nil, serr.NewErr(serr.TErrNoproc, "allocproc")
	}

	p.pid.Store(int64(t.allocpid()))
	p.setState(USED)
	stats.Inc(&t.st.Nlive, 1)
	stats.Max(&t.st.MaxProcs, stats.Read(&t.st.Nlive))
	p.nice.Store(defs.NICE_DEFAULT)
	p.vruntime.Store(0)
	p.yields.Store(0)
	p.ofile = make([]*fs.File, t.nofile)

	tf, err := t.mem.AllocTrapframe()
	if err != nil {
		t.Freeproc(p)
		p.lock.Unlock()
		return nil, err
	}
	p.tf = tf

	as, err := t.mem.Pagetable(tf)
	if err != nil {
		t.Freeproc(p)
		p.lock.Unlock()
		return nil, err
	}
	p.as = as

	// Start executing at forkret, which returns to user space.
	p.ctx = newContext(p)

	db.DPrintf(db.PROC, "allocproc %v", p)
	return p, nil
}

// Freeproc releases p's memory and resets the slot to UNUSED. Caller
// holds p's lock.
func (t *Table) Freeproc(p *Proc) {
	if !p.lock.Holding() {
		db.DFatalf("freeproc %v without lock", p)
	}
	if p.as != nil {
		t.mem.FreePagetable(p.as)
	}
	p.as = nil
	if p.tf != nil {
		t.mem.FreeTrapframe(p.tf)
	}
	p.tf = nil
	if p.ctx != nil {
		p.ctx.free()
	}
	p.ctx = nil
	p.pid.Store(0)
	// Only wait() frees a slot with a parent, and it holds waitLock.
	if p.parent != NOPARENT {
		p.parent = NOPARENT
	}
	p.name = ""
	p.chn = nil
	p.killed = false
	p.xstate = 0
	p.nice.Store(defs.NICE_DEFAULT)
	p.vruntime.Store(0)
	p.yields.Store(0)
	p.ofile = nil
	p.cwd = nil
	p.cpu = nil
	if p.State() != UNUSED {
		stats.Dec(&t.st.Nlive)
	}
	p.setState(UNUSED)
}

// Lookup returns the live process with pid, if any.
func (t *Table) Lookup(pid int) *Proc {
	for _, p := range t.procs {
		if p.Pid() == pid && p.State() != UNUSED {
			return p
		}
	}
	return nil
}

// Shutdown terminates the goroutines of all processes that are not
// running. Call after every CPU has stopped.
func (t *Table) Shutdown() {
	close(t.done)
	t.wg.Wait()
}
