package proc

import (
	"encoding/binary"

	db "cfsos/debug"
	"cfsos/defs"
	"cfsos/fs"
	"cfsos/isa"
	"cfsos/serr"
	"cfsos/stats"
)

// Userinit sets up the first user process. It runs code, loaded at
// address 0, with stdio attached to fds 0, 1, and 2.
func (t *Table) Userinit(code []byte, stdio *fs.File) error {
	p, err := t.Allocproc()
	if err != nil {
		return err
	}
	t.initproc = p

	if err := t.mem.Uvmfirst(p.as, code); err != nil {
		t.Freeproc(p)
		p.lock.Unlock()
		t.initproc = nil
		return err
	}

	// prepare for the very first "return" from kernel to user.
	p.tf.Epc = 0
	p.tf.Regs[isa.SP] = defs.PGSIZE

	p.name = "initcode"
	cwd, err := t.fs.Namei(defs.INITPATH)
	if err != nil {
		db.DFatalf("userinit: namei %v err %v", defs.INITPATH, err)
	}
	p.cwd = cwd
	if stdio != nil {
		p.ofile[0] = stdio
		p.ofile[1] = t.fs.Filedup(stdio)
		p.ofile[2] = t.fs.Filedup(stdio)
	}

	p.setState(RUNNABLE)
	db.DPrintf(db.PROC, "userinit %v", p)
	p.lock.Unlock()
	return nil
}

// Growproc grows or shrinks p's user memory by n bytes and returns the
// old size.
func (t *Table) Growproc(p *Proc, n int64) (uint64, error) {
	sz := p.as.Size()
	if n > 0 {
		if _, err := t.mem.Uvmalloc(p.as, sz, sz+uint64(n)); err != nil {
			return sz, err
		}
	} else if n < 0 {
		if uint64(-n) > sz {
			return sz, serr.NewErr(serr.TErrInval, n)
		}
		t.mem.Uvmdealloc(p.as, sz, sz-uint64(-n))
	}
	return sz, nil
}

// Fork creates a new process, copying p. It returns the child's pid to
// the parent; the child sees 0 in A0.
func (t *Table) Fork(p *Proc) (int, error) {
	np, err := t.Allocproc()
	if err != nil {
		stats.Inc(&t.st.Nforkfail, 1)
		return -1, err
	}

	// Copy user memory from parent to child.
	if err := t.mem.Uvmcopy(p.as, np.as); err != nil {
		db.DPrintf(db.FORK, "fork %v: uvmcopy err %v", p, err)
		t.Freeproc(np)
		np.lock.Unlock()
		stats.Inc(&t.st.Nforkfail, 1)
		return -1, err
	}

	// copy saved user registers, and cause fork to return 0 in the
	// child.
	np.tf.CopyFrom(p.tf)
	np.tf.Regs[isa.A0] = 0

	// increment reference counts on open file descriptors.
	for i, f := range p.ofile {
		if f != nil {
			np.ofile[i] = t.fs.Filedup(f)
		}
	}
	np.cwd = t.fs.Idup(p.cwd)
	np.name = p.name

	pid := np.Pid()
	np.lock.Unlock()

	t.waitLock.Lock()
	np.parent = p.slot
	t.waitLock.Unlock()

	np.lock.Lock()
	np.setState(RUNNABLE)
	np.lock.Unlock()

	stats.Inc(&t.st.Nfork, 1)
	db.DPrintf(db.FORK, "fork %v -> %v", p, pid)
	return pid, nil
}

// reparent passes p's abandoned children to init. Caller holds
// t.waitLock.
func (t *Table) reparent(p *Proc) {
	for _, pp := range t.procs {
		if pp.parent == p.slot {
			pp.parent = t.initproc.slot
			t.Wakeup(p, t.initproc)
		}
	}
}

// Exit exits p. It does not return: p remains a zombie until its parent
// calls wait.
func (t *Table) Exit(p *Proc, status int) {
	if p == t.initproc {
		db.DFatalf("init exiting")
	}

	// Close all open files.
	for fd, f := range p.ofile {
		if f != nil {
			t.fs.Fileclose(f)
			p.ofile[fd] = nil
		}
	}

	t.fs.BeginOp()
	t.fs.Iput(p.cwd)
	t.fs.EndOp()
	p.cwd = nil

	t.waitLock.Lock()

	// Give any children to init.
	t.reparent(p)

	// Parent might be sleeping in wait().
	if p.parent != NOPARENT {
		t.Wakeup(p, t.procs[p.parent])
	}

	p.acquire()
	p.xstate = status
	p.setState(ZOMBIE)
	stats.Inc(&t.st.Nexit, 1)
	db.DPrintf(db.EXIT, "exit %v status %d", p, status)

	t.waitLock.Unlock()

	// Jump into the scheduler, never to return.
	t.sched(p)
	db.DFatalf("zombie exit %v", p)
}

func encodeStatus(xstate int) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(int64(xstate)))
	return b
}

// Wait waits for a child of p to exit and returns its pid. If addr is
// not 0, the child's exit status is copied out to it.
func (t *Table) Wait(p *Proc, addr uint64) (int, error) {
	t.waitLock.Lock()
	for {
		// Scan through table looking for exited children.
		havekids := false
		for _, pp := range t.procs {
			if pp.parent != p.slot {
				continue
			}
			// make sure the child isn't still in exit() or sched().
			pp.lock.Lock()
			havekids = true
			if pp.State() == ZOMBIE {
				pid := pp.Pid()
				if addr != 0 {
					if err := p.Copyout(addr, encodeStatus(pp.xstate)); err != nil {
						pp.lock.Unlock()
						t.waitLock.Unlock()
						return -1, err
					}
				}
				t.Freeproc(pp)
				pp.lock.Unlock()
				t.waitLock.Unlock()
				stats.Inc(&t.st.Nwait, 1)
				db.DPrintf(db.WAIT, "wait %v reaped %d", p, pid)
				return pid, nil
			}
			pp.lock.Unlock()
		}

		// No point waiting if we don't have any children.
		if !havekids || t.Killed(p) {
			t.waitLock.Unlock()
			return -1, serr.NewErr(serr.TErrNochild, p.Pid())
		}

		// Wait for a child to exit.
		t.Sleep(p, p, &t.waitLock)
	}
}

// Kill marks the process with pid as killed. The victim won't exit
// until it tries to return to user space.
func (t *Table) Kill(pid int) error {
	if pid <= 0 {
		return serr.NewErr(serr.TErrNotfound, pid)
	}
	for _, p := range t.procs {
		p.lock.Lock()
		if p.Pid() == pid && p.State() != UNUSED {
			p.killed = true
			if p.State() == SLEEPING {
				// Wake process from sleep().
				p.setState(RUNNABLE)
			}
			p.lock.Unlock()
			stats.Inc(&t.st.Nkill, 1)
			db.DPrintf(db.KILL, "kill %d", pid)
			return nil
		}
		p.lock.Unlock()
	}
	return serr.NewErr(serr.TErrNotfound, pid)
}

func (t *Table) Setkilled(p *Proc) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.killed = true
}

func (t *Table) Killed(p *Proc) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.killed
}
