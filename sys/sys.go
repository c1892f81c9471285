// Package sys is the system call layer: it decodes a call from the
// caller's registers and dispatches to the process core.
package sys

import (
	db "cfsos/debug"
	"cfsos/defs"
	"cfsos/fs"
	"cfsos/isa"
	"cfsos/proc"
	"cfsos/sched"
	"cfsos/trap"
)

type Tsyscall func(p *proc.Proc, a0, a1, a2 int64) (int64, error)

type Sys struct {
	t     *proc.Table
	s     *sched.Scheduler
	clock *trap.Clock
	fs    *fs.Fs
	calls map[int64]Tsyscall
}

func NewSys(t *proc.Table, s *sched.Scheduler, clock *trap.Clock, fsys *fs.Fs) *Sys {
	sys := &Sys{t: t, s: s, clock: clock, fs: fsys}
	sys.calls = map[int64]Tsyscall{
		defs.SYS_FORK:          sys.fork,
		defs.SYS_EXIT:          sys.exit,
		defs.SYS_WAIT:          sys.wait,
		defs.SYS_KILL:          sys.kill,
		defs.SYS_DUP:           sys.dup,
		defs.SYS_GETPID:        sys.getpid,
		defs.SYS_SBRK:          sys.sbrk,
		defs.SYS_SLEEP:         sys.sleep,
		defs.SYS_UPTIME:        sys.uptime,
		defs.SYS_WRITE:         sys.write,
		defs.SYS_CLOSE:         sys.close,
		defs.SYS_GETPPID:       sys.getppid,
		defs.SYS_GETCPIDS:      sys.getcpids,
		defs.SYS_GETYIELDCOUNT: sys.getyieldcount,
		defs.SYS_NICE:          sys.nice,
		defs.SYS_STARTCFS:      sys.startcfs,
		defs.SYS_STOPCFS:       sys.stopcfs,
		defs.SYS_YIELD:         sys.yield,
	}
	return sys
}

// Syscall runs the call numbered in p's A7 and leaves the result in A0.
func (sys *Sys) Syscall(p *proc.Proc) {
	tf := p.Trapframe()
	num := tf.Regs[isa.A7]
	f, ok := sys.calls[num]
	if !ok {
		db.DPrintf(db.SYSCALL, "%v: unknown sys call %d", p, num)
		tf.Regs[isa.A0] = -1
		return
	}
	r, err := f(p, tf.Regs[isa.A0], tf.Regs[isa.A1], tf.Regs[isa.A2])
	if err != nil {
		db.DPrintf(db.SYSCALL, "%v: %v err %v", p, defs.Sysnames[num], err)
		r = -1
	} else {
		db.DPrintf(db.SYSCALL, "%v: %v -> %d", p, defs.Sysnames[num], r)
	}
	tf.Regs[isa.A0] = r
}
