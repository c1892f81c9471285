// Package trap is the boundary between the kernel and user mode. It
// interprets a process's user image, enters the kernel on system calls
// and faults, and preempts the process on timer interrupts.
package trap

import (
	"encoding/binary"

	db "cfsos/debug"
	"cfsos/isa"
	"cfsos/proc"
	"cfsos/stats"
)

type Syscaller interface {
	Syscall(p *proc.Proc)
}

type Trap struct {
	t       *proc.Table
	sys     Syscaller
	quantum int
	st      *stats.StatInfo
}

// NewTrap makes a trap layer that delivers a timer interrupt every
// quantum user instructions.
func NewTrap(t *proc.Table, sys Syscaller, quantum int) *Trap {
	return &Trap{t: t, sys: sys, quantum: quantum, st: t.Stats()}
}

// umem gives the interpreter access to p's memory.
type umem struct {
	p *proc.Proc
}

func (m umem) Load(va uint64) (int64, error) {
	var b [8]byte
	if err := m.p.Copyin(b[:], va); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func (m umem) Store(va uint64, v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return m.p.Copyout(va, b[:])
}

func (tr *Trap) fault(p *proc.Proc, err error) {
	db.DPrintf(db.TRAP, "usertrap %v: epc %#x err %v", p, p.Trapframe().Epc, err)
	stats.Inc(&tr.st.Nfault, 1)
	tr.t.Setkilled(p)
	tr.t.Exit(p, -1)
}

// Usertrapret returns p to user space and runs it. p leaves only through
// exit, so Usertrapret does not return.
func (tr *Trap) Usertrapret(p *proc.Proc) {
	var b [isa.INSTSZ]byte
	m := umem{p}
	n := 0
	for {
		p.Cpu().IntrOn()
		tf := p.Trapframe()
		if err := p.Copyin(b[:], tf.Epc); err != nil {
			tr.fault(p, err)
		}
		in, err := isa.Decode(b[:])
		if err != nil {
			tr.fault(p, err)
		}
		npc, ecall, err := isa.Exec(in, tf.Epc, &tf.Regs, m)
		if err != nil {
			tr.fault(p, err)
		}
		stats.Inc(&tr.st.Ninstr, 1)
		// return to the instruction after the ecall
		tf.Epc = npc
		if ecall {
			if tr.t.Killed(p) {
				tr.t.Exit(p, -1)
			}
			stats.Inc(&tr.st.Nsyscall, 1)
			tr.sys.Syscall(p)
			if tr.t.Killed(p) {
				tr.t.Exit(p, -1)
			}
		}
		n += 1
		if n >= tr.quantum {
			// give up the CPU if this is a timer interrupt.
			n = 0
			stats.Inc(&tr.st.Ntimer, 1)
			tr.t.Yield(p)
			if tr.t.Killed(p) {
				tr.t.Exit(p, -1)
			}
		}
	}
}
