package user

import (
	"cfsos/defs"
	"cfsos/isa"
)

const (
	WSTATUS = defs.SCRATCH + 32 // wait status
	CPIDS   = defs.SCRATCH + 64 // getcpids buffer
)

// Initcode only reaps.
func Initcode() ([]byte, error) {
	pr := NewProg()
	pr.Reap()
	return pr.Image()
}

// Share starts the fair scheduler and forks one child per entry in
// nices. Each child sets its niceness, prints its pid, spins for iters
// iterations (forever if 0), prints its yield count, and exits. The
// parent waits for all of them and stops the fair scheduler.
func Share(nices []int32, iters int32) ([]byte, error) {
	pr := NewProg()
	pr.Syscall(defs.SYS_STARTCFS)
	children := make([]string, len(nices))
	for i := range nices {
		children[i] = pr.Gensym("child")
		pr.Syscall(defs.SYS_FORK)
		pr.Beqz(isa.A0, children[i])
	}
	wait := pr.Gensym("wait")
	pr.Li(isa.T0, int32(len(nices)))
	pr.Label(wait)
	pr.Li(isa.A0, 0)
	pr.Syscall(defs.SYS_WAIT)
	pr.Addi(isa.T0, isa.T0, -1)
	pr.Bnez(isa.T0, wait)
	pr.Syscall(defs.SYS_STOPCFS)
	pr.Reap()

	body := pr.Gensym("body")
	for i, n := range nices {
		pr.Label(children[i])
		pr.Li(isa.A0, n)
		pr.Syscall(defs.SYS_NICE)
		pr.J(body)
	}
	pr.Label(body)
	pr.Syscall(defs.SYS_GETPID)
	pr.Print(isa.A0)
	pr.Spin(iters)
	pr.Syscall(defs.SYS_GETYIELDCOUNT)
	pr.Print(isa.A0)
	pr.Exit(0)
	return pr.Image()
}

// Syscalls exercises the system calls, printing each result in order:
//
//	getpid, nice(5), nice(25), getcpids count, first child pid,
//	wait pid, child status, wait (no children), sbrk(PGSIZE),
//	dup(1), close(dup), close(dup) again, kill(9999),
//	uptime advanced after sleep(2)
//
// and the child prints getppid before exiting with status 7.
func Syscalls() ([]byte, error) {
	pr := NewProg()
	child := pr.Gensym("child")

	pr.Syscall(defs.SYS_GETPID)
	pr.Print(isa.A0)
	pr.Li(isa.A0, 5)
	pr.Syscall(defs.SYS_NICE)
	pr.Print(isa.A0)
	pr.Li(isa.A0, 25)
	pr.Syscall(defs.SYS_NICE)
	pr.Print(isa.A0)

	pr.Syscall(defs.SYS_FORK)
	pr.Beqz(isa.A0, child)
	pr.Li(isa.A0, CPIDS)
	pr.Syscall(defs.SYS_GETCPIDS)
	pr.Print(isa.A0)
	pr.Lw(isa.T1, CPIDS, isa.ZERO)
	pr.Print(isa.T1)

	pr.Li(isa.A0, WSTATUS)
	pr.Syscall(defs.SYS_WAIT)
	pr.Print(isa.A0)
	pr.Lw(isa.T1, WSTATUS, isa.ZERO)
	pr.Print(isa.T1)
	pr.Li(isa.A0, 0)
	pr.Syscall(defs.SYS_WAIT)
	pr.Print(isa.A0)

	pr.Li(isa.A0, defs.PGSIZE)
	pr.Syscall(defs.SYS_SBRK)
	pr.Print(isa.A0)

	pr.Li(isa.A0, 1)
	pr.Syscall(defs.SYS_DUP)
	pr.Mv(isa.T2, isa.A0)
	pr.Print(isa.A0)
	pr.Mv(isa.A0, isa.T2)
	pr.Syscall(defs.SYS_CLOSE)
	pr.Print(isa.A0)
	pr.Mv(isa.A0, isa.T2)
	pr.Syscall(defs.SYS_CLOSE)
	pr.Print(isa.A0)

	pr.Li(isa.A0, 9999)
	pr.Syscall(defs.SYS_KILL)
	pr.Print(isa.A0)

	pr.Syscall(defs.SYS_UPTIME)
	pr.Mv(isa.T3, isa.A0)
	pr.Li(isa.A0, 2)
	pr.Syscall(defs.SYS_SLEEP)
	pr.Syscall(defs.SYS_UPTIME)
	pr.Sub(isa.A0, isa.T3)
	pr.Addi(isa.A0, isa.A0, -2)
	// a0 >= 0 iff at least two ticks passed
	done := pr.Gensym("done")
	pr.Li(isa.T1, 1)
	pr.Bgez(isa.A0, done)
	pr.Li(isa.T1, 0)
	pr.Label(done)
	pr.Print(isa.T1)
	pr.Reap()

	pr.Label(child)
	pr.Syscall(defs.SYS_GETPPID)
	pr.Print(isa.A0)
	pr.Exit(7)
	return pr.Image()
}

// Kill forks a child that sleeps for a long time, kills it, and prints
// the child's pid and then its exit status.
func Kill() ([]byte, error) {
	pr := NewProg()
	child := pr.Gensym("child")
	pr.Syscall(defs.SYS_FORK)
	pr.Beqz(isa.A0, child)
	pr.Mv(isa.T0, isa.A0)
	pr.Print(isa.T0)
	// let the child fall asleep
	pr.Li(isa.A0, 2)
	pr.Syscall(defs.SYS_SLEEP)
	pr.Mv(isa.A0, isa.T0)
	pr.Syscall(defs.SYS_KILL)
	pr.Li(isa.A0, WSTATUS)
	pr.Syscall(defs.SYS_WAIT)
	pr.Lw(isa.T1, WSTATUS, isa.ZERO)
	pr.Print(isa.T1)
	pr.Reap()

	pr.Label(child)
	pr.Li(isa.A0, 100000)
	pr.Syscall(defs.SYS_SLEEP)
	pr.Exit(0)
	return pr.Image()
}

// Forkbomb forks children that spin until there is no room for more,
// prints how many it made, kills them all, and prints how many it
// reaped.
func Forkbomb() ([]byte, error) {
	pr := NewProg()
	loop, full, child := pr.Gensym("loop"), pr.Gensym("full"), pr.Gensym("child")
	kill, reap, done := pr.Gensym("kill"), pr.Gensym("reap"), pr.Gensym("done")

	pr.Li(isa.T0, 0) // children forked
	pr.Li(isa.T2, CPIDS)
	pr.Label(loop)
	pr.Syscall(defs.SYS_FORK)
	pr.Beqz(isa.A0, child)
	pr.Bltz(isa.A0, full)
	pr.Sw(isa.A0, 0, isa.T2)
	pr.Addi(isa.T2, isa.T2, 8)
	pr.Addi(isa.T0, isa.T0, 1)
	pr.J(loop)

	pr.Label(full)
	pr.Print(isa.T0)
	pr.Mv(isa.T1, isa.T0)
	pr.Label(kill)
	pr.Beqz(isa.T1, reap)
	pr.Addi(isa.T2, isa.T2, -8)
	pr.Lw(isa.A0, 0, isa.T2)
	pr.Syscall(defs.SYS_KILL)
	pr.Addi(isa.T1, isa.T1, -1)
	pr.J(kill)

	pr.Label(reap)
	pr.Li(isa.T1, 0)
	pr.Label(done)
	pr.Li(isa.A0, 0)
	pr.Syscall(defs.SYS_WAIT)
	r := pr.Gensym("reaped")
	pr.Bltz(isa.A0, r)
	pr.Addi(isa.T1, isa.T1, 1)
	pr.J(done)
	pr.Label(r)
	pr.Print(isa.T1)
	pr.Reap()

	pr.Label(child)
	pr.Spin(0)
	return pr.Image()
}

// Sbrk grows memory until it fails and prints how many pages it got,
// then shrinks back and prints the final size.
func Sbrk() ([]byte, error) {
	pr := NewProg()
	loop, full := pr.Gensym("loop"), pr.Gensym("full")
	pr.Li(isa.T0, 0)
	pr.Label(loop)
	pr.Li(isa.A0, defs.PGSIZE)
	pr.Syscall(defs.SYS_SBRK)
	pr.Bltz(isa.A0, full)
	pr.Addi(isa.T0, isa.T0, 1)
	pr.J(loop)
	pr.Label(full)
	pr.Print(isa.T0)
	// shrink by the same amount, one page at a time
	shrink, shrunk := pr.Gensym("shrink"), pr.Gensym("shrunk")
	pr.Mv(isa.T1, isa.T0)
	pr.Label(shrink)
	pr.Beqz(isa.T1, shrunk)
	pr.Li(isa.A0, -defs.PGSIZE)
	pr.Syscall(defs.SYS_SBRK)
	pr.Addi(isa.T1, isa.T1, -1)
	pr.J(shrink)
	pr.Label(shrunk)
	pr.Li(isa.A0, 0)
	pr.Syscall(defs.SYS_SBRK)
	pr.Print(isa.A0)
	pr.Reap()
	return pr.Image()
}

// Programs are the images cmd/kernel can boot by name.
var Programs = map[string]func() ([]byte, error){
	"init":     Initcode,
	"syscalls": Syscalls,
	"kill":     Kill,
	"forkbomb": Forkbomb,
	"sbrk":     Sbrk,
	"cfs": func() ([]byte, error) {
		return Share([]int32{0, 5, 10}, 0)
	},
}
