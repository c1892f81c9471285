package kernel_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cfsos/config"
	db "cfsos/debug"
	"cfsos/defs"
	"cfsos/isa"
	"cfsos/kernel"
	"cfsos/proc"
	"cfsos/spinlock"
	"cfsos/user"
)

const TIMEOUT = 20 * time.Second

func TestMain(m *testing.M) {
	spinlock.Configure(true, 30*time.Second)
	os.Exit(m.Run())
}

type Tstate struct {
	*kernel.Kernel
	T *testing.T
}

func newTstate(t *testing.T, cfg *config.Config, code []byte, err error) *Tstate {
	assert.Nil(t, err, "assemble")
	k, err := kernel.NewKernel(cfg)
	assert.Nil(t, err, "NewKernel")
	err = k.Boot(code)
	assert.Nil(t, err, "Boot")
	return &Tstate{Kernel: k, T: t}
}

func (ts *Tstate) shutdown() {
	assert.Nil(ts.T, ts.Shutdown())
}

// ints waits until pid has printed n values and returns them.
func (ts *Tstate) ints(pid, n int) []int64 {
	ok := assert.Eventually(ts.T, func() bool {
		return len(ts.Console().Ints(pid)) >= n
	}, TIMEOUT, time.Millisecond)
	vs := ts.Console().Ints(pid)
	if !ok {
		db.DPrintf(db.TEST, "pid %d printed %v\n%v", pid, vs, proc.ProcdumpString(ts.Table().Procdump()))
	}
	return vs
}

func TestSyscalls(t *testing.T) {
	for _, ncpu := range []int{1, 2} {
		code, err := user.Syscalls()
		ts := newTstate(t, config.NewTestConfig(ncpu), code, err)
		vs := ts.ints(1, 14)
		assert.Equal(t, []int64{1, 5, 5, 1, 2, 2, 7, -1, defs.PGSIZE, 3, 0, -1, -1, 1}, vs, "ncpu %d", ncpu)
		assert.Equal(t, []int64{1}, ts.Console().Ints(2))
		ts.shutdown()
	}
}

func TestKill(t *testing.T) {
	code, err := user.Kill()
	ts := newTstate(t, config.NewTestConfig(1), code, err)
	vs := ts.ints(1, 2)
	assert.Equal(t, []int64{2, -1}, vs)
	ts.shutdown()
}

func TestForkbomb(t *testing.T) {
	cfg := config.NewTestConfig(2)
	code, err := user.Forkbomb()
	ts := newTstate(t, cfg, code, err)
	vs := ts.ints(1, 2)
	assert.Equal(t, []int64{int64(cfg.Nproc - 1), int64(cfg.Nproc - 1)}, vs)
	assert.Eventually(t, func() bool {
		return len(ts.Table().Procdump()) == 1
	}, TIMEOUT, time.Millisecond)
	ts.shutdown()
}

func TestSbrk(t *testing.T) {
	cfg := config.NewTestConfig(1)
	code, err := user.Sbrk()
	ts := newTstate(t, cfg, code, err)
	// kernel stacks, plus init's trapframe, page table, and text page
	npages := cfg.Npages - cfg.Nproc - 3
	vs := ts.ints(1, 2)
	assert.Equal(t, []int64{int64(npages), defs.PGSIZE}, vs)
	assert.Equal(t, npages, ts.Mem().Nfree())
	ts.shutdown()
}

func TestWaitCopyoutFail(t *testing.T) {
	pr := user.NewProg()
	child := pr.Gensym("child")
	pr.Syscall(defs.SYS_FORK)
	pr.Beqz(isa.A0, child)
	pr.Li(isa.A0, 1<<30)
	pr.Syscall(defs.SYS_WAIT)
	pr.Print(isa.A0)
	// the child is still there to be reaped
	pr.Li(isa.A0, 0)
	pr.Syscall(defs.SYS_WAIT)
	pr.Print(isa.A0)
	pr.Reap()
	pr.Label(child)
	pr.Exit(3)
	code, err := pr.Image()

	ts := newTstate(t, config.NewTestConfig(1), code, err)
	assert.Equal(t, []int64{-1, 2}, ts.ints(1, 2))
	ts.shutdown()
}

func TestReparent(t *testing.T) {
	pr := user.NewProg()
	a, b := pr.Gensym("a"), pr.Gensym("b")
	pr.Syscall(defs.SYS_FORK)
	pr.Beqz(isa.A0, a)
	pr.Reap()
	// a forks b and exits at once
	pr.Label(a)
	pr.Syscall(defs.SYS_FORK)
	pr.Beqz(isa.A0, b)
	pr.Exit(0)
	// b outlives a
	pr.Label(b)
	pr.Li(isa.A0, 5)
	pr.Syscall(defs.SYS_SLEEP)
	pr.Syscall(defs.SYS_GETPPID)
	pr.Print(isa.A0)
	pr.Exit(0)
	code, err := pr.Image()

	ts := newTstate(t, config.NewTestConfig(2), code, err)
	assert.Equal(t, []int64{1}, ts.ints(3, 1))
	assert.Eventually(t, func() bool {
		return len(ts.Table().Procdump()) == 1
	}, TIMEOUT, time.Millisecond)
	ts.shutdown()
}

func TestFault(t *testing.T) {
	pr := user.NewProg()
	child := pr.Gensym("child")
	pr.Syscall(defs.SYS_FORK)
	pr.Beqz(isa.A0, child)
	pr.Li(isa.A0, user.WSTATUS)
	pr.Syscall(defs.SYS_WAIT)
	pr.Lw(isa.T1, user.WSTATUS, isa.ZERO)
	pr.Print(isa.T1)
	pr.Reap()
	pr.Label(child)
	pr.Li(isa.T0, 1<<30)
	pr.Lw(isa.A0, 0, isa.T0)
	pr.Exit(0)
	code, err := pr.Image()

	ts := newTstate(t, config.NewTestConfig(1), code, err)
	assert.Equal(t, []int64{-1}, ts.ints(1, 1))
	ts.shutdown()
}

func TestShareFair(t *testing.T) {
	const NYIELD = 200
	code, err := user.Share([]int32{0, 5}, 0)
	ts := newTstate(t, config.NewTestConfig(1), code, err)
	// both children started
	ts.ints(2, 1)
	ts.ints(3, 1)
	tbl := ts.Table()
	c0, c1 := tbl.Lookup(2), tbl.Lookup(3)
	assert.Eventually(t, func() bool {
		return c1.Yields() >= NYIELD
	}, TIMEOUT, time.Millisecond)
	y0, y1 := c0.Yields(), c1.Yields()
	ratio := float64(y0) / float64(y1)
	db.DPrintf(db.TEST, "yields %d %d ratio %.2f", y0, y1, ratio)
	assert.True(t, ts.Sched().Enabled())
	assert.Equal(t, 0, c0.Nice())
	assert.Equal(t, 5, c1.Nice())
	assert.InDelta(t, 3.06, ratio, 0.35)
	ts.shutdown()
}

func TestShareRoundRobin(t *testing.T) {
	const NYIELD = 200
	code, err := user.Share([]int32{0, 5}, 0)
	ts := newTstate(t, config.NewTestConfig(1), code, err)
	ts.ints(2, 1)
	ts.ints(3, 1)
	// round robin ignores niceness
	ts.Sys().StopFair()
	tbl := ts.Table()
	c0, c1 := tbl.Lookup(2), tbl.Lookup(3)
	n0, n1 := c0.Yields(), c1.Yields()
	assert.Eventually(t, func() bool {
		return c1.Yields()-n1 >= NYIELD
	}, TIMEOUT, time.Millisecond)
	ratio := float64(c0.Yields()-n0) / float64(c1.Yields()-n1)
	assert.InDelta(t, 1.0, ratio, 0.1)
	ts.shutdown()
}

func TestMultiCpu(t *testing.T) {
	cfg := config.NewTestConfig(4)

	nices := []int32{0, 0, 5, 5, 10, 10}
	code, err := user.Share(nices, 5000)
	ts := newTstate(t, cfg, code, err)
	for pid := 2; pid < 2+len(nices); pid++ {
		vs := ts.ints(pid, 2)
		assert.Equal(t, int64(pid), vs[0])
		assert.True(t, vs[1] > 0, "pid %d yields %d", pid, vs[1])
	}
	assert.Eventually(t, func() bool {
		return !ts.Sched().Enabled()
	}, TIMEOUT, time.Millisecond, "init didn't stop cfs")
	assert.Equal(t, 1, len(ts.Table().Procdump()))
	ts.shutdown()
}

func TestBootTwice(t *testing.T) {
	code, err := user.Initcode()
	ts := newTstate(t, config.NewTestConfig(1), code, err)
	assert.NotNil(t, ts.Boot(code))
	ts.shutdown()
	assert.Nil(t, ts.Shutdown())
}

// Shutdown must tear down processes parked inside the sleep syscall
// while they hold no kernel locks of their own.
func TestShutdownSleeping(t *testing.T) {
	for _, ncpu := range []int{1, 2} {
		pr := user.NewProg()
		child := pr.Gensym("child")
		pr.Syscall(defs.SYS_FORK)
		pr.Beqz(isa.A0, child)
		pr.Li(isa.A0, 1000000)
		pr.Syscall(defs.SYS_SLEEP)
		pr.Reap()
		pr.Label(child)
		pr.Li(isa.A0, 1000000)
		pr.Syscall(defs.SYS_SLEEP)
		pr.Exit(0)
		code, err := pr.Image()

		ts := newTstate(t, config.NewTestConfig(ncpu), code, err)
		assert.Eventually(t, func() bool {
			pis := ts.Table().Procdump()
			if len(pis) != 2 {
				return false
			}
			for _, pi := range pis {
				if pi.State != proc.SLEEPING {
					return false
				}
			}
			return true
		}, TIMEOUT, time.Millisecond, "ncpu %d", ncpu)
		ts.shutdown()
	}
}

func TestBadConfig(t *testing.T) {
	cfg := config.NewTestConfig(1)
	cfg.Policy = "fifo"
	_, err := kernel.NewKernel(cfg)
	assert.NotNil(t, err)
}
