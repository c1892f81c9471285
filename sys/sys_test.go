package sys_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cfsos/config"
	"cfsos/defs"
	"cfsos/isa"
	"cfsos/kernel"
	"cfsos/proc"
	"cfsos/user"
)

type Tstate struct {
	*kernel.Kernel
	T *testing.T
}

// newTstate boots an init that forks two sleeping children and then
// sleeps itself.
func newTstate(t *testing.T) *Tstate {
	pr := user.NewProg()
	child := pr.Gensym("child")
	for i := 0; i < 2; i++ {
		pr.Syscall(defs.SYS_FORK)
		pr.Beqz(isa.A0, child)
	}
	pr.Li(isa.A0, 1000000)
	pr.Syscall(defs.SYS_SLEEP)
	pr.Reap()
	pr.Label(child)
	pr.Li(isa.A0, 1000000)
	pr.Syscall(defs.SYS_SLEEP)
	pr.Exit(0)
	code, err := pr.Image()
	assert.Nil(t, err)

	k, err := kernel.NewKernel(config.NewTestConfig(1))
	assert.Nil(t, err)
	assert.Nil(t, k.Boot(code))
	ts := &Tstate{Kernel: k, T: t}
	assert.Eventually(t, func() bool {
		n := 0
		for _, pi := range k.Table().Procdump() {
			if pi.State == proc.SLEEPING {
				n++
			}
		}
		return n == 3
	}, 10*time.Second, time.Millisecond)
	return ts
}

func (ts *Tstate) shutdown() {
	assert.Nil(ts.T, ts.Shutdown())
}

func TestGetppid(t *testing.T) {
	ts := newTstate(t)
	_, err := ts.Sys().Getppid(ts.Table().Lookup(1))
	assert.NotNil(t, err)
	for _, pid := range []int{2, 3} {
		ppid, err := ts.Sys().Getppid(ts.Table().Lookup(pid))
		assert.Nil(t, err)
		assert.Equal(t, 1, ppid)
	}
	ts.shutdown()
}

func TestGetcpids(t *testing.T) {
	ts := newTstate(t)
	p := ts.Table().Lookup(1)
	n, err := ts.Sys().Getcpids(p, defs.SCRATCH)
	assert.Nil(t, err)
	assert.Equal(t, 2, n)
	b := make([]byte, 16)
	assert.Nil(t, p.Copyin(b, defs.SCRATCH))
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(b[0:]))
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(b[8:]))

	_, err = ts.Sys().Getcpids(p, 1<<30)
	assert.NotNil(t, err)

	// a child has no children
	n, err = ts.Sys().Getcpids(ts.Table().Lookup(2), defs.SCRATCH)
	assert.Nil(t, err)
	assert.Equal(t, 0, n)
	ts.shutdown()
}

func TestNice(t *testing.T) {
	ts := newTstate(t)
	p := ts.Table().Lookup(2)
	assert.Equal(t, defs.NICE_DEFAULT, ts.Sys().Nice(p, 20))
	assert.Equal(t, defs.NICE_MIN, ts.Sys().Nice(p, defs.NICE_MIN))
	assert.Equal(t, defs.NICE_MIN, ts.Sys().Nice(p, defs.NICE_MIN-1))
	assert.Equal(t, defs.NICE_MAX, ts.Sys().Nice(p, defs.NICE_MAX))
	// other processes are unaffected
	assert.Equal(t, defs.NICE_DEFAULT, ts.Table().Lookup(3).Nice())
	ts.shutdown()
}

func TestFairSwitch(t *testing.T) {
	ts := newTstate(t)
	assert.False(t, ts.Sched().Enabled())
	ts.Sys().StartFair()
	assert.True(t, ts.Sched().Enabled())
	assert.Equal(t, "cfs", ts.Sched().Policy().Name())
	ts.Sys().StopFair()
	assert.False(t, ts.Sched().Enabled())
	assert.Equal(t, "rr", ts.Sched().Policy().Name())
	ts.shutdown()
}

func TestYieldCount(t *testing.T) {
	ts := newTstate(t)
	p := ts.Table().Lookup(1)
	// init has slept at least once
	assert.True(t, ts.Sys().Getyieldcount(p) >= 1)
	ts.shutdown()
}
