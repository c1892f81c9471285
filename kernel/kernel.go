// Package kernel builds a machine from a Config, boots the first user
// process, and runs the clock and one scheduler per CPU until shutdown.
package kernel

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"cfsos/config"
	db "cfsos/debug"
	"cfsos/fs"
	"cfsos/proc"
	"cfsos/sched"
	"cfsos/serr"
	"cfsos/spinlock"
	"cfsos/stats"
	"cfsos/sys"
	"cfsos/trap"
	"cfsos/util/crash"
	"cfsos/vm"
)

type Kernel struct {
	sync.Mutex
	cfg   *config.Config
	st    *stats.StatInfo
	mem   *vm.Mem
	fs    *fs.Fs
	cons  *fs.Console
	t     *proc.Table
	sched *sched.Scheduler
	clock *trap.Clock
	trap  *trap.Trap
	sys   *sys.Sys
	cpus  []*proc.Cpu

	cancel       context.CancelFunc
	g            *errgroup.Group
	booted       bool
	shuttingDown bool
}

func NewKernel(cfg *config.Config) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	spinlock.Configure(cfg.Deadlock, cfg.DeadlockTimeout)
	if cfg.Debug != "" {
		db.SetDebug(cfg.Debug)
	}
	if cfg.Fail != "" {
		if err := crash.SetEventsString(cfg.Fail); err != nil {
			return nil, err
		}
	}
	db.DPrintf(db.KERNEL, "NewKernel %v", cfg)

	k := &Kernel{cfg: cfg, st: stats.NewStatInfo()}
	k.mem = vm.NewMem(cfg.Npages)
	k.fs = fs.NewFs()
	k.cons = fs.NewConsole()
	k.t = proc.NewTable(cfg.Nproc, cfg.Nofile, k.mem, k.fs, k.st)
	k.sched = sched.NewScheduler(k.t, int(cfg.SchedLatency), int(cfg.MinTimeslice), int(cfg.MaxTimeslice), cfg.Idle)
	k.clock = trap.NewClock(k.t, cfg.Tick)
	k.sys = sys.NewSys(k.t, k.sched, k.clock, k.fs)
	k.trap = trap.NewTrap(k.t, k.sys, cfg.Quantum)
	k.t.SetTrap(k.trap)
	for i := 0; i < cfg.Ncpu; i++ {
		k.cpus = append(k.cpus, k.t.NewCpu(i))
	}
	return k, nil
}

// Boot runs code as the init process and starts the machine.
func (k *Kernel) Boot(code []byte) error {
	k.Lock()
	defer k.Unlock()

	if k.booted {
		return serr.NewErr(serr.TErrInval, "already booted")
	}
	if err := k.t.Mapstacks(); err != nil {
		return err
	}
	if err := k.t.Userinit(code, k.fs.Filealloc(k.cons)); err != nil {
		return err
	}
	if k.cfg.Policy == config.POLICY_CFS {
		k.sched.Enable()
	}
	ctx, cancel := context.WithCancel(context.Background())
	k.cancel = cancel
	k.g, ctx = errgroup.WithContext(ctx)
	k.g.Go(func() error {
		return k.clock.Run(ctx)
	})
	k.g.Go(func() error {
		return k.sched.Run(ctx, k.cpus)
	})
	k.booted = true
	db.DPrintf(db.KERNEL, "booted %d cpus policy %v", len(k.cpus), k.sched.Policy().Name())
	return nil
}

// Shutdown stops the CPUs and the clock and then every process.
func (k *Kernel) Shutdown() error {
	k.Lock()
	defer k.Unlock()

	if !k.booted || k.shuttingDown {
		return nil
	}
	k.shuttingDown = true
	db.DPrintf(db.KERNEL, "Shutdown")
	k.cancel()
	err := k.g.Wait()
	k.t.Shutdown()
	db.DPrintf(db.KERNEL, "Shutdown done %v", k.st)
	return err
}

func (k *Kernel) Config() *config.Config {
	return k.cfg
}

func (k *Kernel) Table() *proc.Table {
	return k.t
}

func (k *Kernel) Sched() *sched.Scheduler {
	return k.sched
}

func (k *Kernel) Sys() *sys.Sys {
	return k.sys
}

func (k *Kernel) Clock() *trap.Clock {
	return k.clock
}

func (k *Kernel) Console() *fs.Console {
	return k.cons
}

func (k *Kernel) Mem() *vm.Mem {
	return k.mem
}

func (k *Kernel) Fs() *fs.Fs {
	return k.fs
}

func (k *Kernel) Stats() *stats.StatInfo {
	return k.st
}

func (k *Kernel) Cpus() []*proc.Cpu {
	return k.cpus
}
