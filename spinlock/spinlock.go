// Package spinlock provides the kernel's exclusive lock. Ownership may
// move between goroutines: the scheduler acquires a process's lock and
// the process releases it after the context switch, and vice versa.
package spinlock

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sasha-s/go-deadlock"

	db "cfsos/debug"
)

var (
	cfgMu      sync.Mutex
	configured bool
)

// Configure turns go-deadlock's lock-order and timeout detection on or
// off for every Spinlock. The options are process-wide and read by
// go-deadlock's watchdogs without synchronization, so only the first
// call takes effect; it must happen before any Spinlock is used.
// Configure reports whether this call applied its settings.
func Configure(detect bool, timeout time.Duration) bool {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if configured {
		if deadlock.Opts.Disable == detect || deadlock.Opts.DeadlockTimeout != timeout {
			db.DPrintf(db.KERNEL, "spinlock already configured; ignore detect %v timeout %v", detect, timeout)
		}
		return false
	}
	configured = true
	deadlock.Opts.Disable = !detect
	deadlock.Opts.DeadlockTimeout = timeout
	deadlock.Opts.OnPotentialDeadlock = func() {
		db.DFatalf("potential deadlock")
	}
	return true
}

func init() {
	deadlock.Opts.Disable = true
}

type owner struct {
	o any
}

// A Spinlock may be tagged with an owner, the CPU on whose behalf it is
// held, so hand-off points can check that the lock is held for them and
// not merely held.
type Spinlock struct {
	mu    deadlock.Mutex
	name  string
	held  atomic.Bool
	owner atomic.Value
}

func NewSpinlock(name string) *Spinlock {
	return &Spinlock{name: name}
}

func (lk *Spinlock) Init(name string) {
	lk.name = name
}

func (lk *Spinlock) Name() string {
	return lk.name
}

func (lk *Spinlock) Lock() {
	lk.mu.Lock()
	lk.owner.Store(owner{})
	lk.held.Store(true)
}

func (lk *Spinlock) Unlock() {
	if !lk.held.Load() {
		db.DFatalf("release %v", lk.name)
	}
	lk.owner.Store(owner{})
	lk.held.Store(false)
	lk.mu.Unlock()
}

// SetOwner tags the held lock with o. Locking clears the tag.
func (lk *Spinlock) SetOwner(o any) {
	if !lk.held.Load() {
		db.DFatalf("set owner of free %v", lk.name)
	}
	lk.owner.Store(owner{o})
}

// Holding reports whether the lock is held by anyone. Use HeldBy where
// the holder is known.
func (lk *Spinlock) Holding() bool {
	return lk.held.Load()
}

// HeldBy reports whether the lock is held and tagged with o.
func (lk *Spinlock) HeldBy(o any) bool {
	if !lk.held.Load() {
		return false
	}
	v, _ := lk.owner.Load().(owner)
	return v.o == o
}
