package proc

import (
	"runtime"
	"sync"

	db "cfsos/debug"
)

// Context is the saved kernel execution context of a process. Each
// process runs on its own goroutine; switching to it sends on resume,
// and the process switches back by sending on its CPU's sched channel.
type Context struct {
	resume chan struct{}
	dead   chan struct{}
	once   sync.Once
	p      *Proc
}

func newContext(p *Proc) *Context {
	return &Context{resume: make(chan struct{}, 1), dead: make(chan struct{}), p: p}
}

// start creates the process's goroutine on its first dispatch.
func (ctx *Context) start() {
	ctx.once.Do(func() {
		t := ctx.p.t
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			select {
			case <-ctx.resume:
			case <-ctx.dead:
				return
			case <-t.done:
				return
			}
			forkret(ctx.p)
		}()
	})
}

// wait blocks the process's goroutine until a CPU switches back to it.
// A freed process or a stopped table ends the goroutine with Goexit, so
// code that may reach sched must not defer the release of a kernel lock.
func (ctx *Context) wait(t *Table) {
	select {
	case <-ctx.resume:
	case <-ctx.dead:
		runtime.Goexit()
	case <-t.done:
		runtime.Goexit()
	}
}

func (ctx *Context) free() {
	close(ctx.dead)
}

// A fork child's very first scheduling by the scheduler will swtch to
// forkret.
func forkret(p *Proc) {
	// Still holding p.lock from the scheduler.
	p.lock.Unlock()
	p.t.trap.Usertrapret(p)
	db.DFatalf("usertrapret returned for %v", p)
}
