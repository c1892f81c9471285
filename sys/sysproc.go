package sys

import (
	"cfsos/proc"
	"cfsos/serr"
)

func (sys *Sys) fork(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	pid, err := sys.t.Fork(p)
	return int64(pid), err
}

func (sys *Sys) exit(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	sys.t.Exit(p, int(a0))
	return 0, nil // not reached
}

func (sys *Sys) wait(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	pid, err := sys.t.Wait(p, uint64(a0))
	return int64(pid), err
}

func (sys *Sys) kill(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	return 0, sys.t.Kill(int(a0))
}

func (sys *Sys) getpid(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	return int64(p.Pid()), nil
}

func (sys *Sys) sbrk(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	sz, err := sys.t.Growproc(p, a0)
	return int64(sz), err
}

func (sys *Sys) sleep(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	if a0 < 0 {
		a0 = 0
	}
	return 0, sys.clock.Sleep(p, uint64(a0))
}

func (sys *Sys) uptime(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	return int64(sys.clock.Ticks()), nil
}

func (sys *Sys) yield(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	sys.t.Yield(p)
	return 0, nil
}

func (sys *Sys) write(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	f := p.Ofile(int(a0))
	if f == nil {
		return -1, serr.NewErr(serr.TErrBadfd, a0)
	}
	if a2 < 0 {
		return -1, serr.NewErr(serr.TErrInval, a2)
	}
	b := make([]byte, a2)
	if err := p.Copyin(b, uint64(a1)); err != nil {
		return -1, err
	}
	n, err := sys.fs.Filewrite(f, p.Pid(), b)
	return int64(n), err
}

func (sys *Sys) dup(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	f := p.Ofile(int(a0))
	if f == nil {
		return -1, serr.NewErr(serr.TErrBadfd, a0)
	}
	fd := p.Fdalloc(f)
	if fd < 0 {
		return -1, serr.NewErr(serr.TErrBadfd, "no free fd")
	}
	sys.fs.Filedup(f)
	return int64(fd), nil
}

func (sys *Sys) close(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	f := p.Fdclose(int(a0))
	if f == nil {
		return -1, serr.NewErr(serr.TErrBadfd, a0)
	}
	sys.fs.Fileclose(f)
	return 0, nil
}
