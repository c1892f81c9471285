package sys

import (
	"encoding/binary"

	"cfsos/proc"
)

// Getppid returns the pid of p's parent.
func (sys *Sys) Getppid(p *proc.Proc) (int, error) {
	return sys.t.Parent(p)
}

// Getcpids copies the pids of p's children, as 8-byte integers, to addr
// and returns how many there are.
func (sys *Sys) Getcpids(p *proc.Proc, addr uint64) (int, error) {
	pids, err := sys.t.Children(p)
	if err != nil {
		return -1, err
	}
	b := make([]byte, 8*len(pids))
	for i, pid := range pids {
		binary.LittleEndian.PutUint64(b[8*i:], uint64(int64(pid)))
	}
	if len(b) > 0 {
		if err := p.Copyout(addr, b); err != nil {
			return -1, err
		}
	}
	return len(pids), nil
}

func (sys *Sys) Getyieldcount(p *proc.Proc) uint64 {
	return p.Yields()
}

// Nice sets p's niceness to n if n is in range, and returns the
// niceness.
func (sys *Sys) Nice(p *proc.Proc, n int) int {
	return p.SetNice(n)
}

func (sys *Sys) StartFair() {
	sys.s.Enable()
}

func (sys *Sys) StopFair() {
	sys.s.Disable()
}

func (sys *Sys) getppid(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	ppid, err := sys.Getppid(p)
	return int64(ppid), err
}

func (sys *Sys) getcpids(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	n, err := sys.Getcpids(p, uint64(a0))
	return int64(n), err
}

func (sys *Sys) getyieldcount(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	return int64(sys.Getyieldcount(p)), nil
}

func (sys *Sys) nice(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	return int64(sys.Nice(p, int(a0))), nil
}

func (sys *Sys) startcfs(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	sys.StartFair()
	return 1, nil
}

func (sys *Sys) stopcfs(p *proc.Proc, a0, a1, a2 int64) (int64, error) {
	sys.StopFair()
	return 1, nil
}
