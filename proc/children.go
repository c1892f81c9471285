package proc

import (
	"cfsos/defs"
	"cfsos/serr"
)

// Parent returns the pid of p's parent.
func (t *Table) Parent(p *Proc) (int, error) {
	if p == nil {
		return -1, serr.NewErr(serr.TErrNoproc, "getppid")
	}
	t.waitLock.Lock()
	defer t.waitLock.Unlock()
	if p.parent == NOPARENT {
		return -1, serr.NewErr(serr.TErrNoproc, "no parent")
	}
	return t.procs[p.parent].Pid(), nil
}

// Children returns the pids of p's children that have not been reaped,
// at most MAXCHILDREN of them.
func (t *Table) Children(p *Proc) ([]int, error) {
	if p == nil {
		return nil, serr.NewErr(serr.TErrNoproc, "getcpids")
	}
	t.waitLock.Lock()
	defer t.waitLock.Unlock()
	pids := make([]int, 0)
	for _, pp := range t.procs {
		if len(pids) >= defs.MAXCHILDREN {
			break
		}
		if pp.parent == p.slot {
			pids = append(pids, pp.Pid())
		}
	}
	return pids, nil
}
