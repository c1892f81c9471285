package proc

import (
	"fmt"
	"strings"

	db "cfsos/debug"
)

type ProcInfo struct {
	Slot     int
	Pid      int
	Ppid     int
	State    Tstate
	Name     string
	Nice     int
	Vruntime int64
	Yields   uint64
	Killed   bool
}

func (pi ProcInfo) String() string {
	k := ""
	if pi.Killed {
		k = " killed"
	}
	return fmt.Sprintf("%d %d %d %v %s nice %d vrt %d yields %d%s", pi.Slot, pi.Pid, pi.Ppid, pi.State, pi.Name, pi.Nice, pi.Vruntime, pi.Yields, k)
}

// Procdump returns a snapshot of every slot in use.
func (t *Table) Procdump() []ProcInfo {
	t.waitLock.Lock()
	defer t.waitLock.Unlock()

	pis := make([]ProcInfo, 0)
	for _, p := range t.procs {
		p.lock.Lock()
		if p.State() != UNUSED {
			pi := ProcInfo{
				Slot:     p.slot,
				Pid:      p.Pid(),
				Ppid:     -1,
				State:    p.State(),
				Name:     p.name,
				Nice:     p.Nice(),
				Vruntime: p.Vruntime(),
				Yields:   p.Yields(),
				Killed:   p.killed,
			}
			if p.parent != NOPARENT {
				pi.Ppid = t.procs[p.parent].Pid()
			}
			pis = append(pis, pi)
		}
		p.lock.Unlock()
	}
	return pis
}

func ProcdumpString(pis []ProcInfo) string {
	var sb strings.Builder
	for _, pi := range pis {
		sb.WriteString(pi.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// LogProcdump writes the table under the PROC selector.
func (t *Table) LogProcdump() {
	if db.WillBePrinted(db.PROC) {
		db.DPrintf(db.PROC, "procdump:\n%v", ProcdumpString(t.Procdump()))
	}
}
