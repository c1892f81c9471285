package vm

import (
	"sync"

	db "cfsos/debug"
	"cfsos/defs"
	"cfsos/serr"
	"cfsos/util/crash"
)

// Mem is the machine's physical memory: a fixed budget of pages.
type Mem struct {
	sync.Mutex
	npages int
	nfree  int
	free   [][]byte
}

func NewMem(npages int) *Mem {
	return &Mem{npages: npages, nfree: npages, free: make([][]byte, 0)}
}

// Kalloc returns a zeroed page, or an error if memory is exhausted.
func (m *Mem) Kalloc() ([]byte, error) {
	if crash.Fail(crash.VM_KALLOC) {
		return nil, serr.NewErr(serr.TErrNomem, "kalloc (injected)")
	}
	m.Lock()
	defer m.Unlock()

	if m.nfree == 0 {
		db.DPrintf(db.VM, "kalloc: out of memory")
		return nil, serr.NewErr(serr.TErrNomem, "kalloc")
	}
	m.nfree -= 1
	if n := len(m.free); n > 0 {
		pg := m.free[n-1]
		m.free = m.free[:n-1]
		clear(pg)
		return pg, nil
	}
	return make([]byte, defs.PGSIZE), nil
}

func (m *Mem) Kfree(pg []byte) {
	if len(pg) != defs.PGSIZE {
		db.DFatalf("kfree: bad page len %d", len(pg))
	}
	m.Lock()
	defer m.Unlock()

	if m.nfree >= m.npages {
		db.DFatalf("kfree: more frees than allocs")
	}
	m.nfree += 1
	m.free = append(m.free, pg)
}

func (m *Mem) Nfree() int {
	m.Lock()
	defer m.Unlock()
	return m.nfree
}

func (m *Mem) Npages() int {
	return m.npages
}
