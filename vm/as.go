package vm

import (
	"fmt"

	db "cfsos/debug"
	"cfsos/defs"
	"cfsos/serr"
	"cfsos/util/crash"
)

const (
	MAXVA      = uint64(1) << 38
	TRAMPOLINE = MAXVA - defs.PGSIZE
	TRAPFRAME  = TRAMPOLINE - defs.PGSIZE
)

func pgroundup(sz uint64) uint64 {
	return (sz + defs.PGSIZE - 1) &^ (defs.PGSIZE - 1)
}

func pgrounddown(a uint64) uint64 {
	return a &^ (defs.PGSIZE - 1)
}

// AddrSpace is a user address space: user pages [0, sz) plus the
// special pages mapped at the top.
type AddrSpace struct {
	root    []byte // page-table page
	pages   map[uint64][]byte
	special map[uint64]bool
	sz      uint64
	tf      *Trapframe
}

func (as *AddrSpace) String() string {
	return fmt.Sprintf("{sz %#x npages %d}", as.sz, len(as.pages))
}

func (as *AddrSpace) Size() uint64 {
	return as.sz
}

func (as *AddrSpace) Trapframe() *Trapframe {
	return as.tf
}

func (as *AddrSpace) mapped(va uint64) bool {
	return as.special[pgrounddown(va)]
}

// Pagetable creates an empty user address space with the trampoline and
// tf mapped.
func (m *Mem) Pagetable(tf *Trapframe) (*AddrSpace, error) {
	root, err := m.Kalloc()
	if err != nil {
		return nil, err
	}
	as := &AddrSpace{
		root:    root,
		pages:   make(map[uint64][]byte),
		special: make(map[uint64]bool),
		tf:      tf,
	}
	as.special[TRAMPOLINE] = true
	as.special[TRAPFRAME] = true
	return as, nil
}

// FreePagetable unmaps the special pages and frees the user memory and
// the page-table page.
func (m *Mem) FreePagetable(as *AddrSpace) {
	delete(as.special, TRAMPOLINE)
	delete(as.special, TRAPFRAME)
	m.uvmunmap(as, 0, as.sz)
	as.sz = 0
	as.tf = nil
	m.Kfree(as.root)
	as.root = nil
}

func (m *Mem) uvmunmap(as *AddrSpace, va, sz uint64) {
	for a := pgrounddown(va); a < pgroundup(sz); a += defs.PGSIZE {
		if pg, ok := as.pages[a]; ok {
			m.Kfree(pg)
			delete(as.pages, a)
		}
	}
}

// Uvmfirst loads code into address 0 of a fresh address space.
func (m *Mem) Uvmfirst(as *AddrSpace, code []byte) error {
	if len(code) > defs.PGSIZE {
		return serr.NewErr(serr.TErrInval, "uvmfirst: more than a page")
	}
	pg, err := m.Kalloc()
	if err != nil {
		return err
	}
	copy(pg, code)
	as.pages[0] = pg
	as.sz = defs.PGSIZE
	return nil
}

// Uvmalloc grows as from oldsz to newsz. On failure the pages allocated
// so far are released and the size is unchanged.
func (m *Mem) Uvmalloc(as *AddrSpace, oldsz, newsz uint64) (uint64, error) {
	if newsz < oldsz {
		return oldsz, nil
	}
	if newsz > TRAPFRAME {
		return oldsz, serr.NewErr(serr.TErrNomem, "uvmalloc: too large")
	}
	for a := pgroundup(oldsz); a < newsz; a += defs.PGSIZE {
		pg, err := m.Kalloc()
		if err != nil {
			m.uvmunmap(as, pgroundup(oldsz), a)
			return oldsz, err
		}
		as.pages[a] = pg
	}
	as.sz = newsz
	return newsz, nil
}

// Uvmdealloc shrinks as from oldsz to newsz.
func (m *Mem) Uvmdealloc(as *AddrSpace, oldsz, newsz uint64) uint64 {
	if newsz >= oldsz {
		return oldsz
	}
	if pgroundup(newsz) < pgroundup(oldsz) {
		for a := pgroundup(newsz); a < pgroundup(oldsz); a += defs.PGSIZE {
			if pg, ok := as.pages[a]; ok {
				m.Kfree(pg)
				delete(as.pages, a)
			}
		}
	}
	as.sz = newsz
	return newsz
}

// Uvmcopy copies old's user memory into new. On failure new's partial
// copy is freed.
func (m *Mem) Uvmcopy(old, new *AddrSpace) error {
	if crash.Fail(crash.VM_UVMCOPY) {
		return serr.NewErr(serr.TErrNomem, "uvmcopy (injected)")
	}
	for a := uint64(0); a < old.sz; a += defs.PGSIZE {
		pg, ok := old.pages[a]
		if !ok {
			db.DFatalf("uvmcopy: page %#x not present", a)
		}
		npg, err := m.Kalloc()
		if err != nil {
			m.uvmunmap(new, 0, a)
			return err
		}
		copy(npg, pg)
		new.pages[a] = npg
	}
	new.sz = old.sz
	return nil
}

func (as *AddrSpace) check(va uint64, n int) error {
	if n < 0 || va >= as.sz || uint64(n) > as.sz-va || as.mapped(va) {
		return serr.NewErr(serr.TErrFault, fmt.Sprintf("va %#x n %d sz %#x", va, n, as.sz))
	}
	return nil
}

// Copyout copies src to virtual address dstva in as.
func (m *Mem) Copyout(as *AddrSpace, dstva uint64, src []byte) error {
	if err := as.check(dstva, len(src)); err != nil {
		return err
	}
	for len(src) > 0 {
		va0 := pgrounddown(dstva)
		pg := as.pages[va0]
		n := copy(pg[dstva-va0:], src)
		src = src[n:]
		dstva = va0 + defs.PGSIZE
	}
	return nil
}

// Copyin copies len(dst) bytes from virtual address srcva in as.
func (m *Mem) Copyin(as *AddrSpace, dst []byte, srcva uint64) error {
	if err := as.check(srcva, len(dst)); err != nil {
		return err
	}
	for len(dst) > 0 {
		va0 := pgrounddown(srcva)
		pg := as.pages[va0]
		n := copy(dst, pg[srcva-va0:])
		dst = dst[n:]
		srcva = va0 + defs.PGSIZE
	}
	return nil
}
