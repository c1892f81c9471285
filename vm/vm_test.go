package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cfsos/defs"
	"cfsos/serr"
	"cfsos/util/crash"
	"cfsos/vm"
)

func newAS(t *testing.T, m *vm.Mem) *vm.AddrSpace {
	tf, err := m.AllocTrapframe()
	assert.Nil(t, err)
	as, err := m.Pagetable(tf)
	assert.Nil(t, err)
	return as
}

func TestKalloc(t *testing.T) {
	m := vm.NewMem(2)
	pg0, err := m.Kalloc()
	assert.Nil(t, err)
	pg0[0] = 7
	_, err = m.Kalloc()
	assert.Nil(t, err)
	_, err = m.Kalloc()
	assert.True(t, serr.IsErrCode(err, serr.TErrNomem))
	m.Kfree(pg0)
	assert.Equal(t, 1, m.Nfree())
	pg, err := m.Kalloc()
	assert.Nil(t, err)
	assert.Equal(t, byte(0), pg[0], "page not zeroed")
}

func TestCopy(t *testing.T) {
	m := vm.NewMem(16)
	as := newAS(t, m)
	err := m.Uvmfirst(as, []byte{1, 2, 3})
	assert.Nil(t, err)
	sz, err := m.Uvmalloc(as, as.Size(), as.Size()+2*defs.PGSIZE)
	assert.Nil(t, err)
	assert.Equal(t, uint64(3*defs.PGSIZE), sz)

	// straddles a page boundary
	src := []byte("hello, world")
	va := uint64(2*defs.PGSIZE - 5)
	assert.Nil(t, m.Copyout(as, va, src))
	dst := make([]byte, len(src))
	assert.Nil(t, m.Copyin(as, dst, va))
	assert.Equal(t, src, dst)

	err = m.Copyout(as, sz-2, src)
	assert.True(t, serr.IsErrCode(err, serr.TErrFault))
	err = m.Copyin(as, dst, vm.TRAPFRAME)
	assert.True(t, serr.IsErrCode(err, serr.TErrFault))
}

func TestUvmcopy(t *testing.T) {
	m := vm.NewMem(16)
	old := newAS(t, m)
	assert.Nil(t, m.Uvmfirst(old, []byte{42}))
	_, err := m.Uvmalloc(old, old.Size(), 3*defs.PGSIZE)
	assert.Nil(t, err)

	new := newAS(t, m)
	assert.Nil(t, m.Uvmcopy(old, new))
	assert.Equal(t, old.Size(), new.Size())
	b := make([]byte, 1)
	assert.Nil(t, m.Copyin(new, b, 0))
	assert.Equal(t, byte(42), b[0])

	// the copy is independent
	assert.Nil(t, m.Copyout(new, 0, []byte{9}))
	assert.Nil(t, m.Copyin(old, b, 0))
	assert.Equal(t, byte(42), b[0])
}

func TestUvmcopyFail(t *testing.T) {
	m := vm.NewMem(8)
	old := newAS(t, m)
	assert.Nil(t, m.Uvmfirst(old, nil))
	_, err := m.Uvmalloc(old, old.Size(), 3*defs.PGSIZE)
	assert.Nil(t, err)
	new := newAS(t, m)
	free := m.Nfree()
	assert.Equal(t, 1, free)

	// needs three pages but only one is left
	err = m.Uvmcopy(old, new)
	assert.True(t, serr.IsErrCode(err, serr.TErrNomem))
	assert.Equal(t, free, m.Nfree())
	assert.Equal(t, uint64(0), new.Size())
}

func TestUvmcopyInjected(t *testing.T) {
	crash.SetEvents(crash.NewEvents(crash.NewEvent(crash.VM_UVMCOPY, 1.0)))
	defer crash.ClearEvents()

	m := vm.NewMem(8)
	old := newAS(t, m)
	assert.Nil(t, m.Uvmfirst(old, nil))
	new := newAS(t, m)
	err := m.Uvmcopy(old, new)
	assert.NotNil(t, err)
}

func TestFreePagetable(t *testing.T) {
	m := vm.NewMem(8)
	tf, err := m.AllocTrapframe()
	assert.Nil(t, err)
	as, err := m.Pagetable(tf)
	assert.Nil(t, err)
	assert.Nil(t, m.Uvmfirst(as, nil))
	_, err = m.Uvmalloc(as, as.Size(), 2*defs.PGSIZE+10)
	assert.Nil(t, err)
	assert.Equal(t, 8-5, m.Nfree())
	sz := m.Uvmdealloc(as, as.Size(), defs.PGSIZE)
	assert.Equal(t, uint64(defs.PGSIZE), sz)
	assert.Equal(t, 8-3, m.Nfree())
	m.FreePagetable(as)
	m.FreeTrapframe(tf)
	assert.Equal(t, 8, m.Nfree())
}

func TestUvmallocFail(t *testing.T) {
	m := vm.NewMem(4)
	as := newAS(t, m)
	assert.Nil(t, m.Uvmfirst(as, nil))
	// one page left, ask for two
	sz, err := m.Uvmalloc(as, as.Size(), 3*defs.PGSIZE)
	assert.NotNil(t, err)
	assert.Equal(t, uint64(defs.PGSIZE), sz)
	assert.Equal(t, 1, m.Nfree())
}
