package vm

import (
	"fmt"
)

const NREG = 16

// Trapframe is a process's saved user registers. It occupies one page of
// physical memory and is mapped into the process's address space just
// below the trampoline.
type Trapframe struct {
	Epc  uint64 // user program counter
	Regs [NREG]int64
	pg   []byte
}

func (tf *Trapframe) String() string {
	return fmt.Sprintf("{epc %#x regs %v}", tf.Epc, tf.Regs)
}

// Copy the saved registers of src into tf, keeping tf's own backing page.
func (tf *Trapframe) CopyFrom(src *Trapframe) {
	tf.Epc = src.Epc
	tf.Regs = src.Regs
}

func (m *Mem) AllocTrapframe() (*Trapframe, error) {
	pg, err := m.Kalloc()
	if err != nil {
		return nil, err
	}
	return &Trapframe{pg: pg}, nil
}

func (m *Mem) FreeTrapframe(tf *Trapframe) {
	m.Kfree(tf.pg)
	tf.pg = nil
}
