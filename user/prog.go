// Package user holds the user programs the kernel can boot, written
// with the isa assembler, and the macros they are built from.
package user

import (
	"fmt"

	"cfsos/defs"
	"cfsos/isa"
	"cfsos/serr"
)

// Register use by convention: A0-A2 and A7 carry system calls, T4 is
// the spin counter, and T5 is scratch for Print.
type Prog struct {
	*isa.Asm
	nsym int
}

func NewProg() *Prog {
	return &Prog{Asm: isa.NewAsm()}
}

// Gensym returns a fresh label.
func (pr *Prog) Gensym(s string) string {
	pr.nsym += 1
	return fmt.Sprintf("%s.%d", s, pr.nsym)
}

func (pr *Prog) Syscall(num int32) {
	pr.Li(isa.A7, num)
	pr.Ecall()
}

// Print writes the value of r to fd 1 as 8 little-endian bytes.
func (pr *Prog) Print(r isa.Treg) {
	pr.Li(isa.T5, defs.SCRATCH)
	pr.Sw(r, 0, isa.T5)
	pr.Li(isa.A0, 1)
	pr.Li(isa.A1, defs.SCRATCH)
	pr.Li(isa.A2, 8)
	pr.Syscall(defs.SYS_WRITE)
}

func (pr *Prog) Exit(status int32) {
	pr.Li(isa.A0, status)
	pr.Syscall(defs.SYS_EXIT)
}

// Spin burns n iterations of a two-instruction loop; n of 0 spins
// forever.
func (pr *Prog) Spin(n int32) {
	l := pr.Gensym("spin")
	if n == 0 {
		pr.Label(l)
		pr.J(l)
		return
	}
	pr.Li(isa.T4, n)
	pr.Label(l)
	pr.Addi(isa.T4, isa.T4, -1)
	pr.Bnez(isa.T4, l)
}

// Reap waits for children forever, sleeping a tick when there are
// none. It is the tail of every init program.
func (pr *Prog) Reap() {
	l := pr.Gensym("reap")
	pr.Label(l)
	pr.Li(isa.A0, 0)
	pr.Syscall(defs.SYS_WAIT)
	pr.Bgez(isa.A0, l)
	pr.Li(isa.A0, 1)
	pr.Syscall(defs.SYS_SLEEP)
	pr.J(l)
}

// Image assembles pr and checks that it fits in the text area.
func (pr *Prog) Image() ([]byte, error) {
	b, err := pr.Assemble()
	if err != nil {
		return nil, err
	}
	if len(b) > defs.TEXTMAX {
		return nil, serr.NewErr(serr.TErrInval, fmt.Sprintf("image too large: %d", len(b)))
	}
	return b, nil
}
