package isa

import (
	"fmt"

	"cfsos/serr"
)

type fixup struct {
	pc    int
	label string
}

// Asm assembles a program one instruction at a time. Branch targets are
// labels, resolved by Assemble.
type Asm struct {
	insts  []Inst
	labels map[string]int
	fixups []fixup
}

func NewAsm() *Asm {
	return &Asm{insts: make([]Inst, 0), labels: make(map[string]int), fixups: make([]fixup, 0)}
}

func (a *Asm) Emit(in Inst) *Asm {
	a.insts = append(a.insts, in)
	return a
}

func (a *Asm) Label(l string) *Asm {
	if _, ok := a.labels[l]; ok {
		panic(fmt.Sprintf("duplicate label %v", l))
	}
	a.labels[l] = len(a.insts)
	return a
}

func (a *Asm) branch(op Top, rs Treg, l string) *Asm {
	a.fixups = append(a.fixups, fixup{len(a.insts), l})
	return a.Emit(Inst{Op: op, Rs: rs})
}

func (a *Asm) Nop() *Asm                  { return a.Emit(Inst{Op: NOP}) }
func (a *Asm) Li(rd Treg, imm int32) *Asm { return a.Emit(Inst{Op: LI, Rd: rd, Imm: imm}) }
func (a *Asm) Addi(rd, rs Treg, imm int32) *Asm {
	return a.Emit(Inst{Op: ADDI, Rd: rd, Rs: rs, Imm: imm})
}
func (a *Asm) Add(rd, rs Treg) *Asm { return a.Emit(Inst{Op: ADD, Rd: rd, Rs: rs}) }
func (a *Asm) Sub(rd, rs Treg) *Asm { return a.Emit(Inst{Op: SUB, Rd: rd, Rs: rs}) }
func (a *Asm) Mv(rd, rs Treg) *Asm  { return a.Emit(Inst{Op: MV, Rd: rd, Rs: rs}) }
func (a *Asm) Lw(rd Treg, off int32, rs Treg) *Asm {
	return a.Emit(Inst{Op: LW, Rd: rd, Rs: rs, Imm: off})
}
func (a *Asm) Sw(rs Treg, off int32, rd Treg) *Asm {
	return a.Emit(Inst{Op: SW, Rd: rd, Rs: rs, Imm: off})
}
func (a *Asm) Beqz(rs Treg, l string) *Asm { return a.branch(BEQZ, rs, l) }
func (a *Asm) Bnez(rs Treg, l string) *Asm { return a.branch(BNEZ, rs, l) }
func (a *Asm) Bltz(rs Treg, l string) *Asm { return a.branch(BLTZ, rs, l) }
func (a *Asm) Bgez(rs Treg, l string) *Asm { return a.branch(BGEZ, rs, l) }
func (a *Asm) J(l string) *Asm             { return a.branch(J, ZERO, l) }
func (a *Asm) Ecall() *Asm                 { return a.Emit(Inst{Op: ECALL}) }

func (a *Asm) Len() int {
	return len(a.insts) * INSTSZ
}

// Assemble resolves labels and returns the encoded program.
func (a *Asm) Assemble() ([]byte, error) {
	for _, f := range a.fixups {
		t, ok := a.labels[f.label]
		if !ok {
			return nil, serr.NewErr(serr.TErrNotfound, "label "+f.label)
		}
		a.insts[f.pc].Imm = int32((t - f.pc) * INSTSZ)
	}
	b := make([]byte, len(a.insts)*INSTSZ)
	for i, in := range a.insts {
		in.Encode(b[i*INSTSZ:])
	}
	return b, nil
}

// Disassemble decodes b for debugging output.
func Disassemble(b []byte) []string {
	ss := make([]string, 0, len(b)/INSTSZ)
	for pc := 0; pc+INSTSZ <= len(b); pc += INSTSZ {
		in, err := Decode(b[pc:])
		if err != nil {
			ss = append(ss, fmt.Sprintf("%4d: %v", pc, err))
			continue
		}
		ss = append(ss, fmt.Sprintf("%4d: %v", pc, in))
	}
	return ss
}
