// Package isa defines the user-mode instruction set: a fixed 8-byte
// encoding, an interpreter step, and an assembler.
package isa

import (
	"encoding/binary"
	"fmt"

	"cfsos/serr"
)

const INSTSZ = 8

type Top uint8

const (
	NOP  Top = iota
	LI       // rd = imm
	ADDI     // rd = rs + imm
	ADD      // rd = rd + rs
	SUB      // rd = rd - rs
	MV       // rd = rs
	LW       // rd = mem[rs + imm]
	SW       // mem[rd + imm] = rs
	BEQZ     // if rs == 0, pc += imm
	BNEZ
	BLTZ
	BGEZ
	J // pc += imm
	ECALL
	NOPS
)

var opnames = [...]string{"nop", "li", "addi", "add", "sub", "mv", "lw", "sw", "beqz", "bnez", "bltz", "bgez", "j", "ecall"}

func (op Top) String() string {
	if op < NOPS {
		return opnames[op]
	}
	return fmt.Sprintf("op%d", uint8(op))
}

type Treg uint8

const (
	ZERO Treg = iota
	SP
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	T0
	T1
	T2
	T3
	T4
	T5
	NREG
)

func (r Treg) String() string {
	switch {
	case r == ZERO:
		return "zero"
	case r == SP:
		return "sp"
	case r >= A0 && r <= A7:
		return fmt.Sprintf("a%d", r-A0)
	case r >= T0 && r <= T5:
		return fmt.Sprintf("t%d", r-T0)
	}
	return fmt.Sprintf("r%d", uint8(r))
}

type Inst struct {
	Op  Top
	Rd  Treg
	Rs  Treg
	Imm int32
}

func (in Inst) String() string {
	switch in.Op {
	case NOP, ECALL:
		return in.Op.String()
	case J:
		return fmt.Sprintf("j %d", in.Imm)
	case LI:
		return fmt.Sprintf("li %v, %d", in.Rd, in.Imm)
	case BEQZ, BNEZ, BLTZ, BGEZ:
		return fmt.Sprintf("%v %v, %d", in.Op, in.Rs, in.Imm)
	case LW:
		return fmt.Sprintf("lw %v, %d(%v)", in.Rd, in.Imm, in.Rs)
	case SW:
		return fmt.Sprintf("sw %v, %d(%v)", in.Rs, in.Imm, in.Rd)
	}
	return fmt.Sprintf("%v %v, %v, %d", in.Op, in.Rd, in.Rs, in.Imm)
}

func (in Inst) Encode(b []byte) {
	b[0] = byte(in.Op)
	b[1] = byte(in.Rd)
	b[2] = byte(in.Rs)
	b[3] = 0
	binary.LittleEndian.PutUint32(b[4:], uint32(in.Imm))
}

func Decode(b []byte) (Inst, error) {
	if len(b) < INSTSZ {
		return Inst{}, serr.NewErr(serr.TErrInval, "short instruction")
	}
	in := Inst{Op: Top(b[0]), Rd: Treg(b[1]), Rs: Treg(b[2]), Imm: int32(binary.LittleEndian.Uint32(b[4:]))}
	if in.Op >= NOPS || in.Rd >= NREG || in.Rs >= NREG {
		return in, serr.NewErr(serr.TErrInval, fmt.Sprintf("illegal instruction %v", b[:INSTSZ]))
	}
	return in, nil
}

// Memory is the user address space as seen by loads and stores.
type Memory interface {
	Load(va uint64) (int64, error)
	Store(va uint64, v int64) error
}

// Exec executes in, located at pc, against regs and m. It returns the
// next pc and whether in was an ECALL, which the caller must service.
func Exec(in Inst, pc uint64, regs *[NREG]int64, m Memory) (uint64, bool, error) {
	npc := pc + INSTSZ
	ecall := false
	rd, rs := &regs[in.Rd], regs[in.Rs]
	switch in.Op {
	case NOP:
	case LI:
		*rd = int64(in.Imm)
	case ADDI:
		*rd = rs + int64(in.Imm)
	case ADD:
		*rd += rs
	case SUB:
		*rd -= rs
	case MV:
		*rd = rs
	case LW:
		v, err := m.Load(uint64(rs + int64(in.Imm)))
		if err != nil {
			return pc, false, err
		}
		*rd = v
	case SW:
		if err := m.Store(uint64(*rd+int64(in.Imm)), rs); err != nil {
			return pc, false, err
		}
	case BEQZ, BNEZ, BLTZ, BGEZ:
		if (in.Op == BEQZ && rs == 0) || (in.Op == BNEZ && rs != 0) ||
			(in.Op == BLTZ && rs < 0) || (in.Op == BGEZ && rs >= 0) {
			npc = uint64(int64(pc) + int64(in.Imm))
		}
	case J:
		npc = uint64(int64(pc) + int64(in.Imm))
	case ECALL:
		ecall = true
	default:
		return pc, false, serr.NewErr(serr.TErrInval, in.Op.String())
	}
	regs[ZERO] = 0
	return npc, ecall, nil
}
