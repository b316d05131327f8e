package emu

import "github.com/rv32edu/rv32sim/insts"

// ALU is a pure RV32IM arithmetic/logic unit: it carries no state and
// closes over nothing. Execute and BranchTaken are ordinary functions kept
// as methods on a zero-size receiver to group them under one name.
type ALU struct{}

// NewALU creates an ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Execute performs op on operands a, b and returns the 32-bit result.
func (*ALU) Execute(op insts.ALUOp, a, b uint32) uint32 {
	switch op {
	case insts.AluADD:
		return a + b
	case insts.AluSUB:
		return a - b
	case insts.AluSLL:
		return a << (b & 0x1F)
	case insts.AluSRL:
		return a >> (b & 0x1F)
	case insts.AluSRA:
		return uint32(int32(a) >> (b & 0x1F))
	case insts.AluSLT:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case insts.AluSLTU:
		if a < b {
			return 1
		}
		return 0
	case insts.AluXOR:
		return a ^ b
	case insts.AluOR:
		return a | b
	case insts.AluAND:
		return a & b
	case insts.AluMUL:
		return uint32(int64(int32(a)) * int64(int32(b)))
	case insts.AluMULH:
		return uint32((int64(int32(a)) * int64(int32(b))) >> 32)
	case insts.AluMULHSU:
		return uint32((int64(int32(a)) * int64(uint64(b))) >> 32)
	case insts.AluMULHU:
		return uint32((uint64(a) * uint64(b)) >> 32)
	case insts.AluDIV:
		return aluDiv(a, b)
	case insts.AluDIVU:
		return aluDivU(a, b)
	case insts.AluREM:
		return aluRem(a, b)
	case insts.AluREMU:
		return aluRemU(a, b)
	case insts.AluPassB:
		return b
	default: // AluNone
		return 0
	}
}

func aluDiv(a, b uint32) uint32 {
	sa, sb := int32(a), int32(b)
	if sb == 0 {
		return 0xFFFFFFFF
	}
	if sa == -2147483648 && sb == -1 {
		return a
	}
	return uint32(sa / sb)
}

func aluDivU(a, b uint32) uint32 {
	if b == 0 {
		return 0xFFFFFFFF
	}
	return a / b
}

func aluRem(a, b uint32) uint32 {
	sa, sb := int32(a), int32(b)
	if sb == 0 {
		return a
	}
	if sa == -2147483648 && sb == -1 {
		return 0
	}
	return uint32(sa % sb)
}

func aluRemU(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

// BranchTaken evaluates a branch condition for kind against rs1, rs2.
func (*ALU) BranchTaken(kind insts.Kind, rs1, rs2 uint32) bool {
	switch kind {
	case insts.KindBEQ:
		return rs1 == rs2
	case insts.KindBNE:
		return rs1 != rs2
	case insts.KindBLT:
		return int32(rs1) < int32(rs2)
	case insts.KindBGE:
		return int32(rs1) >= int32(rs2)
	case insts.KindBLTU:
		return rs1 < rs2
	case insts.KindBGEU:
		return rs1 >= rs2
	default:
		return false
	}
}
