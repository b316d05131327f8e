// Package insts provides RV32IM instruction definitions and decoding.
//
// This package implements decoding of RV32IM machine code into structured
// instruction representations. It supports:
//   - RV32I register-register and register-immediate ALU instructions
//   - RV32M multiply/divide extension
//   - Loads and stores (byte, half, word, with signed/unsigned variants)
//   - Branches, JAL/JALR, LUI/AUIPC, ECALL/EBREAK
//
// Usage:
//
//	d := insts.NewDecoder()
//	inst := d.Decode(0x00a50533, 0x1000) // add a0, a0, a0
//	fmt.Printf("Kind: %v, Rd: %d, Rs1: %d, Rs2: %d\n", inst.Kind, inst.Rd, inst.Rs1, inst.Rs2)
package insts

// Kind represents a decoded RISC-V RV32IM instruction mnemonic.
type Kind uint16

// RV32IM instruction kinds.
const (
	KindUnknown Kind = iota

	// RV32I register-register (R format).
	KindADD
	KindSUB
	KindSLL
	KindSLT
	KindSLTU
	KindXOR
	KindSRL
	KindSRA
	KindOR
	KindAND

	// RV32M register-register (R format, funct7 = 0x01).
	KindMUL
	KindMULH
	KindMULHSU
	KindMULHU
	KindDIV
	KindDIVU
	KindREM
	KindREMU

	// RV32I register-immediate (I format).
	KindADDI
	KindSLTI
	KindSLTIU
	KindXORI
	KindORI
	KindANDI
	KindSLLI
	KindSRLI
	KindSRAI

	// Loads (I format).
	KindLB
	KindLH
	KindLW
	KindLBU
	KindLHU

	// Stores (S format).
	KindSB
	KindSH
	KindSW

	// Branches (B format).
	KindBEQ
	KindBNE
	KindBLT
	KindBGE
	KindBLTU
	KindBGEU

	// Jumps.
	KindJAL  // J format
	KindJALR // I format

	// Upper-immediate (U format).
	KindLUI
	KindAUIPC

	// System.
	KindECALL
	KindEBREAK
)

// String returns the canonical lower-case mnemonic for k.
func (k Kind) String() string {
	switch k {
	case KindADD:
		return "add"
	case KindSUB:
		return "sub"
	case KindSLL:
		return "sll"
	case KindSLT:
		return "slt"
	case KindSLTU:
		return "sltu"
	case KindXOR:
		return "xor"
	case KindSRL:
		return "srl"
	case KindSRA:
		return "sra"
	case KindOR:
		return "or"
	case KindAND:
		return "and"
	case KindMUL:
		return "mul"
	case KindMULH:
		return "mulh"
	case KindMULHSU:
		return "mulhsu"
	case KindMULHU:
		return "mulhu"
	case KindDIV:
		return "div"
	case KindDIVU:
		return "divu"
	case KindREM:
		return "rem"
	case KindREMU:
		return "remu"
	case KindADDI:
		return "addi"
	case KindSLTI:
		return "slti"
	case KindSLTIU:
		return "sltiu"
	case KindXORI:
		return "xori"
	case KindORI:
		return "ori"
	case KindANDI:
		return "andi"
	case KindSLLI:
		return "slli"
	case KindSRLI:
		return "srli"
	case KindSRAI:
		return "srai"
	case KindLB:
		return "lb"
	case KindLH:
		return "lh"
	case KindLW:
		return "lw"
	case KindLBU:
		return "lbu"
	case KindLHU:
		return "lhu"
	case KindSB:
		return "sb"
	case KindSH:
		return "sh"
	case KindSW:
		return "sw"
	case KindBEQ:
		return "beq"
	case KindBNE:
		return "bne"
	case KindBLT:
		return "blt"
	case KindBGE:
		return "bge"
	case KindBLTU:
		return "bltu"
	case KindBGEU:
		return "bgeu"
	case KindJAL:
		return "jal"
	case KindJALR:
		return "jalr"
	case KindLUI:
		return "lui"
	case KindAUIPC:
		return "auipc"
	case KindECALL:
		return "ecall"
	case KindEBREAK:
		return "ebreak"
	default:
		return "unknown"
	}
}

// Format represents one of the six RV32I instruction encoding formats.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

// ALUOp represents an operation the ALU can be asked to perform.
type ALUOp uint8

// ALU operations.
const (
	AluNone ALUOp = iota
	AluADD
	AluSUB
	AluSLL
	AluSRL
	AluSRA
	AluSLT
	AluSLTU
	AluXOR
	AluOR
	AluAND
	AluMUL
	AluMULH
	AluMULHSU
	AluMULHU
	AluDIV
	AluDIVU
	AluREM
	AluREMU
	// AluPassB passes the B operand through unchanged; used by LUI.
	AluPassB
)

// Instruction is the uniform decoded form produced by Decode and consumed
// by both the single-cycle and pipeline engines. Rd/Rs1/Rs2 hold register
// indices 0-31; Imm holds a sign-extended 32-bit immediate, except for
// shift-immediates where it holds the non-negative shift amount.
type Instruction struct {
	Raw    uint32 // the 32-bit instruction word as fetched
	PC     uint32 // address the word was fetched from
	Kind   Kind
	Format Format

	Rd  uint8
	Rs1 uint8
	Rs2 uint8
	Imm int32

	ALUOp ALUOp

	// Control signals.
	RegWrite bool
	MemRead  bool
	MemWrite bool
	MemToReg bool
	Branch   bool
	Jump     bool
	AluSrc   bool

	Text string // human-readable disassembly
}

// IsNop reports whether raw decodes to the canonical NOP encoding
// (addi x0, x0, 0) or to an all-zero word.
func IsNop(raw uint32) bool {
	return raw == 0x00000013 || raw == 0
}
