package asm

import (
	"fmt"

	"github.com/rv32edu/rv32sim/insts"
)

// fields describes the fixed opcode/funct3/funct7 bits for one instruction
// kind, the inverse of the decoder's opcode table.
type fields struct {
	opcode uint32
	funct3 uint32
	funct7 uint32
}

var kindFields = map[insts.Kind]fields{
	insts.KindADD:  {0b0110011, 0b000, 0b0000000},
	insts.KindSUB:  {0b0110011, 0b000, 0b0100000},
	insts.KindSLL:  {0b0110011, 0b001, 0b0000000},
	insts.KindSLT:  {0b0110011, 0b010, 0b0000000},
	insts.KindSLTU: {0b0110011, 0b011, 0b0000000},
	insts.KindXOR:  {0b0110011, 0b100, 0b0000000},
	insts.KindSRL:  {0b0110011, 0b101, 0b0000000},
	insts.KindSRA:  {0b0110011, 0b101, 0b0100000},
	insts.KindOR:   {0b0110011, 0b110, 0b0000000},
	insts.KindAND:  {0b0110011, 0b111, 0b0000000},

	insts.KindMUL:    {0b0110011, 0b000, 0b0000001},
	insts.KindMULH:   {0b0110011, 0b001, 0b0000001},
	insts.KindMULHSU: {0b0110011, 0b010, 0b0000001},
	insts.KindMULHU:  {0b0110011, 0b011, 0b0000001},
	insts.KindDIV:    {0b0110011, 0b100, 0b0000001},
	insts.KindDIVU:   {0b0110011, 0b101, 0b0000001},
	insts.KindREM:    {0b0110011, 0b110, 0b0000001},
	insts.KindREMU:   {0b0110011, 0b111, 0b0000001},

	insts.KindADDI:  {0b0010011, 0b000, 0},
	insts.KindSLTI:  {0b0010011, 0b010, 0},
	insts.KindSLTIU: {0b0010011, 0b011, 0},
	insts.KindXORI:  {0b0010011, 0b100, 0},
	insts.KindORI:   {0b0010011, 0b110, 0},
	insts.KindANDI:  {0b0010011, 0b111, 0},
	insts.KindSLLI:  {0b0010011, 0b001, 0b0000000},
	insts.KindSRLI:  {0b0010011, 0b101, 0b0000000},
	insts.KindSRAI:  {0b0010011, 0b101, 0b0100000},

	insts.KindLB:  {0b0000011, 0b000, 0},
	insts.KindLH:  {0b0000011, 0b001, 0},
	insts.KindLW:  {0b0000011, 0b010, 0},
	insts.KindLBU: {0b0000011, 0b100, 0},
	insts.KindLHU: {0b0000011, 0b101, 0},

	insts.KindSB: {0b0100011, 0b000, 0},
	insts.KindSH: {0b0100011, 0b001, 0},
	insts.KindSW: {0b0100011, 0b010, 0},

	insts.KindBEQ:  {0b1100011, 0b000, 0},
	insts.KindBNE:  {0b1100011, 0b001, 0},
	insts.KindBLT:  {0b1100011, 0b100, 0},
	insts.KindBGE:  {0b1100011, 0b101, 0},
	insts.KindBLTU: {0b1100011, 0b110, 0},
	insts.KindBGEU: {0b1100011, 0b111, 0},

	insts.KindJAL:  {0b1101111, 0, 0},
	insts.KindJALR: {0b1100111, 0b000, 0},

	insts.KindLUI:   {0b0110111, 0, 0},
	insts.KindAUIPC: {0b0010111, 0, 0},

	insts.KindECALL:  {0b1110011, 0b000, 0},
	insts.KindEBREAK: {0b1110011, 0b000, 0},
}

// Encode re-encodes a decoded Instruction back into its 32-bit word. It is
// the inverse of Decoder.Decode for every kind named by EncodableKinds.
func (a *Assembler) Encode(inst *insts.Instruction) (uint32, error) {
	f, ok := kindFields[inst.Kind]
	if !ok {
		return 0, fmt.Errorf("asm: kind %v is not encodable", inst.Kind)
	}

	switch inst.Format {
	case insts.FormatR:
		return f.funct7<<25 | uint32(inst.Rs2)<<20 | uint32(inst.Rs1)<<15 |
			f.funct3<<12 | uint32(inst.Rd)<<7 | f.opcode, nil

	case insts.FormatI:
		if inst.Kind == insts.KindECALL {
			return 0x00000073, nil
		}
		if inst.Kind == insts.KindEBREAK {
			return 0x00100073, nil
		}
		imm := uint32(inst.Imm)
		if inst.Kind == insts.KindSLLI || inst.Kind == insts.KindSRLI || inst.Kind == insts.KindSRAI {
			imm = (f.funct7 << 5) | (uint32(inst.Imm) & 0x1F)
		}
		return (imm&0xFFF)<<20 | uint32(inst.Rs1)<<15 | f.funct3<<12 | uint32(inst.Rd)<<7 | f.opcode, nil

	case insts.FormatS:
		imm := uint32(inst.Imm)
		hi := (imm >> 5) & 0x7F
		lo := imm & 0x1F
		return hi<<25 | uint32(inst.Rs2)<<20 | uint32(inst.Rs1)<<15 | f.funct3<<12 | lo<<7 | f.opcode, nil

	case insts.FormatB:
		imm := uint32(inst.Imm)
		b12 := (imm >> 12) & 0x1
		b11 := (imm >> 11) & 0x1
		b10_5 := (imm >> 5) & 0x3F
		b4_1 := (imm >> 1) & 0xF
		return b12<<31 | b10_5<<25 | uint32(inst.Rs2)<<20 | uint32(inst.Rs1)<<15 |
			f.funct3<<12 | b4_1<<8 | b11<<7 | f.opcode, nil

	case insts.FormatU:
		return uint32(inst.Imm)&0xFFFFF000 | uint32(inst.Rd)<<7 | f.opcode, nil

	case insts.FormatJ:
		imm := uint32(inst.Imm)
		b20 := (imm >> 20) & 0x1
		b19_12 := (imm >> 12) & 0xFF
		b11 := (imm >> 11) & 0x1
		b10_1 := (imm >> 1) & 0x3FF
		return b20<<31 | b10_1<<21 | b11<<20 | b19_12<<12 | uint32(inst.Rd)<<7 | f.opcode, nil

	default:
		return 0, fmt.Errorf("asm: cannot encode format %v", inst.Format)
	}
}

// EncodableKinds lists the kinds Encode can round-trip. UNKNOWN is excluded
// since it carries no fixed opcode, and no pseudo-instruction kind is
// listed here because pseudo-instructions expand to real kinds before
// encoding ever sees them.
func EncodableKinds() []insts.Kind {
	kinds := make([]insts.Kind, 0, len(kindFields))
	for k := range kindFields {
		kinds = append(kinds, k)
	}
	return kinds
}
