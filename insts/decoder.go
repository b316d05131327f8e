package insts

import "fmt"

// Decoder decodes RV32IM machine code into Instructions.
type Decoder struct{}

// NewDecoder creates a new RV32IM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word fetched from address pc.
// It never fails: unrecognized opcode/funct combinations yield
// Kind=KindUnknown, Format=FormatUnknown with no control bits set. pc only
// influences the returned Instruction's PC field and disassembly text, never
// its control signals or immediate.
func (d *Decoder) Decode(word uint32, pc uint32) *Instruction {
	inst := &Instruction{Raw: word, PC: pc, Kind: KindUnknown, Format: FormatUnknown}

	opcode := word & 0x7F
	funct3 := (word >> 12) & 0x7
	funct7 := (word >> 25) & 0x7F
	rd := uint8((word >> 7) & 0x1F)
	rs1 := uint8((word >> 15) & 0x1F)
	rs2 := uint8((word >> 20) & 0x1F)

	switch opcode {
	case 0b0110111: // LUI
		inst.Format = FormatU
		inst.Kind = KindLUI
		inst.Rd = rd
		inst.Imm = decodeImmU(word)
		inst.RegWrite = true
		inst.AluSrc = true
		inst.ALUOp = AluPassB

	case 0b0010111: // AUIPC
		inst.Format = FormatU
		inst.Kind = KindAUIPC
		inst.Rd = rd
		inst.Imm = decodeImmU(word)
		inst.RegWrite = true
		inst.AluSrc = true
		inst.ALUOp = AluADD

	case 0b1101111: // JAL
		inst.Format = FormatJ
		inst.Kind = KindJAL
		inst.Rd = rd
		inst.Imm = decodeImmJ(word)
		inst.RegWrite = true
		inst.Jump = true

	case 0b1100111: // JALR
		if funct3 != 0 {
			break
		}
		inst.Format = FormatI
		inst.Kind = KindJALR
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.Imm = decodeImmI(word)
		inst.RegWrite = true
		inst.Jump = true
		inst.AluSrc = true
		inst.ALUOp = AluADD

	case 0b1100011: // BRANCH
		inst.Format = FormatB
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		inst.Imm = decodeImmB(word)
		inst.Branch = true
		switch funct3 {
		case 0b000:
			inst.Kind = KindBEQ
		case 0b001:
			inst.Kind = KindBNE
		case 0b100:
			inst.Kind = KindBLT
		case 0b101:
			inst.Kind = KindBGE
		case 0b110:
			inst.Kind = KindBLTU
		case 0b111:
			inst.Kind = KindBGEU
		default:
			*inst = Instruction{Raw: word, PC: pc}
		}

	case 0b0000011: // LOAD
		inst.Format = FormatI
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.Imm = decodeImmI(word)
		inst.RegWrite = true
		inst.MemRead = true
		inst.MemToReg = true
		inst.AluSrc = true
		inst.ALUOp = AluADD
		switch funct3 {
		case 0b000:
			inst.Kind = KindLB
		case 0b001:
			inst.Kind = KindLH
		case 0b010:
			inst.Kind = KindLW
		case 0b100:
			inst.Kind = KindLBU
		case 0b101:
			inst.Kind = KindLHU
		default:
			*inst = Instruction{Raw: word, PC: pc}
		}

	case 0b0100011: // STORE
		inst.Format = FormatS
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		inst.Imm = decodeImmS(word)
		inst.MemWrite = true
		inst.AluSrc = true
		inst.ALUOp = AluADD
		switch funct3 {
		case 0b000:
			inst.Kind = KindSB
		case 0b001:
			inst.Kind = KindSH
		case 0b010:
			inst.Kind = KindSW
		default:
			*inst = Instruction{Raw: word, PC: pc}
		}

	case 0b0010011: // OP-IMM
		inst.Format = FormatI
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.RegWrite = true
		inst.AluSrc = true
		switch funct3 {
		case 0b000:
			inst.Kind = KindADDI
			inst.Imm = decodeImmI(word)
			inst.ALUOp = AluADD
		case 0b010:
			inst.Kind = KindSLTI
			inst.Imm = decodeImmI(word)
			inst.ALUOp = AluSLT
		case 0b011:
			inst.Kind = KindSLTIU
			inst.Imm = decodeImmI(word)
			inst.ALUOp = AluSLTU
		case 0b100:
			inst.Kind = KindXORI
			inst.Imm = decodeImmI(word)
			inst.ALUOp = AluXOR
		case 0b110:
			inst.Kind = KindORI
			inst.Imm = decodeImmI(word)
			inst.ALUOp = AluOR
		case 0b111:
			inst.Kind = KindANDI
			inst.Imm = decodeImmI(word)
			inst.ALUOp = AluAND
		case 0b001:
			inst.Kind = KindSLLI
			inst.Imm = int32(rs2) // shamt lives in the rs2 field
			inst.ALUOp = AluSLL
		case 0b101:
			if (funct7>>5)&1 == 1 {
				inst.Kind = KindSRAI
				inst.ALUOp = AluSRA
			} else {
				inst.Kind = KindSRLI
				inst.ALUOp = AluSRL
			}
			inst.Imm = int32(rs2)
		}

	case 0b0110011: // OP
		inst.Format = FormatR
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		inst.RegWrite = true
		if funct7 == 0x01 {
			switch funct3 {
			case 0b000:
				inst.Kind, inst.ALUOp = KindMUL, AluMUL
			case 0b001:
				inst.Kind, inst.ALUOp = KindMULH, AluMULH
			case 0b010:
				inst.Kind, inst.ALUOp = KindMULHSU, AluMULHSU
			case 0b011:
				inst.Kind, inst.ALUOp = KindMULHU, AluMULHU
			case 0b100:
				inst.Kind, inst.ALUOp = KindDIV, AluDIV
			case 0b101:
				inst.Kind, inst.ALUOp = KindDIVU, AluDIVU
			case 0b110:
				inst.Kind, inst.ALUOp = KindREM, AluREM
			case 0b111:
				inst.Kind, inst.ALUOp = KindREMU, AluREMU
			default:
				*inst = Instruction{Raw: word, PC: pc}
			}
		} else {
			switch funct3 {
			case 0b000:
				if (funct7>>5)&1 == 1 {
					inst.Kind, inst.ALUOp = KindSUB, AluSUB
				} else {
					inst.Kind, inst.ALUOp = KindADD, AluADD
				}
			case 0b001:
				inst.Kind, inst.ALUOp = KindSLL, AluSLL
			case 0b010:
				inst.Kind, inst.ALUOp = KindSLT, AluSLT
			case 0b011:
				inst.Kind, inst.ALUOp = KindSLTU, AluSLTU
			case 0b100:
				inst.Kind, inst.ALUOp = KindXOR, AluXOR
			case 0b101:
				if (funct7>>5)&1 == 1 {
					inst.Kind, inst.ALUOp = KindSRA, AluSRA
				} else {
					inst.Kind, inst.ALUOp = KindSRL, AluSRL
				}
			case 0b110:
				inst.Kind, inst.ALUOp = KindOR, AluOR
			case 0b111:
				inst.Kind, inst.ALUOp = KindAND, AluAND
			default:
				*inst = Instruction{Raw: word, PC: pc}
			}
		}

	case 0b1110011: // SYSTEM
		imm := decodeImmI(word)
		switch imm {
		case 0:
			inst.Format = FormatI
			inst.Kind = KindECALL
		case 1:
			inst.Format = FormatI
			inst.Kind = KindEBREAK
		default:
			*inst = Instruction{Raw: word, PC: pc}
		}
	}

	if inst.Kind != KindUnknown {
		inst.Text = d.disassemble(inst)
	}

	return inst
}

// decodeImmI sign-extends the I-format immediate (bits[31:20]).
func decodeImmI(word uint32) int32 {
	return int32(word) >> 20
}

// decodeImmS sign-extends the S-format immediate
// ({bits[31:25], bits[11:7]}).
func decodeImmS(word uint32) int32 {
	hi := (word >> 25) & 0x7F
	lo := (word >> 7) & 0x1F
	raw := (hi << 5) | lo
	return signExtend(raw, 12)
}

// decodeImmB sign-extends the B-format immediate
// ({bit31, bit7, bits30:25, bits11:8, 0}).
func decodeImmB(word uint32) int32 {
	b12 := (word >> 31) & 0x1
	b11 := (word >> 7) & 0x1
	b10_5 := (word >> 25) & 0x3F
	b4_1 := (word >> 8) & 0xF
	raw := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	return signExtend(raw, 13)
}

// decodeImmU returns the U-format immediate (bits[31:12] << 12).
func decodeImmU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

// decodeImmJ sign-extends the J-format immediate
// ({bit31, bits19:12, bit20, bits30:21, 0}).
func decodeImmJ(word uint32) int32 {
	b20 := (word >> 31) & 0x1
	b10_1 := (word >> 21) & 0x3FF
	b11 := (word >> 20) & 0x1
	b19_12 := (word >> 12) & 0xFF
	raw := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	return signExtend(raw, 21)
}

// signExtend sign-extends the low bits-wide field of raw to int32.
func signExtend(raw uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(raw<<shift) >> shift
}

// disassemble produces a short human-readable rendering of inst. It is
// advisory only: textual dumping/disassembly formatting for the shell is
// explicitly out of scope, this is just enough for log lines and error
// messages.
func (d *Decoder) disassemble(inst *Instruction) string {
	switch inst.Format {
	case FormatR:
		return fmt.Sprintf("%s x%d, x%d, x%d", inst.Kind, inst.Rd, inst.Rs1, inst.Rs2)
	case FormatI:
		if inst.MemRead {
			return fmt.Sprintf("%s x%d, %d(x%d)", inst.Kind, inst.Rd, inst.Imm, inst.Rs1)
		}
		if inst.Kind == KindECALL || inst.Kind == KindEBREAK {
			return inst.Kind.String()
		}
		return fmt.Sprintf("%s x%d, x%d, %d", inst.Kind, inst.Rd, inst.Rs1, inst.Imm)
	case FormatS:
		return fmt.Sprintf("%s x%d, %d(x%d)", inst.Kind, inst.Rs2, inst.Imm, inst.Rs1)
	case FormatB:
		return fmt.Sprintf("%s x%d, x%d, %d", inst.Kind, inst.Rs1, inst.Rs2, inst.Imm)
	case FormatU:
		return fmt.Sprintf("%s x%d, 0x%x", inst.Kind, inst.Rd, uint32(inst.Imm)>>12)
	case FormatJ:
		return fmt.Sprintf("%s x%d, %d", inst.Kind, inst.Rd, inst.Imm)
	default:
		return "unknown"
	}
}
