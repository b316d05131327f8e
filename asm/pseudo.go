package asm

import (
	"fmt"

	"github.com/rv32edu/rv32sim/insts"
)

// rawInstr is one real instruction awaiting operand resolution: register
// names have not yet been looked up and immediates/labels have not yet
// been resolved against the symbol table. expandPseudo produces one or two
// of these per source line.
type rawInstr struct {
	lineNo     int
	kind       insts.Kind
	rd         string
	rs1        string
	rs2        string
	imm        string // numeric literal or label expression; empty if unused
	pcRelative bool   // imm is resolved as (target - address of the first word of this line's expansion)
}

// expandPseudo turns one tokenized instruction line into the sequence of
// real instructions it assembles to. Directives and label-only lines never
// reach this function.
func expandPseudo(line sourceLine) ([]rawInstr, error) {
	op := line.op
	ops := line.operands
	n := line.lineNo

	want := func(k int) error {
		if len(ops) != k {
			return fmt.Errorf("line %d: %s expects %d operand(s), got %d", n, op, k, len(ops))
		}
		return nil
	}

	switch op {
	// Real instructions pass straight through with a 1:1 mapping from
	// mnemonic to Kind; operand order is checked against its format.
	case "add", "sub", "sll", "slt", "sltu", "xor", "srl", "sra", "or", "and",
		"mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu":
		if err := want(3); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: mnemonicKind[op], rd: ops[0], rs1: ops[1], rs2: ops[2]}}, nil

	case "addi", "slti", "sltiu", "xori", "ori", "andi", "slli", "srli", "srai":
		if err := want(3); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: mnemonicKind[op], rd: ops[0], rs1: ops[1], imm: ops[2]}}, nil

	case "lb", "lh", "lw", "lbu", "lhu":
		if err := want(2); err != nil {
			return nil, err
		}
		off, reg, ok := memOperand(ops[1])
		if !ok {
			return nil, fmt.Errorf("line %d: malformed memory operand %q", n, ops[1])
		}
		return []rawInstr{{lineNo: n, kind: mnemonicKind[op], rd: ops[0], rs1: reg, imm: off}}, nil

	case "sb", "sh", "sw":
		if err := want(2); err != nil {
			return nil, err
		}
		off, reg, ok := memOperand(ops[1])
		if !ok {
			return nil, fmt.Errorf("line %d: malformed memory operand %q", n, ops[1])
		}
		return []rawInstr{{lineNo: n, kind: mnemonicKind[op], rs2: ops[0], rs1: reg, imm: off}}, nil

	case "beq", "bne", "blt", "bge", "bltu", "bgeu":
		if err := want(3); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: mnemonicKind[op], rs1: ops[0], rs2: ops[1], imm: ops[2], pcRelative: true}}, nil

	case "jal":
		switch len(ops) {
		case 1:
			return []rawInstr{{lineNo: n, kind: insts.KindJAL, rd: "ra", imm: ops[0], pcRelative: true}}, nil
		case 2:
			return []rawInstr{{lineNo: n, kind: insts.KindJAL, rd: ops[0], imm: ops[1], pcRelative: true}}, nil
		default:
			return nil, fmt.Errorf("line %d: jal expects 1 or 2 operands, got %d", n, len(ops))
		}

	case "jalr":
		switch len(ops) {
		case 1:
			return []rawInstr{{lineNo: n, kind: insts.KindJALR, rd: "ra", rs1: ops[0], imm: "0"}}, nil
		case 2:
			off, reg, ok := memOperand(ops[1])
			if !ok {
				return nil, fmt.Errorf("line %d: malformed memory operand %q", n, ops[1])
			}
			return []rawInstr{{lineNo: n, kind: insts.KindJALR, rd: ops[0], rs1: reg, imm: off}}, nil
		case 3:
			return []rawInstr{{lineNo: n, kind: insts.KindJALR, rd: ops[0], rs1: ops[1], imm: ops[2]}}, nil
		default:
			return nil, fmt.Errorf("line %d: jalr expects 1-3 operands, got %d", n, len(ops))
		}

	case "lui", "auipc":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: mnemonicKind[op], rd: ops[0], imm: ops[1]}}, nil

	case "ecall":
		return []rawInstr{{lineNo: n, kind: insts.KindECALL}}, nil
	case "ebreak":
		return []rawInstr{{lineNo: n, kind: insts.KindEBREAK}}, nil

	case "nop":
		return []rawInstr{{lineNo: n, kind: insts.KindADDI, rd: "x0", rs1: "x0", imm: "0"}}, nil

	case "mv":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindADDI, rd: ops[0], rs1: ops[1], imm: "0"}}, nil

	case "not":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindXORI, rd: ops[0], rs1: ops[1], imm: "-1"}}, nil

	case "neg":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindSUB, rd: ops[0], rs1: "x0", rs2: ops[1]}}, nil

	case "seqz":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindSLTIU, rd: ops[0], rs1: ops[1], imm: "1"}}, nil

	case "snez":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindSLTU, rd: ops[0], rs1: "x0", rs2: ops[1]}}, nil

	case "sltz":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindSLT, rd: ops[0], rs1: ops[1], rs2: "x0"}}, nil

	case "sgtz":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindSLT, rd: ops[0], rs1: "x0", rs2: ops[1]}}, nil

	case "li":
		if err := want(2); err != nil {
			return nil, err
		}
		v, err := parseImmediate(ops[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if v >= -2048 && v <= 2047 {
			return []rawInstr{{lineNo: n, kind: insts.KindADDI, rd: ops[0], rs1: "x0", imm: ops[1]}}, nil
		}
		hi, lo := splitHiLo20_12(v)
		raws := []rawInstr{{lineNo: n, kind: insts.KindLUI, rd: ops[0], imm: fmt.Sprintf("%d", hi)}}
		if lo != 0 {
			raws = append(raws, rawInstr{lineNo: n, kind: insts.KindADDI, rd: ops[0], rs1: ops[0], imm: fmt.Sprintf("%d", lo)})
		}
		return raws, nil

	case "la":
		if err := want(2); err != nil {
			return nil, err
		}
		return []rawInstr{
			{lineNo: n, kind: insts.KindAUIPC, rd: ops[0], imm: ops[1] + "#hi", pcRelative: true},
			{lineNo: n, kind: insts.KindADDI, rd: ops[0], rs1: ops[0], imm: ops[1] + "#lo", pcRelative: true},
		}, nil

	case "j":
		if err := want(1); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindJAL, rd: "x0", imm: ops[0], pcRelative: true}}, nil

	case "jr":
		if err := want(1); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindJALR, rd: "x0", rs1: ops[0], imm: "0"}}, nil

	case "ret":
		if err := want(0); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindJALR, rd: "x0", rs1: "ra", imm: "0"}}, nil

	case "call":
		if err := want(1); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindJAL, rd: "ra", imm: ops[0], pcRelative: true}}, nil

	case "tail":
		if err := want(1); err != nil {
			return nil, err
		}
		return []rawInstr{{lineNo: n, kind: insts.KindJAL, rd: "x0", imm: ops[0], pcRelative: true}}, nil

	case "beqz", "bnez", "bltz", "bgez", "blez", "bgtz":
		if err := want(2); err != nil {
			return nil, err
		}
		kind := branchPseudoKind[op]
		rs1, rs2 := ops[0], "x0"
		if op == "blez" || op == "bgtz" {
			rs1, rs2 = "x0", ops[0]
		}
		return []rawInstr{{lineNo: n, kind: kind, rs1: rs1, rs2: rs2, imm: ops[1], pcRelative: true}}, nil

	case "bgt", "ble", "bgtu", "bleu":
		if err := want(3); err != nil {
			return nil, err
		}
		kind := branchSwapKind[op]
		return []rawInstr{{lineNo: n, kind: kind, rs1: ops[1], rs2: ops[0], imm: ops[2], pcRelative: true}}, nil

	default:
		return nil, fmt.Errorf("line %d: unknown mnemonic %q", n, op)
	}
}

var mnemonicKind = map[string]insts.Kind{
	"add": insts.KindADD, "sub": insts.KindSUB, "sll": insts.KindSLL, "slt": insts.KindSLT,
	"sltu": insts.KindSLTU, "xor": insts.KindXOR, "srl": insts.KindSRL, "sra": insts.KindSRA,
	"or": insts.KindOR, "and": insts.KindAND,
	"mul": insts.KindMUL, "mulh": insts.KindMULH, "mulhsu": insts.KindMULHSU, "mulhu": insts.KindMULHU,
	"div": insts.KindDIV, "divu": insts.KindDIVU, "rem": insts.KindREM, "remu": insts.KindREMU,
	"addi": insts.KindADDI, "slti": insts.KindSLTI, "sltiu": insts.KindSLTIU, "xori": insts.KindXORI,
	"ori": insts.KindORI, "andi": insts.KindANDI, "slli": insts.KindSLLI, "srli": insts.KindSRLI, "srai": insts.KindSRAI,
	"lb": insts.KindLB, "lh": insts.KindLH, "lw": insts.KindLW, "lbu": insts.KindLBU, "lhu": insts.KindLHU,
	"sb": insts.KindSB, "sh": insts.KindSH, "sw": insts.KindSW,
	"lui": insts.KindLUI, "auipc": insts.KindAUIPC,
	"beq": insts.KindBEQ, "bne": insts.KindBNE, "blt": insts.KindBLT,
	"bge": insts.KindBGE, "bltu": insts.KindBLTU, "bgeu": insts.KindBGEU,
}

var branchPseudoKind = map[string]insts.Kind{
	"beqz": insts.KindBEQ, "bnez": insts.KindBNE,
	"bltz": insts.KindBLT, "bgez": insts.KindBGE,
	"blez": insts.KindBGE, "bgtz": insts.KindBLT,
}

var branchSwapKind = map[string]insts.Kind{
	"bgt": insts.KindBLT, "ble": insts.KindBGE,
	"bgtu": insts.KindBLTU, "bleu": insts.KindBGEU,
}

// splitHiLo20_12 splits a 32-bit value into the 20-bit upper immediate fed
// to lui and the 12-bit signed low immediate fed to the following addi,
// such that (hi<<12) + lo == v for any int32 v.
func splitHiLo20_12(v int64) (hi, lo int32) {
	lo32 := int32(int32(v) << 20 >> 20) // sign-extend low 12 bits
	hi32 := int32((int32(v) - lo32) >> 12)
	return hi32, lo32
}
