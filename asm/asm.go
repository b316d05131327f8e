// Package asm implements a two-pass assembler for the RV32IM subset
// decoded by package insts: source text in, machine code and a symbol
// table out, with per-line error accumulation instead of a single fatal
// error.
package asm

import (
	"fmt"
	"strings"

	"github.com/rv32edu/rv32sim/emu"
	"github.com/rv32edu/rv32sim/insts"
)

// AssembleError is one failure tied to a specific source line. Assembly
// keeps going after recording one, so a single source file can report
// every mistake it contains in one pass.
type AssembleError struct {
	Line int
	Msg  string
}

func (e AssembleError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// AssembleResult is the outcome of assembling one source file.
type AssembleResult struct {
	Success   bool
	Text      []uint32
	Data      []byte
	TextBase  uint32
	DataBase  uint32
	Symbols   map[string]uint32
	SourceMap map[uint32]int // instruction address -> originating source line
	Errors    []AssembleError
}

// Assembler holds no state of its own; each Assemble call is independent.
type Assembler struct{}

// NewAssembler returns a ready-to-use Assembler.
func NewAssembler() *Assembler { return &Assembler{} }

type section int

const (
	sectionText section = iota
	sectionData
)

// placement is one line's resolved address, produced by pass 1 and
// consumed by pass 2. Exactly one of raws/dir is set.
type placement struct {
	lineNo  int
	section section
	addr    uint32
	raws    []rawInstr
	dir     *sourceLine
}

// Assemble runs the two-pass assembly described by package docs, returning
// a result whose Errors is empty iff Success is true.
func (a *Assembler) Assemble(src string) *AssembleResult {
	res := &AssembleResult{
		TextBase:  emu.TextBase,
		DataBase:  emu.DataBase,
		Symbols:   map[string]uint32{},
		SourceMap: map[uint32]int{},
	}

	lines := tokenize(src)
	placements, pass1Errs := pass1(lines, res.Symbols)

	text, data, pass2Errs := pass2(placements, res.Symbols, res.SourceMap)
	res.Text = text
	res.Data = data
	res.Errors = append(pass1Errs, pass2Errs...)
	res.Success = len(res.Errors) == 0
	return res
}

// pass1 computes every label's address without emitting any code. A
// directive or instruction advances whichever section's cursor is active;
// a bare label line records the cursor but advances nothing.
func pass1(lines []sourceLine, symbols map[string]uint32) ([]placement, []AssembleError) {
	var placements []placement
	var errs []AssembleError

	sec := sectionText
	var textAddr uint32 = emu.TextBase
	var dataAddr uint32 = emu.DataBase

	cursor := func() uint32 {
		if sec == sectionText {
			return textAddr
		}
		return dataAddr
	}
	advance := func(n uint32) {
		if sec == sectionText {
			textAddr += n
		} else {
			dataAddr += n
		}
	}

	for _, line := range lines {
		if line.label != "" {
			symbols[line.label] = cursor()
		}
		if line.op == "" {
			continue
		}

		if line.directive {
			switch line.op {
			case ".text":
				sec = sectionText
				continue
			case ".data":
				sec = sectionData
				continue
			}
			size, err := directiveSize(line, cursor())
			if err != nil {
				errs = append(errs, AssembleError{Line: line.lineNo, Msg: err.Error()})
				continue
			}
			ln := line
			placements = append(placements, placement{lineNo: line.lineNo, section: sec, addr: cursor(), dir: &ln})
			advance(size)
			continue
		}

		raws, err := expandPseudo(line)
		if err != nil {
			errs = append(errs, AssembleError{Line: line.lineNo, Msg: err.Error()})
			continue
		}
		placements = append(placements, placement{lineNo: line.lineNo, section: sec, addr: cursor(), raws: raws})
		advance(uint32(len(raws)) * 4)
	}

	return placements, errs
}

// pass2 resolves every label reference now that the full symbol table
// exists, and emits the final machine code and data bytes.
func pass2(placements []placement, symbols map[string]uint32, sourceMap map[uint32]int) ([]uint32, []byte, []AssembleError) {
	var text []uint32
	var data []byte
	var errs []AssembleError
	a := &Assembler{}

	for _, p := range placements {
		if p.dir != nil {
			raw, err := emitDirective(*p.dir, p.addr, symbols, p.section == sectionText)
			if err != nil {
				errs = append(errs, AssembleError{Line: p.lineNo, Msg: err.Error()})
				continue
			}
			if p.section == sectionText {
				if len(raw)%4 != 0 {
					errs = append(errs, AssembleError{Line: p.lineNo, Msg: "directive byte length is not word-aligned in the text section"})
					continue
				}
				text = appendWords(text, raw)
			} else {
				data = append(data, raw...)
			}
			continue
		}

		groupAddr := p.addr
		for i, raw := range p.raws {
			ownAddr := p.addr + uint32(i)*4
			inst, err := resolveRaw(raw, ownAddr, groupAddr, symbols)
			if err != nil {
				errs = append(errs, AssembleError{Line: raw.lineNo, Msg: err.Error()})
				continue
			}
			word, err := a.Encode(inst)
			if err != nil {
				errs = append(errs, AssembleError{Line: raw.lineNo, Msg: err.Error()})
				continue
			}
			text = append(text, word)
			sourceMap[ownAddr] = raw.lineNo
		}
	}

	return text, data, errs
}

func appendWords(text []uint32, raw []byte) []uint32 {
	for i := 0; i+4 <= len(raw); i += 4 {
		text = append(text, uint32(raw[i])|uint32(raw[i+1])<<8|uint32(raw[i+2])<<16|uint32(raw[i+3])<<24)
	}
	return text
}

// resolveRaw fills in an Instruction's registers, format, and immediate
// now that labels can be looked up. ownAddr is this word's own address;
// groupAddr is the address of the first word in its source line's
// expansion, used as the PC-relative base so a multi-word pseudo like `la`
// computes both halves against the same origin.
func resolveRaw(raw rawInstr, ownAddr, groupAddr uint32, symbols map[string]uint32) (*insts.Instruction, error) {
	inst := &insts.Instruction{
		Kind:   raw.kind,
		Format: formatOf(raw.kind),
		PC:     ownAddr,
	}

	reg := func(s string) (uint8, error) {
		idx, ok := lookupRegister(s)
		if !ok {
			return 0, fmt.Errorf("line %d: unknown register %q", raw.lineNo, s)
		}
		return idx, nil
	}

	var err error
	if raw.rd != "" {
		if inst.Rd, err = reg(raw.rd); err != nil {
			return nil, err
		}
	}
	if raw.rs1 != "" {
		if inst.Rs1, err = reg(raw.rs1); err != nil {
			return nil, err
		}
	}
	if raw.rs2 != "" {
		if inst.Rs2, err = reg(raw.rs2); err != nil {
			return nil, err
		}
	}

	if raw.imm != "" {
		base := ownAddr
		if raw.pcRelative {
			base = groupAddr
		}
		v, err := resolveImmediate(raw.imm, base, symbols, raw.pcRelative)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", raw.lineNo, err)
		}
		switch raw.kind {
		case insts.KindLUI, insts.KindAUIPC:
			inst.Imm = int32(v) << 12
		default:
			inst.Imm = int32(v)
		}
	}

	return inst, nil
}

// resolveImmediate evaluates an operand that is either a numeric literal, a
// plain label, or one half of an la expansion's split label reference
// (suffixed "#hi"/"#lo", both relative to the same base address).
func resolveImmediate(s string, base uint32, symbols map[string]uint32, pcRelative bool) (int64, error) {
	if strings.HasSuffix(s, "#hi") || strings.HasSuffix(s, "#lo") {
		hiHalf := strings.HasSuffix(s, "#hi")
		label := strings.TrimSuffix(strings.TrimSuffix(s, "#hi"), "#lo")
		symAddr, ok := symbols[label]
		if !ok {
			return 0, fmt.Errorf("undefined label %q", label)
		}
		hi, lo := splitHiLo20_12(int64(symAddr) - int64(base))
		if hiHalf {
			return int64(hi), nil
		}
		return int64(lo), nil
	}

	if v, err := parseImmediate(s); err == nil {
		return v, nil
	}

	symAddr, ok := symbols[s]
	if !ok {
		return 0, fmt.Errorf("undefined label %q", s)
	}
	if pcRelative {
		return int64(symAddr) - int64(base), nil
	}
	return int64(symAddr), nil
}

// formatOf reports the encoding format for every kind Encode knows about.
func formatOf(k insts.Kind) insts.Format {
	switch k {
	case insts.KindADD, insts.KindSUB, insts.KindSLL, insts.KindSLT, insts.KindSLTU,
		insts.KindXOR, insts.KindSRL, insts.KindSRA, insts.KindOR, insts.KindAND,
		insts.KindMUL, insts.KindMULH, insts.KindMULHSU, insts.KindMULHU,
		insts.KindDIV, insts.KindDIVU, insts.KindREM, insts.KindREMU:
		return insts.FormatR

	case insts.KindADDI, insts.KindSLTI, insts.KindSLTIU, insts.KindXORI, insts.KindORI, insts.KindANDI,
		insts.KindSLLI, insts.KindSRLI, insts.KindSRAI,
		insts.KindLB, insts.KindLH, insts.KindLW, insts.KindLBU, insts.KindLHU,
		insts.KindJALR, insts.KindECALL, insts.KindEBREAK:
		return insts.FormatI

	case insts.KindSB, insts.KindSH, insts.KindSW:
		return insts.FormatS

	case insts.KindBEQ, insts.KindBNE, insts.KindBLT, insts.KindBGE, insts.KindBLTU, insts.KindBGEU:
		return insts.FormatB

	case insts.KindLUI, insts.KindAUIPC:
		return insts.FormatU

	case insts.KindJAL:
		return insts.FormatJ

	default:
		return insts.FormatUnknown
	}
}
