package pipeline

import (
	"github.com/rv32edu/rv32sim/emu"
	"github.com/rv32edu/rv32sim/insts"
)

// Statistics holds pipeline performance counters.
type Statistics struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Flushes      uint64
	Forwards     uint64
}

// CPI returns the cycles-per-instruction ratio, 0 if nothing has retired.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring a Pipeline.
type PipelineOption func(*Pipeline)

// WithStackPointer sets the initial stack pointer (register x2), including
// the value Reset re-seeds it to.
func WithStackPointer(sp uint32) PipelineOption {
	return func(p *Pipeline) {
		p.stackTop = sp
		p.regFile.Write(2, sp)
	}
}

// WithHazardDetection toggles load-use stalling. Disabled, a load-use
// hazard does not stall and the dependent instruction gets a wrong operand:
// the load's address forwarded from EX/MEM, or, with forwarding also
// disabled, the stale register value latched at decode.
func WithHazardDetection(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.hazardDetection = enabled
	}
}

// WithForwarding toggles EX-stage operand forwarding. Disabled, EX always
// reads the register file value latched at decode, regardless of in-flight
// writers.
func WithForwarding(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.forwarding = enabled
	}
}

// Pipeline is the five-stage (IF/ID/EX/MEM/WB) RV32IM execution engine.
type Pipeline struct {
	regFile *emu.RegFile
	memory  *emu.Memory
	decoder *insts.Decoder
	alu     *emu.ALU
	hazard  *HazardUnit

	pc     uint32
	nextPC uint32

	stackTop uint32

	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	hazardDetection bool
	forwarding      bool
	halted          bool
	stalled         bool

	breakpoints map[uint32]struct{}

	cycles, instructions, stalls, flushes, forwards uint64
}

// NewPipeline constructs a Pipeline with hazard detection and forwarding
// both enabled by default, seeded with a fresh RegFile/Memory the way
// Emulator is.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		regFile:         &emu.RegFile{},
		memory:          emu.NewMemory(),
		decoder:         insts.NewDecoder(),
		alu:             emu.NewALU(),
		hazard:          NewHazardUnit(),
		hazardDetection: true,
		forwarding:      true,
		breakpoints:     map[uint32]struct{}{},
		stackTop:        emu.StackTop,
	}
	p.regFile.Write(2, p.stackTop)
	p.pc = emu.TextBase
	p.nextPC = emu.TextBase + 4
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) RegFile() *emu.RegFile { return p.regFile }
func (p *Pipeline) Memory() *emu.Memory   { return p.memory }
func (p *Pipeline) PC() uint32            { return p.pc }
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
	p.nextPC = pc + 4
}

func (p *Pipeline) Statistics() Statistics {
	return Statistics{
		Cycles:       p.cycles,
		Instructions: p.instructions,
		Stalls:       p.stalls,
		Flushes:      p.flushes,
		Forwards:     p.forwards,
	}
}

func (p *Pipeline) AddBreakpoint(addr uint32)    { p.breakpoints[addr] = struct{}{} }
func (p *Pipeline) RemoveBreakpoint(addr uint32) { delete(p.breakpoints, addr) }

func (p *Pipeline) SetHazardDetection(enabled bool) { p.hazardDetection = enabled }
func (p *Pipeline) SetForwarding(enabled bool)      { p.forwarding = enabled }

// LoadText writes words into memory starting at base and resets engine
// state so execution begins at base.
func (p *Pipeline) LoadText(base uint32, words []uint32) {
	p.memory.WriteWords(base, words)
	p.Reset()
	p.pc = base
	p.nextPC = base + 4
}

// LoadData writes bytes into memory starting at base.
func (p *Pipeline) LoadData(base uint32, data []byte) {
	p.memory.WriteBytes(base, data)
}

// Reset clears registers, the four latches, and every counter, but leaves
// loaded memory contents in place.
func (p *Pipeline) Reset() {
	p.regFile.Reset()
	p.regFile.Write(2, p.stackTop)
	p.pc = emu.TextBase
	p.nextPC = emu.TextBase + 4
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.halted = false
	p.stalled = false
	p.cycles, p.instructions, p.stalls, p.flushes, p.forwards = 0, 0, 0, 0, 0
}

// Step advances the pipeline by one cycle, per the fixed reverse-stage
// order WB, MEM, EX, ID, IF.
func (p *Pipeline) Step() emu.StepResult {
	if p.halted {
		return emu.StepResult{Halted: true}
	}

	nextDecoded := p.decodeIFID()
	p.stalled = p.hazardDetection && p.hazard.DetectLoadUse(&p.idex, nextDecoded)

	p.stageWB()
	// EX forwards from MEM/WB as it stood at the start of the cycle (the
	// instruction two ahead). stageMEM overwrites that latch first, so EX
	// runs against the old contents and the new contents are put back after.
	memwbOld := p.memwb
	p.stageMEM()
	memwbNew := p.memwb
	p.memwb = memwbOld
	p.stageEX()
	p.memwb = memwbNew
	if p.stalled {
		p.idex.Clear()
		p.stalls++
	} else {
		p.stageID(nextDecoded)
		p.stageIF()
	}

	p.cycles++

	if _, isBreakpoint := p.breakpoints[p.pc]; isBreakpoint {
		return emu.StepResult{Paused: true}
	}
	return emu.StepResult{Halted: p.halted}
}

// Run steps until halt, a breakpoint, or maxCycles (0 means unlimited).
func (p *Pipeline) Run(maxCycles uint64) emu.StepResult {
	var result emu.StepResult
	for i := uint64(0); maxCycles == 0 || i < maxCycles; i++ {
		result = p.Step()
		if result.Halted || result.Paused {
			return result
		}
	}
	return result
}

// decodeIFID decodes the instruction currently sitting in IF/ID, if any,
// purely to let the stall check see its source registers before ID runs.
func (p *Pipeline) decodeIFID() *insts.Instruction {
	if !p.ifid.Valid {
		return &insts.Instruction{}
	}
	return p.decoder.Decode(p.ifid.Word, p.ifid.PC)
}

func (p *Pipeline) stageIF() {
	p.ifid.Valid = true
	p.ifid.PC = p.pc
	p.ifid.NextPC = p.pc + 4
	p.ifid.Word = p.memory.ReadWord(p.pc)
	p.pc = p.nextPC
	p.nextPC = p.pc + 4
}

func (p *Pipeline) stageID(decoded *insts.Instruction) {
	if !p.ifid.Valid {
		p.idex.Clear()
		return
	}
	p.idex.Valid = true
	p.idex.PC = p.ifid.PC
	p.idex.Ins = decoded
	p.idex.Rs1Value = p.regFile.Read(decoded.Rs1)
	p.idex.Rs2Value = p.regFile.Read(decoded.Rs2)
}

func (p *Pipeline) stageEX() {
	if !p.idex.Valid || p.idex.Ins == nil {
		p.exmem.Clear()
		return
	}
	ins := p.idex.Ins

	rs1 := p.idex.Rs1Value
	rs2 := p.idex.Rs2Value
	if p.forwarding {
		if src := p.hazard.ForwardSourceFor(ins.Rs1, &p.exmem, &p.memwb); src != ForwardNone {
			rs1 = p.hazard.ForwardedValue(src, rs1, &p.exmem, &p.memwb)
			p.forwards++
		}
		if src := p.hazard.ForwardSourceFor(ins.Rs2, &p.exmem, &p.memwb); src != ForwardNone {
			rs2 = p.hazard.ForwardedValue(src, rs2, &p.exmem, &p.memwb)
			p.forwards++
		}
	}

	aluA := rs1
	if ins.Kind == insts.KindAUIPC {
		aluA = p.idex.PC
	}
	aluB := rs2
	if ins.AluSrc {
		aluB = uint32(ins.Imm)
	}
	result := p.alu.Execute(ins.ALUOp, aluA, aluB)

	var target uint32
	var taken bool
	switch {
	case ins.Kind == insts.KindJAL:
		target = p.idex.PC + uint32(ins.Imm)
		taken = true
		result = p.idex.PC + 4
	case ins.Kind == insts.KindJALR:
		target = (rs1 + uint32(ins.Imm)) &^ 1
		taken = true
		result = p.idex.PC + 4
	case ins.Branch:
		if p.alu.BranchTaken(ins.Kind, rs1, rs2) {
			target = p.idex.PC + uint32(ins.Imm)
			taken = true
		}
	}

	p.exmem.Valid = true
	p.exmem.PC = p.idex.PC
	p.exmem.Ins = ins
	p.exmem.ALUResult = result
	p.exmem.StoreValue = rs2
	p.exmem.BranchTarget = target
	p.exmem.BranchTaken = taken

	if p.hazard.DetectBranchHazard(&p.exmem) {
		p.pc = target
		p.nextPC = target + 4
		p.ifid.Clear()
		p.idex.Clear()
		p.flushes += 2
	}
}

func (p *Pipeline) stageMEM() {
	if !p.exmem.Valid || p.exmem.Ins == nil {
		p.memwb.Clear()
		return
	}
	ins := p.exmem.Ins

	var memData uint32
	if ins.MemRead || ins.MemWrite {
		var err error
		memData, err = accessMemory(p.memory, ins.Kind, p.exmem.ALUResult, p.exmem.StoreValue)
		if err != nil {
			memData = 0
		}
	}

	p.memwb.Valid = true
	p.memwb.PC = p.exmem.PC
	p.memwb.Ins = ins
	p.memwb.ALUResult = p.exmem.ALUResult
	p.memwb.MemData = memData

	if ins.Kind != insts.KindUnknown && !insts.IsNop(ins.Raw) {
		p.instructions++
	}
}

func (p *Pipeline) stageWB() {
	if !p.memwb.Valid || p.memwb.Ins == nil {
		return
	}
	ins := p.memwb.Ins

	if ins.RegWrite && ins.Rd != 0 {
		if ins.MemToReg {
			p.regFile.Write(ins.Rd, p.memwb.MemData)
		} else {
			p.regFile.Write(ins.Rd, p.memwb.ALUResult)
		}
	}

	if ins.Kind == insts.KindECALL {
		p.halted = true
	}
}
