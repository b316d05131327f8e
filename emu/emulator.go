// Package emu provides the RV32IM register file, memory, ALU, and the
// single-cycle execution engine built on top of them.
package emu

import (
	"fmt"

	"github.com/rv32edu/rv32sim/insts"
)

// StepResult represents the outcome of advancing an Engine by one
// instruction (single-cycle) or one cycle (pipeline).
type StepResult struct {
	// Halted is true if the program halted (via ECALL).
	Halted bool

	// Paused is true if execution stopped at a breakpoint.
	Paused bool

	// Err is set if an unrecoverable error occurred.
	Err error
}

// EmulatorOption is a functional option for configuring an Emulator.
type EmulatorOption func(*Emulator)

// WithStackPointer sets the initial stack pointer (register x2).
func WithStackPointer(sp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.Write(2, sp)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute
// before Run gives up. A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// Emulator is the single-cycle RV32IM execution engine: it fetches,
// decodes, and executes one instruction per Step, composing the Decoder,
// RegFile, ALU, and Memory.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder
	alu     *ALU

	pc uint32

	breakpoints map[uint32]struct{}

	cycles          uint64
	instructions    uint64
	maxInstructions uint64
	halted          bool
}

// NewEmulator creates a single-cycle Emulator with its own register file
// and memory, initial SP at StackTop and PC at TextBase.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:     &RegFile{},
		memory:      NewMemory(),
		decoder:     insts.NewDecoder(),
		alu:         NewALU(),
		pc:          TextBase,
		breakpoints: make(map[uint32]struct{}),
	}
	e.regFile.Write(2, StackTop)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile { return e.regFile }

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory { return e.memory }

// PC returns the current program counter.
func (e *Emulator) PC() uint32 { return e.pc }

// SetPC sets the program counter.
func (e *Emulator) SetPC(pc uint32) { e.pc = pc }

// Cycles returns the number of cycles (equal to instructions, for the
// single-cycle engine: CPI = 1.0 exactly).
func (e *Emulator) Cycles() uint64 { return e.cycles }

// Instructions returns the number of instructions executed.
func (e *Emulator) Instructions() uint64 { return e.instructions }

// AddBreakpoint registers pc as a breakpoint address.
func (e *Emulator) AddBreakpoint(pc uint32) { e.breakpoints[pc] = struct{}{} }

// RemoveBreakpoint unregisters pc as a breakpoint address.
func (e *Emulator) RemoveBreakpoint(pc uint32) { delete(e.breakpoints, pc) }

// LoadText loads a text image of machine words starting at base.
func (e *Emulator) LoadText(base uint32, words []uint32) {
	e.memory.WriteWords(base, words)
}

// LoadData loads a data image of bytes starting at base.
func (e *Emulator) LoadData(base uint32, data []byte) {
	e.memory.WriteBytes(base, data)
}

// Reset zeroes the register file (re-seeding SP), resets memory, counters
// and halted state, and sets PC to TextBase.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.regFile.Write(2, StackTop)
	e.memory.Reset()
	e.pc = TextBase
	e.cycles = 0
	e.instructions = 0
	e.halted = false
}

// Step executes a single instruction and returns the outcome.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}

	word := e.memory.ReadWord(e.pc)
	inst := e.decoder.Decode(word, e.pc)

	if inst.Kind == insts.KindECALL {
		e.cycles++
		e.instructions++
		e.halted = true
		return StepResult{Halted: true}
	}

	rs1Val := e.regFile.Read(inst.Rs1)
	rs2Val := e.regFile.Read(inst.Rs2)

	aluA := rs1Val
	if inst.Kind == insts.KindAUIPC {
		aluA = e.pc
	}
	aluB := rs2Val
	if inst.AluSrc {
		aluB = uint32(inst.Imm)
	}

	aluResult := e.alu.Execute(inst.ALUOp, aluA, aluB)

	nextPC := e.pc + 4
	var writebackValue uint32
	switch {
	case inst.Kind == insts.KindJAL:
		nextPC = e.pc + uint32(inst.Imm)
		writebackValue = e.pc + 4
	case inst.Kind == insts.KindJALR:
		nextPC = (rs1Val + uint32(inst.Imm)) &^ 1
		writebackValue = e.pc + 4
	case inst.Branch:
		if e.alu.BranchTaken(inst.Kind, rs1Val, rs2Val) {
			nextPC = e.pc + uint32(inst.Imm)
		}
		writebackValue = aluResult
	default:
		writebackValue = aluResult
	}

	if err := e.accessMemory(inst, aluResult, rs2Val, &writebackValue); err != nil {
		return StepResult{Err: err}
	}

	if inst.RegWrite {
		e.regFile.Write(inst.Rd, writebackValue)
	}

	e.pc = nextPC
	e.cycles++
	e.instructions++

	if _, isBreakpoint := e.breakpoints[e.pc]; isBreakpoint {
		return StepResult{Paused: true}
	}
	return StepResult{}
}

// accessMemory performs the typed memory access for loads and stores,
// setting *writebackValue for loads.
func (e *Emulator) accessMemory(inst *insts.Instruction, addr, storeVal uint32, writebackValue *uint32) error {
	if inst.MemRead {
		switch inst.Kind {
		case insts.KindLB:
			*writebackValue = uint32(e.memory.ReadByteSigned(addr))
		case insts.KindLH:
			*writebackValue = uint32(e.memory.ReadHalfSigned(addr))
		case insts.KindLW:
			*writebackValue = e.memory.ReadWord(addr)
		case insts.KindLBU:
			*writebackValue = uint32(e.memory.ReadByte(addr))
		case insts.KindLHU:
			*writebackValue = uint32(e.memory.ReadHalf(addr))
		default:
			return fmt.Errorf("emu: unrecognized load kind %v at PC=0x%X", inst.Kind, inst.PC)
		}
	}
	if inst.MemWrite {
		switch inst.Kind {
		case insts.KindSB:
			e.memory.WriteByte(addr, byte(storeVal))
		case insts.KindSH:
			e.memory.WriteHalf(addr, uint16(storeVal))
		case insts.KindSW:
			e.memory.WriteWord(addr, storeVal)
		default:
			return fmt.Errorf("emu: unrecognized store kind %v at PC=0x%X", inst.Kind, inst.PC)
		}
	}
	return nil
}

// Run executes instructions until halt, a breakpoint, an error, or
// maxInstructions is reached (if set). It returns the final StepResult.
func (e *Emulator) Run() StepResult {
	for {
		if e.maxInstructions > 0 && e.instructions >= e.maxInstructions {
			return StepResult{Err: fmt.Errorf("emu: max instructions (%d) reached", e.maxInstructions)}
		}
		result := e.Step()
		if result.Halted || result.Paused || result.Err != nil {
			return result
		}
	}
}
