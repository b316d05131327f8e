// Package pipeline provides the five-stage pipeline implementation.
package pipeline

import "github.com/rv32edu/rv32sim/insts"

// IFIDRegister holds state latched between Fetch and Decode.
type IFIDRegister struct {
	Valid bool

	PC     uint32 // address the word was fetched from
	NextPC uint32 // PC + 4, snapshotted at fetch time
	Word   uint32 // the raw fetched instruction word
}

// Clear resets the IF/ID register to the empty bubble state.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state latched between Decode and Execute.
type IDEXRegister struct {
	Valid bool

	PC  uint32
	Ins *insts.Instruction

	Rs1Value uint32
	Rs2Value uint32
}

// Clear resets the ID/EX register to the empty bubble state.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state latched between Execute and Memory.
type EXMEMRegister struct {
	Valid bool

	PC  uint32
	Ins *insts.Instruction

	ALUResult    uint32
	StoreValue   uint32 // forwarded rs2, used as store data
	BranchTarget uint32
	BranchTaken  bool
}

// Clear resets the EX/MEM register to the empty bubble state.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state latched between Memory and Writeback.
type MEMWBRegister struct {
	Valid bool

	PC  uint32
	Ins *insts.Instruction

	ALUResult uint32
	MemData   uint32
}

// Clear resets the MEM/WB register to the empty bubble state.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
