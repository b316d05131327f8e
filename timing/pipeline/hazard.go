package pipeline

import "github.com/rv32edu/rv32sim/insts"

// ForwardSource indicates where EX should pull an operand value from.
type ForwardSource int

const (
	ForwardNone ForwardSource = iota
	ForwardFromEXMEM
	ForwardFromMEMWB
)

// HazardUnit is pure over the four latches: every method is a function of
// its arguments alone, with no state of its own.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectLoadUse reports whether the instruction now sitting in ID/EX is a
// load whose destination the next instruction (currently in IF/ID, already
// decoded) reads as rs1 or rs2.
func (h *HazardUnit) DetectLoadUse(idex *IDEXRegister, next *insts.Instruction) bool {
	if !idex.Valid || idex.Ins == nil || !idex.Ins.MemRead || idex.Ins.Rd == 0 {
		return false
	}
	return next.Rs1 == idex.Ins.Rd || next.Rs2 == idex.Ins.Rd
}

// ForwardSourceFor decides where rs's value should come from. Register x0
// never needs forwarding since it always reads as zero. EX/MEM takes
// precedence over MEM/WB because it holds the more recently executed
// instruction.
func (h *HazardUnit) ForwardSourceFor(rs uint8, exmem *EXMEMRegister, memwb *MEMWBRegister) ForwardSource {
	if rs == 0 {
		return ForwardNone
	}
	if exmem.Valid && exmem.Ins != nil && exmem.Ins.RegWrite && exmem.Ins.Rd == rs {
		return ForwardFromEXMEM
	}
	if memwb.Valid && memwb.Ins != nil && memwb.Ins.RegWrite && memwb.Ins.Rd == rs {
		return ForwardFromMEMWB
	}
	return ForwardNone
}

// ForwardedValue resolves a ForwardSource decision into the value EX should
// actually use, falling back to the register file's latched value.
func (h *HazardUnit) ForwardedValue(src ForwardSource, latched uint32, exmem *EXMEMRegister, memwb *MEMWBRegister) uint32 {
	switch src {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		if memwb.Ins != nil && memwb.Ins.MemToReg {
			return memwb.MemData
		}
		return memwb.ALUResult
	default:
		return latched
	}
}

// DetectBranchHazard reports whether the instruction that just finished EX
// resolved as a taken branch or jump, requiring IF/ID and ID/EX to flush.
func (h *HazardUnit) DetectBranchHazard(exmem *EXMEMRegister) bool {
	return exmem.Valid && exmem.BranchTaken
}
