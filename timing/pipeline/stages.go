package pipeline

import (
	"fmt"

	"github.com/rv32edu/rv32sim/emu"
	"github.com/rv32edu/rv32sim/insts"
)

// accessMemory performs the MEM stage's typed load or store, mirroring the
// single-cycle engine's memory access rules. For a load it returns the
// sign/zero-extended value to place in MEM/WB; for a store the returned
// value is unused.
func accessMemory(mem *emu.Memory, kind insts.Kind, addr, storeVal uint32) (uint32, error) {
	switch kind {
	case insts.KindLB:
		return uint32(mem.ReadByteSigned(addr)), nil
	case insts.KindLH:
		return uint32(mem.ReadHalfSigned(addr)), nil
	case insts.KindLW:
		return mem.ReadWord(addr), nil
	case insts.KindLBU:
		return uint32(mem.ReadByte(addr)), nil
	case insts.KindLHU:
		return uint32(mem.ReadHalf(addr)), nil
	case insts.KindSB:
		mem.WriteByte(addr, byte(storeVal))
		return 0, nil
	case insts.KindSH:
		mem.WriteHalf(addr, uint16(storeVal))
		return 0, nil
	case insts.KindSW:
		mem.WriteWord(addr, storeVal)
		return 0, nil
	default:
		return 0, fmt.Errorf("pipeline: unrecognized memory access kind %v", kind)
	}
}
