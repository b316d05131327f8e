package emu

import "fmt"

// RegFile is the RV32 general-purpose register file: 32 32-bit registers.
// Register 0 always reads as zero and silently ignores writes.
type RegFile struct {
	x [32]uint32
}

// Read returns the value of register i. Register 0 always reads as 0.
// i must be in 0-31; an out-of-range index is a programmer error and panics.
func (r *RegFile) Read(i uint8) uint32 {
	if i >= 32 {
		panic(fmt.Sprintf("emu: register index out of range: %d", i))
	}
	if i == 0 {
		return 0
	}
	return r.x[i]
}

// Write sets register i to v. Writes to register 0 are no-ops.
// i must be in 0-31; an out-of-range index is a programmer error and panics.
func (r *RegFile) Write(i uint8, v uint32) {
	if i >= 32 {
		panic(fmt.Sprintf("emu: register index out of range: %d", i))
	}
	if i == 0 {
		return
	}
	r.x[i] = v
}

// Reset zeroes every register.
func (r *RegFile) Reset() {
	r.x = [32]uint32{}
}

// Dump returns a snapshot of all 32 registers, with x0 forced to 0.
func (r *RegFile) Dump() [32]uint32 {
	snap := r.x
	snap[0] = 0
	return snap
}
