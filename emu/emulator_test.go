package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32edu/rv32sim/emu"
)

func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeI(imm, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeS(imm, rs2, rs1, funct3, opcode uint32) uint32 {
	hi := (imm >> 5) & 0x7F
	lo := imm & 0x1F
	return hi<<25 | rs2<<20 | rs1<<15 | funct3<<12 | lo<<7 | opcode
}

func encodeB(imm, rs2, rs1, funct3, opcode uint32) uint32 {
	b12 := (imm >> 12) & 0x1
	b11 := (imm >> 11) & 0x1
	b10_5 := (imm >> 5) & 0x3F
	b4_1 := (imm >> 1) & 0xF
	return b12<<31 | b10_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | b4_1<<8 | b11<<7 | opcode
}

func addi(rd, rs1 uint32, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, 0b000, rd, 0b0010011)
}

func add(rd, rs1, rs2 uint32) uint32 {
	return encodeR(0, rs2, rs1, 0b000, rd, 0b0110011)
}

func lw(rd, rs1 uint32, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, 0b010, rd, 0b0000011)
}

func sw(rs2, rs1 uint32, imm int32) uint32 {
	return encodeS(uint32(imm), rs2, rs1, 0b010, 0b0100011)
}

func beq(rs1, rs2 uint32, imm int32) uint32 {
	return encodeB(uint32(imm), rs2, rs1, 0b000, 0b1100011)
}

func jalr(rd, rs1 uint32, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, 0b000, rd, 0b1100111)
}

const ecall = uint32(0x00000073)

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	It("seeds the stack pointer to StackTop", func() {
		Expect(e.RegFile().Read(2)).To(Equal(uint32(emu.StackTop)))
	})

	It("executes addi/add then halts on ecall", func() {
		e.LoadText(emu.TextBase, []uint32{
			addi(1, 0, 5),
			addi(2, 0, 7),
			add(3, 1, 2),
			ecall,
		})

		result := e.Run()

		Expect(result.Halted).To(BeTrue())
		Expect(e.RegFile().Read(3)).To(Equal(uint32(12)))
		Expect(e.Instructions()).To(Equal(uint64(4)))
		Expect(e.Cycles()).To(Equal(e.Instructions())) // CPI = 1.0 exactly
	})

	It("leaves x0 unchanged when targeted as rd", func() {
		e.LoadText(emu.TextBase, []uint32{addi(0, 0, 99), ecall})
		e.Run()
		Expect(e.RegFile().Read(0)).To(Equal(uint32(0)))
	})

	It("round-trips a store then a load", func() {
		e.LoadText(emu.TextBase, []uint32{
			addi(1, 0, 0x100), // x1 = 0x100 (scratch address)
			addi(2, 0, 1234),  // x2 = 1234
			sw(2, 1, 0),       // mem[x1] = x2
			lw(3, 1, 0),       // x3 = mem[x1]
			ecall,
		})
		e.Run()
		Expect(e.RegFile().Read(3)).To(Equal(uint32(1234)))
	})

	It("takes a branch and skips the fallthrough instruction", func() {
		// beq x0, x0, +8; addi x1, x0, 999; addi x2, x0, 42; ecall
		e.LoadText(emu.TextBase, []uint32{
			beq(0, 0, 8),
			addi(1, 0, 999),
			addi(2, 0, 42),
			ecall,
		})
		e.Run()
		Expect(e.RegFile().Read(1)).To(Equal(uint32(0)))
		Expect(e.RegFile().Read(2)).To(Equal(uint32(42)))
	})

	It("clears the low bit of a jalr target", func() {
		e.LoadText(emu.TextBase, []uint32{
			addi(1, 0, 13), // x1 = 13 (odd); target clears bit0 to 12, skipping the addi below
			jalr(5, 1, 0),  // x5 = return addr (pc of this instruction + 4)
			addi(2, 0, 111),
			ecall,
		})
		e.Run()
		Expect(e.RegFile().Read(5)).To(Equal(uint32(emu.TextBase + 8)))
		Expect(e.RegFile().Read(2)).To(Equal(uint32(emu.StackTop))) // x2 (sp) keeps its seeded value
	})

	It("pauses at a breakpoint without clearing state", func() {
		e.LoadText(emu.TextBase, []uint32{addi(1, 0, 1), addi(1, 1, 1), ecall})
		e.AddBreakpoint(emu.TextBase + 4)

		result := e.Step()
		Expect(result.Paused).To(BeTrue())
		Expect(e.RegFile().Read(1)).To(Equal(uint32(1)))
	})

	It("resets registers, memory, and counters", func() {
		e.LoadText(emu.TextBase, []uint32{addi(1, 0, 1), ecall})
		e.Run()
		e.Reset()
		Expect(e.RegFile().Read(1)).To(Equal(uint32(0)))
		Expect(e.Instructions()).To(Equal(uint64(0)))
		Expect(e.PC()).To(Equal(uint32(emu.TextBase)))
	})
})
