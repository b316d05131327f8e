package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32edu/rv32sim/insts"
)

var _ = Describe("Decoder", func() {
	var d *insts.Decoder

	BeforeEach(func() {
		d = insts.NewDecoder()
	})

	Describe("R-format", func() {
		It("decodes add", func() {
			// add x3, x1, x2
			word := uint32(0b0000000_00010_00001_000_00011_0110011)
			inst := d.Decode(word, 0x100)
			Expect(inst.Kind).To(Equal(insts.KindADD))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.RegWrite).To(BeTrue())
			Expect(inst.ALUOp).To(Equal(insts.AluADD))
		})

		It("distinguishes sub from add via funct7 bit 5", func() {
			word := uint32(0b0100000_00010_00001_000_00011_0110011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindSUB))
		})

		It("distinguishes sra from srl via funct7 bit 5", func() {
			word := uint32(0b0100000_00010_00001_101_00011_0110011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindSRA))
		})

		It("decodes the M-extension map when funct7 is 0x01", func() {
			// mul x3, x1, x2
			word := uint32(0b0000001_00010_00001_000_00011_0110011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindMUL))
			Expect(inst.ALUOp).To(Equal(insts.AluMUL))
		})
	})

	Describe("I-format", func() {
		It("decodes addi with a sign-extended negative immediate", func() {
			// addi x1, x0, -1
			word := uint32(0xFFF00093)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindADDI))
			Expect(inst.Imm).To(Equal(int32(-1)))
			Expect(inst.AluSrc).To(BeTrue())
		})

		It("decodes slli with the shift amount in the rs2 field", func() {
			// slli x1, x1, 3
			word := uint32(0b0000000_00011_00001_001_00001_0010011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindSLLI))
			Expect(inst.Imm).To(Equal(int32(3)))
		})

		It("decodes srai distinctly from srli via funct7 bit 5", func() {
			word := uint32(0b0100000_00011_00001_101_00001_0010011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindSRAI))
			Expect(inst.Imm).To(Equal(int32(3)))
		})

		It("decodes loads with mem_read implying mem_to_reg", func() {
			// lw x5, 4(x2)
			word := uint32(0b000000000100_00010_010_00101_0000011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindLW))
			Expect(inst.MemRead).To(BeTrue())
			Expect(inst.MemToReg).To(BeTrue())
			Expect(inst.Imm).To(Equal(int32(4)))
		})

		It("decodes ecall from a zero immediate", func() {
			inst := d.Decode(0x00000073, 0)
			Expect(inst.Kind).To(Equal(insts.KindECALL))
		})

		It("decodes ebreak from an immediate of one", func() {
			inst := d.Decode(0x00100073, 0)
			Expect(inst.Kind).To(Equal(insts.KindEBREAK))
		})

		It("decodes an out-of-range SYSTEM immediate as unknown", func() {
			inst := d.Decode(0x00200073, 0)
			Expect(inst.Kind).To(Equal(insts.KindUnknown))
		})
	})

	Describe("S-format", func() {
		It("decodes sw with a correctly split immediate", func() {
			// sw x5, -4(x2): imm = -4 = 0xFFFFFFFC
			word := uint32(0b1111111_00101_00010_010_11100_0100011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindSW))
			Expect(inst.Imm).To(Equal(int32(-4)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(5)))
		})
	})

	Describe("B-format", func() {
		It("decodes beq with an always-even immediate", func() {
			// beq x1, x2, +8
			word := uint32(0b0000000_00010_00001_000_01000_1100011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindBEQ))
			Expect(inst.Imm).To(Equal(int32(8)))
			Expect(inst.Imm % 2).To(Equal(int32(0)))
		})

		It("sign-extends a negative branch offset", func() {
			// bne x1, x2, -8 encoded directly
			word := uint32(0b1111111_00010_00001_001_11001_1100011)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindBNE))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})
	})

	Describe("U-format", func() {
		It("decodes lui with the immediate pre-shifted into bits 31:12", func() {
			// lui x1, 0x12345
			word := uint32(0x12345000 | (1 << 7) | 0b0110111)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindLUI))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
			Expect(inst.ALUOp).To(Equal(insts.AluPassB))
		})

		It("decodes auipc with ADD selected as the ALU op", func() {
			word := uint32(0x00001000 | (1 << 7) | 0b0010111)
			inst := d.Decode(word, 0x1000)
			Expect(inst.Kind).To(Equal(insts.KindAUIPC))
			Expect(inst.ALUOp).To(Equal(insts.AluADD))
		})
	})

	Describe("J-format", func() {
		It("decodes jal with an always-even immediate", func() {
			// jal x1, +16
			word := uint32(0b0_0000001000_0_00000000_00001_1101111)
			inst := d.Decode(word, 0)
			Expect(inst.Kind).To(Equal(insts.KindJAL))
			Expect(inst.Imm).To(Equal(int32(16)))
			Expect(inst.Jump).To(BeTrue())
		})
	})

	Describe("purity", func() {
		It("does not let pc influence control signals or the immediate", func() {
			word := uint32(0xFFF00093) // addi x1, x0, -1
			a := d.Decode(word, 0x1000)
			b := d.Decode(word, 0x2000)
			Expect(a.Imm).To(Equal(b.Imm))
			Expect(a.Kind).To(Equal(b.Kind))
			Expect(a.RegWrite).To(Equal(b.RegWrite))
		})
	})

	Describe("unknown encodings", func() {
		It("sets no control bits for an unrecognized opcode", func() {
			inst := d.Decode(0x0000007F, 0)
			Expect(inst.Kind).To(Equal(insts.KindUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
			Expect(inst.RegWrite).To(BeFalse())
			Expect(inst.MemRead).To(BeFalse())
			Expect(inst.MemWrite).To(BeFalse())
		})
	})
})
