package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32edu/rv32sim/emu"
	"github.com/rv32edu/rv32sim/timing/pipeline"
)

func pEncodeI(imm, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
func pEncodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
func pEncodeS(imm, rs2, rs1, funct3, opcode uint32) uint32 {
	return ((imm>>5)&0x7F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (imm&0x1F)<<7 | opcode
}
func pEncodeB(imm, rs2, rs1, funct3, opcode uint32) uint32 {
	return ((imm>>12)&1)<<31 | ((imm>>5)&0x3F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | ((imm>>1)&0xF)<<8 | ((imm>>11)&1)<<7 | opcode
}

func pAddi(rd, rs1, imm uint32) uint32 { return pEncodeI(imm, rs1, 0b000, rd, 0b0010011) }
func pAdd(rd, rs1, rs2 uint32) uint32  { return pEncodeR(0, rs2, rs1, 0b000, rd, 0b0110011) }
func pLw(rd, rs1, imm uint32) uint32   { return pEncodeI(imm, rs1, 0b010, rd, 0b0000011) }
func pSw(rs2, rs1, imm uint32) uint32  { return pEncodeS(imm, rs2, rs1, 0b010, 0b0100011) }
func pBeq(rs1, rs2, imm uint32) uint32 { return pEncodeB(imm, rs2, rs1, 0b000, 0b1100011) }

const pEcall = uint32(0x00000073)

var _ = Describe("Pipeline", func() {
	var p *pipeline.Pipeline

	BeforeEach(func() {
		p = pipeline.NewPipeline()
	})

	It("seeds the stack pointer to StackTop", func() {
		Expect(p.RegFile().Read(2)).To(Equal(uint32(emu.StackTop)))
	})

	It("executes a straight-line program and counts every retired instruction", func() {
		p.LoadText(emu.TextBase, []uint32{
			pAddi(1, 0, 5),
			pAddi(2, 0, 0),
			pAddi(2, 0, 0),
			pAddi(2, 0, 0),
			pEcall,
		})
		result := p.Run(0)
		Expect(result.Halted).To(BeTrue())
		Expect(p.RegFile().Read(1)).To(Equal(uint32(5)))
		Expect(p.Statistics().Instructions).To(Equal(uint64(5)))
	})

	It("forwards an EX/MEM result to a dependent instruction's EX stage", func() {
		p.LoadText(emu.TextBase, []uint32{
			pAddi(1, 0, 5),
			pAdd(2, 1, 1), // x2 = x1 + x1, depends on the immediately preceding instruction
			pEcall,
		})
		p.Run(0)
		Expect(p.RegFile().Read(2)).To(Equal(uint32(10)))
		Expect(p.Statistics().Forwards).To(BeNumerically(">", 0))
	})

	It("produces a stale result when forwarding is disabled", func() {
		p = pipeline.NewPipeline(pipeline.WithForwarding(false))
		p.LoadText(emu.TextBase, []uint32{
			pAddi(1, 0, 5),
			pAdd(2, 1, 1),
			pEcall,
		})
		p.Run(0)
		Expect(p.RegFile().Read(2)).To(Equal(uint32(0)))
	})

	It("stalls one cycle on a load-use hazard", func() {
		p.LoadText(emu.TextBase, []uint32{
			pAddi(1, 0, 0x100),
			pAddi(2, 0, 77),
			pSw(2, 1, 0),
			pLw(3, 1, 0),
			pAdd(4, 3, 3),
			pEcall,
		})
		p.Run(0)
		Expect(p.RegFile().Read(4)).To(Equal(uint32(154)))
		Expect(p.Statistics().Stalls).To(BeNumerically(">", 0))
	})

	It("suppresses the load-use stall when hazard detection is disabled, producing a wrong result", func() {
		p = pipeline.NewPipeline(pipeline.WithHazardDetection(false))
		p.LoadText(emu.TextBase, []uint32{
			pAddi(1, 0, 0x100),
			pAddi(2, 0, 77),
			pSw(2, 1, 0),
			pLw(3, 1, 0),
			pAdd(4, 3, 3),
			pEcall,
		})
		p.Run(0)
		Expect(p.Statistics().Stalls).To(Equal(uint64(0)))
		Expect(p.RegFile().Read(4)).ToNot(Equal(uint32(154)))
	})

	It("flushes two latches on a taken branch", func() {
		p.LoadText(emu.TextBase, []uint32{
			pBeq(0, 0, 12),
			pAddi(1, 0, 999),
			pAddi(1, 0, 999),
			pAddi(2, 0, 42),
			pEcall,
		})
		p.Run(0)
		Expect(p.RegFile().Read(1)).To(Equal(uint32(0)))
		Expect(p.RegFile().Read(2)).To(Equal(uint32(42)))
		Expect(p.Statistics().Flushes).To(BeNumerically(">=", 2))
	})

	It("pauses at a breakpoint", func() {
		p.LoadText(emu.TextBase, []uint32{pAddi(1, 0, 1), pAddi(1, 1, 1), pEcall})
		p.AddBreakpoint(emu.TextBase + 4)
		var result emu.StepResult
		for i := 0; i < 10; i++ {
			result = p.Step()
			if result.Paused || result.Halted {
				break
			}
		}
		Expect(result.Paused).To(BeTrue())
	})

	It("resets registers, latches, and counters", func() {
		p.LoadText(emu.TextBase, []uint32{pAddi(1, 0, 1), pEcall})
		p.Run(0)
		p.Reset()
		Expect(p.RegFile().Read(1)).To(Equal(uint32(0)))
		Expect(p.Statistics().Instructions).To(Equal(uint64(0)))
		Expect(p.PC()).To(Equal(uint32(emu.TextBase)))
	})
})
