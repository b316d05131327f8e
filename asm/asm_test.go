package asm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv32edu/rv32sim/asm"
	"github.com/rv32edu/rv32sim/emu"
	"github.com/rv32edu/rv32sim/insts"
)

var _ = Describe("Assembler", func() {
	var a *asm.Assembler

	BeforeEach(func() {
		a = asm.NewAssembler()
	})

	It("assembles a straight-line program with labels", func() {
		src := `
			# sum 1..3
			addi x1, x0, 0
			addi x2, x0, 3
			loop:
			add  x1, x1, x2
			addi x2, x2, -1
			bnez x2, loop
			ecall
		`
		res := a.Assemble(src)
		Expect(res.Errors).To(BeEmpty())
		Expect(res.Success).To(BeTrue())
		Expect(res.Text).To(HaveLen(6))
		Expect(res.Symbols["loop"]).To(Equal(uint32(emu.TextBase + 8)))
	})

	It("accumulates one error per offending line instead of stopping", func() {
		src := `
			addi x1, x0, 1
			frobnicate x1, x2
			addi x9, x0, bogus_label_ref
			beq x1, x2, nowhere
		`
		res := a.Assemble(src)
		Expect(res.Success).To(BeFalse())
		Expect(res.Errors).To(HaveLen(3))
		Expect(res.Errors[0].Line).To(Equal(3))
		Expect(res.Errors[1].Line).To(Equal(4))
		Expect(res.Errors[2].Line).To(Equal(5))
	})

	It("still reports pass-2-only label errors when an unrelated line also has a pass-1 error", func() {
		src := `
			frobnicate x1, x2
			beq x1, x2, nowhere
		`
		res := a.Assemble(src)
		Expect(res.Success).To(BeFalse())
		Expect(res.Errors).To(HaveLen(2))
		Expect(res.Errors[1].Msg).To(ContainSubstring("nowhere"))
	})

	It("resolves .word/.byte/.asciz data and computes their sizes", func() {
		src := `
			.data
			buf:
			.word 1, 2
			tag:
			.byte 0xFF
			msg:
			.asciz "hi"
			.text
			la x1, buf
			ecall
		`
		res := a.Assemble(src)
		Expect(res.Errors).To(BeEmpty())
		Expect(res.Data).To(Equal([]byte{
			1, 0, 0, 0,
			2, 0, 0, 0,
			0xFF,
			'h', 'i', 0,
		}))
		Expect(res.Symbols["tag"]).To(Equal(uint32(emu.DataBase + 8)))
		Expect(res.Symbols["msg"]).To(Equal(uint32(emu.DataBase + 9)))
	})

	It("pads .align to the requested power-of-two boundary", func() {
		src := `
			.data
			.byte 1
			.align 2
			w:
			.word 0xAABBCCDD
		`
		res := a.Assemble(src)
		Expect(res.Errors).To(BeEmpty())
		Expect(res.Symbols["w"]).To(Equal(uint32(emu.DataBase + 4)))
	})

	It("expands li into one word for small immediates and two for large ones", func() {
		src := `
			li x1, 5
			li x2, 100000
			ecall
		`
		res := a.Assemble(src)
		Expect(res.Errors).To(BeEmpty())
		Expect(res.Text).To(HaveLen(4)) // 1 + 2 + 1(ecall)
	})

	It("computes PC-relative branch offsets correctly", func() {
		src := `
			start:
			beq x0, x0, end
			addi x1, x0, 1
			end:
			ecall
		`
		res := a.Assemble(src)
		Expect(res.Errors).To(BeEmpty())

		d := insts.NewDecoder()
		inst := d.Decode(res.Text[0], res.TextBase)
		Expect(inst.Kind).To(Equal(insts.KindBEQ))
		Expect(inst.Imm).To(Equal(int32(8)))
	})

	It("round-trips every assembled word through the decoder and back", func() {
		src := `
			main:
			addi x5, x0, 10
			addi x6, x0, 20
			add  x7, x5, x6
			sw   x7, 0(x0)
			lw   x8, 0(x0)
			sub  x9, x8, x7
			bne  x9, x0, main
			jal  x1, main
			jalr x0, x1, 0
			ecall
		`
		res := a.Assemble(src)
		Expect(res.Errors).To(BeEmpty())

		d := insts.NewDecoder()
		for i, word := range res.Text {
			addr := res.TextBase + uint32(i)*4
			decoded := d.Decode(word, addr)
			reencoded, err := a.Encode(decoded)
			Expect(err).ToNot(HaveOccurred())
			Expect(reencoded).To(Equal(word))
		}
	})

	It("parses the 1-, 2-, and 3-operand jalr forms", func() {
		src := `
			jalr x5
			jalr t0, 4(t1)
			jalr x0, x1, 8
		`
		res := a.Assemble(src)
		Expect(res.Errors).To(BeEmpty())

		d := insts.NewDecoder()
		one := d.Decode(res.Text[0], res.TextBase)
		Expect(one.Rd).To(Equal(uint8(1))) // ra
		Expect(one.Rs1).To(Equal(uint8(5)))
		Expect(one.Imm).To(Equal(int32(0)))

		two := d.Decode(res.Text[1], res.TextBase+4)
		Expect(two.Rd).To(Equal(uint8(5)))  // t0
		Expect(two.Rs1).To(Equal(uint8(6))) // t1
		Expect(two.Imm).To(Equal(int32(4)))

		three := d.Decode(res.Text[2], res.TextBase+8)
		Expect(three.Rd).To(Equal(uint8(0)))
		Expect(three.Rs1).To(Equal(uint8(1)))
		Expect(three.Imm).To(Equal(int32(8)))
	})
})
