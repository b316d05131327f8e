package asm

import (
	"fmt"
	"strings"
)

// directiveSize returns the number of bytes a directive line will occupy,
// used during pass 1 to advance the section cursor without emitting
// anything yet. curAddr is needed only by .align.
func directiveSize(line sourceLine, curAddr uint32) (uint32, error) {
	switch line.op {
	case ".text", ".data", ".globl", ".global":
		return 0, nil

	case ".word":
		return uint32(len(line.operands)) * 4, nil

	case ".half":
		return uint32(len(line.operands)) * 2, nil

	case ".byte":
		return uint32(len(line.operands)), nil

	case ".asciz", ".string":
		s, err := asciiBytes(line)
		if err != nil {
			return 0, err
		}
		return uint32(len(s)), nil

	case ".space":
		if len(line.operands) != 1 {
			return 0, fmt.Errorf("line %d: .space expects 1 operand", line.lineNo)
		}
		n, err := parseImmediate(line.operands[0])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("line %d: malformed .space count", line.lineNo)
		}
		return uint32(n), nil

	case ".align":
		if len(line.operands) != 1 {
			return 0, fmt.Errorf("line %d: .align expects 1 operand", line.lineNo)
		}
		p, err := parseImmediate(line.operands[0])
		if err != nil || p < 0 || p > 31 {
			return 0, fmt.Errorf("line %d: malformed .align exponent", line.lineNo)
		}
		boundary := uint32(1) << uint(p)
		rem := curAddr % boundary
		if rem == 0 {
			return 0, nil
		}
		return boundary - rem, nil

	default:
		return 0, fmt.Errorf("line %d: unknown directive %q", line.lineNo, line.op)
	}
}

// emitDirective produces the bytes a directive line contributes in pass 2,
// given its already-known address and the final symbol table.
func emitDirective(line sourceLine, addr uint32, symbols map[string]uint32, inText bool) ([]byte, error) {
	switch line.op {
	case ".text", ".data", ".globl", ".global":
		return nil, nil

	case ".word":
		out := make([]byte, 0, len(line.operands)*4)
		for _, o := range line.operands {
			v, err := resolveImmediate(o, addr, symbols, false)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line.lineNo, err)
			}
			out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}
		return out, nil

	case ".half":
		out := make([]byte, 0, len(line.operands)*2)
		for _, o := range line.operands {
			v, err := resolveImmediate(o, addr, symbols, false)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line.lineNo, err)
			}
			out = append(out, byte(v), byte(v>>8))
		}
		return out, nil

	case ".byte":
		out := make([]byte, 0, len(line.operands))
		for _, o := range line.operands {
			v, err := resolveImmediate(o, addr, symbols, false)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line.lineNo, err)
			}
			out = append(out, byte(v))
		}
		return out, nil

	case ".asciz", ".string":
		return asciiBytes(line)

	case ".space":
		n, _ := parseImmediate(line.operands[0])
		return make([]byte, n), nil

	case ".align":
		size, err := directiveSize(line, addr)
		if err != nil {
			return nil, err
		}
		out := make([]byte, size)
		if inText {
			for i := uint32(0); i+4 <= size; i += 4 {
				out[i], out[i+1], out[i+2], out[i+3] = 0x13, 0x00, 0x00, 0x00
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("line %d: unknown directive %q", line.lineNo, line.op)
	}
}

// asciiBytes decodes the quoted string operand of .asciz/.string, including
// the trailing NUL, applying the accepted backslash escapes.
func asciiBytes(line sourceLine) ([]byte, error) {
	if len(line.operands) != 1 {
		return nil, fmt.Errorf("line %d: %s expects 1 operand", line.lineNo, line.op)
	}
	raw := strings.TrimSpace(line.operands[0])
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return nil, fmt.Errorf("line %d: %s operand must be a quoted string", line.lineNo, line.op)
	}
	inner := raw[1 : len(raw)-1]

	var out []byte
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i == len(inner)-1 {
			out = append(out, c)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '0':
			out = append(out, 0)
		case '\\':
			out = append(out, '\\')
		case '"':
			out = append(out, '"')
		default:
			return nil, fmt.Errorf("line %d: unsupported escape \\%c", line.lineNo, inner[i])
		}
	}
	out = append(out, 0)
	return out, nil
}
