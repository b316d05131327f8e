package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// parseImmediate parses a decimal, 0x-hex, or 0b-binary signed integer
// literal, as accepted in operand position.
func parseImmediate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty immediate")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	var v uint64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseUint(s[2:], 2, 64)
	default:
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("malformed immediate %q: %w", s, err)
	}

	n := int64(v)
	if neg {
		n = -n
	}
	return n, nil
}

// memOperand splits an `offset(reg)` memory operand into its offset
// expression and register name.
func memOperand(s string) (offset, reg string, ok bool) {
	open := strings.IndexByte(s, '(')
	close := strings.IndexByte(s, ')')
	if open < 0 || close < open {
		return "", "", false
	}
	offset = strings.TrimSpace(s[:open])
	reg = strings.TrimSpace(s[open+1 : close])
	if offset == "" {
		offset = "0"
	}
	return offset, reg, true
}
