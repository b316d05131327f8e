package asm

import "strings"

// sourceLine is one tokenized line of assembly: an optional label, the
// mnemonic or directive name, and its comma-split operands.
type sourceLine struct {
	lineNo    int
	label     string // without the trailing colon; empty if none
	op        string // mnemonic or ".directive", lower-cased; empty for a label-only line
	operands  []string
	directive bool
}

// tokenize splits source into sourceLines, stripping comments and blank
// lines. Line numbers are 1-based and refer to the original source text.
func tokenize(src string) []sourceLine {
	var lines []sourceLine
	for i, raw := range strings.Split(src, "\n") {
		lineNo := i + 1
		text := stripComment(raw)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		var label string
		if idx := strings.Index(text, ":"); idx >= 0 && !strings.ContainsAny(text[:idx], " \t") {
			label = text[:idx]
			text = strings.TrimSpace(text[idx+1:])
		}

		if text == "" {
			lines = append(lines, sourceLine{lineNo: lineNo, label: label})
			continue
		}

		op, rest := splitFirstField(text)
		line := sourceLine{
			lineNo:    lineNo,
			label:     label,
			op:        strings.ToLower(op),
			directive: strings.HasPrefix(op, "."),
		}
		if rest != "" {
			line.operands = splitOperands(rest)
		}
		lines = append(lines, line)
	}
	return lines
}

// stripComment removes a '#' comment running to end-of-line, respecting
// that '#' never appears inside this assembler's operand syntax.
func stripComment(s string) string {
	if idx := strings.IndexByte(s, '#'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func splitFirstField(s string) (first, rest string) {
	fields := strings.SplitN(s, " ", 2)
	if len(fields) == 1 {
		return strings.TrimSpace(fields[0]), ""
	}
	return strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
}

// splitOperands splits operand text on commas, trimming whitespace, except
// inside a quoted string (used by .asciz/.string).
func splitOperands(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(out) > 0 {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}
