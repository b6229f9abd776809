package format

import "fmt"

// IsPrintable reports whether ASCII mode writes b verbatim. Graphic
// characters and whitespace controls qualify. Backslash never does, so
// every backslash in the output starts an escape.
func IsPrintable(b byte) bool {
	switch b {
	case '\\':
		return false
	case '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return b >= 0x20 && b <= 0x7e
}

// appendASCII alternates between printable runs, written as-is, and escape
// runs of \xhh or \ddd sequences. Each switch between the two starts a new
// line, as does every Width-th escape within one run.
func (f *Formatter) appendASCII(dst []byte, b byte) []byte {
	st := &f.state
	printable := IsPrintable(b)

	var startsLine bool
	if printable {
		startsLine = !st.HasLast || !IsPrintable(st.Last)
	} else {
		startsLine = st.Column == 0
	}

	// A received newline moved the cursor to a fresh line on its own.
	if st.HasLast && st.Last == '\n' {
		if f.opts.SingleLine {
			dst = append(dst, clearScreen...)
		}
		if !startsLine {
			dst = f.appendPrefix(dst)
		}
	}

	if startsLine {
		dst = f.appendLineStart(dst)
	}

	if printable {
		st.Column = 0
		return append(dst, b)
	}

	if f.opts.Color {
		dst = append(dst, colorEscape...)
	}
	if f.opts.Decimal {
		dst = fmt.Appendf(dst, "\\%03d", b)
	} else {
		dst = fmt.Appendf(dst, "\\x%02x", b)
	}
	if f.opts.Color {
		dst = append(dst, colorReset...)
	}
	f.advance()
	return dst
}
