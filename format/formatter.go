// Package format turns a serial byte stream into human-readable lines.
//
// A Formatter renders one byte per Append call and carries its line state
// across calls. Line breaks are driven by content only (column count, MIDI
// status bytes, ASCII run transitions), never by time, so a given input and
// Options always render to the same text apart from time prefixes.
package format

import (
	"fmt"
	"strconv"

	"github.com/luhtfiimanal/go-linux-ttydump/clock"
)

// State is the per-stream state a Formatter carries between bytes.
type State struct {
	// Column counts cells on the current Raw line, or escapes in the
	// current ASCII run. It wraps to zero at the configured width.
	Column int
	// Last is the previous byte; valid only when HasLast is set.
	Last    byte
	HasLast bool
	// Lap holds the instant of the previous time prefix.
	Lap clock.Lap
}

// Formatter renders bytes under one Mode. It is not safe for concurrent use.
type Formatter struct {
	opts   Options
	clock  clock.Clock
	state  State
	render func(f *Formatter, dst []byte, b byte) []byte
}

// New returns a Formatter for opts. A width outside [MinWidth, MaxWidth] is
// clamped. A nil clock uses the wall clock.
func New(opts Options, clk clock.Clock) *Formatter {
	if clk == nil {
		clk = clock.Real()
	}
	switch {
	case opts.Width < MinWidth:
		opts.Width = DefaultWidth
	case opts.Width > MaxWidth:
		opts.Width = MaxWidth
	}

	f := &Formatter{opts: opts, clock: clk}
	switch opts.Mode {
	case ASCII:
		f.render = (*Formatter).appendASCII
	case MIDI:
		f.render = (*Formatter).appendMIDI
	default:
		f.render = (*Formatter).appendRaw
	}
	return f
}

// Append renders b and appends the text to dst.
func (f *Formatter) Append(dst []byte, b byte) []byte {
	dst = f.render(f, dst, b)
	f.state.Last = b
	f.state.HasLast = true
	return dst
}

// Options returns the options the Formatter was built with.
func (f *Formatter) Options() Options { return f.opts }

// State returns a copy of the current stream state.
func (f *Formatter) State() State { return f.state }

// appendLineStart ends the current line, or clears the screen in single-line
// mode, and writes the time prefix.
func (f *Formatter) appendLineStart(dst []byte) []byte {
	if f.opts.SingleLine {
		dst = append(dst, clearScreen...)
	} else {
		dst = append(dst, '\n')
	}
	return f.appendPrefix(dst)
}

func (f *Formatter) appendPrefix(dst []byte) []byte {
	if !f.opts.Stamped() {
		return dst
	}
	now := f.clock.Now()
	delta := f.state.Lap.Mark(now)

	if f.opts.Timestamp {
		dst = strconv.AppendInt(dst, now.UnixNano(), 10)
		dst = append(dst, ": "...)
	}
	if f.opts.DeltaNanos {
		dst = fmt.Appendf(dst, "+%012d: ", delta.Nanoseconds())
	}
	if f.opts.DeltaSeconds {
		dst = fmt.Appendf(dst, "%.6f: ", delta.Seconds())
	}
	return dst
}

// appendCell writes b as a right-aligned numeric field and a separator.
func (f *Formatter) appendCell(dst []byte, b byte) []byte {
	switch {
	case f.opts.ZeroPad && f.opts.Decimal:
		return fmt.Appendf(dst, "%03d ", b)
	case f.opts.ZeroPad:
		return fmt.Appendf(dst, "%02x ", b)
	case f.opts.Decimal:
		return fmt.Appendf(dst, "%3d ", b)
	default:
		return fmt.Appendf(dst, "%2x ", b)
	}
}

// advance counts one cell or escape and wraps at the width.
func (f *Formatter) advance() {
	f.state.Column++
	if f.state.Column >= f.opts.Width {
		f.state.Column = 0
	}
}
