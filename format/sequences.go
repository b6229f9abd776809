package format

import (
	"fmt"

	"github.com/muesli/termenv"
)

// Terminal control sequences written into the rendered stream.
var (
	clearScreen = termenv.CSI + fmt.Sprintf(termenv.CursorPositionSeq, 1, 1) +
		termenv.CSI + fmt.Sprintf(termenv.EraseDisplaySeq, 2)

	colorReset  = termenv.CSI + termenv.ResetSeq + "m"
	colorEscape = sgr(termenv.ANSIGreen)

	colorNoteOff    = sgr(termenv.ANSIMagenta)
	colorNoteOn     = sgr(termenv.ANSIGreen)
	colorControl    = sgr(termenv.ANSICyan)
	colorAftertouch = sgr(termenv.ANSIBrightBlue)
	colorPitchBend  = sgr(termenv.ANSIBrightYellow)
)

func sgr(c termenv.ANSIColor) string {
	return termenv.CSI + c.Sequence(false) + "m"
}

// midiColor picks the colour for a cell from its high nibble. Data bytes and
// unlisted status bytes reset the colour.
func midiColor(b byte) string {
	switch b & 0xf0 {
	case 0x80:
		return colorNoteOff
	case 0x90:
		return colorNoteOn
	case 0xb0:
		return colorControl
	case 0xd0:
		return colorAftertouch
	case 0xe0:
		return colorPitchBend
	}
	return colorReset
}
