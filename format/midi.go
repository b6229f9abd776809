package format

// IsStatus reports whether b starts a MIDI message.
func IsStatus(b byte) bool { return b&0x80 != 0 }

// appendMIDI puts every message on its own line. Width does not apply: a
// line holds one status byte and all data bytes up to the next one.
func (f *Formatter) appendMIDI(dst []byte, b byte) []byte {
	if IsStatus(b) {
		dst = f.appendLineStart(dst)
	}
	if f.opts.Color {
		dst = append(dst, midiColor(b)...)
	}
	return f.appendCell(dst, b)
}
