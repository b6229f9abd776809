package format

func (f *Formatter) appendRaw(dst []byte, b byte) []byte {
	if f.state.Column == 0 {
		dst = f.appendLineStart(dst)
	}
	dst = f.appendCell(dst, b)
	f.advance()
	return dst
}
