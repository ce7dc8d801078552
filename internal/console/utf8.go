package console

import (
	"strings"
	"unicode/utf8"
)

// textDecoder turns a byte stream into valid UTF-8 text frames. A rune split
// across reads is held back until its remaining bytes arrive; invalid bytes are dropped.
type textDecoder struct {
	pending []byte
}

func (d *textDecoder) decode(chunk []byte) string {
	data := append(d.pending, chunk...)
	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax+1; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}
	d.pending = append(d.pending[:0:0], data[cut:]...)
	return strings.ToValidUTF8(string(data[:cut]), "")
}
