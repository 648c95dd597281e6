package terminal

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textDecoder turns a byte stream into UTF-8 text across chunk boundaries.
// A rune split between two chunks is held back until it completes; invalid
// bytes become U+FFFD.
type textDecoder struct {
	t     transform.Transformer
	carry []byte
}

func newTextDecoder() *textDecoder {
	return &textDecoder{t: unicode.UTF8.NewDecoder()}
}

func (d *textDecoder) decode(p []byte) string {
	src := p
	if len(d.carry) > 0 {
		src = append(d.carry, p...)
		d.carry = nil
	}
	// Every invalid byte may expand to a three byte replacement rune.
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	var out []byte
	for len(src) > 0 {
		nDst, nSrc, err := d.t.Transform(dst, src, false)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]
		if err == nil {
			break
		}
		if errors.Is(err, transform.ErrShortSrc) {
			d.carry = append([]byte(nil), src...)
			break
		}
		if nDst == 0 && nSrc == 0 {
			break
		}
	}
	return string(out)
}

// flush ends the stream: a held back partial rune is written out as U+FFFD.
func (d *textDecoder) flush() string {
	if len(d.carry) == 0 {
		return ""
	}
	src := d.carry
	d.carry = nil
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	nDst, _, err := d.t.Transform(dst, src, true)
	d.t.Reset()
	if err != nil && nDst == 0 {
		return string(utf8.RuneError)
	}
	return string(dst[:nDst])
}
