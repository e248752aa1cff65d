package dex

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
)

// decodeMUTF8 decodes a NUL-terminated modified UTF-8 string of utf16Size
// UTF-16 code units from r into b.
func decodeMUTF8(r io.ByteReader, b *strings.Builder, utf16Size uint64) error {
	var (
		units uint64
		high  rune = -1
	)

	emit := func(u rune) {
		units++

		switch {
		case utf16.IsSurrogate(u) && u < 0xdc00:
			if high >= 0 {
				b.WriteRune(utf16.DecodeRune(high, -1))
			}
			high = u
			return
		case utf16.IsSurrogate(u) && high >= 0:
			b.WriteRune(utf16.DecodeRune(high, u))
			high = -1
			return
		case high >= 0:
			b.WriteRune(utf16.DecodeRune(high, -1))
			high = -1
		}

		b.WriteRune(u)
	}

	cont := func() (rune, error) {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		if c&0xc0 != 0x80 {
			return 0, fmt.Errorf("bad continuation byte %#x", c)
		}

		return rune(c & 0x3f), nil
	}

	for {
		c, err := r.ReadByte()
		if err != nil {
			return err
		}

		switch {
		case c == 0:
			if high >= 0 {
				b.WriteRune(utf16.DecodeRune(high, -1))
			}

			if units != utf16Size {
				return fmt.Errorf("decoded %d utf16 units, expected %d", units, utf16Size)
			}

			return nil
		case c < 0x80:
			emit(rune(c))
		case c&0xe0 == 0xc0:
			c1, err := cont()
			if err != nil {
				return err
			}

			emit(rune(c&0x1f)<<6 | c1)
		case c&0xf0 == 0xe0:
			c1, err := cont()
			if err != nil {
				return err
			}

			c2, err := cont()
			if err != nil {
				return err
			}

			emit(rune(c&0x0f)<<12 | c1<<6 | c2)
		default:
			return fmt.Errorf("bad lead byte %#x", c)
		}
	}
}
