package dex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/adler32"
	"io"
)

const (
	HeaderSize = 0x70

	endianConstant        = 0x12345678
	reverseEndianConstant = 0x78563412
	classDefItemSize      = 32
	checksumOffset        = 8
	checksummedFrom       = 12
)

// Magic is the prefix every dex file starts with.
var Magic = []byte("dex\n")

// ErrFormat is wrapped by every error caused by malformed dex content.
var ErrFormat = errors.New("dex: not a valid dex file")

func formatError(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrFormat}, a...)...)
}

// Header is the subset of header_item needed to walk class definitions.
type Header struct {
	Version       string
	Checksum      uint32
	FileSize      uint32
	StringIDsSize uint32
	StringIDsOff  uint32
	TypeIDsSize   uint32
	TypeIDsOff    uint32
	ClassDefsSize uint32
	ClassDefsOff  uint32
}

func readHeader(r io.ReaderAt, size int64) (*Header, error) {
	if size < HeaderSize {
		return nil, formatError("file is %d bytes, shorter than header", size)
	}

	buf := make([]byte, HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, err
	}

	if !bytes.Equal(buf[:4], Magic) || buf[7] != 0 {
		return nil, formatError("bad magic %q", buf[:8])
	}

	version := buf[4:7]
	for _, c := range version {
		if c < '0' || c > '9' {
			return nil, formatError("bad version %q", version)
		}
	}

	le := binary.LittleEndian
	switch tag := le.Uint32(buf[40:]); tag {
	case endianConstant:
	case reverseEndianConstant:
		return nil, formatError("big-endian dex files are not supported")
	default:
		return nil, formatError("bad endian tag %#x", tag)
	}

	if headerSize := le.Uint32(buf[36:]); headerSize != HeaderSize {
		return nil, formatError("bad header size %#x", headerSize)
	}

	h := &Header{
		Version:       string(version),
		Checksum:      le.Uint32(buf[checksumOffset:]),
		FileSize:      le.Uint32(buf[32:]),
		StringIDsSize: le.Uint32(buf[56:]),
		StringIDsOff:  le.Uint32(buf[60:]),
		TypeIDsSize:   le.Uint32(buf[64:]),
		TypeIDsOff:    le.Uint32(buf[68:]),
		ClassDefsSize: le.Uint32(buf[96:]),
		ClassDefsOff:  le.Uint32(buf[100:]),
	}

	if h.FileSize < HeaderSize || int64(h.FileSize) > size {
		return nil, formatError("file_size %d does not fit in %d bytes", h.FileSize, size)
	}

	for _, section := range []struct {
		name       string
		off, count uint32
		itemSize   uint64
	}{
		{"string_ids", h.StringIDsOff, h.StringIDsSize, 4},
		{"type_ids", h.TypeIDsOff, h.TypeIDsSize, 4},
		{"class_defs", h.ClassDefsOff, h.ClassDefsSize, classDefItemSize},
	} {
		if section.count == 0 {
			continue
		}

		if end := uint64(section.off) + uint64(section.count)*section.itemSize; section.off < HeaderSize || end > uint64(h.FileSize) {
			return nil, formatError("%s section [%#x, %#x) out of bounds", section.name, section.off, end)
		}
	}

	sum := adler32.New()
	if _, err := io.Copy(sum, io.NewSectionReader(r, checksummedFrom, int64(h.FileSize)-checksummedFrom)); err != nil {
		return nil, err
	}

	if actual := sum.Sum32(); actual != h.Checksum {
		return nil, formatError("checksum %#x does not match computed %#x", h.Checksum, actual)
	}

	return h, nil
}
