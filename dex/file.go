// Package dex reads the class definitions out of Dalvik executable files.
// It understands just enough of the format to name every class a dex file
// defines.
package dex

import (
	"bufio"
	"encoding/binary"
	"io"
	"iter"
	"os"
	"strings"
)

// File is an open dex file.
type File struct {
	Header

	r      io.ReaderAt
	closer io.Closer
}

// ClassDef is a class_def_item resolved to its name.
type ClassDef struct {
	// Name is the path-style binary name, e.g. "com/example/Foo$Bar".
	Name        string
	AccessFlags AccessFlags
}

// NewFile reads the dex header out of r, which has the given size,
// and validates it.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	h, err := readHeader(r, size)
	if err != nil {
		return nil, err
	}

	return &File{Header: *h, r: r}, nil
}

// Open opens the named dex file. The caller must Close it.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	df, err := NewFile(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	df.closer = f

	return df, nil
}

// Close closes the underlying file if the File was created by Open.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}

	return nil
}

// Classes returns a single-pass sequence over the class definitions in f
// in class_defs order. A malformed entry yields a non-nil error, after
// which the sequence ends.
func (f *File) Classes() iter.Seq2[*ClassDef, error] {
	return func(yield func(*ClassDef, error) bool) {
		item := make([]byte, classDefItemSize)

		for i := range f.ClassDefsSize {
			if _, err := f.r.ReadAt(item, int64(f.ClassDefsOff)+int64(i)*classDefItemSize); err != nil {
				yield(nil, err)
				return
			}

			var (
				classIdx    = binary.LittleEndian.Uint32(item[0:])
				accessFlags = binary.LittleEndian.Uint32(item[4:])
			)

			descriptor, err := f.typeDescriptor(classIdx)
			if err != nil {
				yield(nil, err)
				return
			}

			if len(descriptor) < 3 || descriptor[0] != 'L' || descriptor[len(descriptor)-1] != ';' {
				yield(nil, formatError("class_defs[%d] has non-class descriptor %q", i, descriptor))
				return
			}

			if !yield(&ClassDef{
				Name:        descriptor[1 : len(descriptor)-1],
				AccessFlags: AccessFlags(accessFlags),
			}, nil) {
				return
			}
		}
	}
}

func (f *File) uint32At(off int64) (uint32, error) {
	buf := make([]byte, 4)
	if _, err := f.r.ReadAt(buf, off); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf), nil
}

func (f *File) typeDescriptor(typeIdx uint32) (string, error) {
	if typeIdx >= f.TypeIDsSize {
		return "", formatError("type index %d out of range %d", typeIdx, f.TypeIDsSize)
	}

	stringIdx, err := f.uint32At(int64(f.TypeIDsOff) + int64(typeIdx)*4)
	if err != nil {
		return "", err
	}

	return f.stringAt(stringIdx)
}

func (f *File) stringAt(stringIdx uint32) (string, error) {
	if stringIdx >= f.StringIDsSize {
		return "", formatError("string index %d out of range %d", stringIdx, f.StringIDsSize)
	}

	off, err := f.uint32At(int64(f.StringIDsOff) + int64(stringIdx)*4)
	if err != nil {
		return "", err
	}

	if off < HeaderSize || off >= f.FileSize {
		return "", formatError("string_data_off %#x out of bounds", off)
	}

	br := bufio.NewReader(io.NewSectionReader(f.r, int64(off), int64(f.FileSize-off)))

	utf16Size, err := binary.ReadUvarint(br)
	if err != nil {
		return "", formatError("string_data_item at %#x: %v", off, err)
	}

	var b strings.Builder
	if err := decodeMUTF8(br, &b, utf16Size); err != nil {
		return "", formatError("string_data_item at %#x: %v", off, err)
	}

	return b.String(), nil
}
