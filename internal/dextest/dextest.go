// Package dextest builds small, valid dex files and archives for tests.
package dextest

import (
	"archive/zip"
	"bytes"
	"crypto/sha1" //nolint:gosec
	"encoding/binary"
	"hash/adler32"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/frantjc/dexkeep/dex"
)

// Build returns a dex file defining a public class for each path-style name.
func Build(names ...string) []byte {
	defs := make([]dex.ClassDef, len(names))
	for i, name := range names {
		defs[i] = dex.ClassDef{Name: name, AccessFlags: dex.AccPublic}
	}

	return BuildClassDefs(defs...)
}

// BuildClassDefs returns a dex file with one class_def_item per def.
// Each class gets its own type_id and string_id.
func BuildClassDefs(defs ...dex.ClassDef) []byte {
	var (
		n            = uint32(len(defs))
		stringIDsOff = uint32(dex.HeaderSize)
		typeIDsOff   = stringIDsOff + 4*n
		classDefsOff = typeIDsOff + 4*n
		dataOff      = classDefsOff + 32*n
		data         = new(bytes.Buffer)
		stringOffs   = make([]uint32, n)
		le           = binary.LittleEndian
	)

	for i, def := range defs {
		stringOffs[i] = dataOff + uint32(data.Len())
		data.Write(stringData("L" + def.Name + ";"))
	}

	for data.Len()%4 != 0 {
		data.WriteByte(0)
	}

	b := make([]byte, dataOff+uint32(data.Len()))
	copy(b, "dex\n035\x00")
	le.PutUint32(b[32:], uint32(len(b)))
	le.PutUint32(b[36:], dex.HeaderSize)
	le.PutUint32(b[40:], 0x12345678)

	if n > 0 {
		le.PutUint32(b[56:], n)
		le.PutUint32(b[60:], stringIDsOff)
		le.PutUint32(b[64:], n)
		le.PutUint32(b[68:], typeIDsOff)
		le.PutUint32(b[96:], n)
		le.PutUint32(b[100:], classDefsOff)
	}

	le.PutUint32(b[104:], uint32(data.Len()))
	le.PutUint32(b[108:], dataOff)

	for i, def := range defs {
		var (
			u    = uint32(i)
			item = b[classDefsOff+32*u:]
		)

		le.PutUint32(b[stringIDsOff+4*u:], stringOffs[i])
		le.PutUint32(b[typeIDsOff+4*u:], u)
		le.PutUint32(item[0:], u)
		le.PutUint32(item[4:], uint32(def.AccessFlags))
		// No superclass, interfaces, source file or class data.
		le.PutUint32(item[8:], 0xffffffff)
		le.PutUint32(item[16:], 0xffffffff)
	}

	copy(b[dataOff:], data.Bytes())

	return Fix(b)
}

// Fix recomputes the signature and checksum of b in place so that tests
// can corrupt a single field without tripping the checksum.
func Fix(b []byte) []byte {
	//nolint:gosec
	sig := sha1.Sum(b[32:])
	copy(b[12:32], sig[:])
	binary.LittleEndian.PutUint32(b[8:], adler32.Checksum(b[12:]))
	return b
}

func stringData(s string) []byte {
	var (
		units = utf16.Encode([]rune(s))
		buf   = binary.AppendUvarint(nil, uint64(len(units)))
	)

	for _, u := range units {
		switch {
		case u != 0 && u < 0x80:
			buf = append(buf, byte(u))
		case u < 0x800:
			buf = append(buf, byte(0xc0|u>>6), byte(0x80|u&0x3f))
		default:
			buf = append(buf, byte(0xe0|u>>12), byte(0x80|(u>>6)&0x3f), byte(0x80|u&0x3f))
		}
	}

	return append(buf, 0)
}

// File is an entry of an archive built by Zip.
type File struct {
	Name string
	Data []byte
}

// Zip returns a zip archive of files in the given order.
func Zip(tb testing.TB, files ...File) []byte {
	tb.Helper()

	var (
		buf = new(bytes.Buffer)
		zw  = zip.NewWriter(buf)
	)

	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			tb.Fatal(err)
		}

		if _, err = w.Write(f.Data); err != nil {
			tb.Fatal(err)
		}
	}

	if err := zw.Close(); err != nil {
		tb.Fatal(err)
	}

	return buf.Bytes()
}

// WriteFile writes data to name inside a fresh temporary directory and
// returns its path.
func WriteFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatal(err)
	}

	return path
}
