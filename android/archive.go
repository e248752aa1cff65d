package android

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"
	"slices"
	"strconv"

	"github.com/frantjc/dexkeep/dex"
)

const (
	ContentTypeAPK = "application/vnd.android.package-archive"
	ExtAPK         = ".apk"
)

// A multidex APK holds classes.dex, classes2.dex, classes3.dex, ...
var classesDex = regexp.MustCompile(`^classes([2-9]|[1-9][0-9]+)?\.dex$`)

// Archive is a zip-based application archive such as an .apk or .jar.
type Archive struct {
	r      io.ReaderAt
	zr     *zip.Reader
	closer io.Closer
}

// NewArchive reads the zip directory out of r, which has the given size.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	return &Archive{r: r, zr: zr}, nil
}

// OpenArchive opens the named archive. The caller must Close it.
func OpenArchive(name string) (*Archive, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	a, err := NewArchive(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	a.closer = f

	return a, nil
}

func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}

	return nil
}

func multidexIndex(name string) int {
	m := classesDex.FindStringSubmatch(name)
	if m == nil {
		return 0
	} else if m[1] == "" {
		return 1
	}

	i, _ := strconv.Atoi(m[1])
	return i
}

func (a *Archive) dexFiles() []*zip.File {
	files := []*zip.File{}
	for _, f := range a.zr.File {
		if multidexIndex(f.Name) > 0 {
			files = append(files, f)
		}
	}

	slices.SortFunc(files, func(l, r *zip.File) int {
		return multidexIndex(l.Name) - multidexIndex(r.Name)
	})

	return files
}

// DexNames returns the names of the dex entries in a in multidex order.
func (a *Archive) DexNames() []string {
	names := []string{}
	for _, f := range a.dexFiles() {
		names = append(names, f.Name)
	}

	return names
}

// Dex returns a single-pass sequence over the dex entries of a in
// multidex order. A dex entry that cannot be read yields a non-nil error,
// after which the sequence ends.
func (a *Archive) Dex() iter.Seq2[*dex.File, error] {
	return func(yield func(*dex.File, error) bool) {
		for _, f := range a.dexFiles() {
			df, err := a.openDex(f)
			if err != nil {
				yield(nil, fmt.Errorf("%s: %w", f.Name, err))
				return
			}

			if !yield(df, nil) {
				return
			}
		}
	}
}

func (a *Archive) openDex(f *zip.File) (*dex.File, error) {
	// Stored entries can be read in place.
	if f.Method == zip.Store {
		off, err := f.DataOffset()
		if err != nil {
			return nil, err
		}

		return dex.NewFile(io.NewSectionReader(a.r, off, int64(f.UncompressedSize64)), int64(f.UncompressedSize64))
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	return dex.NewFile(bytes.NewReader(b), int64(len(b)))
}
