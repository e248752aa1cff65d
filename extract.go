package dexkeep

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"

	"github.com/frantjc/dexkeep/android"
	"github.com/frantjc/dexkeep/dex"
	"github.com/opencontainers/go-digest"
)

var (
	// ErrCorruptContainer is returned when a container exists and is
	// readable but does not hold valid dex content.
	ErrCorruptContainer = errors.New("corrupt container")

	zipMagic = []byte("PK\x03\x04")
)

// ExtractClasses returns the dotted names of every class defined in the
// container at name that lives under packagePrefix.
//
// The container is either a raw dex file or a zip archive such as an
// .apk or .jar holding classes.dex, classes2.dex and so on. A container
// that does not exist or cannot be read yields an empty ClassSet and no
// error, as is the case for a build that has not produced one yet.
// A container that does not hold valid dex content yields an error
// wrapping ErrCorruptContainer.
func ExtractClasses(ctx context.Context, name, packagePrefix string) (*ClassSet, error) {
	var (
		log    = LoggerFrom(ctx).WithValues("container", name)
		prefix = NormalizePackage(packagePrefix)
	)

	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		log.V(1).Info("container absent, nothing to keep", "reason", err.Error())
		return NewClassSet(), nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if fi.IsDir() {
		log.V(1).Info("container is a directory, nothing to keep")
		return NewClassSet(), nil
	}

	if log.V(1).Enabled() {
		if dgst, err := digest.Canonical.FromReader(io.NewSectionReader(f, 0, fi.Size())); err == nil {
			log = log.WithValues("digest", dgst.String())
		}
	}

	var (
		names = map[string]struct{}{}
		total = 0
	)
	for raw, err := range classNames(f, fi.Size()) {
		if err != nil {
			if isFormatError(err) {
				return nil, fmt.Errorf("%w %s: %w", ErrCorruptContainer, name, err)
			}

			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		total++

		if className := NormalizeClassName(raw); InPackage(className, prefix) {
			names[className] = struct{}{}
		}
	}

	log.V(1).Info("extracted classes", "package", prefix, "matched", len(names), "total", total)

	return &ClassSet{names: names}, nil
}

func isFormatError(err error) bool {
	for _, target := range []error{dex.ErrFormat, zip.ErrFormat, zip.ErrAlgorithm, zip.ErrChecksum, errNoDex} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

var errNoDex = errors.New("archive holds no classes.dex")

// classNames sniffs the container held by r and returns a single-pass
// sequence over the path-style names of the classes it defines.
func classNames(r io.ReaderAt, size int64) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		magic := make([]byte, len(zipMagic))
		if _, err := r.ReadAt(magic, 0); errors.Is(err, io.EOF) {
			yield("", fmt.Errorf("%w: file is %d bytes", dex.ErrFormat, size))
			return
		} else if err != nil {
			yield("", err)
			return
		}

		switch {
		case bytes.HasPrefix(magic, dex.Magic):
			df, err := dex.NewFile(r, size)
			if err != nil {
				yield("", err)
				return
			}

			for def, err := range df.Classes() {
				if err != nil {
					yield("", err)
					return
				}

				if !yield(def.Name, nil) {
					return
				}
			}
		case bytes.Equal(magic, zipMagic):
			a, err := android.NewArchive(r, size)
			if err != nil {
				yield("", err)
				return
			}

			seen := 0
			for df, err := range a.Dex() {
				if err != nil {
					yield("", err)
					return
				}

				seen++

				for def, err := range df.Classes() {
					if err != nil {
						yield("", err)
						return
					}

					if !yield(def.Name, nil) {
						return
					}
				}
			}

			if seen == 0 {
				yield("", errNoDex)
			}
		default:
			yield("", fmt.Errorf("%w: unrecognized magic %q", dex.ErrFormat, magic))
		}
	}
}
