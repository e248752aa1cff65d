package dexkeep_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/dexkeep"
	"github.com/frantjc/dexkeep/internal/dextest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtractClassesAbsent(t *testing.T) {
	classes, err := dexkeep.ExtractClasses(context.Background(), "/tmp/none/classes.dex", "scala")
	require.NoError(t, err)
	assert.Zero(t, classes.Len())
}

func TestExtractClassesDirectory(t *testing.T) {
	classes, err := dexkeep.ExtractClasses(context.Background(), t.TempDir(), "scala")
	require.NoError(t, err)
	assert.Zero(t, classes.Len())
}

func TestExtractClassesUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files regardless of mode")
	}

	name := dextest.WriteFile(t, "classes.dex", dextest.Build("scala/Predef"))
	require.NoError(t, os.Chmod(name, 0o000))

	classes, err := dexkeep.ExtractClasses(context.Background(), name, "scala")
	require.NoError(t, err)
	assert.Zero(t, classes.Len())
}

func TestExtractClassesDex(t *testing.T) {
	name := dextest.WriteFile(t, "classes.dex", dextest.Build(
		"scala/Predef",
		"scala/collection/List",
		"other/Unrelated",
	))

	classes, err := dexkeep.ExtractClasses(context.Background(), name, "scala")
	require.NoError(t, err)
	assert.Equal(t, []string{"scala.Predef", "scala.collection.List"}, classes.Sorted())
}

func TestExtractClassesPrefixCollision(t *testing.T) {
	name := dextest.WriteFile(t, "classes.dex", dextest.Build("scalax/Weird"))

	classes, err := dexkeep.ExtractClasses(context.Background(), name, "scala")
	require.NoError(t, err)
	assert.Zero(t, classes.Len())
}

func TestExtractClassesPrefixForms(t *testing.T) {
	name := dextest.WriteFile(t, "classes.dex", dextest.Build(
		"scala/Predef",
		"scala/runtime/BoxesRunTime",
		"scalax/Weird",
	))

	for _, prefix := range []string{"scala.runtime", "scala/runtime", "scala/runtime/", "scala.runtime."} {
		t.Run(prefix, func(t *testing.T) {
			classes, err := dexkeep.ExtractClasses(context.Background(), name, prefix)
			require.NoError(t, err)
			assert.Equal(t, []string{"scala.runtime.BoxesRunTime"}, classes.Sorted())
		})
	}

	classes, err := dexkeep.ExtractClasses(context.Background(), name, "")
	require.NoError(t, err)
	assert.Equal(t, 3, classes.Len())
}

func TestExtractClassesAPKDuplicates(t *testing.T) {
	name := dextest.WriteFile(t, "app.apk", dextest.Zip(t,
		dextest.File{Name: "classes.dex", Data: dextest.Build("scala/Predef", "com/example/Main")},
		dextest.File{Name: "classes2.dex", Data: dextest.Build("scala/Predef", "scala/Option")},
	))

	classes, err := dexkeep.ExtractClasses(context.Background(), name, "scala")
	require.NoError(t, err)
	assert.Equal(t, []string{"scala.Option", "scala.Predef"}, classes.Sorted())
}

func TestExtractClassesCorrupt(t *testing.T) {
	var (
		dir   = t.TempDir()
		cases = map[string][]byte{
			"garbage.dex": []byte("this is not a dex file at all"),
			"empty.dex":   {},
			"tiny.dex":    []byte("de"),
			"badsum.dex": func() []byte {
				b := dextest.Build("scala/Predef")
				b[len(b)-1] ^= 0xff
				return b
			}(),
			"nodex.apk": dextest.Zip(t, dextest.File{Name: "AndroidManifest.xml", Data: []byte("<manifest/>")}),
			"baddex.apk": dextest.Zip(t, dextest.File{Name: "classes.dex", Data: []byte("dex\n035\x00")}),
			"truncated.apk": dextest.Zip(t, dextest.File{Name: "classes.dex", Data: dextest.Build("scala/Predef")})[:40],
		}
	)

	for base, data := range cases {
		t.Run(base, func(t *testing.T) {
			name := filepath.Join(dir, base)
			require.NoError(t, os.WriteFile(name, data, 0o600))

			_, err := dexkeep.ExtractClasses(context.Background(), name, "scala")
			assert.ErrorIs(t, err, dexkeep.ErrCorruptContainer)
		})
	}
}

func TestExtractClassesInPackage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var (
			segment = rapid.StringMatching(`[a-z]{1,6}`)
			prefix  = segment.Draw(t, "prefix")
			names   = rapid.SliceOf(
				rapid.StringMatching(`[a-z]{1,6}(/[a-z]{1,6}){0,2}/[A-Z][a-z]{0,6}`),
			).Draw(t, "names")
		)

		dir, err := os.MkdirTemp("", "dexkeep")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(dir)

		name := filepath.Join(dir, "classes.dex")
		if err := os.WriteFile(name, dextest.Build(names...), 0o600); err != nil {
			t.Fatal(err)
		}

		classes, err := dexkeep.ExtractClasses(context.Background(), name, prefix)
		if err != nil {
			t.Fatal(err)
		}

		expected := map[string]bool{}
		for _, n := range names {
			if dotted := dexkeep.NormalizeClassName(n); dexkeep.InPackage(dotted, prefix) {
				expected[dotted] = true
			}
		}

		if classes.Len() != len(expected) {
			t.Fatalf("got %d classes, expected %d", classes.Len(), len(expected))
		}

		for className := range classes.All() {
			if !expected[className] {
				t.Fatalf("unexpected class %q", className)
			}

			if className != prefix && className[:len(prefix)+1] != prefix+"." {
				t.Fatalf("class %q is outside of %q", className, prefix)
			}
		}
	})
}

func TestInPackage(t *testing.T) {
	assert.True(t, dexkeep.InPackage("scala", "scala"))
	assert.True(t, dexkeep.InPackage("scala.Predef", "scala"))
	assert.True(t, dexkeep.InPackage("anything.At.All", ""))
	assert.False(t, dexkeep.InPackage("scalax.Weird", "scala"))
	assert.False(t, dexkeep.InPackage("sca", "scala"))
}

func TestClassSet(t *testing.T) {
	s := dexkeep.NewClassSet("b.B", "a.A", "b.B")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a.A"))
	assert.False(t, s.Has("c.C"))
	assert.Equal(t, []string{"a.A", "b.B"}, s.Sorted())

	var empty *dexkeep.ClassSet
	assert.Zero(t, empty.Len())
	assert.False(t, empty.Has("a.A"))
	assert.Empty(t, empty.Sorted())
}
