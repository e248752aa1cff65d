package android_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/frantjc/dexkeep/android"
	"github.com/frantjc/dexkeep/dex"
	"github.com/frantjc/dexkeep/internal/dextest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveDexMultidexOrder(t *testing.T) {
	b := dextest.Zip(t,
		dextest.File{Name: "AndroidManifest.xml", Data: []byte("<manifest/>")},
		dextest.File{Name: "classes10.dex", Data: dextest.Build("ten/Ten")},
		dextest.File{Name: "classes2.dex", Data: dextest.Build("two/Two")},
		dextest.File{Name: "classes.dex", Data: dextest.Build("one/One")},
		dextest.File{Name: "classes1.dex", Data: dextest.Build("not/Loaded")},
		dextest.File{Name: "assets/classes3.dex", Data: dextest.Build("not/Loaded")},
	)

	a, err := android.NewArchive(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{"classes.dex", "classes2.dex", "classes10.dex"}, a.DexNames())

	names := []string{}
	for df, err := range a.Dex() {
		require.NoError(t, err)

		for def, err := range df.Classes() {
			require.NoError(t, err)
			names = append(names, def.Name)
		}
	}

	assert.Equal(t, []string{"one/One", "two/Two", "ten/Ten"}, names)
}

func TestArchiveDexStored(t *testing.T) {
	var (
		buf = new(bytes.Buffer)
		zw  = zip.NewWriter(buf)
	)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: "classes.dex", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write(dextest.Build("scala/Predef"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	a, err := android.NewArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	count := 0
	for df, err := range a.Dex() {
		require.NoError(t, err)
		assert.EqualValues(t, 1, df.ClassDefsSize)
		count++
	}

	assert.Equal(t, 1, count)
}

func TestArchiveDexCorruptEntry(t *testing.T) {
	b := dextest.Zip(t,
		dextest.File{Name: "classes.dex", Data: []byte("definitely not dex")},
	)

	a, err := android.NewArchive(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)

	var last error
	for _, err := range a.Dex() {
		last = err
	}

	assert.ErrorIs(t, last, dex.ErrFormat)
}

func TestNewArchiveNotZip(t *testing.T) {
	b := dextest.Build("scala/Predef")

	_, err := android.NewArchive(bytes.NewReader(b), int64(len(b)))
	assert.ErrorIs(t, err, zip.ErrFormat)
}

func TestOpenArchive(t *testing.T) {
	a, err := android.OpenArchive(dextest.WriteFile(t, "app"+android.ExtAPK, dextest.Zip(t,
		dextest.File{Name: "classes.dex", Data: dextest.Build("scala/Predef")},
	)))
	require.NoError(t, err)
	assert.Equal(t, []string{"classes.dex"}, a.DexNames())
	assert.NoError(t, a.Close())
}
