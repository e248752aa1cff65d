package dexkeepblob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/frantjc/dexkeep/internal/dexkeepblob"
	"github.com/frantjc/dexkeep/internal/dextest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	_ "gocloud.dev/blob/fileblob"
)

func TestFetchFrom(t *testing.T) {
	var (
		ctx    = context.Background()
		bucket = memblob.OpenBucket(nil)
		data   = dextest.Build("scala/Predef")
	)
	defer bucket.Close()

	require.NoError(t, bucket.WriteAll(ctx, "builds/1/classes.dex", data, nil))

	name, ok, err := dexkeepblob.FetchFrom(ctx, bucket, "builds/1/classes.dex", t.TempDir())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "classes.dex", filepath.Base(name))

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, data, b)
}

func TestFetchFromAbsent(t *testing.T) {
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	name, ok, err := dexkeepblob.FetchFrom(context.Background(), bucket, "classes.dex", t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestFetchFileBucket(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "classes.dex"), dextest.Build("scala/Predef"), 0o600))

	name, ok, err := dexkeepblob.Fetch(context.Background(), "file://"+filepath.ToSlash(src), "classes.dex", t.TempDir())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.FileExists(t, name)
}
