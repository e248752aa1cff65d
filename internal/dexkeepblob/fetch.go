// Package dexkeepblob fetches containers out of gocloud.dev buckets so
// that they can be read like any other local container.
package dexkeepblob

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/frantjc/dexkeep"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Fetch copies key out of the bucket at bucketURL into a file in dir.
// ok is false, and err nil, when the bucket has no such key.
func Fetch(ctx context.Context, bucketURL, key, dir string) (string, bool, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return "", false, err
	}
	defer bucket.Close()

	return FetchFrom(ctx, bucket, key, dir)
}

// FetchFrom is Fetch against an already open bucket.
func FetchFrom(ctx context.Context, bucket *blob.Bucket, key, dir string) (string, bool, error) {
	log := dexkeep.LoggerFrom(ctx).WithValues("key", key)

	r, err := bucket.NewReader(ctx, key, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		log.V(1).Info("key not found in bucket")
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	defer r.Close()

	name := filepath.Join(dir, path.Base(key))

	f, err := os.Create(name)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return "", false, err
	}

	log.V(1).Info("fetched container", "path", name, "bytes", n)

	return name, true, f.Close()
}
