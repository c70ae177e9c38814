package images

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiskStoreUploadAndDelete(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/static")
	ctx := context.Background()

	image, err := store.Upload(ctx, "avatar.png", strings.NewReader("image bytes"))
	assert.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(image.AssetId))
	assert.Equal(t, "/static/"+image.AssetId, image.Url)

	data, err := os.ReadFile(filepath.Join(store.Location(), image.AssetId))
	assert.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))

	err = store.Delete(ctx, image.AssetId)
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(store.Location(), image.AssetId))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStoreRejectsEmptyUpload(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/static")

	_, err := store.Upload(context.Background(), "avatar.png", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrImageRejected)

	entries, err := os.ReadDir(store.Location())
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiskStoreDeleteUnknownAsset(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/static")
	ctx := context.Background()

	err := store.Delete(ctx, "does-not-exist.png")
	assert.ErrorIs(t, err, ErrImageRejected)

	// Asset ids must be plain file names, no path traversal.
	err = store.Delete(ctx, "../escape.png")
	assert.ErrorIs(t, err, ErrImageRejected)
}

func TestDiskStoreUsage(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/static")

	usage, err := store.Usage()
	assert.NoError(t, err)
	assert.Greater(t, usage.TotalBytes, uint64(0))
	assert.LessOrEqual(t, usage.FreeBytes, usage.TotalBytes)
}
