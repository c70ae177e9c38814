package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// DiskImageStore keeps uploaded images on local disk and hands out urls
// under a public base url (the server mounts the base dir as static files).
// It stands in for the hosted image service in dev and tests.
type DiskImageStore struct {
	basepath string
	baseUrl  string
}

func NewDiskStore(basepath, baseUrl string) *DiskImageStore {
	slog.Info("creating new disk image store", "basepath", basepath, "base_url", baseUrl)
	return &DiskImageStore{basepath: basepath, baseUrl: baseUrl}
}

func (s *DiskImageStore) Upload(ctx context.Context, name string, data io.Reader) (Image, error) {
	assetId := uuid.NewString() + filepath.Ext(name)
	fullpath := filepath.Join(s.basepath, assetId)

	err := os.MkdirAll(s.basepath, 0777)
	if err != nil {
		slog.Error("error creating image store directory", "path", s.basepath, "error", err)
		return Image{}, fmt.Errorf("%w: %v", ErrHostUnavailable, err)
	}

	file, err := os.OpenFile(fullpath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		slog.Error("error opening file for image write", "path", fullpath, "error", err)
		return Image{}, fmt.Errorf("%w: %v", ErrHostUnavailable, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		slog.Error("error writing image data", "path", fullpath, "error", err)
		return Image{}, fmt.Errorf("%w: %v", ErrHostUnavailable, err)
	}
	if n == 0 {
		os.Remove(fullpath)
		return Image{}, fmt.Errorf("%w: empty image payload", ErrImageRejected)
	}

	publicUrl, err := url.JoinPath(s.baseUrl, assetId)
	if err != nil {
		return Image{}, fmt.Errorf("error building image url: %w", err)
	}

	return Image{Url: publicUrl, AssetId: assetId}, nil
}

func (s *DiskImageStore) Delete(ctx context.Context, assetId string) error {
	if assetId != filepath.Base(assetId) {
		return fmt.Errorf("%w: invalid asset id '%v'", ErrImageRejected, assetId)
	}

	fullpath := filepath.Join(s.basepath, assetId)
	err := os.Remove(fullpath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: unknown asset id '%v'", ErrImageRejected, assetId)
		}
		slog.Error("error deleting image", "path", fullpath, "error", err)
		return fmt.Errorf("%w: %v", ErrHostUnavailable, err)
	}
	return nil
}

type UsageStats struct {
	TotalBytes uint64
	FreeBytes  uint64
}

func (s *DiskImageStore) Usage() (UsageStats, error) {
	var stat unix.Statfs_t

	err := unix.Statfs(s.basepath, &stat)
	if err != nil {
		slog.Error("error getting disk usage for image store", "path", s.basepath, "error", err)
		return UsageStats{}, fmt.Errorf("error getting disk usage stats: %w", err)
	}

	return UsageStats{
		TotalBytes: stat.Blocks * uint64(stat.Bsize),
		FreeBytes:  stat.Bfree * uint64(stat.Bsize),
	}, nil
}

func (s *DiskImageStore) Location() string {
	return s.basepath
}
