package images

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrImageRejected indicates the host refused the payload (bad format,
	// too large, unknown asset id).
	ErrImageRejected = errors.New("image rejected by image host")

	// ErrHostUnavailable indicates the host could not be reached or failed
	// internally, the operation may be retried.
	ErrHostUnavailable = errors.New("image host unavailable")
)

type Image struct {
	Url     string
	AssetId string
}

// ImageStore is the external image hosting collaborator. Upload returns the
// public url and an asset handle that can later be passed to Delete.
type ImageStore interface {
	Upload(ctx context.Context, name string, data io.Reader) (Image, error)

	Delete(ctx context.Context, assetId string) error
}
