package tests

import (
	"context"
	"fmt"
	"io"
	"meritboard/backend/images"
	"sync"

	"github.com/google/uuid"
)

// ImageHostStub stands in for the external image host so tests can check
// exactly which assets were uploaded and deleted.
type ImageHostStub struct {
	mu          sync.Mutex
	assets      map[string][]byte
	deletes     []string
	failDeletes bool
}

func newImageHostStub() *ImageHostStub {
	return &ImageHostStub{assets: make(map[string][]byte)}
}

func (s *ImageHostStub) Upload(ctx context.Context, name string, data io.Reader) (images.Image, error) {
	payload, err := io.ReadAll(data)
	if err != nil {
		return images.Image{}, err
	}
	if len(payload) == 0 {
		return images.Image{}, fmt.Errorf("%w: empty payload", images.ErrImageRejected)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	assetId := uuid.NewString()
	s.assets[assetId] = payload

	return images.Image{Url: fmt.Sprintf("http://images.test/%v/%v", assetId, name), AssetId: assetId}, nil
}

func (s *ImageHostStub) Delete(ctx context.Context, assetId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes = append(s.deletes, assetId)

	if s.failDeletes {
		return images.ErrHostUnavailable
	}
	if _, ok := s.assets[assetId]; !ok {
		return fmt.Errorf("%w: no asset %v", images.ErrImageRejected, assetId)
	}
	delete(s.assets, assetId)
	return nil
}

func (s *ImageHostStub) deleteCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.deletes...)
}

func (s *ImageHostStub) assetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}
