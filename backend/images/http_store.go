package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// HttpImageStore talks to a hosted image service (cloudinary style rest
// api): POST {addr}/images with a multipart payload returns the public url
// and asset id, DELETE {addr}/images/{assetId} removes the asset.
type HttpImageStore struct {
	addr   string
	apiKey string

	client *http.Client
}

func NewHttpStore(addr, apiKey string) *HttpImageStore {
	slog.Info("creating new http image store client", "addr", addr)
	return &HttpImageStore{
		addr:   addr,
		apiKey: apiKey,
		client: &http.Client{Timeout: defaultRequestTimeout},
	}
}

type uploadResponse struct {
	Url     string `json:"url"`
	AssetId string `json:"asset_id"`
}

func (s *HttpImageStore) request(ctx context.Context, method, endpoint, contentType string, body io.Reader, result interface{}) error {
	fullEndpoint, err := url.JoinPath(s.addr, endpoint)
	if err != nil {
		return fmt.Errorf("error formatting url for image host endpoint %v: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullEndpoint, body)
	if err != nil {
		return fmt.Errorf("error creating %v request for image host endpoint %v: %w", method, endpoint, err)
	}
	if contentType != "" {
		req.Header.Add("Content-Type", contentType)
	}
	req.Header.Add("Authorization", "Bearer "+s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		slog.Error("error sending request to image host", "method", method, "endpoint", endpoint, "error", err)
		return fmt.Errorf("%w: %v", ErrHostUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 && res.StatusCode < 500 {
		data, readErr := io.ReadAll(res.Body)
		if readErr == nil {
			slog.Error("image host rejected request", "method", method, "endpoint", endpoint, "code", res.StatusCode, "response", string(data))
		}
		return fmt.Errorf("%w: status %d", ErrImageRejected, res.StatusCode)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrHostUnavailable, res.StatusCode)
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from image host endpoint %v: %w", method, endpoint, err)
		}
	}

	return nil
}

func (s *HttpImageStore) Upload(ctx context.Context, name string, data io.Reader) (Image, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", name)
	if err != nil {
		return Image{}, fmt.Errorf("error creating multipart payload: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return Image{}, fmt.Errorf("error copying image data into payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Image{}, fmt.Errorf("error finalizing multipart payload: %w", err)
	}

	var res uploadResponse
	err = s.request(ctx, "POST", "/images", writer.FormDataContentType(), body, &res)
	if err != nil {
		return Image{}, err
	}

	return Image{Url: res.Url, AssetId: res.AssetId}, nil
}

func (s *HttpImageStore) Delete(ctx context.Context, assetId string) error {
	return s.request(ctx, "DELETE", "/images/"+url.PathEscape(assetId), "", nil, nil)
}
