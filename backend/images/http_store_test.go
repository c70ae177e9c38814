package images

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newImageHostServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer test-api-key" {
			http.Error(w, "bad api key", http.StatusUnauthorized)
			return
		}

		switch {
		case r.Method == "POST" && r.URL.Path == "/images":
			file, header, err := r.FormFile("image")
			if err != nil {
				http.Error(w, "missing image", http.StatusBadRequest)
				return
			}
			defer file.Close()

			err = json.NewEncoder(w).Encode(map[string]string{
				"url":      "https://cdn.test/abc123/" + header.Filename,
				"asset_id": "abc123",
			})
			assert.NoError(t, err)
		case r.Method == "DELETE" && strings.HasPrefix(r.URL.Path, "/images/"):
			if r.URL.Path != "/images/abc123" {
				http.Error(w, "unknown asset", http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
}

func TestHttpStoreUpload(t *testing.T) {
	server := newImageHostServer(t)
	defer server.Close()

	store := NewHttpStore(server.URL, "test-api-key")

	image, err := store.Upload(context.Background(), "avatar.png", strings.NewReader("image bytes"))
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.test/abc123/avatar.png", image.Url)
	assert.Equal(t, "abc123", image.AssetId)

	err = store.Delete(context.Background(), "abc123")
	assert.NoError(t, err)

	err = store.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrImageRejected)
}

func TestHttpStoreBadApiKey(t *testing.T) {
	server := newImageHostServer(t)
	defer server.Close()

	store := NewHttpStore(server.URL, "wrong-key")

	_, err := store.Upload(context.Background(), "avatar.png", strings.NewReader("image bytes"))
	assert.ErrorIs(t, err, ErrImageRejected)
}

func TestHttpStoreServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewHttpStore(server.URL, "test-api-key")

	_, err := store.Upload(context.Background(), "avatar.png", strings.NewReader("image bytes"))
	assert.ErrorIs(t, err, ErrHostUnavailable)
}

func TestHttpStoreUnreachableHost(t *testing.T) {
	store := NewHttpStore("http://127.0.0.1:1", "test-api-key")

	_, err := store.Upload(context.Background(), "avatar.png", strings.NewReader("image bytes"))
	assert.ErrorIs(t, err, ErrHostUnavailable)
}
