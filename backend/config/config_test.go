package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
image_host:
  provider: http
  addr: https://images.example.com
  api_key: secret123
allowed_origins:
  - https://app.example.com
`)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "http", cfg.ImageHost.Provider)
	assert.Equal(t, "https://images.example.com", cfg.ImageHost.Addr)
	assert.Equal(t, "secret123", cfg.ImageHost.ApiKey)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfigDefaults(t *testing.T) {
	// Fields missing from the file keep their defaults.
	path := writeConfig(t, `
image_host:
  provider: disk
`)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "disk", cfg.ImageHost.Provider)
	assert.Equal(t, Default().ImageHost.BasePath, cfg.ImageHost.BasePath)
	assert.Equal(t, Default().AllowedOrigins, cfg.AllowedOrigins)
}

func TestLoadConfigValidation(t *testing.T) {
	path := writeConfig(t, `
image_host:
  provider: s3
`)
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `
image_host:
  provider: http
`)
	_, err = Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
