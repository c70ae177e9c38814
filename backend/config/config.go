package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ImageHostConfig struct {
	// Provider selects the image store implementation: "http" or "disk".
	Provider string `yaml:"provider"`

	// Http image host settings.
	Addr   string `yaml:"addr"`
	ApiKey string `yaml:"api_key"`

	// Disk image store settings.
	BasePath string `yaml:"base_path"`
	BaseUrl  string `yaml:"base_url"`
}

type ServerConfig struct {
	ImageHost ImageHostConfig `yaml:"image_host"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() ServerConfig {
	return ServerConfig{
		ImageHost: ImageHostConfig{
			Provider: "disk",
			BasePath: "./data/images",
			BaseUrl:  "/static",
		},
		AllowedOrigins: []string{"*"},
	}
}

func Load(configPath string) (ServerConfig, error) {
	config := Default()

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("error reading config file: %w", err)
	}

	err = yaml.Unmarshal(configData, &config)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("error decoding config file: %w", err)
	}

	if config.ImageHost.Provider != "http" && config.ImageHost.Provider != "disk" {
		return ServerConfig{}, fmt.Errorf("invalid image host provider '%v', must be 'http' or 'disk'", config.ImageHost.Provider)
	}
	if config.ImageHost.Provider == "http" && config.ImageHost.Addr == "" {
		return ServerConfig{}, fmt.Errorf("image host addr must be specified for the http provider")
	}

	return config, nil
}
