package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/utilities/compression"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the compactor command-line tool.
type Config struct {
	// DataDir holds the statistics file and the history log.
	DataDir string `yaml:"data_dir"`
	// TextCodec compresses `.txt` files when packing folders.
	TextCodec string `yaml:"text_codec"`
	// ImageCodec compresses `.ppm` files when packing folders.
	ImageCodec string  `yaml:"image_codec"`
	Logging    Logging `yaml:"logging"`
}

type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

const (
	StatisticsFileName = "global.json"
	HistoryFileName    = "history.txt"
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:    "./data",
		TextCodec:  compression.NameLZSS,
		ImageCodec: compression.NameJPEG,
		Logging: Logging{
			Level: "info",
		},
	}
}

// StatisticsPath returns the location of the statistics file.
func (c *Config) StatisticsPath() string {
	return filepath.Join(c.DataDir, StatisticsFileName)
}

// HistoryPath returns the location of the history log.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, HistoryFileName)
}

// Validate checks that both folder codecs exist and may be used for the kind
// of file they're assigned to.
func (c *Config) Validate() error {
	checks := []struct {
		setting   string
		codec     string
		extension string
	}{
		{"text_codec", c.TextCodec, "txt"},
		{"image_codec", c.ImageCodec, "ppm"},
	}

	for _, check := range checks {
		allowed := false
		for _, name := range compression.CodecsForExtension(check.extension) {
			allowed = allowed || name == check.codec
		}
		if !allowed {
			return compactor.ErrCodecNotFound.WithMessage(
				fmt.Sprintf("%s: %q can't compress .%s files", check.setting, check.codec, check.extension))
		}
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Settings missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadOrDefault loads the configuration at `configPath` if it exists, and
// returns the defaults otherwise.
func LoadOrDefault(configPath string) (*Config, error) {
	if !ConfigExists(configPath) {
		return DefaultConfig(), nil
	}
	return LoadConfig(configPath)
}

// SaveConfig saves the configuration to the specified path, creating its
// directory if needed.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, compactor.DirectoryMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, compactor.FileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath returns the default configuration path for the current
// user, falling back to the working directory.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./compactor.yaml"
	}
	return filepath.Join(homeDir, ".config", "compactor", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
