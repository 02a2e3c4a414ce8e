// Package config provides YAML-based configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the config file looked up next to the executable.
const FileName = "figure-editor.yaml"

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Images   ImagesConfig   `yaml:"images"`
	Editor   EditorConfig   `yaml:"editor"`
	Security SecurityConfig `yaml:"security"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCors"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// StorageConfig contains figure storage settings
type StorageConfig struct {
	// Backend is one of "local", "duckdb" and "sqlite".
	Backend       string `yaml:"backend"`
	DataDirectory string `yaml:"dataDirectory"`
}

// ImagesConfig selects where image metadata comes from. A non-empty
// CatalogFile takes precedence over ServiceURL.
type ImagesConfig struct {
	ServiceURL     string  `yaml:"serviceUrl"`
	CatalogFile    string  `yaml:"catalogFile"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
	MaxPixels      float64 `yaml:"maxPixels"`
}

// EditorConfig contains editing session settings
type EditorConfig struct {
	MaxSessions            int `yaml:"maxSessions"`
	SessionTimeoutMinutes  int `yaml:"sessionTimeoutMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
	TickMilliseconds       int `yaml:"tickMilliseconds"`
	SelectionDelayMs       int `yaml:"selectionDelayMs"`
	UndoDelayMs            int `yaml:"undoDelayMs"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowFigureDeletion bool `yaml:"allowFigureDeletion"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	EnableRequestLogging bool `yaml:"enableRequestLogging"`
	EnableCompression    bool `yaml:"enableCompression"`
	CompressionLevel     int  `yaml:"compressionLevel"`
	WebSocketWriteWaitMs int  `yaml:"webSocketWriteWaitMs"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "16M",
		},
		Storage: StorageConfig{
			Backend:       "local",
			DataDirectory: "./data",
		},
		Images: ImagesConfig{
			ServiceURL:     "http://localhost:4080",
			TimeoutSeconds: 10,
			MaxPixels:      10000 * 10000,
		},
		Editor: EditorConfig{
			MaxSessions:            10,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			TickMilliseconds:       5,
			SelectionDelayMs:       10,
			UndoDelayMs:            10,
		},
		Security: SecurityConfig{
			AllowFigureDeletion: true,
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
			WebSocketWriteWaitMs: 10000,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is created
// with the defaults. Keys absent from an existing file keep their defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Figure editor configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}
	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if url := os.Getenv("IMAGE_SERVICE_URL"); url != "" {
		c.Images.ServiceURL = url
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if c.Images.CatalogFile != "" && !filepath.IsAbs(c.Images.CatalogFile) {
		c.Images.CatalogFile = filepath.Join(configDir, c.Images.CatalogFile)
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.DataDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Storage.DataDirectory, err)
	}
	return nil
}
