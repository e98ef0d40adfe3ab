package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Library   LibraryConfig   `toml:"library"`
	Generator GeneratorConfig `toml:"generator"`
	Downloads DownloadsConfig `toml:"downloads"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	WebDir      string `toml:"web_dir"`
	OpenBrowser bool   `toml:"open_browser"`
}

// Addr returns the host:port pair the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LibraryConfig contains settings for the on-disk audio library.
type LibraryConfig struct {
	Dir         string `toml:"dir"`
	Watch       bool   `toml:"watch"`
	ScanOnStart bool   `toml:"scan_on_start"`
}

// GeneratorConfig contains settings for the generation sidecar.
type GeneratorConfig struct {
	URL            string `toml:"url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// DownloadsConfig contains settings for model weight downloads.
type DownloadsConfig struct {
	Dir         string  `toml:"dir"`
	Workers     int     `toml:"workers"`
	RateLimitMB float64 `toml:"rate_limit_mb"`
	Verify      bool    `toml:"verify"`
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then applies SOUNDSMITH_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyEnv(&config)
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	applyEnv(&config)
	return &config
}

// applyEnv overlays environment variables onto a parsed config. Variables are
// read after any .env file has been loaded by the caller.
func applyEnv(c *Config) {
	if v := os.Getenv("SOUNDSMITH_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SOUNDSMITH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SOUNDSMITH_WEB_DIR"); v != "" {
		c.Server.WebDir = v
	}
	if v := os.Getenv("SOUNDSMITH_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SOUNDSMITH_LIBRARY_DIR"); v != "" {
		c.Library.Dir = v
	}
	if v := os.Getenv("SOUNDSMITH_GENERATOR_URL"); v != "" {
		c.Generator.URL = v
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrConfigExists)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
