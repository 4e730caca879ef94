package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server       ServerConfig      `toml:"server"`
	Library      LibraryConfig     `toml:"library"`
	Player       PlayerConfig      `toml:"player"`
	Database     DatabaseConfig    `toml:"database"`
	ContentTypes map[string]string `toml:"content_types"`
	Log          LogConfig         `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	AsyncTimeout  Duration `toml:"async_timeout"`
	MaxBodyBytes  int64    `toml:"max_body_bytes"`
	EnableMetrics bool     `toml:"enable_metrics"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LibraryConfig holds the path allow-list and artwork file names.
type LibraryConfig struct {
	MusicDirs    []string `toml:"music_dirs"`
	Deny         []string `toml:"deny"`
	ArtworkNames []string `toml:"artwork_names"`
}

// PlayerConfig sizes the artwork lookup workers.
type PlayerConfig struct {
	Workers          int     `toml:"workers"`
	Queue            int     `toml:"queue"`
	LookupsPerSecond float64 `toml:"lookups_per_second"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration decodes TOML strings like "30s" into a [time.Duration].
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Validate checks ranges and paths that TOML decoding cannot.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.AsyncTimeout.Duration < 0 {
		return fmt.Errorf("%w: server.async_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Player.Workers < 1 {
		return fmt.Errorf("%w: player.workers must be at least 1", ErrInvalidConfig)
	}
	if c.Player.Queue < 0 {
		return fmt.Errorf("%w: player.queue must not be negative", ErrInvalidConfig)
	}
	for _, dir := range append(append([]string{}, c.Library.MusicDirs...), c.Library.Deny...) {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("%w: library path %q must be absolute", ErrInvalidConfig, dir)
		}
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
