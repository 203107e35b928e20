package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Terrain TerrainConfig `yaml:"terrain"`
	Search  SearchConfig  `yaml:"search"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// TerrainConfig holds DEM tile storage settings.
type TerrainConfig struct {
	TileDir        string `yaml:"tile_dir"`
	TileCacheTiles int    `yaml:"tile_cache_tiles"`
}

// SearchConfig holds the settings applied to every reachability query.
// GlideRatio is a default that a request parameter can override; the other
// fields have no per-request counterpart.
type SearchConfig struct {
	GlideRatio        float64  `yaml:"glide_ratio"`
	MinClearance      Distance `yaml:"min_clearance"`
	RegionRadius      Distance `yaml:"region_radius"`
	CompressPaths     bool     `yaml:"compress_paths"`
	MaxConcurrentJobs int      `yaml:"max_concurrent_jobs"`
}

// ServerConfig holds HTTP server settings. RequestTimeout bounds how long a
// single request may hold a connection, which is also the effective outer
// timeout on a reachability search run for that request.
type ServerConfig struct {
	Address        string   `yaml:"address"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Terrain: TerrainConfig{
			TileDir:        "./data/dem",
			TileCacheTiles: 64,
		},
		Search: SearchConfig{
			GlideRatio:        8.0,
			MinClearance:      Distance(50),
			RegionRadius:      Distance(60000), // 60km
			CompressPaths:     true,
			MaxConcurrentJobs: 4,
		},
		Server: ServerConfig{
			Address:        "localhost:8420",
			RequestTimeout: Duration(60 * time.Second),
		},
		Log: LogConfig{
			Path:  "./logs/glidecone.log",
			Level: "INFO",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	// Ignore the error: relying solely on system environment variables
	// without a .env file present is valid.
	_ = godotenv.Load(".env.local", ".env")

	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# glidecone configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles), ft (feet)

`)
	data = append(header, data...)

	reRatio := regexp.MustCompile(`(?m)^(\s+)glide_ratio:`)
	data = reRatio.ReplaceAll(data, []byte("${1}# Horizontal distance covered per meter of altitude lost\n${1}glide_ratio:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
