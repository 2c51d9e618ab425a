package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultFile is the optional config file read from the working directory.
	DefaultFile = "orgchart.toml"
	// EnvPrefix prefixes environment overrides, e.g. ORGCHART_FEED_DIR.
	EnvPrefix = "ORGCHART_"
)

// Config holds all configuration for the service and CLI.
type Config struct {
	Port       int            `koanf:"port"`
	Feed       FeedConfig     `koanf:"feed"`
	Watch      bool           `koanf:"watch"`
	Preload    bool           `koanf:"preload"`
	Workers    int            `koanf:"workers"`
	Cache      CacheConfig    `koanf:"cache"`
	Database   DatabaseConfig `koanf:"database"`
	Verbosity  string         `koanf:"verbosity"`
	VerboseCnt int            `koanf:"verbose"`
	Log        LogConfig      `koanf:"log"`
}

// FeedConfig selects where chart feeds come from. Dir wins over URL.
type FeedConfig struct {
	Dir string `koanf:"dir"`
	URL string `koanf:"url"`
}

// DatabaseConfig configures the saved filter set store. An empty URL keeps
// filter sets in memory.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// CacheConfig bounds the number of normalized charts held in memory.
type CacheConfig struct {
	Size int `koanf:"size"`
}

type LogConfig struct {
	Format string `koanf:"format"` // text or json
}

// Load loads configuration from defaults, config file, .env, environment
// variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFrom(DefaultFile, ".env", f)
}

// LoadFrom is Load with explicit config and dotenv paths. Missing files are
// skipped.
func LoadFrom(configFile, dotenvFile string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"port":      8080,
		"feed":      map[string]interface{}{"dir": "", "url": ""},
		"watch":     false,
		"preload":   false,
		"workers":   4,
		"cache":     map[string]interface{}{"size": 64},
		"database":  map[string]interface{}{"url": ""},
		"verbosity": "",
		"verbose":   0,
		"log":       map[string]interface{}{"format": "text"},
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional)
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", configFile, err)
		}
	}

	// 3. .env only fills variables that are not already set
	if dotenvFile != "" {
		if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenvFile, err)
		}
	}

	// 4. Environment variables, ORGCHART_FEED_DIR -> feed.dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Cache.Size < 1 {
		return fmt.Errorf("cache size must be at least 1, got %d", c.Cache.Size)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
