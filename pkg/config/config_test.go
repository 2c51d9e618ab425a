package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "missing.toml"), filepath.Join(dir, "missing.env"), nil)
	if err != nil {
		t.Fatalf("LoadFrom() unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Workers)
	}
	if cfg.Cache.Size != 64 {
		t.Errorf("cache size = %d, want 64", cfg.Cache.Size)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("log format = %q, want text", cfg.Log.Format)
	}
	if cfg.Feed.Dir != "" || cfg.Database.URL != "" {
		t.Errorf("unexpected feed/database defaults: %+v", cfg)
	}
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "orgchart.toml")
	content := `port = 9000
workers = 2

[feed]
dir = "/from/file"
url = "https://charts.example.com/api"

[log]
format = "json"
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ORGCHART_FEED_DIR", "/from/env")
	t.Setenv("ORGCHART_WORKERS", "6")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	flags.Int("workers", 4, "")
	if err := flags.Parse([]string{"--port", "9999"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configFile, "", flags)
	if err != nil {
		t.Fatalf("LoadFrom() unexpected error: %v", err)
	}

	if cfg.Port != 9999 {
		t.Errorf("port = %d, want flag value 9999", cfg.Port)
	}
	if cfg.Workers != 6 {
		t.Errorf("workers = %d, want env value 6 (flag not set)", cfg.Workers)
	}
	if cfg.Feed.Dir != "/from/env" {
		t.Errorf("feed.dir = %q, want env value", cfg.Feed.Dir)
	}
	if cfg.Feed.URL != "https://charts.example.com/api" {
		t.Errorf("feed.url = %q, want file value", cfg.Feed.URL)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want json", cfg.Log.Format)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("ORGCHART_DATABASE_URL=postgres://localhost/orgchart\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ORGCHART_DATABASE_URL") })

	cfg, err := LoadFrom("", dotenv, nil)
	if err != nil {
		t.Fatalf("LoadFrom() unexpected error: %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/orgchart" {
		t.Errorf("database.url = %q, want value from .env", cfg.Database.URL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Port: 8080, Workers: 1, Cache: CacheConfig{Size: 1}, Log: LogConfig{Format: "text"}}, false},
		{"json logs", Config{Port: 0, Workers: 3, Cache: CacheConfig{Size: 64}, Log: LogConfig{Format: "json"}}, false},
		{"bad port", Config{Port: 70000, Workers: 1, Cache: CacheConfig{Size: 1}, Log: LogConfig{Format: "text"}}, true},
		{"no workers", Config{Port: 8080, Workers: 0, Cache: CacheConfig{Size: 1}, Log: LogConfig{Format: "text"}}, true},
		{"no cache", Config{Port: 8080, Workers: 1, Log: LogConfig{Format: "text"}}, true},
		{"bad format", Config{Port: 8080, Workers: 1, Cache: CacheConfig{Size: 1}, Log: LogConfig{Format: "xml"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
