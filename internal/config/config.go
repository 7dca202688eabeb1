package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Addr     string `toml:"addr"`
	AdminKey string `toml:"admin_key"`
}

type StorageConfig struct {
	// Path to the sqlite file backing the local variant (and the reference
	// server). Empty means <data_dir>/relgraph.db.
	Path    string `toml:"path"`
	DataDir string `toml:"data_dir"`
}

type RemoteConfig struct {
	BaseURL string `toml:"base_url"`
}

type RateLimitConfig struct {
	MaxActions          int `toml:"max_actions"`
	WindowSeconds       int `toml:"window_seconds"`
	CooldownSeconds     int `toml:"cooldown_seconds"`
	MaxDeletes          int `toml:"max_deletes"`
	DeleteWindowSeconds int `toml:"delete_window_seconds"`
	MaxTotalDeletes     int `toml:"max_total_deletes"`
}

type ContentConfig struct {
	BannedTerms   []string `toml:"banned_terms"`
	RelationTypes []string `toml:"relation_types"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Remote    RemoteConfig    `toml:"remote"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Content   ContentConfig   `toml:"content"`
}

// Default returns the built-in configuration matching the original
// deployment: a 60s/10-action window with a 5s cooldown, a 5-minute window of
// at most 5 deletes, and a lifetime cap of 10 node deletions per client.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		RateLimit: RateLimitConfig{
			MaxActions:          10,
			WindowSeconds:       60,
			CooldownSeconds:     5,
			MaxDeletes:          5,
			DeleteWindowSeconds: 300,
			MaxTotalDeletes:     10,
		},
		Content: ContentConfig{
			BannedTerms:   DefaultBannedTerms(),
			RelationTypes: DefaultRelationTypes(),
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads the config at path if it exists, otherwise returns the
// defaults, then applies environment overrides either way.
func LoadOrDefault(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// DBPath resolves the sqlite file location. An explicit path wins; otherwise
// the file lives under the configured data dir, or under fallbackDir when no
// data dir is set either.
func (s StorageConfig) DBPath(fallbackDir string) string {
	if s.Path != "" {
		return s.Path
	}
	dir := s.DataDir
	if dir == "" {
		dir = fallbackDir
	}
	return filepath.Join(dir, "relgraph.db")
}

// ApplyEnv overlays environment variables on the loaded config. WUDAI_API_BASE
// matches the key the browser build read from client storage.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("WUDAI_ADMIN_KEY"); v != "" {
		c.Server.AdminKey = v
	}
	if v := os.Getenv("WUDAI_API_BASE"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := os.Getenv("WUDAI_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
}
