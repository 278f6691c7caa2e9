package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"stratum/internal/engine/cache"
	"stratum/internal/engine/parser"
	"stratum/internal/engine/viewport"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateEngine(&cfg); err != nil {
		return nil, err
	}
	if err := validateBackground(&cfg); err != nil {
		return nil, err
	}
	if err := validateStore(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateLanguages(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Engine.CacheCapacity <= 0 {
		cfg.Engine.CacheCapacity = cache.DefaultCapacity
	}
	if cfg.Engine.MaxParseDepth <= 0 {
		cfg.Engine.MaxParseDepth = parser.DefaultMaxDepth
	}

	if cfg.Viewport.EditTTL <= 0 {
		cfg.Viewport.EditTTL = viewport.DefaultEditTTL
	}

	if cfg.Background.Workers <= 0 {
		cfg.Background.Workers = 2
	}
	if cfg.Background.Rate <= 0 {
		cfg.Background.Rate = 20
	}
	if cfg.Background.Burst <= 0 {
		cfg.Background.Burst = cfg.Background.Workers
	}
	if cfg.Background.Idle <= 0 {
		cfg.Background.Idle = 50 * time.Millisecond
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = "facts.db"
	}
	if cfg.Store.BusyTimeout <= 0 {
		cfg.Store.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 200 * time.Millisecond
	}

	if cfg.Observability.MetricsAddr == "" {
		cfg.Observability.MetricsAddr = "127.0.0.1:9187"
	}
}
