package config

import (
	"fmt"
	"strings"

	"stratum/internal/shared/util"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; only version 1 is supported", cfg.Version)
	}
	return nil
}

func validateEngine(cfg *Config) error {
	if cfg.Engine.CacheCapacity < 1 {
		return fmt.Errorf("engine.cache_capacity must be >= 1, got %d", cfg.Engine.CacheCapacity)
	}
	if cfg.Engine.MaxParseDepth < 1 {
		return fmt.Errorf("engine.max_parse_depth must be >= 1, got %d", cfg.Engine.MaxParseDepth)
	}
	return nil
}

func validateBackground(cfg *Config) error {
	if !cfg.Background.Enabled {
		return nil
	}
	if cfg.Background.Workers > 64 {
		return fmt.Errorf("background.workers must be <= 64, got %d", cfg.Background.Workers)
	}
	if cfg.Background.Burst < cfg.Background.Workers {
		return fmt.Errorf("background.burst must be >= background.workers")
	}
	return nil
}

func validateStore(cfg *Config) error {
	if !cfg.Store.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Store.Path) == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if !cfg.Watch.Enabled {
		return nil
	}
	if len(cfg.Watch.Paths) == 0 {
		return fmt.Errorf("watch.paths must not be empty when watching is enabled")
	}
	for i, p := range cfg.Watch.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("watch.paths[%d] must not be empty", i)
		}
	}
	return nil
}

func validateLanguages(cfg *Config) error {
	// Sorted iteration keeps the reported error stable across runs.
	for _, name := range util.SortedStringKeys(cfg.Languages) {
		lang := cfg.Languages[name]
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("language name must not be empty")
		}
		if len(lang.Extensions) == 0 && len(lang.Filenames) == 0 {
			return fmt.Errorf("languages.%s must declare extensions or filenames", name)
		}
		for i, ext := range lang.Extensions {
			if !strings.HasPrefix(ext, ".") {
				return fmt.Errorf("languages.%s.extensions[%d] must start with a dot, got %q", name, i, ext)
			}
		}
	}
	return nil
}
