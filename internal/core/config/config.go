package config

import "time"

type Config struct {
	Version       int                 `toml:"version"`
	Engine        Engine              `toml:"engine"`
	Viewport      Viewport            `toml:"viewport"`
	Background    Background          `toml:"background"`
	Store         Store               `toml:"store"`
	Watch         Watch               `toml:"watch"`
	Observability Observability       `toml:"observability"`
	Languages     map[string]Language `toml:"languages"`
}

type Engine struct {
	CacheCapacity int `toml:"cache_capacity"`
	MaxParseDepth int `toml:"max_parse_depth"`
}

type Viewport struct {
	EditTTL time.Duration `toml:"edit_ttl"`
}

type Background struct {
	Enabled bool          `toml:"enabled"`
	Workers int           `toml:"workers"`
	Rate    float64       `toml:"rate"`
	Burst   int           `toml:"burst"`
	Idle    time.Duration `toml:"idle"`
}

type Store struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Paths    []string      `toml:"paths"`
	Debounce time.Duration `toml:"debounce"`
	Exclude  []string      `toml:"exclude"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Language struct {
	Enabled    *bool    `toml:"enabled"`
	Extensions []string `toml:"extensions"`
	Filenames  []string `toml:"filenames"`
}

// LanguageEnabled treats a missing enabled flag as on.
func (c *Config) LanguageEnabled(name string) bool {
	lang, ok := c.Languages[name]
	if !ok {
		return false
	}
	return lang.Enabled == nil || *lang.Enabled
}
