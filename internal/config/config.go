package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aman-ray/tradescout/internal/model"
)

// DefaultCategories are the trades searched when none are configured.
var DefaultCategories = []string{
	"plumber", "electrician", "carpenter", "roofer", "painter",
	"tiler", "locksmith", "plasterer", "handyman", "heating engineer",
	"glazier", "pest control", "landscaper", "gardener", "chimney sweep",
}

// Config captures everything required to run a scan.
type Config struct {
	Center        model.GeoPoint `yaml:"center"`
	RadiusKM      float64        `yaml:"radius_km"`
	Categories    []string       `yaml:"categories"`
	MaxResults    int            `yaml:"max_results"`
	MaxRuntime    Duration       `yaml:"max_runtime"`
	Concurrency   int            `yaml:"concurrency"`
	TileSizeKM    float64        `yaml:"tile_size_km"`
	Retry         int            `yaml:"retry"`
	MaxPages      int            `yaml:"max_pages"`
	JitterMS      int            `yaml:"jitter_ms"`
	PhoneRegion   string         `yaml:"phone_region"`
	Lang          string         `yaml:"lang"`
	ProxyURL      string         `yaml:"proxy_url"`
	RegionGeoJSON string         `yaml:"region_geojson"`
	Output        OutputConfig   `yaml:"output"`
}

// OutputConfig controls where and in which formats results are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

// ConfigError reports invalid run parameters. It is fatal and raised before
// any scheduling starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		RadiusKM:    10,
		Categories:  append([]string(nil), DefaultCategories...),
		MaxResults:  500,
		MaxRuntime:  DurationFrom(20 * time.Minute),
		Concurrency: 2,
		TileSizeKM:  2.5,
		Retry:       3,
		MaxPages:    3,
		JitterMS:    350,
		PhoneRegion: "IE",
		Lang:        "en",
		Output: OutputConfig{
			Dir:     "./out",
			Formats: []string{"csv", "jsonl", "sqlite", "parquet"},
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

var knownFormats = map[string]bool{
	"csv":     true,
	"jsonl":   true,
	"sqlite":  true,
	"parquet": true,
}

// Validate checks every run parameter. The first violation is returned as a
// *ConfigError.
func (c *Config) Validate() error {
	if c.Center.Lat < -90 || c.Center.Lat > 90 {
		return &ConfigError{"center.lat", "must be within [-90, 90]"}
	}
	if c.Center.Lng < -180 || c.Center.Lng > 180 {
		return &ConfigError{"center.lng", "must be within [-180, 180]"}
	}
	if c.RadiusKM <= 0 {
		return &ConfigError{"radius_km", "must be > 0"}
	}
	if c.TileSizeKM <= 0 {
		return &ConfigError{"tile_size_km", "must be > 0"}
	}
	if len(c.Categories) == 0 {
		return &ConfigError{"categories", "must not be empty"}
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			return &ConfigError{"categories", "must not contain blank entries"}
		}
	}
	if c.MaxResults <= 0 {
		return &ConfigError{"max_results", "must be > 0"}
	}
	if c.MaxRuntime.Duration <= 0 {
		return &ConfigError{"max_runtime", "must be > 0"}
	}
	if c.Concurrency < 1 {
		return &ConfigError{"concurrency", "must be >= 1"}
	}
	if c.Retry < 0 {
		return &ConfigError{"retry", "must be >= 0"}
	}
	if c.MaxPages < 1 {
		return &ConfigError{"max_pages", "must be >= 1"}
	}
	if c.JitterMS < 0 {
		return &ConfigError{"jitter_ms", "must be >= 0"}
	}
	if c.PhoneRegion == "" {
		return &ConfigError{"phone_region", "must be set"}
	}
	if len(c.Output.Formats) == 0 {
		return &ConfigError{"output.formats", "must not be empty"}
	}
	for _, f := range c.Output.Formats {
		if !knownFormats[f] {
			return &ConfigError{"output.formats", fmt.Sprintf("unknown format %q", f)}
		}
	}
	return nil
}
