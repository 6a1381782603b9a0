package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if len(cfg.Categories) != len(DefaultCategories) {
		t.Errorf("got %d categories, want %d", len(cfg.Categories), len(DefaultCategories))
	}
	if cfg.MaxRuntime.Duration != 20*time.Minute {
		t.Errorf("max runtime = %v, want 20m", cfg.MaxRuntime.Duration)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"lat out of range", func(c *Config) { c.Center.Lat = 91 }, "center.lat"},
		{"lng out of range", func(c *Config) { c.Center.Lng = -200 }, "center.lng"},
		{"zero radius", func(c *Config) { c.RadiusKM = 0 }, "radius_km"},
		{"negative tile size", func(c *Config) { c.TileSizeKM = -1 }, "tile_size_km"},
		{"no categories", func(c *Config) { c.Categories = nil }, "categories"},
		{"blank category", func(c *Config) { c.Categories = []string{"plumber", " "} }, "categories"},
		{"zero max results", func(c *Config) { c.MaxResults = 0 }, "max_results"},
		{"zero runtime", func(c *Config) { c.MaxRuntime = Duration{} }, "max_runtime"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"negative retry", func(c *Config) { c.Retry = -1 }, "retry"},
		{"zero max pages", func(c *Config) { c.MaxPages = 0 }, "max_pages"},
		{"negative jitter", func(c *Config) { c.JitterMS = -1 }, "jitter_ms"},
		{"no phone region", func(c *Config) { c.PhoneRegion = "" }, "phone_region"},
		{"no formats", func(c *Config) { c.Output.Formats = nil }, "output.formats"},
		{"unknown format", func(c *Config) { c.Output.Formats = []string{"xml"} }, "output.formats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()

			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
center:
  lat: 53.3498
  lng: -6.2603
radius_km: 5
categories: [plumber, electrician]
max_runtime: 5m
concurrency: 4
output:
  dir: /tmp/scans
  formats: [csv]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Center.Lat != 53.3498 || cfg.Center.Lng != -6.2603 {
		t.Errorf("center = %+v", cfg.Center)
	}
	if cfg.RadiusKM != 5 {
		t.Errorf("radius = %v, want 5", cfg.RadiusKM)
	}
	if len(cfg.Categories) != 2 {
		t.Errorf("categories = %v", cfg.Categories)
	}
	if cfg.MaxRuntime.Duration != 5*time.Minute {
		t.Errorf("max runtime = %v, want 5m", cfg.MaxRuntime.Duration)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Concurrency)
	}

	// Unset fields keep their defaults
	if cfg.TileSizeKM != 2.5 {
		t.Errorf("tile size = %v, want default 2.5", cfg.TileSizeKM)
	}
	if cfg.PhoneRegion != "IE" {
		t.Errorf("phone region = %q, want default IE", cfg.PhoneRegion)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestDurationYAML(t *testing.T) {
	d := DurationFrom(90 * time.Second)
	text, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "1m30s" {
		t.Errorf("marshal = %q, want 1m30s", text)
	}

	var parsed Duration
	if err := parsed.UnmarshalText([]byte("2h45m")); err != nil {
		t.Fatal(err)
	}
	if parsed.Duration != 2*time.Hour+45*time.Minute {
		t.Errorf("unmarshal = %v", parsed.Duration)
	}

	if err := parsed.UnmarshalText([]byte("not a duration")); err == nil {
		t.Error("bad duration should fail")
	}
}
