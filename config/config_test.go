package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROVIDERS_DIR", filepath.Join(dir, "missing"))
	t.Setenv("CITIES_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("GOOGLE_MAPS_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Cities) != 100 {
		t.Fatalf("expected 100 default cities, got %d", len(cfg.Cities))
	}
	if cfg.Cities[0] != (City{Name: "New York", State: "NY"}) {
		t.Fatalf("unexpected first city %v", cfg.Cities[0])
	}
	if got := len(cfg.ProvidersByHandler(HandlerFixture)); got != 4 {
		t.Fatalf("expected 4 fixture providers, got %d", got)
	}
	if cfg.Batch.DetailDelay.Milliseconds() != 50 || cfg.Batch.CategoryDelay.Milliseconds() != 1000 {
		t.Fatalf("unexpected delays %v %v", cfg.Batch.DetailDelay, cfg.Batch.CategoryDelay)
	}
	if !errors.Is(cfg.RequirePlacesKey(), ErrMissingAPIKey) {
		t.Fatal("expected missing API key error")
	}
}

func TestLoadProviderYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `id: rink_directory
name: Rink Directory
handler: html
fetcher: browser
max_results: 5
endpoints:
  base: https://rinks.example.com
categories:
  - label: Ice rinks
    sport_type: ice_skating
    venue_type: ice_rink
`
	if err := os.WriteFile(filepath.Join(dir, "rinks.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	cities := "cities:\n  - name: Boise\n    state: ID\n"
	citiesPath := filepath.Join(dir, "cities.yaml")
	if err := os.WriteFile(citiesPath, []byte(cities), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROVIDERS_DIR", dir)
	t.Setenv("CITIES_PATH", citiesPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, ok := cfg.Providers["rink_directory"]
	if !ok {
		t.Fatal("provider from yaml not loaded")
	}
	if p.Fetcher != FetcherBrowser || p.Endpoint("base") != "https://rinks.example.com" {
		t.Fatalf("unexpected provider %+v", p)
	}
	if len(cfg.Cities) != 1 || cfg.Cities[0].Name != "Boise" {
		t.Fatalf("unexpected cities %v", cfg.Cities)
	}
	if _, ok := cfg.Providers["google_places"]; !ok {
		t.Fatal("built-in providers should remain")
	}
}

func TestRetryConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  RetryConfig
		want error
	}{
		{"valid", RetryConfig{MaxAttempts: 3, InitialDelayMs: 100, BackoffMultiplier: 2, TimeoutSec: 10}, nil},
		{"zero attempts", RetryConfig{MaxAttempts: 0, BackoffMultiplier: 2, TimeoutSec: 10}, ErrInvalidMaxAttempts},
		{"negative delay", RetryConfig{MaxAttempts: 1, InitialDelayMs: -1, BackoffMultiplier: 2, TimeoutSec: 10}, ErrInvalidInitialDelay},
		{"shrinking backoff", RetryConfig{MaxAttempts: 1, BackoffMultiplier: 0.5, TimeoutSec: 10}, ErrInvalidBackoffMultiplier},
		{"no timeout", RetryConfig{MaxAttempts: 1, BackoffMultiplier: 1}, ErrInvalidTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCategoryQueryFor(t *testing.T) {
	c := Category{Query: "skatepark in {city}, {state}"}
	if got := c.QueryFor("Portland", "OR"); got != "skatepark in Portland, OR" {
		t.Fatalf("got %q", got)
	}
}

func TestFirstCities(t *testing.T) {
	cfg := &Config{Cities: DefaultCities()}
	if got := len(cfg.FirstCities(3)); got != 3 {
		t.Fatalf("got %d", got)
	}
	if got := len(cfg.FirstCities(500)); got != 100 {
		t.Fatalf("got %d", got)
	}
}
