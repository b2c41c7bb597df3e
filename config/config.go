package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAPIKey            = errors.New("GOOGLE_MAPS_API_KEY is required")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrUnknownHandler           = errors.New("provider handler must be one of: fixture, html, places")
)

const (
	HandlerFixture = "fixture"
	HandlerHTML    = "html"
	HandlerPlaces  = "places"

	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

type Config struct {
	PlacesAPIKey string
	DatabaseURL  string
	DBPath       string
	LogFile      string
	ProxyURL     string
	HTTPTimeout  time.Duration
	PlacesQPS    float64

	Checkpoint CheckpointConfig
	S3         S3Config
	Batch      BatchConfig
	Retry      RetryConfig
	Scheduler  SchedulerConfig

	Providers map[string]*ProviderConfig
	Cities    []City

	providersDir string
	citiesPath   string
}

type CheckpointConfig struct {
	Path     string
	S3Bucket string
	S3Prefix string
}

type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type BatchConfig struct {
	MaxCities         int
	MaxResultsPerCity int
	MaxAPICalls       int
	MaxPhotos         int
	DetailDelay       time.Duration
	CategoryDelay     time.Duration
	PageDelay         time.Duration
}

// RetryConfig is the yaml/env form of a retry policy.
type RetryConfig struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	Jitter            float64 `yaml:"jitter"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

type SchedulerConfig struct {
	Cron string
}

// ProviderConfig describes one venue source.
type ProviderConfig struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Handler     string            `yaml:"handler"`
	Fetcher     string            `yaml:"fetcher"`
	Fixture     string            `yaml:"fixture"`
	Verified    bool              `yaml:"verified"`
	RateLimitMS int               `yaml:"rate_limit_ms"`
	PageDelayMS int               `yaml:"page_delay_ms"`
	MaxResults  int               `yaml:"max_results"`
	MaxPages    int               `yaml:"max_pages"`
	Endpoints   map[string]string `yaml:"endpoints"`
	States      []string          `yaml:"states"`
	Categories  []Category        `yaml:"categories"`
}

// Category is one search performed against a provider, e.g. "ice rinks".
type Category struct {
	Label      string `yaml:"label"`
	SportType  string `yaml:"sport_type"`
	VenueType  string `yaml:"venue_type"`
	Discipline string `yaml:"discipline"`
	Query      string `yaml:"query"` // "skatepark in {city}, {state}"
}

// QueryFor fills the {city} and {state} placeholders of the category query.
func (c Category) QueryFor(city, state string) string {
	return strings.NewReplacer("{city}", city, "{state}", state).Replace(c.Query)
}

func (p *ProviderConfig) Endpoint(name string) string {
	return p.Endpoints[name]
}

func (p *ProviderConfig) PageDelay(fallback time.Duration) time.Duration {
	if p.PageDelayMS > 0 {
		return time.Duration(p.PageDelayMS) * time.Millisecond
	}
	return fallback
}

type City struct {
	Name  string `yaml:"name" json:"city"`
	State string `yaml:"state" json:"state"`
}

func (c City) String() string {
	return c.Name + ", " + c.State
}

// Key identifies a city regardless of letter case.
func (c City) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Name)) + "|" + strings.ToUpper(strings.TrimSpace(c.State))
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PlacesAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DBPath:       getEnv("DB_PATH", "skaters.db"),
		LogFile:      getEnv("LOG_FILE", "skaters.log"),
		ProxyURL:     os.Getenv("PROXY_URL"),
		HTTPTimeout:  time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,
		PlacesQPS:    getEnvFloat("PLACES_QPS", 10),
		Checkpoint: CheckpointConfig{
			Path:     getEnv("CHECKPOINT_PATH", "google_maps_venues.json"),
			S3Bucket: os.Getenv("CHECKPOINT_S3_BUCKET"),
			S3Prefix: getEnv("CHECKPOINT_S3_PREFIX", "checkpoints/"),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY"),
			SecretAccessKey: os.Getenv("S3_SECRET_KEY"),
		},
		Batch: BatchConfig{
			MaxCities:         getEnvInt("MAX_CITIES", 10),
			MaxResultsPerCity: getEnvInt("MAX_RESULTS_PER_CITY", 60),
			MaxAPICalls:       getEnvInt("MAX_API_CALLS", 0),
			MaxPhotos:         getEnvInt("MAX_PHOTOS", 10),
			DetailDelay:       time.Duration(getEnvInt("DETAIL_DELAY_MS", 50)) * time.Millisecond,
			CategoryDelay:     time.Duration(getEnvInt("CATEGORY_DELAY_MS", 1000)) * time.Millisecond,
			PageDelay:         time.Duration(getEnvInt("PAGE_DELAY_MS", 2000)) * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxAttempts:       getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelayMs:    getEnvInt("RETRY_INITIAL_DELAY_MS", 1000),
			MaxDelayMs:        getEnvInt("RETRY_MAX_DELAY_MS", 10000),
			BackoffMultiplier: getEnvFloat("RETRY_MULTIPLIER", 2),
			Jitter:            getEnvFloat("RETRY_JITTER", 0.1),
			TimeoutSec:        getEnvInt("HTTP_TIMEOUT_SEC", 30),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCHEDULE_CRON"),
		},
		Providers:    DefaultProviders(),
		providersDir: getEnv("PROVIDERS_DIR", "config/providers"),
		citiesPath:   getEnv("CITIES_PATH", "config/cities.yaml"),
	}

	if err := cfg.loadProviderConfigs(); err != nil {
		return nil, err
	}
	if err := cfg.loadCities(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	for id, p := range c.Providers {
		switch p.Handler {
		case HandlerFixture, HandlerHTML, HandlerPlaces:
		default:
			return fmt.Errorf("%w: provider %s has %q", ErrUnknownHandler, id, p.Handler)
		}
	}
	return nil
}

func (r RetryConfig) Validate() error {
	if r.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if r.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}
	if r.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}
	if r.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}
	return nil
}

// RequirePlacesKey fails when the paid places provider has no credential.
func (c *Config) RequirePlacesKey() error {
	if strings.TrimSpace(c.PlacesAPIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ProvidersByHandler returns the providers using a handler, ordered by id.
func (c *Config) ProvidersByHandler(handler string) []*ProviderConfig {
	var out []*ProviderConfig
	for _, p := range c.Providers {
		if p.Handler == handler {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FirstCities returns the first n configured cities, clamped to the list size.
func (c *Config) FirstCities(n int) []City {
	if n <= 0 || n > len(c.Cities) {
		n = len(c.Cities)
	}
	return c.Cities[:n]
}

func (c *Config) loadProviderConfigs() error {
	entries, err := os.ReadDir(c.providersDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(c.providersDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var provider ProviderConfig
		if err := yaml.Unmarshal(data, &provider); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if provider.ID == "" {
			provider.ID = strings.TrimSuffix(entry.Name(), ".yaml")
		}

		c.Providers[provider.ID] = &provider
	}

	return nil
}

func (c *Config) loadCities() error {
	data, err := os.ReadFile(c.citiesPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.Cities = DefaultCities()
			return nil
		}
		return err
	}

	var doc struct {
		Cities []City `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", c.citiesPath, err)
	}
	if len(doc.Cities) == 0 {
		c.Cities = DefaultCities()
		return nil
	}
	c.Cities = doc.Cities
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
