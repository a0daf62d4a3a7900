package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the manga-reach API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Search    SearchConfig    `yaml:"search"`
	Recommend RecommendConfig `yaml:"recommend"`
	Curation  CurationConfig  `yaml:"curation"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds persisted key-value store settings.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // badger, redis (default: badger)
	Path             string   `yaml:"path"`   // badger database directory
	Addrs            []string `yaml:"addrs"`  // redis addresses
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig holds catalog source settings.
type CatalogConfig struct {
	Path string `yaml:"path"` // JSON file with the work collection
}

// SearchConfig holds fuzzy matching and windowing settings.
type SearchConfig struct {
	Threshold         float64 `yaml:"threshold"`       // 0 = exact only, 1 = match anything
	Distance          int     `yaml:"distance"`        // max character displacement
	IgnoreLocation    *bool   `yaml:"ignore_location"` // default true
	TitleWeight       float64 `yaml:"title_weight"`
	TagsWeight        float64 `yaml:"tags_weight"`
	DescriptionWeight float64 `yaml:"description_weight"`
	AuthorWeight      float64 `yaml:"author_weight"`
	QuickLimit        int     `yaml:"quick_limit"`      // cap for the non-windowed flow
	InitialWindow     int     `yaml:"initial_window"`   // first visible page size
	WindowIncrement   int     `yaml:"window_increment"` // load-more step
}

// RecommendConfig holds related-item scoring settings.
type RecommendConfig struct {
	MaxRelated   int     `yaml:"max_related"`
	AuthorWeight float64 `yaml:"author_weight"`
	TagWeight    float64 `yaml:"tag_weight"`
	RatingWeight float64 `yaml:"rating_weight"`
}

// CurationConfig holds front-page section settings.
type CurationConfig struct {
	TrendingOffset int    `yaml:"trending_offset"`
	TrendingSize   int    `yaml:"trending_size"`
	HallOfFameSize int    `yaml:"hall_of_fame_size"`
	FeaturedTag    string `yaml:"featured_tag"`
	FeaturedSize   int    `yaml:"featured_size"`
}

// SessionConfig holds user-state settings.
type SessionConfig struct {
	HistoryMax       int      `yaml:"history_max"`
	ExperimentLabels []string `yaml:"experiment_labels"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "badger"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/state"
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "mangareach:"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/mangaData.json"
	}
	if c.Search.Threshold <= 0 {
		c.Search.Threshold = 0.35
	}
	if c.Search.Distance <= 0 {
		c.Search.Distance = 100
	}
	if c.Search.IgnoreLocation == nil {
		t := true
		c.Search.IgnoreLocation = &t
	}
	if c.Search.TitleWeight <= 0 {
		c.Search.TitleWeight = 1.0
	}
	if c.Search.TagsWeight <= 0 {
		c.Search.TagsWeight = 0.75
	}
	if c.Search.DescriptionWeight <= 0 {
		c.Search.DescriptionWeight = 0.7
	}
	if c.Search.AuthorWeight <= 0 {
		c.Search.AuthorWeight = 0.5
	}
	if c.Search.QuickLimit <= 0 {
		c.Search.QuickLimit = 40
	}
	if c.Search.InitialWindow <= 0 {
		c.Search.InitialWindow = 20
	}
	if c.Search.WindowIncrement <= 0 {
		c.Search.WindowIncrement = 20
	}
	if c.Recommend.MaxRelated <= 0 {
		c.Recommend.MaxRelated = 6
	}
	if c.Recommend.AuthorWeight <= 0 {
		c.Recommend.AuthorWeight = 10
	}
	if c.Recommend.TagWeight <= 0 {
		c.Recommend.TagWeight = 3
	}
	if c.Recommend.RatingWeight <= 0 {
		c.Recommend.RatingWeight = 0.5
	}
	if c.Curation.TrendingOffset <= 0 {
		c.Curation.TrendingOffset = 20
	}
	if c.Curation.TrendingSize <= 0 {
		c.Curation.TrendingSize = 8
	}
	if c.Curation.HallOfFameSize <= 0 {
		c.Curation.HallOfFameSize = 8
	}
	if c.Curation.FeaturedTag == "" {
		c.Curation.FeaturedTag = "ファンタジー"
	}
	if c.Curation.FeaturedSize <= 0 {
		c.Curation.FeaturedSize = 8
	}
	if c.Session.HistoryMax <= 0 {
		c.Session.HistoryMax = 12
	}
	if len(c.Session.ExperimentLabels) == 0 {
		c.Session.ExperimentLabels = []string{"A", "B"}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case "badger":
		// path defaulted above
	case "redis":
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be \"badger\" or \"redis\", got %q", c.Store.Driver)
	}
	if c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be within [0, 1], got %g", c.Search.Threshold)
	}
	if len(c.Session.ExperimentLabels) < 2 {
		return fmt.Errorf("session.experiment_labels needs at least 2 labels")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
