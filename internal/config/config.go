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

// Config holds the schooldex API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Cache       CacheConfig       `yaml:"cache"`
	Facets      FacetsConfig      `yaml:"facets"`
	Suggestions SuggestionsConfig `yaml:"suggestions"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for admin routes.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port              int `yaml:"port"`
	ReadTimeoutSec    int `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int `yaml:"write_timeout_sec"`
	ShutdownSec       int `yaml:"shutdown_timeout_sec"`
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
}

// DatabaseConfig holds entity store connection settings.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // sqlite, postgres (default: sqlite)
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_sec"`
	AutoMigrate     bool   `yaml:"auto_migrate"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Backend       string      `yaml:"backend"` // memory, redis, none (default: memory)
	FacetsTTLSec  int         `yaml:"facets_ttl_sec"`
	SuggestTTLSec int         `yaml:"suggest_ttl_sec"`
	ListTTLSec    int         `yaml:"list_ttl_sec"`
	MaxEntries    int         `yaml:"max_entries"`
	MaxEntryBytes int         `yaml:"max_entry_bytes"`
	Redis         RedisConfig `yaml:"redis"`
}

// RedisConfig holds the redis cache backend connection settings.
type RedisConfig struct {
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// FacetsConfig holds facet truncation limits and the language priority list.
type FacetsConfig struct {
	Limits            map[string]int `yaml:"limits"` // facet name -> max buckets, 0 = unlimited
	PriorityLanguages []string       `yaml:"priority_languages"`
	PopularDays       int            `yaml:"popular_days"`
	PopularLimit      int            `yaml:"popular_limit"`
}

// SuggestionsConfig holds suggestion caps.
type SuggestionsConfig struct {
	MinQueryLength  int `yaml:"min_query_length"`
	Schools         int `yaml:"schools"`
	Locations       int `yaml:"locations"`
	Specializations int `yaml:"specializations"`
	Facilities      int `yaml:"facilities"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
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
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 30
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	// search results: 5 min, filters: 1 h
	if c.Cache.FacetsTTLSec <= 0 {
		c.Cache.FacetsTTLSec = 3600
	}
	if c.Cache.SuggestTTLSec <= 0 {
		c.Cache.SuggestTTLSec = 300
	}
	if c.Cache.ListTTLSec <= 0 {
		c.Cache.ListTTLSec = 300
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 10000
	}
	if c.Cache.MaxEntryBytes <= 0 {
		c.Cache.MaxEntryBytes = 1 << 20
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = "schooldex:cache:"
	}
	if c.Facets.PopularDays <= 0 {
		c.Facets.PopularDays = 30
	}
	if c.Facets.PopularLimit <= 0 {
		c.Facets.PopularLimit = 10
	}
	if c.Facets.Limits == nil {
		c.Facets.Limits = map[string]int{"cities": 50, "districts": 30}
	}
	if len(c.Facets.PriorityLanguages) == 0 {
		c.Facets.PriorityLanguages = []string{"English", "Polish", "Angielski", "Polski"}
	}
	if c.Suggestions.MinQueryLength <= 0 {
		c.Suggestions.MinQueryLength = 2
	}
	if c.Suggestions.Schools <= 0 {
		c.Suggestions.Schools = 5
	}
	if c.Suggestions.Locations <= 0 {
		c.Suggestions.Locations = 3
	}
	if c.Suggestions.Specializations <= 0 {
		c.Suggestions.Specializations = 3
	}
	if c.Suggestions.Facilities <= 0 {
		c.Suggestions.Facilities = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\", got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if len(c.Cache.Redis.Addrs) == 0 {
			return fmt.Errorf("cache.redis.addrs is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be \"memory\", \"redis\" or \"none\", got %q", c.Cache.Backend)
	}
	for name, limit := range c.Facets.Limits {
		if limit < 0 {
			return fmt.Errorf("facets.limits.%s must be non-negative, got %d", name, limit)
		}
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
