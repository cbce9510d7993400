// Package config handles MindfulTube configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mindfultube/mindfultube/internal/core"
)

// EnvPrefix is prepended to environment overrides, e.g.
// MINDFULTUBE_YOUTUBE_API_KEY
const EnvPrefix = "MINDFULTUBE"

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir  string `mapstructure:"data_dir" json:"data_dir" yaml:"data_dir"`
	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`

	Server   ServerConfig  `mapstructure:"server" json:"server" yaml:"server"`
	Storage  StorageConfig `mapstructure:"storage" json:"storage" yaml:"storage"`
	YouTube  YouTubeConfig `mapstructure:"youtube" json:"youtube" yaml:"youtube"`
	Agents   AgentsConfig  `mapstructure:"agents" json:"agents" yaml:"agents"`
	Features FeatureConfig `mapstructure:"features" json:"features" yaml:"features"`
}

// ServerConfig for the HTTP server
type ServerConfig struct {
	Host           string   `mapstructure:"host" json:"host" yaml:"host"`
	Port           int      `mapstructure:"port" json:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
}

// StorageConfig selects and configures the agent state store
type StorageConfig struct {
	Backend string `mapstructure:"backend" json:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty"` // SQLite file, defaults under DataDir

	// Passphrase enables at-rest encryption. Never written by Save.
	Passphrase string `mapstructure:"passphrase" json:"passphrase,omitempty" yaml:"passphrase,omitempty"`

	Redis RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`
}

// RedisConfig for the redis backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr" yaml:"addr"`
	Password string `mapstructure:"password" json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" json:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
}

// YouTubeConfig for the search provider
type YouTubeConfig struct {
	APIKey      string        `mapstructure:"api_key" json:"api_key,omitempty" yaml:"api_key,omitempty"`
	AccessToken string        `mapstructure:"access_token" json:"access_token,omitempty" yaml:"access_token,omitempty"`
	Endpoint    string        `mapstructure:"endpoint" json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	RateLimit   float64       `mapstructure:"rate_limit" json:"rate_limit" yaml:"rate_limit"` // Requests per second
	CacheTTL    time.Duration `mapstructure:"cache_ttl" json:"cache_ttl" yaml:"cache_ttl"`
}

// HasCredentials reports whether the YouTube provider can be used
func (y YouTubeConfig) HasCredentials() bool {
	return y.APIKey != "" || y.AccessToken != ""
}

// AgentsConfig tunes the agents
type AgentsConfig struct {
	DailyLimitMinutes  float64 `mapstructure:"daily_limit_minutes" json:"daily_limit_minutes" yaml:"daily_limit_minutes"`
	WeeklyLimitMinutes float64 `mapstructure:"weekly_limit_minutes" json:"weekly_limit_minutes" yaml:"weekly_limit_minutes"`
	SearchFetchSize    int     `mapstructure:"search_fetch_size" json:"search_fetch_size" yaml:"search_fetch_size"`
	MaxDisplayResults  int     `mapstructure:"max_display_results" json:"max_display_results" yaml:"max_display_results"`
	Timezone           string  `mapstructure:"timezone" json:"timezone" yaml:"timezone"`
}

// FeatureConfig for feature flags
type FeatureConfig struct {
	EnableScheduler bool `mapstructure:"enable_scheduler" json:"enable_scheduler" yaml:"enable_scheduler"`
	EnableMetrics   bool `mapstructure:"enable_metrics" json:"enable_metrics" yaml:"enable_metrics"`
	DebugMode       bool `mapstructure:"debug_mode" json:"debug_mode" yaml:"debug_mode"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()
	prefs := core.DefaultPreferences()

	return &Config{
		DataDir:  filepath.Join(home, ".mindfultube"),
		LogLevel: "info",
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8750,
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "mindfultube:",
			},
		},
		YouTube: YouTubeConfig{
			RateLimit: 2,
			CacheTTL:  10 * time.Minute,
		},
		Agents: AgentsConfig{
			DailyLimitMinutes:  prefs.DailyLimitMinutes,
			WeeklyLimitMinutes: prefs.WeeklyLimitMinutes,
			SearchFetchSize:    50,
			MaxDisplayResults:  20,
			Timezone:           "Local",
		},
		Features: FeatureConfig{
			EnableScheduler: true,
			EnableMetrics:   true,
		},
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_level", cfg.LogLevel)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)

	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.passphrase", cfg.Storage.Passphrase)
	v.SetDefault("storage.redis.addr", cfg.Storage.Redis.Addr)
	v.SetDefault("storage.redis.password", cfg.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", cfg.Storage.Redis.DB)
	v.SetDefault("storage.redis.prefix", cfg.Storage.Redis.Prefix)

	v.SetDefault("youtube.api_key", cfg.YouTube.APIKey)
	v.SetDefault("youtube.access_token", cfg.YouTube.AccessToken)
	v.SetDefault("youtube.endpoint", cfg.YouTube.Endpoint)
	v.SetDefault("youtube.rate_limit", cfg.YouTube.RateLimit)
	v.SetDefault("youtube.cache_ttl", cfg.YouTube.CacheTTL)

	v.SetDefault("agents.daily_limit_minutes", cfg.Agents.DailyLimitMinutes)
	v.SetDefault("agents.weekly_limit_minutes", cfg.Agents.WeeklyLimitMinutes)
	v.SetDefault("agents.search_fetch_size", cfg.Agents.SearchFetchSize)
	v.SetDefault("agents.max_display_results", cfg.Agents.MaxDisplayResults)
	v.SetDefault("agents.timezone", cfg.Agents.Timezone)

	v.SetDefault("features.enable_scheduler", cfg.Features.EnableScheduler)
	v.SetDefault("features.enable_metrics", cfg.Features.EnableMetrics)
	v.SetDefault("features.debug_mode", cfg.Features.DebugMode)
}

// DefaultPath returns the config file location inside dataDir
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// Load loads config from a YAML or JSON file, falling back to defaults,
// then applies MINDFULTUBE_* environment overrides. An empty path means
// config.yaml in the data directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath(v.GetString("data_dir"))
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("%w: storage backend %q", core.ErrInvalidInput, c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", core.ErrInvalidInput, c.Server.Port)
	}
	if c.Agents.DailyLimitMinutes <= 0 || c.Agents.WeeklyLimitMinutes <= 0 {
		return fmt.Errorf("%w: time limits must be positive", core.ErrInvalidInput)
	}
	if c.Agents.SearchFetchSize < c.Agents.MaxDisplayResults {
		return fmt.Errorf("%w: search_fetch_size below max_display_results", core.ErrInvalidInput)
	}
	return nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DBPath returns the SQLite file path
func (c *Config) DBPath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.DataDir, "mindfultube.db")
}

// Location returns the agents' calendar timezone
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Agents.Timezone); err == nil {
		return loc
	}
	return time.Local
}

// Save writes config as YAML, or JSON for a .json path. Secrets are
// left out.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath(c.DataDir)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	safeCfg := *c
	safeCfg.Storage.Passphrase = ""
	safeCfg.Storage.Redis.Password = ""
	safeCfg.YouTube.APIKey = ""
	safeCfg.YouTube.AccessToken = ""

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(safeCfg, "", "  ")
	} else {
		data, err = yaml.Marshal(safeCfg)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
