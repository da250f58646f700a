package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Resolver   ResolverConfig   `yaml:"resolver" mapstructure:"resolver"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig points at the input files.
type DataConfig struct {
	HubsFile        string `yaml:"hubs_file" mapstructure:"hubs_file"`
	AssignmentsFile string `yaml:"assignments_file" mapstructure:"assignments_file"`
}

// AnalysisConfig configures the analyzer.
type AnalysisConfig struct {
	Index            string  `yaml:"index" mapstructure:"index"`
	CoverageRadiusKM float64 `yaml:"coverage_radius_km" mapstructure:"coverage_radius_km"`
}

// ResolverConfig configures batch resolution.
type ResolverConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	MemoSize    int `yaml:"memo_size" mapstructure:"memo_size"`
}

// GeocodeConfig configures the Nominatim fallback resolver.
type GeocodeConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Country      string        `yaml:"country" mapstructure:"country"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit    float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs  int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CachePath    string        `yaml:"cache_path" mapstructure:"cache_path"`
	CacheTTLDays int           `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	Retry        RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit      CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig configures geocoder retries.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig configures the geocoder circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// StoreConfig configures the Postgres pincode table.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MonitoringConfig configures report alerts. A zero threshold disables
// its alert.
type MonitoringConfig struct {
	WebhookURL              string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	MismatchRateThreshold   float64 `yaml:"mismatch_rate_threshold" mapstructure:"mismatch_rate_threshold"`
	UnresolvedRateThreshold float64 `yaml:"unresolved_rate_threshold" mapstructure:"unresolved_rate_threshold"`
	MaxDifferenceKM         float64 `yaml:"max_difference_km" mapstructure:"max_difference_km"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path looks
// for an optional config.yaml in the working directory; a non-empty path
// must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("HUBMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.hubs_file", "hubs.yaml")
	v.SetDefault("data.assignments_file", "")
	v.SetDefault("analysis.index", "linear")
	v.SetDefault("analysis.coverage_radius_km", 3.0)
	v.SetDefault("resolver.concurrency", 4)
	v.SetDefault("resolver.memo_size", 10000)
	v.SetDefault("geocode.enabled", false)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.country", "India")
	v.SetDefault("geocode.user_agent", "postal_code_locator")
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.cache_path", "")
	v.SetDefault("geocode.cache_ttl_days", 90)
	v.SetDefault("geocode.retry.max_attempts", 3)
	v.SetDefault("geocode.retry.initial_backoff_ms", 1000)
	v.SetDefault("geocode.retry.max_backoff_ms", 30000)
	v.SetDefault("geocode.retry.multiplier", 1.0)
	v.SetDefault("geocode.retry.jitter_fraction", 0.0)
	v.SetDefault("geocode.circuit.failure_threshold", 5)
	v.SetDefault("geocode.circuit.reset_timeout_secs", 30)
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.mismatch_rate_threshold", 0.0)
	v.SetDefault("monitoring.unresolved_rate_threshold", 0.0)
	v.SetDefault("monitoring.max_difference_km", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validation modes, one per command family.
const (
	ModeAnalyze = "analyze"
	ModeServe   = "serve"
	ModeImport  = "import"
)

// Validate checks that the settings a command needs are present and sane.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case ModeAnalyze:
		errs = append(errs, c.validateAnalysis()...)
	case ModeServe:
		errs = append(errs, c.validateAnalysis()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case ModeImport:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: %s", strings.Join(errs, "; ")))
	}
	return nil
}

func (c *Config) validateAnalysis() []string {
	var errs []string
	if c.Data.HubsFile == "" {
		errs = append(errs, "data.hubs_file is required")
	}
	switch c.Analysis.Index {
	case "", "linear", "rtree":
	default:
		errs = append(errs, fmt.Sprintf("analysis.index must be linear or rtree, got %q", c.Analysis.Index))
	}
	if c.Analysis.CoverageRadiusKM < 0 {
		errs = append(errs, "analysis.coverage_radius_km must be >= 0")
	}
	if c.Resolver.Concurrency < 1 || c.Resolver.Concurrency > 64 {
		errs = append(errs, "resolver.concurrency must be between 1 and 64")
	}
	if c.Resolver.MemoSize < 0 {
		errs = append(errs, "resolver.memo_size must be >= 0")
	}
	if c.Geocode.Enabled {
		if c.Geocode.BaseURL == "" {
			errs = append(errs, "geocode.base_url is required when geocode.enabled")
		}
		if c.Geocode.RateLimit <= 0 {
			errs = append(errs, "geocode.rate_limit must be > 0")
		}
		if c.Geocode.Retry.JitterFraction < 0 || c.Geocode.Retry.JitterFraction > 1 {
			errs = append(errs, "geocode.retry.jitter_fraction must be between 0 and 1")
		}
	}
	if r := c.Monitoring.MismatchRateThreshold; r < 0 || r > 1 {
		errs = append(errs, "monitoring.mismatch_rate_threshold must be between 0 and 1")
	}
	if r := c.Monitoring.UnresolvedRateThreshold; r < 0 || r > 1 {
		errs = append(errs, "monitoring.unresolved_rate_threshold must be between 0 and 1")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
