// Package config loads service configuration from config.yaml, the
// environment (SCWM_ prefix) and a local .env file.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	ORS        ORSConfig        `mapstructure:"ors"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Map        MapConfig        `mapstructure:"map"`
	Analyze    AnalyzeConfig    `mapstructure:"analyze"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the persistence backend: "sqlite" or "postgres".
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	SqlitePath  string `mapstructure:"sqlite_path"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int32  `mapstructure:"max_conns"`
	SeedPath    string `mapstructure:"seed_path"`
}

// RedisConfig enables the center snapshot cache when Addr is set.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	CenterTTL time.Duration `mapstructure:"center_ttl"`
}

// ORSConfig enables OpenRouteService routing and geocoding when APIKey is set.
type ORSConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Profile string        `mapstructure:"profile"`
	Country string        `mapstructure:"country"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ClassifierConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type MapConfig struct {
	FocusZoom        int           `mapstructure:"focus_zoom"`
	SessionTTL       time.Duration `mapstructure:"session_ttl"`
	RouteTimeout     time.Duration `mapstructure:"route_timeout"`
	FallbackSpeedKmh float64       `mapstructure:"fallback_speed_kmh"`
}

type AnalyzeConfig struct {
	MaxUploadMB int     `mapstructure:"max_upload_mb"`
	RatePerSec  float64 `mapstructure:"rate_per_sec"`
	Burst       int     `mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadDotEnv loads a .env file from the working directory if present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file found, using environment variables")
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SCWM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by earlier deployments.
	_ = v.BindEnv("store.database_url", "SCWM_STORE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("ors.api_key", "SCWM_ORS_API_KEY", "ORS_API_KEY")
	_ = v.BindEnv("anthropic.api_key", "SCWM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "data/app.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.seed_path", "data/seeds/centers.json")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.center_ttl", 5*time.Minute)
	v.SetDefault("ors.api_key", "")
	v.SetDefault("ors.base_url", "https://api.openrouteservice.org")
	v.SetDefault("ors.profile", "driving-car")
	v.SetDefault("ors.country", "")
	v.SetDefault("ors.timeout", 10*time.Second)
	v.SetDefault("classifier.url", "")
	v.SetDefault("classifier.timeout", 30*time.Second)
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("map.focus_zoom", 15)
	v.SetDefault("map.session_ttl", 30*time.Minute)
	v.SetDefault("map.route_timeout", 15*time.Second)
	v.SetDefault("map.fallback_speed_kmh", 30.0)
	v.SetDefault("analyze.max_upload_mb", 10)
	v.SetDefault("analyze.rate_per_sec", 2.0)
	v.SetDefault("analyze.burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return eris.Errorf("config: server.port %d out of range", c.Server.Port)
	}

	switch c.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Store.SqlitePath) == "" {
			return eris.New("config: store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.DatabaseURL) == "" {
			return eris.New("config: store.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}

	if c.Map.FocusZoom < 0 || c.Map.FocusZoom > 22 {
		return eris.Errorf("config: map.focus_zoom %d out of range", c.Map.FocusZoom)
	}
	if c.Analyze.MaxUploadMB < 1 {
		return eris.New("config: analyze.max_upload_mb must be positive")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return eris.Errorf("config: unknown log.format %q", c.Log.Format)
	}

	return nil
}

// MaxUploadBytes converts the upload limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Analyze.MaxUploadMB) << 20
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
