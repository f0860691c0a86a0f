package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/errs"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Retention RetentionConfig `mapstructure:"retention"`
	Intel     IntelConfig     `mapstructure:"intel"`
	Recovery  RecoveryConfig  `mapstructure:"recovery"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AnalysisConfig points at an OpenAI-compatible completion endpoint that
// produces all risk verdicts. The application performs no scoring itself.
type AnalysisConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
}

// RetentionConfig bounds table growth. Zero keeps everything.
type RetentionConfig struct {
	MaxIncidents int `mapstructure:"max_incidents"`
	MaxEvents    int `mapstructure:"max_events"`
}

// IntelConfig enables best-effort publishing of honeypot events to a broker.
// Empty NATSURL disables publishing entirely.
type IntelConfig struct {
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

type RecoveryConfig struct {
	Playbook string `mapstructure:"playbook"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Retention.MaxIncidents < 0 || cfg.Retention.MaxEvents < 0 {
		return Config{}, errors.New("retention caps must not be negative")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("server_addr", cfg.Server.Addr),
		slog.String("analysis_model", cfg.Analysis.Model),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cyberguard")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/cyberguard.sqlite")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("analysis.model", "gpt-4o-mini")
	v.SetDefault("analysis.timeout_seconds", 30)
	v.SetDefault("analysis.cache_ttl_minutes", 15)
	v.SetDefault("retention.max_incidents", 0)
	v.SetDefault("retention.max_events", 0)
	v.SetDefault("intel.subject", "cyberguard.intel")
	v.SetDefault("recovery.playbook", "configs/recovery.toml")
}
