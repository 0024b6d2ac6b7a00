package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"workpassport/internal/bootstrap/logging"
	"workpassport/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Agents   AgentsConfig   `mapstructure:"agents"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type OracleConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// CompanyPolicy selects the company-verification stance:
	// "strict" or "lenient".
	CompanyPolicy string `mapstructure:"company_policy"`
}

type ChainConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	RegistryAddress string `mapstructure:"registry_address"`
}

type AgentsConfig struct {
	MonitorInterval        time.Duration `mapstructure:"monitor_interval"`
	VerifierInterval       time.Duration `mapstructure:"verifier_interval"`
	VelocityThreshold      int           `mapstructure:"velocity_threshold"`
	VelocityWindow         time.Duration `mapstructure:"velocity_window"`
	CheckpointMargin       uint64        `mapstructure:"checkpoint_margin"`
	ReputationCleanDelta   int           `mapstructure:"reputation_clean_delta"`
	ReputationFlaggedDelta int           `mapstructure:"reputation_flagged_delta"`
	FetchBatch             int           `mapstructure:"fetch_batch"`
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

	v.SetEnvPrefix("WP")
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
	if cfg.Agents.MonitorInterval <= 0 || cfg.Agents.VerifierInterval <= 0 {
		return Config{}, errors.New("agent polling intervals must be positive")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("oracle_model", cfg.Oracle.Model),
		slog.String("company_policy", cfg.Oracle.CompanyPolicy),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "workpassport")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".agents/state/workpassport.sqlite")
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.company_policy", "strict")
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.registry_address", "")
	v.SetDefault("agents.monitor_interval", 30*time.Second)
	v.SetDefault("agents.verifier_interval", 15*time.Second)
	v.SetDefault("agents.velocity_threshold", 10)
	v.SetDefault("agents.velocity_window", 24*time.Hour)
	v.SetDefault("agents.checkpoint_margin", 10)
	v.SetDefault("agents.reputation_clean_delta", 5)
	v.SetDefault("agents.reputation_flagged_delta", -10)
	v.SetDefault("agents.fetch_batch", 100)
}
