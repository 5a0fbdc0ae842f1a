package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from flags, env
// and config files.
type Config struct {
	Server struct {
		Addr                   string `mapstructure:"addr" validate:"required"`
		ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"min=1"`
	} `mapstructure:"server"`
	Database struct {
		Driver     string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
		Path       string `mapstructure:"path" validate:"required_if=Driver sqlite"`
		DSN        string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
		MaxRetries int    `mapstructure:"max_retries" validate:"min=0,max=20"`
	} `mapstructure:"database"`
	Auth struct {
		JWTSecret       string `mapstructure:"jwt_secret" validate:"required"`
		TokenTTLMinutes int    `mapstructure:"token_ttl_minutes" validate:"min=1"`
	} `mapstructure:"auth"`
	Log struct {
		Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=text json"`
	} `mapstructure:"log"`
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// Load reads configuration from command line args, environment variables
// (prefix PLATES_, a .env file is honoured) and an optional config file.
// Flags win over env, env over the file, the file over defaults.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("plate-auction", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a config file")
	flags.String("addr", "", "listen address, overrides server.addr")
	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PLATES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/plates.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_retries", 5)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_minutes", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	if err := v.BindPFlag("server.addr", flags.Lookup("addr")); err != nil {
		return Config{}, fmt.Errorf("bind addr flag: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
