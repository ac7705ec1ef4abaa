package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the settings shared by every subcommand. Values come from
// flags, FORMBIND_* environment variables and formbind.yaml, in that order.
type Config struct {
	Schema      string
	Form        string
	Renderer    string
	Action      string
	Method      string
	Submit      string
	Format      string
	MaxAttempts int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// configKeys maps config keys to the flag that overrides them.
var configKeys = map[string]string{
	"schema":       "schema",
	"form":         "form",
	"renderer":     "renderer",
	"action":       "action",
	"method":       "method",
	"submit":       "submit",
	"format":       "format",
	"max_attempts": "max-attempts",
	"timeout":      "timeout",
}

func loadConfig(path string, verbose bool, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("formbind")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("FORMBIND")
	v.AutomaticEnv()

	v.SetDefault("renderer", "vanilla")
	v.SetDefault("method", "post")
	v.SetDefault("format", "json")
	v.SetDefault("max_attempts", 3)
	v.SetDefault("timeout", 30*time.Second)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range configKeys {
			if flag := flags.Lookup(name); flag != nil && flag.Changed {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", zap.String("path", used))
	}

	return &Config{
		Schema:      v.GetString("schema"),
		Form:        v.GetString("form"),
		Renderer:    v.GetString("renderer"),
		Action:      v.GetString("action"),
		Method:      v.GetString("method"),
		Submit:      v.GetString("submit"),
		Format:      v.GetString("format"),
		MaxAttempts: v.GetInt("max_attempts"),
		Timeout:     v.GetDuration("timeout"),
		Logger:      logger,
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) (*Config, bool) {
	if ctx == nil {
		return nil, false
	}
	cfg, ok := ctx.Value(configKey{}).(*Config)
	return cfg, ok && cfg != nil
}

func mustConfig(ctx context.Context) (*Config, error) {
	cfg, ok := configFrom(ctx)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
