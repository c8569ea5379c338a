// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type AppConfig struct {
	ServerEnvConfig
	ClientEnvConfig
	EnsembleEnvConfig
	Environment string `env:"ENVIRONMENT, default=prod"`
}

// ServerEnvConfig configures the scoring server.
type ServerEnvConfig struct {
	Host      string `env:"SERVER_HOST, default=0.0.0.0"`
	Port      int    `env:"SERVER_PORT, default=8888"`
	BodyLimit int    `env:"SERVER_BODY_LIMIT, default=4194304"`
}

// Address returns host:port for fiber's Listen.
func (s ServerEnvConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClientEnvConfig configures the scoring client.
type ClientEnvConfig struct {
	ClientTimeout  time.Duration `env:"CLIENT_TIMEOUT, default=30s"`
	ClientRetryMax int           `env:"CLIENT_RETRY_MAX, default=3"`
}

// EnsembleEnvConfig points at the ensembler definition file and names the
// ensembler used when a request or command does not pick one.
type EnsembleEnvConfig struct {
	ConfigFile string `env:"ENSEMBLE_CONFIG_FILE"`
	Default    string `env:"ENSEMBLE_DEFAULT, default=average"`
}

// LoadConfig reads the application configuration from the process
// environment.
func LoadConfig(ctx context.Context) (*AppConfig, error) {
	return LoadConfigFrom(ctx, envconfig.OsLookuper())
}

// LoadConfigFrom reads the application configuration through lookuper, which
// lets tests supply a map instead of the process environment.
func LoadConfigFrom(ctx context.Context, lookuper envconfig.Lookuper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.Environment = strings.ToLower(cfg.Environment)
	return cfg, nil
}
