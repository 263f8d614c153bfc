// Package env reads the cbcx secret from the process environment and optional dotenv files.
package env

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hengadev/cbcx"
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config configures a Provider.
type Config struct {
	// Key is the configuration key. Default: cbcx.DefaultSecretKey
	Key string

	// Fallback is consulted when no variable matches Key. Default: cbcx.DefaultSecretEnv
	Fallback string

	// Files are dotenv files read on every lookup. The process environment wins over them
	// and earlier files win over later ones.
	Files []string

	Logger logrus.FieldLogger
}

// Provider implements cbcx.SecretProvider over environment variables.
type Provider struct {
	names  []string
	files  []string
	logger logrus.FieldLogger
}

// New creates a Provider. Every file in cfg.Files must exist.
func New(cfg Config) (*Provider, error) {
	if cfg.Key == "" {
		cfg.Key = cbcx.DefaultSecretKey
	}
	if cfg.Fallback == "" {
		cfg.Fallback = cbcx.DefaultSecretEnv
	}

	for _, file := range cfg.Files {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("%w: env file %s: %w", cbcx.ErrInvalidConfiguration, file, err)
		}
	}

	return &Provider{
		names:  VariableNames(cfg.Key, cfg.Fallback),
		files:  cfg.Files,
		logger: cfg.Logger,
	}, nil
}

// VariableNames lists the variables consulted for key, in order: the key itself, the key
// with ':' replaced by "__" (so "Section:Name" can be set as Section__Name), then fallback.
func VariableNames(key, fallback string) []string {
	names := []string{key}
	if alt := strings.ReplaceAll(key, ":", "__"); alt != key {
		names = append(names, alt)
	}
	if fallback != "" && fallback != key {
		names = append(names, fallback)
	}
	return names
}

// GetSecret returns the first non-empty variable among VariableNames.
func (p *Provider) GetSecret(ctx context.Context) (string, error) {
	log := monitoring.NewLogger(p.logger, "env", "GetSecret")

	for _, name := range p.names {
		if value := os.Getenv(name); value != "" {
			log.WithField("variable", name).WithFields(monitoring.SecretFields("secret", value)).Debug("Secret read from environment")
			return value, nil
		}
	}

	for _, file := range p.files {
		values, err := godotenv.Read(file)
		if err != nil {
			return "", fmt.Errorf("%w: failed to read env file %s: %w", cbcx.ErrInvalidConfiguration, file, err)
		}
		for _, name := range p.names {
			if value := values[name]; value != "" {
				log.WithFields(logrus.Fields{"variable": name, "file": file}).Debug("Secret read from env file")
				return value, nil
			}
		}
	}

	return "", cbcx.NewMissingSecretError(strings.Join(p.names, ", "))
}
