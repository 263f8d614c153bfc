// Package file reads the cbcx secret from a YAML or JSON configuration file, such as an
// exported appsettings document.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hengadev/cbcx"
	"github.com/hengadev/cbcx/internal/configpath"
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config configures a Provider.
type Config struct {
	Path string

	// SecretKey is the configuration key inside the document. Default: cbcx.DefaultSecretKey
	SecretKey string

	Logger logrus.FieldLogger
}

// Provider implements cbcx.SecretProvider over a configuration file. The file is read on
// every call so edits take effect without a restart.
type Provider struct {
	path      string
	secretKey string
	logger    logrus.FieldLogger
}

// New creates a Provider.
func New(cfg Config) (*Provider, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: file path is required", cbcx.ErrInvalidConfiguration)
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = cbcx.DefaultSecretKey
	}
	return &Provider{path: cfg.Path, secretKey: cfg.SecretKey, logger: cfg.Logger}, nil
}

// GetSecret parses the file and resolves the secret key.
func (p *Provider) GetSecret(ctx context.Context) (string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %w", cbcx.ErrInvalidConfiguration, p.path, err)
	}

	// JSON is a subset of YAML, so one decoder covers both formats.
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("%w: failed to parse %s: %w", cbcx.ErrInvalidConfiguration, p.path, err)
	}

	value, err := configpath.Lookup(doc, p.secretKey)
	if err != nil {
		if errors.Is(err, configpath.ErrNotFound) {
			return "", cbcx.NewMissingSecretError(p.secretKey)
		}
		return "", fmt.Errorf("%w: %s: %w", cbcx.ErrInvalidConfiguration, p.path, err)
	}
	if value == "" {
		return "", cbcx.NewMissingSecretError(p.secretKey)
	}

	monitoring.NewLogger(p.logger, "file", "GetSecret").
		WithField("path", p.path).
		WithFields(monitoring.SecretFields("secret", value)).
		Debug("Secret read from file")
	return value, nil
}
