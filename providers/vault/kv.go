// Package vault reads the cbcx secret from a HashiCorp Vault KV secrets engine.
package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/vault/api"
	"github.com/hengadev/cbcx"
	"github.com/hengadev/cbcx/internal/configpath"
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/sirupsen/logrus"
)

// Config configures a KVProvider.
type Config struct {
	// Path is the full read path. For KV v2 it includes the "data" segment,
	// e.g. "secret/data/myapp/cbcx".
	Path string

	// Field names the entry inside the secret. Nested entries may be addressed with ':'
	// or '.' separators. Default: cbcx.DefaultVaultField
	Field string

	// Client is used as is when set. Otherwise a client is built with NewClientFromEnvironment.
	Client *api.Client

	Logger logrus.FieldLogger
}

// KVProvider implements cbcx.SecretProvider on top of Vault KV v2 (and v1).
type KVProvider struct {
	client *api.Client
	path   string
	field  string
	logger logrus.FieldLogger
}

// New creates a KVProvider.
//
// Usage:
//
//	provider, err := vault.New(vault.Config{Path: "secret/data/myapp/cbcx"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := cbcx.NewCipher(provider)
func New(cfg Config) (*KVProvider, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: vault path is required", cbcx.ErrInvalidConfiguration)
	}
	if cfg.Field == "" {
		cfg.Field = cbcx.DefaultVaultField
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = NewClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	return &KVProvider{
		client: client,
		path:   cfg.Path,
		field:  cfg.Field,
		logger: cfg.Logger,
	}, nil
}

// GetSecret reads the configured field from Vault.
//
// KV v2 responses wrap the entries in a "data" object; KV v1 responses do not. Both layouts
// are accepted.
func (k *KVProvider) GetSecret(ctx context.Context) (string, error) {
	log := monitoring.NewLogger(k.logger, "vault", "GetSecret").WithField("path", k.path)

	secret, err := k.client.Logical().ReadWithContext(ctx, k.path)
	if err != nil {
		log.WithError(err, "read").Warn("Failed to read secret from Vault")
		return "", cbcx.NewSecretStorageError("vault", fmt.Errorf("failed to read %s: %w", k.path, err))
	}

	if secret == nil || secret.Data == nil {
		return "", cbcx.NewMissingSecretError(k.path)
	}

	entries := secret.Data
	if data, ok := secret.Data["data"].(map[string]any); ok {
		entries = data
	}

	value, err := configpath.Lookup(entries, k.field)
	if err != nil {
		if errors.Is(err, configpath.ErrNotFound) {
			return "", cbcx.NewMissingSecretError(k.path + "#" + k.field)
		}
		return "", fmt.Errorf("%w: %w", cbcx.ErrInvalidConfiguration, err)
	}
	if value == "" {
		return "", cbcx.NewMissingSecretError(k.path + "#" + k.field)
	}

	log.WithFields(monitoring.SecretFields("secret", value)).Debug("Secret read from Vault")
	return value, nil
}
