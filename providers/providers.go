// Package providers builds a cbcx.SecretProvider from a cbcx.Config.
package providers

import (
	"context"
	"fmt"
	"io"

	"github.com/hengadev/cbcx"
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/hengadev/cbcx/providers/aws"
	"github.com/hengadev/cbcx/providers/cache"
	"github.com/hengadev/cbcx/providers/env"
	"github.com/hengadev/cbcx/providers/file"
	s3bucket "github.com/hengadev/cbcx/providers/s3"
	"github.com/hengadev/cbcx/providers/sqlstore"
	"github.com/hengadev/cbcx/providers/vault"
	"github.com/sirupsen/logrus"
)

// FromConfig validates cfg and returns the provider it describes, wrapped in a cache when
// cfg.CacheTTL is positive. Release it with Close.
func FromConfig(ctx context.Context, cfg cbcx.Config, logger logrus.FieldLogger) (cbcx.SecretProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", cbcx.ErrInvalidConfiguration, err)
	}

	provider, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	monitoring.NewLogger(logger, "providers", "FromConfig").
		WithFields(logrus.Fields{"source": cfg.Source, "secret_key": cfg.SecretKey, "cache_ttl": cfg.CacheTTL.String()}).
		Debug("Secret provider configured")

	if cfg.CacheTTL > 0 {
		cached, err := cache.New(provider, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return provider, nil
}

// Close releases resources held by provider, if any.
func Close(provider cbcx.SecretProvider) error {
	if closer, ok := provider.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func newBackend(ctx context.Context, cfg cbcx.Config, logger logrus.FieldLogger) (cbcx.SecretProvider, error) {
	switch cfg.Source {
	case cbcx.SourceEnv:
		return env.New(env.Config{
			Key:    cfg.SecretKey,
			Files:  cfg.EnvFiles,
			Logger: logger,
		})
	case cbcx.SourceFile:
		return file.New(file.Config{
			Path:      cfg.FilePath,
			SecretKey: cfg.SecretKey,
			Logger:    logger,
		})
	case cbcx.SourceVault:
		return vault.New(vault.Config{
			Path:   cfg.VaultPath,
			Field:  cfg.VaultField,
			Logger: logger,
		})
	case cbcx.SourceAWS:
		return aws.NewSecretsManagerProvider(ctx, aws.Config{
			SecretID: cfg.AWSSecretID,
			Field:    awsField(cfg),
			Region:   cfg.AWSRegion,
			Logger:   logger,
		})
	case cbcx.SourceS3:
		return s3bucket.New(ctx, s3bucket.Config{
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			SecretKey: cfg.SecretKey,
			Region:    cfg.AWSRegion,
			Logger:    logger,
		})
	case cbcx.SourceSQL:
		return sqlstore.New(ctx, sqlstore.Config{
			Driver:    cfg.SQLDriver,
			DSN:       cfg.SQLDSN,
			Table:     cfg.SQLTable,
			SecretKey: cfg.SecretKey,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown secret source %q", cbcx.ErrInvalidConfiguration, cfg.Source)
	}
}

// awsField reads the whole secret string unless a non-default key was configured, in
// which case the secret is treated as a JSON object.
func awsField(cfg cbcx.Config) string {
	if cfg.SecretKey == cbcx.DefaultSecretKey {
		return ""
	}
	return cfg.SecretKey
}
