// Package aws reads the cbcx secret from AWS Secrets Manager.
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/hengadev/cbcx"
	"github.com/hengadev/cbcx/internal/awsconfig"
	"github.com/hengadev/cbcx/internal/configpath"
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/sirupsen/logrus"
)

// secretsManagerClient interface for AWS Secrets Manager operations (allows mocking)
type secretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Config holds configuration for the Secrets Manager provider.
type Config struct {
	// SecretID is the secret name or ARN. Required.
	SecretID string

	// Field selects an entry when the secret string is a JSON object, as created by the
	// console's key/value editor. Nested entries may be addressed with ':' or '.'.
	// When empty the whole secret string is the secret.
	Field string

	// Region is the AWS region (e.g., "us-east-1")
	// If empty, uses AWS_REGION environment variable or AWS config file
	Region string

	// AWSConfig is an optional pre-configured AWS config
	// If provided, Region is ignored
	AWSConfig *aws.Config

	Logger logrus.FieldLogger
}

// SecretsManagerProvider implements cbcx.SecretProvider using AWS Secrets Manager.
type SecretsManagerProvider struct {
	client   secretsManagerClient
	secretID string
	field    string
	region   string
	logger   logrus.FieldLogger
}

// NewSecretsManagerProvider creates a provider for cfg.SecretID.
//
// Usage:
//
//	provider, err := aws.NewSecretsManagerProvider(ctx, aws.Config{
//	    SecretID: "myapp/cbcx",
//	    Field:    cbcx.DefaultSecretKey,
//	    Region:   "us-east-1",
//	})
func NewSecretsManagerProvider(ctx context.Context, cfg Config) (*SecretsManagerProvider, error) {
	if cfg.SecretID == "" {
		return nil, fmt.Errorf("%w: secret id is required", cbcx.ErrInvalidConfiguration)
	}

	awsConfig, err := awsconfig.Load(ctx, cfg.Region, cfg.AWSConfig)
	if err != nil {
		return nil, err
	}

	return newProvider(secretsmanager.NewFromConfig(awsConfig), awsConfig.Region, cfg), nil
}

func newProvider(client secretsManagerClient, region string, cfg Config) *SecretsManagerProvider {
	return &SecretsManagerProvider{
		client:   client,
		secretID: cfg.SecretID,
		field:    cfg.Field,
		region:   region,
		logger:   cfg.Logger,
	}
}

// GetSecret fetches the current version of the secret.
func (s *SecretsManagerProvider) GetSecret(ctx context.Context) (string, error) {
	log := monitoring.NewLogger(s.logger, "aws", "GetSecret").WithField("secret_id", s.secretID)

	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		var notFoundErr *types.ResourceNotFoundException
		if errors.As(err, &notFoundErr) {
			return "", cbcx.NewMissingSecretError(s.secretID)
		}
		log.WithError(err, "get_secret_value").Warn("Failed to read secret from Secrets Manager")
		return "", cbcx.NewSecretStorageError("aws secrets manager", err)
	}

	var raw string
	switch {
	case result.SecretString != nil:
		raw = *result.SecretString
	case len(result.SecretBinary) > 0:
		raw = string(result.SecretBinary)
	}

	value := raw
	if s.field != "" && raw != "" {
		value, err = lookupField(raw, s.field)
		if err != nil {
			if errors.Is(err, configpath.ErrNotFound) {
				return "", cbcx.NewMissingSecretError(s.secretID + "#" + s.field)
			}
			return "", fmt.Errorf("%w: secret %s: %w", cbcx.ErrInvalidConfiguration, s.secretID, err)
		}
	}

	if value == "" {
		return "", cbcx.NewMissingSecretError(s.secretID)
	}

	log.WithFields(monitoring.SecretFields("secret", value)).Debug("Secret read from Secrets Manager")
	return value, nil
}

// Region returns the AWS region this provider is configured for.
func (s *SecretsManagerProvider) Region() string {
	return s.region
}

func lookupField(raw, field string) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", fmt.Errorf("secret string is not a JSON object: %w", err)
	}
	return configpath.Lookup(doc, field)
}
