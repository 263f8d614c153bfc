// Package s3bucket reads the cbcx secret from a YAML or JSON configuration document stored in
// Amazon S3.
package s3bucket

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hengadev/cbcx"
	"github.com/hengadev/cbcx/internal/awsconfig"
	"github.com/hengadev/cbcx/internal/configpath"
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// maxDocumentSize bounds the configuration document read from S3.
const maxDocumentSize = 1 << 20

// AWSS3Getter defines the method used to read from S3
type AWSS3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config configures a DocumentProvider.
type Config struct {
	Bucket string
	Key    string

	// SecretKey is the configuration key inside the document. Default: cbcx.DefaultSecretKey
	SecretKey string

	Region    string
	AWSConfig *aws.Config

	// Client overrides the S3 client built from Region/AWSConfig.
	Client AWSS3Getter

	Logger logrus.FieldLogger
}

// DocumentProvider implements cbcx.SecretProvider over a configuration document in S3.
// The document is fetched on every call.
type DocumentProvider struct {
	client    AWSS3Getter
	bucket    string
	key       string
	secretKey string
	logger    logrus.FieldLogger
}

// New creates a DocumentProvider.
//
// Usage:
//
//	provider, err := s3bucket.New(ctx, s3bucket.Config{Bucket: "config", Key: "myapp/appsettings.yaml"})
func New(ctx context.Context, cfg Config) (*DocumentProvider, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("%w: s3 bucket and key are required", cbcx.ErrInvalidConfiguration)
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = cbcx.DefaultSecretKey
	}

	client := cfg.Client
	if client == nil {
		awsConfig, err := awsconfig.Load(ctx, cfg.Region, cfg.AWSConfig)
		if err != nil {
			return nil, err
		}
		client = s3.NewFromConfig(awsConfig)
	}

	return &DocumentProvider{
		client:    client,
		bucket:    cfg.Bucket,
		key:       cfg.Key,
		secretKey: cfg.SecretKey,
		logger:    cfg.Logger,
	}, nil
}

// GetSecret downloads the document and resolves the secret key inside it.
func (p *DocumentProvider) GetSecret(ctx context.Context) (string, error) {
	location := fmt.Sprintf("s3://%s/%s", p.bucket, p.key)
	log := monitoring.NewLogger(p.logger, "s3", "GetSecret").WithField("location", location)

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var noSuchBucket *types.NoSuchBucket
		if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
			return "", cbcx.NewMissingSecretError(location)
		}
		log.WithError(err, "get_object").Warn("Failed to download configuration document")
		return "", cbcx.NewSecretStorageError("s3", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentSize+1))
	if err != nil {
		return "", cbcx.NewSecretStorageError("s3", fmt.Errorf("failed to read %s: %w", location, err))
	}
	if len(data) > maxDocumentSize {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", cbcx.ErrInvalidConfiguration, location, maxDocumentSize)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("%w: failed to parse %s: %w", cbcx.ErrInvalidConfiguration, location, err)
	}

	value, err := configpath.Lookup(doc, p.secretKey)
	if err != nil {
		if errors.Is(err, configpath.ErrNotFound) {
			return "", cbcx.NewMissingSecretError(p.secretKey)
		}
		return "", fmt.Errorf("%w: %w", cbcx.ErrInvalidConfiguration, err)
	}
	if value == "" {
		return "", cbcx.NewMissingSecretError(p.secretKey)
	}

	log.WithFields(monitoring.SecretFields("secret", value)).Debug("Secret read from S3 document")
	return value, nil
}
