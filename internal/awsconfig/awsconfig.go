// Package awsconfig loads the AWS SDK configuration shared by the AWS-backed providers.
package awsconfig

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/hengadev/cbcx"
)

// Load returns override when set. Otherwise it loads the default AWS configuration
// (environment, shared config files, instance metadata), pinned to region when non-empty.
func Load(ctx context.Context, region string, override *aws.Config) (aws.Config, error) {
	if override != nil {
		return *override, nil
	}

	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, cbcx.NewSecretStorageError("aws", fmt.Errorf("failed to load AWS config: %w", err))
	}
	return awsConfig, nil
}
