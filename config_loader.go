package cbcx

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfigFromEnvironment loads configuration from CBCX_* environment variables.
//
// All variables are optional; an empty environment yields the env backend reading
// DefaultSecretKey. Returns an error if a value cannot be parsed or validation fails.
//
// Example usage (12-factor app):
//
//	// export CBCX_SOURCE=vault
//	// export CBCX_VAULT_PATH=secret/data/myapp/cbcx
//	cfg, err := cbcx.LoadConfigFromEnvironment()
func LoadConfigFromEnvironment() (Config, error) {
	cfg := Config{
		Source:      os.Getenv(EnvSource),
		SecretKey:   os.Getenv(EnvSecretKey),
		EnvFiles:    splitList(os.Getenv(EnvEnvFiles)),
		FilePath:    os.Getenv(EnvFilePath),
		VaultPath:   os.Getenv(EnvVaultPath),
		VaultField:  os.Getenv(EnvVaultField),
		AWSRegion:   os.Getenv(EnvAWSRegion),
		AWSSecretID: os.Getenv(EnvAWSSecretID),
		S3Bucket:    os.Getenv(EnvS3Bucket),
		S3Key:       os.Getenv(EnvS3Key),
		SQLDriver:   os.Getenv(EnvSQLDriver),
		SQLDSN:      os.Getenv(EnvSQLDSN),
		SQLTable:    os.Getenv(EnvSQLTable),
	}

	if raw := os.Getenv(EnvCacheTTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, EnvCacheTTL, err)
		}
		cfg.CacheTTL = ttl
	}

	if raw := os.Getenv(EnvKeyCacheSize); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, EnvKeyCacheSize, err)
		}
		cfg.KeyCacheSize = size
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: configuration validation failed: %w", ErrInvalidConfiguration, err)
	}

	return cfg, nil
}

// LoadConfigFile loads a YAML configuration file. Unset fields receive the same defaults as
// LoadConfigFromEnvironment.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: failed to read config file: %w", ErrInvalidConfiguration, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse config file: %w", ErrInvalidConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: configuration validation failed: %w", ErrInvalidConfiguration, err)
	}

	return cfg, nil
}

// SaveConfigFile writes cfg as YAML.
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
