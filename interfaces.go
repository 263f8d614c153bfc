package cbcx

import "context"

// SecretProvider supplies the secret that keys a Cipher.
//
// The secret is read from a named configuration key in some backend: process environment,
// a configuration file, HashiCorp Vault, AWS Secrets Manager and so on. A Cipher calls
// GetSecret once per Encrypt or Decrypt, which lets a rotated secret take effect without a
// restart.
//
// Implementations:
//   - Environment / dotenv: github.com/hengadev/cbcx/providers/env
//   - YAML or JSON file: github.com/hengadev/cbcx/providers/file
//   - HashiCorp Vault KV v2: github.com/hengadev/cbcx/providers/vault
//   - AWS Secrets Manager: github.com/hengadev/cbcx/providers/aws
//   - YAML document in S3: github.com/hengadev/cbcx/providers/s3
//   - SQL settings table: github.com/hengadev/cbcx/providers/sqlstore
//   - TTL cache around any of the above: github.com/hengadev/cbcx/providers/cache
type SecretProvider interface {
	// GetSecret returns the current secret.
	//
	// Returns:
	//   - A non-empty secret
	//   - An error matching ErrMissingSecret (and ErrInvalidConfiguration) if the key is absent or empty
	//   - An error matching ErrSecretStorageUnavailable if the backend could not be reached
	GetSecret(ctx context.Context) (string, error)
}

// SecretProviderFunc adapts an ordinary function to SecretProvider.
type SecretProviderFunc func(ctx context.Context) (string, error)

func (f SecretProviderFunc) GetSecret(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticSecret is a SecretProvider that always returns the same value.
type StaticSecret string

func (s StaticSecret) GetSecret(ctx context.Context) (string, error) {
	if s == "" {
		return "", NewMissingSecretError("static secret")
	}
	return string(s), nil
}
