package cbcx

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingSecret        = errors.New("secret is not configured")

	// Secret backend errors
	ErrSecretStorageUnavailable = errors.New("secret storage unavailable")

	// Operation errors
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidFormat    = errors.New("invalid format")
)

// NewMissingSecretError reports that no secret value exists under key. The result is a
// configuration error.
func NewMissingSecretError(key string) error {
	return fmt.Errorf("%w: %w: '%s'", ErrInvalidConfiguration, ErrMissingSecret, key)
}

// NewSecretStorageError wraps a backend failure while reading a secret.
func NewSecretStorageError(backend string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSecretStorageUnavailable, backend, err)
}

func NewInvalidFormatError(details string) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, details)
}

func NewDecryptionError(err error) error {
	return fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
}

func NewEncryptionError(err error) error {
	return fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
}

// IsRetryableError returns true if the error represents a transient failure that might succeed on retry.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrSecretStorageUnavailable)
}

// IsConfigurationError returns true if the error represents a configuration problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingSecret)
}

// IsFormatError returns true if the input was not a well-formed envelope or did not decrypt
// to valid UTF-8.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsDecryptionError returns true if a well-formed envelope could not be decrypted, which
// usually means a wrong secret or a corrupted payload.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// IsOperationError returns true if the error represents a failure during encryption/decryption operations.
func IsOperationError(err error) bool {
	return errors.Is(err, ErrEncryptionFailed) ||
		errors.Is(err, ErrDecryptionFailed)
}

// errorKind names the error class for metrics tags.
func errorKind(err error) string {
	switch {
	case IsConfigurationError(err):
		return "configuration"
	case IsRetryableError(err):
		return "storage"
	case IsFormatError(err):
		return "format"
	case IsDecryptionError(err):
		return "decryption"
	case IsOperationError(err):
		return "operation"
	default:
		return "unknown"
	}
}
