package cbcx

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/hengadev/cbcx/internal/crypto"
	"github.com/hengadev/cbcx/internal/monitoring"
	"github.com/hengadev/cbcx/internal/security"
)

// Cipher encrypts and decrypts text with AES-256-CBC under a secret supplied by a
// SecretProvider.
//
// Envelopes are not authenticated. Decrypt of a modified envelope may succeed and return
// different plaintext; see the package documentation.
//
// A Cipher is safe for concurrent use.
type Cipher struct {
	provider SecretProvider
	engine   *crypto.DataEncryption
	keys     *crypto.KeyCache
	hook     ObservabilityHook

	// set by options
	keyCacheSize int
	random       io.Reader
	hooks        []ObservabilityHook
}

// NewCipher creates a Cipher reading its secret from provider.
//
// The provider is consulted on every non-empty Encrypt or Decrypt. Construction performs
// no secret lookup, so a misconfigured provider surfaces on first use.
func NewCipher(provider SecretProvider, opts ...Option) (*Cipher, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: secret provider is required", ErrInvalidConfiguration)
	}

	c := &Cipher{provider: provider}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.engine = crypto.NewDataEncryption(c.random)
	if c.keyCacheSize > 0 {
		c.keys = crypto.NewKeyCache(c.keyCacheSize)
	}

	switch len(c.hooks) {
	case 0:
		c.hook = &NoOpObservabilityHook{}
	case 1:
		c.hook = c.hooks[0]
	default:
		c.hook = NewCompositeObservabilityHook(c.hooks...)
	}

	return c, nil
}

// NewCipherFromSecret creates a Cipher bound to a fixed secret.
func NewCipherFromSecret(secret string, opts ...Option) (*Cipher, error) {
	if secret == "" {
		return nil, NewMissingSecretError("static secret")
	}
	return NewCipher(StaticSecret(secret), opts...)
}

// Encrypt returns base64(iv ++ AES-256-CBC(plaintext)). Every call uses a fresh IV, so
// encrypting the same plaintext twice yields different envelopes.
//
// An empty plaintext returns an empty string without consulting the provider.
func (c *Cipher) Encrypt(ctx context.Context, plaintext string) (envelope string, err error) {
	if plaintext == "" {
		return "", nil
	}

	metadata := map[string]any{"input_bytes": len(plaintext)}
	start := time.Now()
	c.hook.OnProcessStart(ctx, monitoring.OperationEncrypt, metadata)
	defer func() {
		c.complete(ctx, monitoring.OperationEncrypt, start, err, metadata)
	}()

	key, err := c.key(ctx)
	if err != nil {
		return "", err
	}
	defer security.ZeroBytes(key)

	data := []byte(plaintext)
	defer security.ZeroBytes(data)

	out, err := c.engine.EncryptData(ctx, data, key)
	if err != nil {
		return "", NewEncryptionError(err)
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt.
//
// An empty envelope returns an empty string without consulting the provider. Errors are
// classified as follows:
//   - IsConfigurationError: the secret is missing
//   - IsFormatError: the envelope is not base64, is shorter than an IV, or decrypts to invalid UTF-8
//   - IsDecryptionError: the payload is not whole blocks or its padding is invalid
func (c *Cipher) Decrypt(ctx context.Context, envelope string) (plaintext string, err error) {
	if envelope == "" {
		return "", nil
	}

	metadata := map[string]any{"input_bytes": len(envelope)}
	start := time.Now()
	c.hook.OnProcessStart(ctx, monitoring.OperationDecrypt, metadata)
	defer func() {
		c.complete(ctx, monitoring.OperationDecrypt, start, err, metadata)
	}()

	key, err := c.key(ctx)
	if err != nil {
		return "", err
	}
	defer security.ZeroBytes(key)

	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", NewInvalidFormatError(fmt.Sprintf("envelope is not valid base64: %v", err))
	}
	if len(raw) < crypto.IVSize {
		return "", NewInvalidFormatError(fmt.Sprintf("envelope is %d bytes, shorter than the %d byte IV", len(raw), crypto.IVSize))
	}

	decrypted, err := c.engine.DecryptData(ctx, raw, key)
	if err != nil {
		return "", NewDecryptionError(err)
	}
	defer security.ZeroBytes(decrypted)

	if !utf8.Valid(decrypted) {
		return "", NewInvalidFormatError("decrypted payload is not valid UTF-8")
	}

	return string(decrypted), nil
}

// key fetches the secret and derives the AES key. The caller owns the returned slice.
func (c *Cipher) key(ctx context.Context) ([]byte, error) {
	secret, err := c.provider.GetSecret(ctx)
	if err != nil {
		if IsConfigurationError(err) || IsRetryableError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}
	if secret == "" {
		return nil, NewMissingSecretError("secret provider returned an empty value")
	}

	if c.keys != nil {
		return c.keys.Key(secret), nil
	}
	return crypto.DeriveKey(secret), nil
}

func (c *Cipher) complete(ctx context.Context, operation string, start time.Time, err error, metadata map[string]any) {
	if err != nil {
		metadata["error_kind"] = errorKind(err)
		c.hook.OnError(ctx, operation, err, metadata)
	}
	c.hook.OnProcessComplete(ctx, operation, time.Since(start), err, metadata)
}
