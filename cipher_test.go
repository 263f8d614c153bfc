package cbcx

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-key"

// zeroToFifteen yields the IV 00 01 .. 0f on every read.
type zeroToFifteen struct{}

func (zeroToFifteen) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(i % 16)
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func newTestCipher(t *testing.T, opts ...Option) *Cipher {
	t.Helper()
	c, err := NewCipherFromSecret(testSecret, opts...)
	require.NoError(t, err)
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCipher(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"single char", "a"},
		{"short", "hello"},
		{"one block", "0123456789abcdef"},
		{"multiple blocks", strings.Repeat("connection-string;", 20)},
		{"unicode", "héllo wörld ✓ 日本語"},
		{"whitespace", "  \n\t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope, err := c.Encrypt(ctx, tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, envelope)

			got, err := c.Decrypt(ctx, envelope)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, got)
		})
	}
}

func TestCipher_RoundTripAcrossInstances(t *testing.T) {
	ctx := context.Background()

	envelope, err := newTestCipher(t).Encrypt(ctx, "shared value")
	require.NoError(t, err)

	got, err := newTestCipher(t, WithKeyCache(4)).Decrypt(ctx, envelope)
	require.NoError(t, err)
	assert.Equal(t, "shared value", got)
}

func TestCipher_KnownVector(t *testing.T) {
	ctx := context.Background()
	c := newTestCipher(t, WithRandReader(zeroToFifteen{}))

	envelope, err := c.Encrypt(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "AAECAwQFBgcICQoLDA0OD9FM+0FOM94cC+Xm1nt2Ruk=", envelope)

	envelope, err = c.Encrypt(ctx, "0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, "AAECAwQFBgcICQoLDA0OD2ZcRgQAdh7oMIyXMagGC900QCKdKyhrAu/TwPzDGA85", envelope)

	got, err := c.Decrypt(ctx, "AAECAwQFBgcICQoLDA0OD9FM+0FOM94cC+Xm1nt2Ruk=")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestCipher_EnvelopeShape(t *testing.T) {
	ctx := context.Background()
	c := newTestCipher(t)

	for _, n := range []int{1, 15, 16, 17, 100} {
		envelope, err := c.Encrypt(ctx, strings.Repeat("x", n))
		require.NoError(t, err)

		// iv + n bytes padded up to the next full block
		blocks := n/16 + 1
		wantLen := 4 * ((16 + 16*blocks + 2) / 3)
		assert.Len(t, envelope, wantLen, "plaintext length %d", n)
	}
}

func TestCipher_NonDeterministic(t *testing.T) {
	ctx := context.Background()
	c := newTestCipher(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		envelope, err := c.Encrypt(ctx, "same plaintext")
		require.NoError(t, err)
		assert.False(t, seen[envelope], "envelope repeated")
		seen[envelope] = true
	}
}

func TestCipher_EmptyInputShortCircuits(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySecretStore()
	c, err := NewCipher(store.Provider(DefaultSecretKey))
	require.NoError(t, err)

	envelope, err := c.Encrypt(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, envelope)

	plaintext, err := c.Decrypt(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, plaintext)

	assert.Equal(t, 0, store.Reads())
}

func TestCipher_MissingSecret(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySecretStore()
	metrics := NewInMemoryMetricsCollector()
	c, err := NewCipher(store.Provider(DefaultSecretKey), WithMetricsCollector(metrics))
	require.NoError(t, err)

	_, err = c.Encrypt(ctx, "hello")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = c.Decrypt(ctx, "AAECAwQFBgcICQoLDA0OD9FM+0FOM94cC+Xm1nt2Ruk=")
	assert.True(t, IsConfigurationError(err))

	// secret set afterwards takes effect on the next call
	store.SetSecret(DefaultSecretKey, testSecret)
	got, err := c.Decrypt(ctx, "AAECAwQFBgcICQoLDA0OD9FM+0FOM94cC+Xm1nt2Ruk=")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	assert.Equal(t, int64(1), metrics.Count(MetricSeries{
		Name:      MetricErrors,
		Operation: OperationEncrypt,
		ErrorKind: "configuration",
		ErrorType: "*fmt.wrapErrors",
	}))
}

func TestCipher_EmptySecretFromProvider(t *testing.T) {
	c, err := NewCipher(SecretProviderFunc(func(ctx context.Context) (string, error) {
		return "", nil
	}))
	require.NoError(t, err)

	_, err = c.Encrypt(context.Background(), "hello")
	assert.True(t, IsConfigurationError(err))
}

func TestCipher_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	backendErr := errors.New("connection refused")

	storage, err := NewCipher(SecretProviderFunc(func(ctx context.Context) (string, error) {
		return "", NewSecretStorageError("vault", backendErr)
	}))
	require.NoError(t, err)

	_, err = storage.Encrypt(ctx, "hello")
	assert.True(t, IsRetryableError(err))
	assert.ErrorIs(t, err, backendErr)

	plain, err := NewCipher(SecretProviderFunc(func(ctx context.Context) (string, error) {
		return "", backendErr
	}))
	require.NoError(t, err)

	_, err = plain.Decrypt(ctx, "AAECAwQFBgcICQoLDA0OD9FM+0FOM94cC+Xm1nt2Ruk=")
	assert.ErrorIs(t, err, backendErr)
	assert.False(t, IsConfigurationError(err))
}

func TestCipher_DecryptErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestCipher(t)

	tests := []struct {
		name     string
		envelope string
		check    func(error) bool
	}{
		{"not base64", "not base64!!", IsFormatError},
		{"url alphabet", "AAECAwQFBgcICQoLDA0OD9FM-0FOM94cC-Xm1nt2Ruk=", IsFormatError},
		{"shorter than iv", "AAEC", IsFormatError},
		{"iv only", "AAECAwQFBgcICQoLDA0ODw==", IsDecryptionError},
		{"partial block", "AAECAwQFBgcICQoLDA0OD9FM+0FOM94c", IsDecryptionError},
		{"tampered last byte", "AAECAwQFBgcICQoLDA0OD9FM+0FOM94cC+Xm1nt2Rug=", IsDecryptionError},
		{"invalid utf8 plaintext", "AAECAwQFBgcICQoLDA0OD5LLG8k/LGQznV930uEt+XE=", IsFormatError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decrypt(ctx, tt.envelope)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, tt.check(err), "unexpected error class: %v", err)
		})
	}
}

func TestCipher_EveryFlippedByteIsDetectedOrChangesOutput(t *testing.T) {
	ctx := context.Background()
	c := newTestCipher(t)
	const plaintext = "tamper with any byte of me"

	envelope, err := c.Encrypt(ctx, plaintext)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(envelope)
	require.NoError(t, err)

	for i := range raw {
		for _, mask := range []byte{0x01, 0x80, 0xff} {
			tampered := bytes.Clone(raw)
			tampered[i] ^= mask

			got, err := c.Decrypt(ctx, base64.StdEncoding.EncodeToString(tampered))
			if err != nil {
				assert.True(t, IsDecryptionError(err) || IsFormatError(err), "byte %d mask %#x: %v", i, mask, err)
				continue
			}
			assert.NotEqual(t, plaintext, got, "byte %d mask %#x decrypted unchanged", i, mask)
		}
	}
}

func TestCipher_WrongSecret(t *testing.T) {
	c, err := NewCipherFromSecret("other-key")
	require.NoError(t, err)

	_, err = c.Decrypt(context.Background(), "AAECAwQFBgcICQoLDA0OD9FM+0FOM94cC+Xm1nt2Ruk=")
	require.Error(t, err)
	assert.True(t, IsDecryptionError(err))
	assert.True(t, IsOperationError(err))
}

func TestCipher_TamperedIVIsNotDetected(t *testing.T) {
	// Without an authentication tag, flipping an IV bit flips the same plaintext bit.
	c := newTestCipher(t)

	got, err := c.Decrypt(context.Background(), "AQECAwQFBgcICQoLDA0OD9FM+0FOM94cC+Xm1nt2Ruk=")
	require.NoError(t, err)
	assert.Equal(t, "iello", got)
}

func TestCipher_RandomFailure(t *testing.T) {
	c := newTestCipher(t, WithRandReader(failingReader{}))

	_, err := c.Encrypt(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncryptionFailed)
	assert.True(t, IsOperationError(err))
}

func TestCipher_SecretRotationWithKeyCache(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySecretStore()
	store.SetSecret(DefaultSecretKey, "first-secret")

	c, err := NewCipher(store.Provider(DefaultSecretKey), WithKeyCache(2))
	require.NoError(t, err)

	first, err := c.Encrypt(ctx, "payload")
	require.NoError(t, err)

	store.SetSecret(DefaultSecretKey, "second-secret")
	second, err := c.Encrypt(ctx, "payload")
	require.NoError(t, err)

	stale, err := c.Decrypt(ctx, first)
	if err == nil {
		assert.NotEqual(t, "payload", stale, "old envelope must not decrypt under the rotated secret")
	}

	got, err := c.Decrypt(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

func TestCipher_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := newTestCipher(t, WithKeyCache(1))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := strings.Repeat("v", i+1)
			envelope, err := c.Encrypt(ctx, want)
			if err != nil {
				errs <- err
				return
			}
			got, err := c.Decrypt(ctx, envelope)
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- errors.New("round trip mismatch")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestCipher_Hooks(t *testing.T) {
	ctx := context.Background()
	metrics := NewInMemoryMetricsCollector()
	c := newTestCipher(t, WithMetricsCollector(metrics))

	envelope, err := c.Encrypt(ctx, "hello")
	require.NoError(t, err)
	_, err = c.Decrypt(ctx, envelope)
	require.NoError(t, err)
	_, err = c.Decrypt(ctx, "AAEC")
	require.Error(t, err)

	enc := metrics.Summary(OperationEncrypt)
	assert.Equal(t, int64(1), enc.Started)
	assert.Equal(t, int64(1), enc.Succeeded)
	assert.Equal(t, float64(5), enc.InputBytes)

	dec := metrics.Summary(OperationDecrypt)
	assert.Equal(t, int64(2), dec.Started)
	assert.Equal(t, int64(1), dec.Succeeded)
	assert.Equal(t, int64(1), dec.Failed)
	assert.Equal(t, map[string]int64{"format": 1}, dec.Errors)
}

func TestCipher_LoggerNeverSeesSecrets(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := newJSONLogger(&buf)
	c := newTestCipher(t, WithLogger(logger))

	envelope, err := c.Encrypt(ctx, "very-private-plaintext")
	require.NoError(t, err)
	_, err = c.Decrypt(ctx, envelope)
	require.NoError(t, err)
	_, _ = c.Decrypt(ctx, "AAEC")

	out := buf.String()
	assert.Contains(t, out, `"operation":"encrypt"`)
	assert.Contains(t, out, `"error_kind":"format"`)
	assert.NotContains(t, out, "very-private-plaintext")
	assert.NotContains(t, out, testSecret)
	assert.NotContains(t, out, envelope)
}

func TestNewCipher_InvalidArguments(t *testing.T) {
	_, err := NewCipher(nil)
	assert.True(t, IsConfigurationError(err))

	_, err = NewCipherFromSecret("")
	assert.True(t, IsConfigurationError(err))

	for _, opt := range []Option{
		WithKeyCache(0),
		WithKeyCache(MaxKeyCacheSize + 1),
		WithRandReader(nil),
		WithObservabilityHook(nil),
		WithMetricsCollector(nil),
		WithLogger(nil),
	} {
		_, err := NewCipherFromSecret(testSecret, opt)
		assert.True(t, IsConfigurationError(err))
	}
}
