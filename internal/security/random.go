package security

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// RandomSource reads from an entropy reader.
//
// The default reader is crypto/rand.Reader, which is safe for concurrent use and is read
// without locking. An injected reader (tests use deterministic ones for reproducible
// initialization vectors) is serialised behind a mutex.
type RandomSource struct {
	reader io.Reader
	mutex  *sync.Mutex
}

// NewRandomSource wraps reader; a nil reader selects crypto/rand.Reader.
func NewRandomSource(reader io.Reader) *RandomSource {
	if reader == nil || reader == rand.Reader {
		return &RandomSource{reader: rand.Reader}
	}
	return &RandomSource{reader: reader, mutex: &sync.Mutex{}}
}

// Fill fills b entirely with random bytes. A short read is an error.
func (rs *RandomSource) Fill(b []byte) error {
	if rs.mutex != nil {
		rs.mutex.Lock()
		defer rs.mutex.Unlock()
	}

	if _, err := io.ReadFull(rs.reader, b); err != nil {
		return fmt.Errorf("secure random generation failed: %w", err)
	}
	return nil
}

// Generate returns size random bytes.
func (rs *RandomSource) Generate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid size: %d", size)
	}

	data := make([]byte, size)
	if err := rs.Fill(data); err != nil {
		ZeroBytes(data)
		return nil, err
	}
	return data, nil
}

// GenerateKey returns keySize random bytes suitable as secret material.
func (rs *RandomSource) GenerateKey(keySize int) ([]byte, error) {
	if keySize < 16 {
		return nil, fmt.Errorf("insecure key size: %d bytes (minimum 16 bytes)", keySize)
	}
	return rs.Generate(keySize)
}

var defaultSource = NewRandomSource(nil)

// GenerateSecureKey is a convenience wrapper around the crypto/rand backed source.
func GenerateSecureKey(keySize int) ([]byte, error) {
	return defaultSource.GenerateKey(keySize)
}
