package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"github.com/hengadev/cbcx/internal/security"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// IVSize is the CBC initialization vector length, equal to the AES block size.
	IVSize = aes.BlockSize
)

var (
	ErrInvalidKeySize     = errors.New("invalid key size")
	ErrCiphertextTooShort = errors.New("ciphertext shorter than initialization vector")
	ErrInvalidBlockSize   = errors.New("ciphertext is not a whole number of blocks")
	ErrInvalidPadding     = errors.New("invalid padding")
)

// DataEncryption performs AES-256-CBC with PKCS#7 padding. The output layout is
// iv ++ ciphertext, with a fresh random IV per call.
//
// CBC provides confidentiality only. There is no authentication tag, so a modified
// ciphertext can decrypt to different plaintext with valid padding and no error.
type DataEncryption struct {
	random *security.RandomSource
}

// NewDataEncryption creates a DataEncryption drawing IVs from random.
// A nil reader selects crypto/rand.
func NewDataEncryption(random io.Reader) *DataEncryption {
	return &DataEncryption{random: security.NewRandomSource(random)}
}

// EncryptData encrypts plaintext with key and returns iv ++ ciphertext.
func (e *DataEncryption) EncryptData(ctx context.Context, plaintext []byte, key []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}

	padded := Pad(plaintext, aes.BlockSize)
	defer security.ZeroBytes(padded)

	out := make([]byte, IVSize+len(padded))
	iv := out[:IVSize]
	if err := e.random.Fill(iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[IVSize:], padded)
	return out, nil
}

// DecryptData splits data into iv and payload, decrypts the payload with key and strips
// the padding.
func (e *DataEncryption) DecryptData(ctx context.Context, data []byte, key []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}

	if len(data) < IVSize {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrCiphertextTooShort, len(data), IVSize)
	}
	iv, payload := data[:IVSize], data[IVSize:]
	if len(payload) == 0 || len(payload)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: payload length %d", ErrInvalidBlockSize, len(payload))
	}

	decrypted := make([]byte, len(payload))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(decrypted, payload)

	plaintext, err := Unpad(decrypted, aes.BlockSize)
	if err != nil {
		security.ZeroBytes(decrypted)
		return nil, err
	}
	return plaintext, nil
}

func newBlock(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return block, nil
}
