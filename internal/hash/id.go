package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const (
	// DefaultIDLength is used when GenerateID receives a non-positive length.
	DefaultIDLength = 10

	// MaxIDLength is the prefix plus the full SHA-256 hex digest.
	MaxIDLength = 1 + sha256.Size*2

	idPrefix = "A"
)

// GenerateID derives a short, stable identifier from n: the letter A followed by the
// first length-1 uppercase hex characters of SHA-256 over the decimal form of n.
func GenerateID(n int, length int) string {
	if length <= 0 {
		length = DefaultIDLength
	}
	if length > MaxIDLength {
		length = MaxIDLength
	}

	sum := sha256.Sum256([]byte(strconv.Itoa(n)))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	return idPrefix + digest[:length-1]
}
