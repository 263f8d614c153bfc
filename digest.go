package cbcx

import "github.com/hengadev/cbcx/internal/hash"

// DigestLength is the length of a Digest result.
const DigestLength = hash.DigestLength

// Digest returns the lowercase hexadecimal MD5 of input's UTF-8 bytes. It is a stable
// fingerprint for lookups and cache keys, not a security primitive.
func Digest(input string) string {
	return hash.Digest(input)
}

// GenerateID returns a short identifier derived from n: "A" followed by the first length-1
// upper-case hex characters of SHA-256 over the decimal form of n. A length of zero or less
// selects 10; lengths above 65 are capped.
func GenerateID(n int, length int) string {
	return hash.GenerateID(n, length)
}
