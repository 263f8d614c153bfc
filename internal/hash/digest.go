package hash

import (
	"crypto/md5"
	"encoding/hex"
)

// DigestLength is the length of a Digest result in hex characters.
const DigestLength = md5.Size * 2

// Digest returns the lowercase hex MD5 of the UTF-8 bytes of value.
//
// MD5 is kept for compatibility with identifiers generated by earlier systems. It is not
// collision resistant and must not be used for tamper detection.
func Digest(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}
