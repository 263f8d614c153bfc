package security

import (
	"runtime"
)

// ZeroBytes overwrites a byte slice holding key material so it does not linger in memory
// after the operation that needed it returns.
//
// Sensitive data must be kept in []byte rather than string: Go strings are immutable and
// cannot be erased.
//
//	key := deriveKey(secret)
//	defer security.ZeroBytes(key)
func ZeroBytes(data []byte) {
	if len(data) == 0 {
		return
	}

	patterns := []byte{0x00, 0xFF, 0xAA, 0x55}
	for _, pattern := range patterns {
		for i := range data {
			data[i] = pattern
		}
		runtime.KeepAlive(data)
	}

	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}

// SecureCopy returns an independent copy of src. A nil or empty src yields nil.
func SecureCopy(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}
