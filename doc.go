// Package cbcx protects short text values with AES-256-CBC envelopes and fingerprints
// strings with a legacy MD5 digest.
//
// # Envelope format
//
// Encrypt derives a 32-byte key as SHA-256 of the UTF-8 secret, draws a fresh 16-byte IV
// and encrypts the plaintext with AES-256-CBC and PKCS#7 padding. The result is
//
//	base64.StdEncoding(iv ++ ciphertext)
//
// which is bit-compatible with values stored by earlier deployments that used the same
// secret.
//
// # Limitations
//
// The envelope carries no authentication tag. Decrypt detects corruption only when it
// breaks the padding, so a tampered envelope may decrypt to different plaintext without an
// error. Do not rely on Decrypt for integrity.
//
// Digest is MD5 and exists for fingerprinting and interoperability only. Never use it for
// passwords or any other security decision.
//
// # Quick Start
//
//	provider, err := env.New(env.Config{Key: cbcx.DefaultSecretKey})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := cbcx.NewCipher(provider, cbcx.WithKeyCache(16))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	envelope, err := c.Encrypt(ctx, "connection-string")
//	plaintext, err := c.Decrypt(ctx, envelope)
//
// Secrets can come from the environment, a YAML/JSON file, HashiCorp Vault, AWS Secrets
// Manager, a YAML document in S3 or a SQL settings table. See the providers subpackages.
package cbcx
