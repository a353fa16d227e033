// Package cryptox implements the client-side cryptography of NoteVault:
// password-based key derivation and authenticated encryption of note
// payloads. The server never runs any of this; it only stores the
// ciphertext and nonce this package produces.
package cryptox

import (
	"crypto/sha256"
	"fmt"

	"github.com/avolkov/notevault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// KDF parameters. These are frozen: the derived key is never stored, only
// re-derived at each login, so changing any of them silently would make
// every existing vault undecryptable. A future change requires an explicit,
// versioned migration.
const (
	// KDFIterations is the PBKDF2 iteration count.
	KDFIterations = 250000
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32
	// SaltSize is the per-account salt length in bytes.
	SaltSize = 16
)

// DeriveKey derives the symmetric master key from a password and the
// account salt using PBKDF2-HMAC-SHA256. It is deterministic: the same
// (password, salt) pair always yields bit-identical key material.
//
// Malformed input fails fast with common.ErrorValidation before any
// derivation work is done.
func DeriveKey(password string, salt []byte) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", common.ErrorValidation)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", common.ErrorValidation, SaltSize, len(salt))
	}
	return pbkdf2.Key([]byte(password), salt, KDFIterations, KeySize, sha256.New), nil
}

// GenerateSalt returns a fresh random account salt. Generated once at
// registration; the salt is not secret and is stored server-side.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}
