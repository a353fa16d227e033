package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/avolkov/notevault/internal/common"
)

// NonceSize is the AES-GCM nonce length in bytes. A fresh random nonce is
// generated for every Encrypt call; reuse under the same key would break
// confidentiality.
const NonceSize = 12

// Encrypt seals plaintext with AES-256-GCM under the given key.
//
// A new random 12-byte nonce is generated per call. The ciphertext and
// nonce are returned separately; both are required for decryption and
// neither is secret.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrorValidation, KeySize, len(key))
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens an AES-256-GCM ciphertext.
//
// When the authentication tag does not verify (wrong key or tampered
// data) it returns an error wrapping common.ErrorIntegrity. This is the
// mechanism by which a wrong master password becomes detectable instead
// of producing garbage plaintext.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrorValidation, KeySize, len(key))
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", common.ErrorValidation, NonceSize, len(nonce))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorIntegrity, err)
	}
	return plaintext, nil
}
