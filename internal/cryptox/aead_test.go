package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/avolkov/notevault/internal/common"
)

func testKey(b byte) []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = b
	}
	return key
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(7)

	payloads := [][]byte{
		[]byte("Hello #work"),
		[]byte(""),
		[]byte("{\"type\":\"doc\",\"content\":[]}"),
		bytes.Repeat([]byte{0x00, 0xff}, 4096),
	}

	for _, plaintext := range payloads {
		ciphertext, nonce, err := Encrypt(plaintext, key)
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		got, err := Decrypt(ciphertext, nonce, key)
		if err != nil {
			t.Fatalf("decrypt failed: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestDecrypt_WrongKey_IntegrityError(t *testing.T) {
	ciphertext, nonce, err := Encrypt([]byte("secret note"), testKey(1))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	_, err = Decrypt(ciphertext, nonce, testKey(2))
	if !errors.Is(err, common.ErrorIntegrity) {
		t.Errorf("expected integrity error for wrong key, got %v", err)
	}
}

func TestDecrypt_TamperedCiphertext_IntegrityError(t *testing.T) {
	key := testKey(3)
	ciphertext, nonce, err := Encrypt([]byte("secret note"), key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	ciphertext[0] ^= 0x01

	_, err = Decrypt(ciphertext, nonce, key)
	if !errors.Is(err, common.ErrorIntegrity) {
		t.Errorf("expected integrity error for tampered data, got %v", err)
	}
}

func TestEncrypt_NonceUniqueness(t *testing.T) {
	key := testKey(9)
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		_, nonce, err := Encrypt([]byte("same plaintext"), key)
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		if len(nonce) != NonceSize {
			t.Fatalf("expected %d-byte nonce, got %d", NonceSize, len(nonce))
		}
		if _, dup := seen[string(nonce)]; dup {
			t.Fatalf("nonce reused after %d encryptions", i)
		}
		seen[string(nonce)] = struct{}{}
	}
}

func TestEncryptDecrypt_KeyValidation(t *testing.T) {
	if _, _, err := Encrypt([]byte("x"), []byte("short")); !errors.Is(err, common.ErrorValidation) {
		t.Errorf("expected validation error for short key, got %v", err)
	}
	if _, err := Decrypt([]byte("x"), make([]byte, NonceSize), []byte("short")); !errors.Is(err, common.ErrorValidation) {
		t.Errorf("expected validation error for short key, got %v", err)
	}
	if _, err := Decrypt([]byte("x"), []byte("bad"), testKey(1)); !errors.Is(err, common.ErrorValidation) {
		t.Errorf("expected validation error for bad nonce, got %v", err)
	}
}
