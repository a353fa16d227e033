package cryptox

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/avolkov/notevault/internal/common"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := "correct horse battery staple"
	salt := []byte("0123456789abcdef")

	key1, err := DeriveKey(password, salt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key2, err := DeriveKey(password, salt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	// snapshot test: PBKDF2-HMAC-SHA256, 250000 iterations, 32 bytes
	expectedHex := "aaf28588bb1d4d924d147e0e53f0cac665344db8c62e4ccff82cc3082b1cfbca"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_KnownVector(t *testing.T) {
	salt := make([]byte, SaltSize)
	for i := range salt {
		salt[i] = byte(i)
	}
	key, err := DeriveKey("hunter2", salt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectedHex := "543d5a311c88f9a9553fc2a2f4977594a865227d4b261eb87daedeb45e74cf3f"
	if hex.EncodeToString(key) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key))
	}
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	salt1 := []byte("0123456789abcdef")
	salt2 := []byte("fedcba9876543210")

	key1, err := DeriveKey("secret-password", salt1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key2, err := DeriveKey("secret-password", salt2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key3, err := DeriveKey("another-password", salt1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different keys for different salts")
	}
	if bytes.Equal(key1, key3) {
		t.Errorf("expected different keys for different passwords")
	}
}

func TestDeriveKey_Validation(t *testing.T) {
	if _, err := DeriveKey("", []byte("0123456789abcdef")); !errors.Is(err, common.ErrorValidation) {
		t.Errorf("expected validation error for empty password, got %v", err)
	}
	if _, err := DeriveKey("pw", nil); !errors.Is(err, common.ErrorValidation) {
		t.Errorf("expected validation error for nil salt, got %v", err)
	}
	if _, err := DeriveKey("pw", []byte("short")); !errors.Is(err, common.ErrorValidation) {
		t.Errorf("expected validation error for short salt, got %v", err)
	}
}

func TestGenerateSalt(t *testing.T) {
	s1 := GenerateSalt()
	s2 := GenerateSalt()
	if len(s1) != SaltSize || len(s2) != SaltSize {
		t.Fatalf("expected %d-byte salts, got %d and %d", SaltSize, len(s1), len(s2))
	}
	if bytes.Equal(s1, s2) {
		t.Errorf("two generated salts are identical; extremely unlikely")
	}
}
