// Package common defines shared constants and sentinel errors used across
// client and server layers of NoteVault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository / gateway errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrorStorage marks a transient persistence failure. An operation
	// that fails with it can be retried with the same input.
	ErrorStorage = errors.New("storage error")

	// Input validation (caller's fault, reported before any crypto work).
	ErrorValidation = errors.New("validation error")

	// Authentication errors. ErrorAuthentication is what the network
	// boundary reports for an unknown account; it must stay
	// indistinguishable from a wrong password there.
	ErrorAuthentication = errors.New("invalid credentials")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")

	// ErrorIntegrity means authenticated decryption failed: wrong key or
	// tampered ciphertext. It is a per-record condition, never fatal to
	// the process.
	ErrorIntegrity = errors.New("integrity check failed")

	// Generic internal failure.
	ErrorInternal = errors.New("internal error")
)
