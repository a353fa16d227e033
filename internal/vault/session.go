// Package vault holds the client session: the account identity and the
// derived master key, together with the encrypt/decrypt operations the
// rest of the application uses. The key exists only in memory for the
// lifetime of the session; it is never serialized, transmitted, or
// persisted.
package vault

import (
	"context"
	"fmt"
	"net/mail"
	"sync"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/cryptox"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/avolkov/notevault/internal/logging"
	"github.com/avolkov/notevault/internal/recovery"
)

// State is the session lifecycle state.
type State int

const (
	StateLoggedOut State = iota
	StateAuthenticating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// ErrNotLoggedIn is returned by operations that require an active session.
var ErrNotLoggedIn = fmt.Errorf("%w: not logged in", common.ErrorUnauthorized)

// Session is the process-scoped holder of the current derived key and
// account identity. It is an explicit object, not ambient state: tests
// can run several sessions in one process.
//
// State transitions are guarded by a mutex. Once Active, the key is
// read-only shared state, so Encrypt and Decrypt are safe to call
// concurrently for independent records.
type Session struct {
	gw  gateway.Gateway
	log logging.Logger

	mu    sync.RWMutex
	state State
	email string
	key   []byte
}

func NewSession(gw gateway.Gateway, log logging.Logger) *Session {
	return &Session{gw: gw, log: log, state: StateLoggedOut}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Email returns the authenticated account email, or "" when logged out.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// Active reports whether the session holds a derived key.
func (s *Session) Active() bool {
	return s.State() == StateActive
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email", common.ErrorValidation)
	}
	return nil
}

// Register creates the account with a fresh salt. It does not log in;
// the caller follows up with Login and SetupRecovery.
func (s *Session) Register(ctx context.Context, email, password string) error {
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	salt := cryptox.GenerateSalt()
	if err := s.gw.CreateAccount(ctx, email, salt); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	s.log.Info(ctx, "account registered", "email", email)
	return nil
}

// Login fetches the account salt, derives the master key and moves the
// session to Active. An unknown account is reported as
// common.ErrorAuthentication; whether the password itself is right only
// becomes observable when a record is decrypted.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != StateLoggedOut {
		s.mu.Unlock()
		return fmt.Errorf("%w: session already active", common.ErrorValidation)
	}
	s.state = StateAuthenticating
	s.mu.Unlock()

	acc, err := s.gw.GetAccount(ctx, email)
	if err != nil {
		s.reset()
		if e := ctx.Err(); e != nil {
			return e
		}
		s.log.Warn(ctx, "login failed", "email", email)
		return common.ErrorAuthentication
	}

	key, err := cryptox.DeriveKey(password, acc.Salt)
	if err != nil {
		s.reset()
		return err
	}

	s.mu.Lock()
	s.state = StateActive
	s.email = email
	s.key = key
	s.mu.Unlock()

	s.log.Info(ctx, "session active", "email", email)
	return nil
}

func (s *Session) reset() {
	s.mu.Lock()
	s.state = StateLoggedOut
	s.email = ""
	s.key = nil
	s.mu.Unlock()
}

// Logout discards the key immediately and returns to LoggedOut.
func (s *Session) Logout() {
	s.mu.Lock()
	common.WipeByteArray(s.key)
	s.key = nil
	s.email = ""
	s.state = StateLoggedOut
	s.mu.Unlock()
}

// SetupRecovery generates the recovery codes, stores their hashes and
// returns the plaintext codes. This is the only time the codes exist in
// plaintext; they cannot be re-derived later.
func (s *Session) SetupRecovery(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	email := s.email
	active := s.state == StateActive
	s.mu.RUnlock()
	if !active {
		return nil, ErrNotLoggedIn
	}

	codes, err := recovery.GenerateCodes()
	if err != nil {
		return nil, err
	}
	if err := s.gw.SetRecoveryHashes(ctx, email, recovery.HashCodes(codes)); err != nil {
		return nil, fmt.Errorf("store recovery hashes: %w", err)
	}

	s.log.Info(ctx, "recovery codes stored", "email", email, "count", len(codes))
	return codes, nil
}

// Encrypt seals plaintext under the session key.
func (s *Session) Encrypt(plaintext []byte) (ciphertext, nonce []byte, err error) {
	s.mu.RLock()
	key := s.key
	active := s.state == StateActive
	s.mu.RUnlock()
	if !active {
		return nil, nil, ErrNotLoggedIn
	}
	return cryptox.Encrypt(plaintext, key)
}

// Decrypt opens a record payload. An integrity failure (wrong key or
// tampered ciphertext) propagates as common.ErrorIntegrity; callers
// treat it as fatal to that one record only.
func (s *Session) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	s.mu.RLock()
	key := s.key
	active := s.state == StateActive
	s.mu.RUnlock()
	if !active {
		return nil, ErrNotLoggedIn
	}
	return cryptox.Decrypt(ciphertext, nonce, key)
}
