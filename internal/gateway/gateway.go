// Package gateway defines the persistence contract between the NoteVault
// client and its storage backend: accounts keyed by email and opaque
// encrypted records per account.
//
// The backend is honest-but-untrusted. An Account never contains anything
// from which content could be decrypted (no key, no password, no
// password-derived material), and a Record's ciphertext and nonce are
// opaque bytes to every implementation. Record name and tags are stored
// in the clear: that is a deliberate scope boundary of the current
// design, not an oversight.
package gateway

import "context"

// Record types.
const (
	RecordTypeNote   = "note"
	RecordTypeFolder = "folder"
)

// Account is the server-side account row. Salt is fixed at registration
// and never changes. RecoveryCodeHashes is empty until recovery setup
// completes and is set exactly once.
type Account struct {
	Email              string   `json:"email"`
	Salt               []byte   `json:"salt"`
	RecoveryCodeHashes []string `json:"recoveryCodeHashes,omitempty"`
}

// Record is one stored note or folder. Ciphertext and Nonce are the only
// representation of note content the backend ever sees. ParentID is nil
// for roots and otherwise references a folder record.
type Record struct {
	ID         string   `json:"id"`
	Ciphertext []byte   `json:"ciphertext"`
	Nonce      []byte   `json:"iv"`
	Type       string   `json:"type"`
	ParentID   *string  `json:"parentId"`
	Name       string   `json:"name"`
	Tags       []string `json:"tags,omitempty"`
}

// RecordUpdate carries a partial update. Nil fields are left unchanged.
// Ciphertext and Nonce travel together: setting one requires the other.
// SetParent distinguishes "do not touch parent" from "set parent to nil".
type RecordUpdate struct {
	Ciphertext []byte   `json:"ciphertext,omitempty"`
	Nonce      []byte   `json:"iv,omitempty"`
	Name       *string  `json:"name,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	SetParent  bool     `json:"setParent,omitempty"`
	ParentID   *string  `json:"parentId,omitempty"`
}

// Gateway is the storage contract. Implementations map their failures to
// the sentinel errors in internal/common: ErrorNotFound for missing
// accounts or records, ErrorAlreadyExists for duplicate registration or
// repeated recovery setup, ErrorStorage for transient backend failures.
type Gateway interface {
	// GetAccount returns the account for email, or ErrorNotFound.
	GetAccount(ctx context.Context, email string) (*Account, error)

	// CreateAccount registers an account with its immutable salt.
	CreateAccount(ctx context.Context, email string, salt []byte) error

	// SetRecoveryHashes stores the recovery code hashes. They can be set
	// only once; a second call fails with ErrorAlreadyExists.
	SetRecoveryHashes(ctx context.Context, email string, hashes []string) error

	// ListRecords returns every record belonging to the account.
	ListRecords(ctx context.Context, email string) ([]Record, error)

	// CreateRecord stores a new record and returns it with its assigned id.
	CreateRecord(ctx context.Context, email string, r Record) (*Record, error)

	// UpdateRecord applies a partial update and returns the stored record.
	UpdateRecord(ctx context.Context, email, id string, upd RecordUpdate) (*Record, error)
}
