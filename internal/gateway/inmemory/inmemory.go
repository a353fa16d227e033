// Package inmemory provides a map-backed Gateway used by tests and as the
// reference implementation of the storage contract.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/google/uuid"
)

type Gateway struct {
	mu       sync.RWMutex
	accounts map[string]*gateway.Account
	records  map[string][]gateway.Record
}

func New() *Gateway {
	return &Gateway{
		accounts: make(map[string]*gateway.Account),
		records:  make(map[string][]gateway.Record),
	}
}

func (g *Gateway) GetAccount(ctx context.Context, email string) (*gateway.Account, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	acc, ok := g.accounts[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *acc
	cp.Salt = append([]byte(nil), acc.Salt...)
	cp.RecoveryCodeHashes = append([]string(nil), acc.RecoveryCodeHashes...)
	return &cp, nil
}

func (g *Gateway) CreateAccount(ctx context.Context, email string, salt []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.accounts[email]; ok {
		return fmt.Errorf("account %q: %w", email, common.ErrorAlreadyExists)
	}
	g.accounts[email] = &gateway.Account{
		Email: email,
		Salt:  append([]byte(nil), salt...),
	}
	return nil
}

func (g *Gateway) SetRecoveryHashes(ctx context.Context, email string, hashes []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	acc, ok := g.accounts[email]
	if !ok {
		return common.ErrorNotFound
	}
	if len(acc.RecoveryCodeHashes) > 0 {
		return fmt.Errorf("recovery hashes already set: %w", common.ErrorAlreadyExists)
	}
	acc.RecoveryCodeHashes = append([]string(nil), hashes...)
	return nil
}

func (g *Gateway) ListRecords(ctx context.Context, email string) ([]gateway.Record, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rows := g.records[email]
	out := make([]gateway.Record, len(rows))
	copy(out, rows)
	return out, nil
}

func (g *Gateway) CreateRecord(ctx context.Context, email string, r gateway.Record) (*gateway.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r.ID = uuid.NewString()
	g.records[email] = append(g.records[email], r)
	cp := r
	return &cp, nil
}

func (g *Gateway) UpdateRecord(ctx context.Context, email, id string, upd gateway.RecordUpdate) (*gateway.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rows := g.records[email]
	for i := range rows {
		if rows[i].ID != id {
			continue
		}
		if upd.Ciphertext != nil {
			rows[i].Ciphertext = upd.Ciphertext
			rows[i].Nonce = upd.Nonce
		}
		if upd.Name != nil {
			rows[i].Name = *upd.Name
		}
		if upd.Tags != nil {
			rows[i].Tags = upd.Tags
		}
		if upd.SetParent {
			rows[i].ParentID = upd.ParentID
		}
		cp := rows[i]
		return &cp, nil
	}
	return nil, fmt.Errorf("record %q: %w", id, common.ErrorNotFound)
}

var _ gateway.Gateway = (*Gateway)(nil)
