// Package bolt implements the storage Gateway on an embedded bbolt file.
// It backs the server's local mode, where no PostgreSQL is available.
//
// Layout: the accounts bucket maps email to a JSON-encoded account; the
// records bucket holds one nested bucket per email mapping record id to a
// JSON-encoded record. Values are ciphertext-bearing but otherwise plain
// JSON; the file itself is not encrypted (the payloads already are).
package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	accountsBucket = []byte("accounts")
	recordsBucket  = []byte("records")
)

type Gateway struct {
	db *bolt.DB
}

// Open opens or creates the database file and ensures the bucket structure.
func Open(path string) (*Gateway, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{accountsBucket, recordsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Gateway{db: db}, nil
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) GetAccount(ctx context.Context, email string) (*gateway.Account, error) {
	var acc gateway.Account
	err := g.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(accountsBucket).Get([]byte(email))
		if raw == nil {
			return common.ErrorNotFound
		}
		return json.Unmarshal(raw, &acc)
	})
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (g *Gateway) CreateAccount(ctx context.Context, email string, salt []byte) error {
	return g.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(accountsBucket)
		if bucket.Get([]byte(email)) != nil {
			return fmt.Errorf("account %q: %w", email, common.ErrorAlreadyExists)
		}
		raw, err := json.Marshal(gateway.Account{Email: email, Salt: salt})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(email), raw)
	})
}

func (g *Gateway) SetRecoveryHashes(ctx context.Context, email string, hashes []string) error {
	return g.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(accountsBucket)
		raw := bucket.Get([]byte(email))
		if raw == nil {
			return common.ErrorNotFound
		}
		var acc gateway.Account
		if err := json.Unmarshal(raw, &acc); err != nil {
			return err
		}
		if len(acc.RecoveryCodeHashes) > 0 {
			return fmt.Errorf("recovery hashes already set: %w", common.ErrorAlreadyExists)
		}
		acc.RecoveryCodeHashes = hashes
		updated, err := json.Marshal(acc)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(email), updated)
	})
}

func (g *Gateway) ListRecords(ctx context.Context, email string) ([]gateway.Record, error) {
	var result []gateway.Record
	err := g.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(recordsBucket).Bucket([]byte(email))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var rec gateway.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			result = append(result, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Gateway) CreateRecord(ctx context.Context, email string, r gateway.Record) (*gateway.Record, error) {
	r.ID = uuid.NewString()
	err := g.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(recordsBucket).CreateBucketIfNotExists([]byte(email))
		if err != nil {
			return err
		}
		raw, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(r.ID), raw)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (g *Gateway) UpdateRecord(ctx context.Context, email, id string, upd gateway.RecordUpdate) (*gateway.Record, error) {
	var rec gateway.Record
	err := g.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(recordsBucket).Bucket([]byte(email))
		if bucket == nil {
			return fmt.Errorf("record %q: %w", id, common.ErrorNotFound)
		}
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("record %q: %w", id, common.ErrorNotFound)
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if upd.Ciphertext != nil {
			rec.Ciphertext = upd.Ciphertext
			rec.Nonce = upd.Nonce
		}
		if upd.Name != nil {
			rec.Name = *upd.Name
		}
		if upd.Tags != nil {
			rec.Tags = upd.Tags
		}
		if upd.SetParent {
			rec.ParentID = upd.ParentID
		}
		updated, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), updated)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ gateway.Gateway = (*Gateway)(nil)
