// Package postgres implements the storage Gateway on PostgreSQL via the
// pgx stdlib driver, with schema migrations applied by goose.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/dbx"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/avolkov/notevault/internal/gateway/postgres/migrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

type Gateway struct {
	db *sql.DB
}

// New returns a Gateway bound to the given database handle.
func New(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

// Open connects to the DSN, runs migrations and returns the db handle.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (g *Gateway) GetAccount(ctx context.Context, email string) (*gateway.Account, error) {
	query := `SELECT email, salt, recovery_hashes FROM accounts WHERE email = $1`

	acc := &gateway.Account{}
	var hashes []byte
	err := g.db.QueryRowContext(ctx, query, email).Scan(&acc.Email, &acc.Salt, &hashes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}
	if hashes != nil {
		if err := json.Unmarshal(hashes, &acc.RecoveryCodeHashes); err != nil {
			return nil, fmt.Errorf("decode recovery hashes: %w", err)
		}
	}
	return acc, nil
}

func (g *Gateway) CreateAccount(ctx context.Context, email string, salt []byte) error {
	query := `INSERT INTO accounts (email, salt) VALUES ($1, $2)`

	if _, err := g.db.ExecContext(ctx, query, email, salt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account %q: %w", email, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}
	return nil
}

func (g *Gateway) SetRecoveryHashes(ctx context.Context, email string, hashes []string) error {
	encoded, err := json.Marshal(hashes)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var existing []byte
		query := `SELECT recovery_hashes FROM accounts WHERE email = $1 FOR UPDATE`
		err := tx.QueryRowContext(ctx, query, email).Scan(&existing)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("%w: %v", common.ErrorStorage, err)
		}
		if existing != nil {
			return fmt.Errorf("recovery hashes already set: %w", common.ErrorAlreadyExists)
		}

		query = `UPDATE accounts SET recovery_hashes = $2 WHERE email = $1`
		if _, err := tx.ExecContext(ctx, query, email, encoded); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorStorage, err)
		}
		return nil
	})
}

func (g *Gateway) ListRecords(ctx context.Context, email string) ([]gateway.Record, error) {
	query := `SELECT id, ciphertext, nonce, type, parent_id, name, tags
	          FROM records WHERE account_email = $1`

	rows, err := g.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}
	defer rows.Close()

	var result []gateway.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*gateway.Record, error) {
	rec := &gateway.Record{}
	var parentID sql.NullString
	var tags []byte
	if err := row.Scan(&rec.ID, &rec.Ciphertext, &rec.Nonce, &rec.Type, &parentID, &rec.Name, &tags); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}
	if parentID.Valid {
		rec.ParentID = &parentID.String
	}
	if tags != nil {
		if err := json.Unmarshal(tags, &rec.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return rec, nil
}

func (g *Gateway) CreateRecord(ctx context.Context, email string, r gateway.Record) (*gateway.Record, error) {
	encodedTags, err := json.Marshal(r.Tags)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO records (id, account_email, ciphertext, nonce, type, parent_id, name, tags)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	r.ID = uuid.NewString()
	var parentID sql.NullString
	if r.ParentID != nil {
		parentID = sql.NullString{String: *r.ParentID, Valid: true}
	}
	if _, err := g.db.ExecContext(ctx, query,
		r.ID, email, r.Ciphertext, r.Nonce, r.Type, parentID, r.Name, encodedTags); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}
	return &r, nil
}

func (g *Gateway) UpdateRecord(ctx context.Context, email, id string, upd gateway.RecordUpdate) (*gateway.Record, error) {
	query := `UPDATE records SET
	            ciphertext = CASE WHEN $3 THEN $4 ELSE ciphertext END,
	            nonce      = CASE WHEN $3 THEN $5 ELSE nonce END,
	            name       = COALESCE($6, name),
	            tags       = COALESCE($7, tags),
	            parent_id  = CASE WHEN $8 THEN $9 ELSE parent_id END,
	            updated_at = now()
	          WHERE account_email = $1 AND id = $2
	          RETURNING id, ciphertext, nonce, type, parent_id, name, tags`

	var encodedTags []byte
	if upd.Tags != nil {
		var err error
		if encodedTags, err = json.Marshal(upd.Tags); err != nil {
			return nil, err
		}
	}
	var parentID sql.NullString
	if upd.ParentID != nil {
		parentID = sql.NullString{String: *upd.ParentID, Valid: true}
	}

	row := g.db.QueryRowContext(ctx, query,
		email, id,
		upd.Ciphertext != nil, upd.Ciphertext, upd.Nonce,
		upd.Name, encodedTags,
		upd.SetParent, parentID)
	return scanRecord(row)
}

var _ gateway.Gateway = (*Gateway)(nil)
