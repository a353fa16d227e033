package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestAccounts(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	_, err := g.GetAccount(ctx, "a@b.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	salt := []byte("0123456789abcdef")
	require.NoError(t, g.CreateAccount(ctx, "a@b.com", salt))
	assert.ErrorIs(t, g.CreateAccount(ctx, "a@b.com", salt), common.ErrorAlreadyExists)

	acc, err := g.GetAccount(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, salt, acc.Salt)
}

func TestRecoveryHashes_SetOnce(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.CreateAccount(ctx, "a@b.com", []byte("0123456789abcdef")))
	require.NoError(t, g.SetRecoveryHashes(ctx, "a@b.com", []string{"h1"}))
	assert.ErrorIs(t, g.SetRecoveryHashes(ctx, "a@b.com", []string{"h2"}), common.ErrorAlreadyExists)

	acc, err := g.GetAccount(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"h1"}, acc.RecoveryCodeHashes)
}

func TestRecords_PersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	ctx := context.Background()

	g, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, g.CreateAccount(ctx, "a@b.com", []byte("0123456789abcdef")))
	created, err := g.CreateRecord(ctx, "a@b.com", gateway.Record{
		Ciphertext: []byte{1, 2},
		Nonce:      []byte{3, 4},
		Type:       gateway.RecordTypeNote,
		Name:       "persisted",
	})
	require.NoError(t, err)
	require.NoError(t, g.Close())

	g2, err := Open(path)
	require.NoError(t, err)
	defer g2.Close()

	records, err := g2.ListRecords(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, created.ID, records[0].ID)
	assert.Equal(t, "persisted", records[0].Name)
}

func TestUpdateRecord(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	require.NoError(t, g.CreateAccount(ctx, "a@b.com", []byte("0123456789abcdef")))

	created, err := g.CreateRecord(ctx, "a@b.com", gateway.Record{
		Ciphertext: []byte{1},
		Nonce:      []byte{2},
		Type:       gateway.RecordTypeNote,
		Name:       "before",
	})
	require.NoError(t, err)

	name := "after"
	parent := "folder"
	updated, err := g.UpdateRecord(ctx, "a@b.com", created.ID, gateway.RecordUpdate{
		Name:      &name,
		SetParent: true,
		ParentID:  &parent,
	})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, "folder", *updated.ParentID)
	assert.Equal(t, []byte{1}, updated.Ciphertext)

	_, err = g.UpdateRecord(ctx, "a@b.com", "missing", gateway.RecordUpdate{})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = g.UpdateRecord(ctx, "nobody@b.com", created.ID, gateway.RecordUpdate{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
