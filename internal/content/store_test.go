package content

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/avolkov/notevault/internal/gateway/inmemory"
	"github.com/avolkov/notevault/internal/logging"
	"github.com/avolkov/notevault/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *vault.Session, *inmemory.Gateway) {
	t.Helper()
	gw := inmemory.New()
	log := logging.NewDefault(slog.LevelError)
	session := vault.NewSession(gw, log)
	ctx := context.Background()
	require.NoError(t, session.Register(ctx, "a@b.com", "pa55word"))
	require.NoError(t, session.Login(ctx, "a@b.com", "pa55word"))
	return NewStore(session, gw, log), session, gw
}

func mustSave(t *testing.T, s *Store, n Note) *Note {
	t.Helper()
	saved, err := s.Save(context.Background(), n)
	require.NoError(t, err)
	return saved
}

func TestStore_SaveAndReload(t *testing.T) {
	s, session, gw := newTestStore(t)
	ctx := context.Background()

	saved := mustSave(t, s, Note{
		Type: NoteTypeNote,
		Name: "greeting",
		Doc:  NewTextDocument("Hello #work"),
	})
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, []string{"work"}, saved.Tags)

	// fresh store, same account: everything must come back from ciphertext
	s2 := NewStore(session, gw, logging.NewDefault(slog.LevelError))
	res, err := s2.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Loaded)
	assert.Equal(t, 0, res.Failed)

	got, ok := s2.Get(saved.ID)
	require.True(t, ok)
	assert.Equal(t, "greeting", got.Name)
	assert.Equal(t, "Hello #work", got.Doc.PlainText())
	assert.Equal(t, []string{"work"}, got.Tags)
	assert.Len(t, s2.NotesWithTag("work"), 1)
}

func TestStore_SaveUpdate_ReindexesTags(t *testing.T) {
	s, _, _ := newTestStore(t)

	saved := mustSave(t, s, Note{Type: NoteTypeNote, Name: "n", Doc: NewTextDocument("#old stuff")})
	assert.Len(t, s.NotesWithTag("old"), 1)

	saved.Doc = NewTextDocument("#new stuff")
	mustSave(t, s, *saved)

	assert.Empty(t, s.NotesWithTag("old"))
	assert.Len(t, s.NotesWithTag("new"), 1)
	assert.Equal(t, []string{"new"}, s.Tags())
}

func TestStore_Validation(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, Note{Type: NoteTypeNote, Name: ""})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Save(ctx, Note{Type: "bogus", Name: "x"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Save(ctx, Note{Type: NoteTypeNote, Name: "x", ParentID: "missing"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	note := mustSave(t, s, Note{Type: NoteTypeNote, Name: "plain note"})
	_, err = s.Save(ctx, Note{Type: NoteTypeNote, Name: "child", ParentID: note.ID})
	assert.ErrorIs(t, err, common.ErrorValidation, "parent must be a folder")
}

func TestStore_Move_RejectsCycles(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	folderA := mustSave(t, s, Note{Type: NoteTypeFolder, Name: "A"})
	folderB := mustSave(t, s, Note{Type: NoteTypeFolder, Name: "B", ParentID: folderA.ID})
	folderC := mustSave(t, s, Note{Type: NoteTypeFolder, Name: "C", ParentID: folderB.ID})

	// A -> B -> C; moving A under C closes a cycle
	err := s.Move(ctx, folderA.ID, folderC.ID)
	assert.ErrorIs(t, err, common.ErrorValidation)

	err = s.Move(ctx, folderA.ID, folderA.ID)
	assert.ErrorIs(t, err, common.ErrorValidation)

	// C back to root, then A under C is fine
	require.NoError(t, s.Move(ctx, folderC.ID, ""))
	require.NoError(t, s.Move(ctx, folderA.ID, folderC.ID))

	got, ok := s.Get(folderA.ID)
	require.True(t, ok)
	assert.Equal(t, folderC.ID, got.ParentID)
}

func TestStore_Children(t *testing.T) {
	s, _, _ := newTestStore(t)

	folder := mustSave(t, s, Note{Type: NoteTypeFolder, Name: "work"})
	mustSave(t, s, Note{Type: NoteTypeNote, Name: "beta", ParentID: folder.ID})
	mustSave(t, s, Note{Type: NoteTypeNote, Name: "alpha", ParentID: folder.ID})

	children := s.Children(folder.ID)
	require.Len(t, children, 2)
	assert.Equal(t, "alpha", children[0].Name)
	assert.Equal(t, "beta", children[1].Name)

	roots := s.Children("")
	require.Len(t, roots, 1)
	assert.Equal(t, "work", roots[0].Name)
}

func TestStore_Search(t *testing.T) {
	s, _, _ := newTestStore(t)

	mustSave(t, s, Note{Type: NoteTypeNote, Name: "shopping", Doc: NewTextDocument("buy milk and bread")})
	mustSave(t, s, Note{Type: NoteTypeNote, Name: "standup", Doc: NewTextDocument("yesterday I fixed the build")})

	assert.Len(t, s.Search("MILK"), 1)
	assert.Len(t, s.Search("standup"), 1, "name field is searchable")
	assert.Empty(t, s.Search("vacation"))
	assert.Empty(t, s.Search("  "))
}

func TestStore_Backlinks(t *testing.T) {
	s, session, gw := newTestStore(t)
	ctx := context.Background()

	mustSave(t, s, Note{Type: NoteTypeNote, Name: "X", Doc: NewTextDocument("the target")})
	ref := mustSave(t, s, Note{Type: NoteTypeNote, Name: "daily", Doc: NewTextDocument("follow up on [[X]] tomorrow")})

	links := s.Backlinks("X")
	require.Len(t, links, 1)
	assert.Equal(t, ref.ID, links[0].ID)

	// still there after a full reload from ciphertext
	s2 := NewStore(session, gw, logging.NewDefault(slog.LevelError))
	_, err := s2.Load(ctx)
	require.NoError(t, err)
	links = s2.Backlinks("X")
	require.Len(t, links, 1)
	assert.Equal(t, "daily", links[0].Name)
}

func TestStore_Load_IsolatesUndecryptableRecords(t *testing.T) {
	s, session, gw := newTestStore(t)
	ctx := context.Background()

	good := mustSave(t, s, Note{Type: NoteTypeNote, Name: "good", Doc: NewTextDocument("fine")})
	bad := mustSave(t, s, Note{Type: NoteTypeNote, Name: "bad", Doc: NewTextDocument("doomed")})

	// corrupt one ciphertext behind the store's back
	records, err := gw.ListRecords(ctx, "a@b.com")
	require.NoError(t, err)
	for _, rec := range records {
		if rec.ID == bad.ID {
			rec.Ciphertext[0] ^= 0xff
			_, err := gw.UpdateRecord(ctx, "a@b.com", rec.ID, gateway.RecordUpdate{
				Ciphertext: rec.Ciphertext,
				Nonce:      rec.Nonce,
			})
			require.NoError(t, err)
		}
	}

	s2 := NewStore(session, gw, logging.NewDefault(slog.LevelError))
	res, err := s2.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Loaded)
	assert.Equal(t, 1, res.Failed)

	_, ok := s2.Get(good.ID)
	assert.True(t, ok)
	_, ok = s2.Get(bad.ID)
	assert.False(t, ok)
}

// failingGateway wraps a Gateway and fails writes on demand.
type failingGateway struct {
	gateway.Gateway
	fail bool
}

func (f *failingGateway) CreateRecord(ctx context.Context, email string, r gateway.Record) (*gateway.Record, error) {
	if f.fail {
		return nil, fmt.Errorf("backend unavailable: %w", common.ErrorStorage)
	}
	return f.Gateway.CreateRecord(ctx, email, r)
}

func TestStore_Save_StorageFailureIsRetryable(t *testing.T) {
	gw := inmemory.New()
	log := logging.NewDefault(slog.LevelError)
	session := vault.NewSession(gw, log)
	ctx := context.Background()
	require.NoError(t, session.Register(ctx, "a@b.com", "pa55word"))
	require.NoError(t, session.Login(ctx, "a@b.com", "pa55word"))

	fgw := &failingGateway{Gateway: gw, fail: true}
	s := NewStore(session, fgw, log)

	draft := Note{Type: NoteTypeNote, Name: "draft", Doc: NewTextDocument("unsaved #edit")}
	_, err := s.Save(ctx, draft)
	require.ErrorIs(t, err, common.ErrorStorage)
	assert.Empty(t, s.All(), "failed save must not touch the store")
	assert.Empty(t, s.NotesWithTag("edit"))

	// same input, retried after the backend recovers
	fgw.fail = false
	saved, err := s.Save(ctx, draft)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Len(t, s.NotesWithTag("edit"), 1)
}
