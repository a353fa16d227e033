package content

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/avolkov/notevault/internal/logging"
	"github.com/avolkov/notevault/internal/vault"
	"golang.org/x/sync/errgroup"
)

// loadConcurrency bounds the number of records decrypted in parallel
// during Load.
const loadConcurrency = 8

// LoadResult reports how many records a Load decrypted and how many were
// skipped because their integrity check failed.
type LoadResult struct {
	Loaded int
	Failed int
}

// Store rebuilds and maintains the plaintext hierarchy from decrypted
// records, together with the derived indices: full-text search, tag →
// notes, and backlinks (note name → notes referencing it).
//
// After a successful Save the indices are always consistent with the
// note set. A failed save leaves both the caller's note and the indices
// untouched, so the edit can be retried with the same input.
type Store struct {
	session *vault.Session
	gw      gateway.Gateway
	log     logging.Logger

	mu        sync.RWMutex
	notes     map[string]*Note
	texts     map[string]string              // note id -> lowercased name + plain text
	tagIndex  map[string]map[string]struct{} // tag -> note ids
	backlinks map[string]map[string]struct{} // target name -> referencing note ids
}

func NewStore(session *vault.Session, gw gateway.Gateway, log logging.Logger) *Store {
	return &Store{
		session:   session,
		gw:        gw,
		log:       log,
		notes:     make(map[string]*Note),
		texts:     make(map[string]string),
		tagIndex:  make(map[string]map[string]struct{}),
		backlinks: make(map[string]map[string]struct{}),
	}
}

// Load fetches all records for the account and decrypts them through the
// session, independently and in parallel. A record that fails its
// integrity check is skipped and counted; it never aborts the load.
func (s *Store) Load(ctx context.Context) (*LoadResult, error) {
	if !s.session.Active() {
		return nil, vault.ErrNotLoggedIn
	}

	records, err := s.gw.ListRecords(ctx, s.session.Email())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	type decrypted struct {
		note *Note
		text string
	}

	var mu sync.Mutex
	loaded := make([]decrypted, 0, len(records))
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for _, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			note, text, err := s.decryptRecord(rec)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.log.Warn(gctx, "skipping undecryptable record", "id", rec.ID, "error", err)
				return nil
			}
			loaded = append(loaded, decrypted{note: note, text: text})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.notes = make(map[string]*Note, len(loaded))
	s.texts = make(map[string]string, len(loaded))
	s.tagIndex = make(map[string]map[string]struct{})
	s.backlinks = make(map[string]map[string]struct{})
	for _, d := range loaded {
		s.indexLocked(d.note, d.text)
	}
	s.mu.Unlock()

	return &LoadResult{Loaded: len(loaded), Failed: failed}, nil
}

func (s *Store) decryptRecord(rec gateway.Record) (*Note, string, error) {
	payload, err := s.session.Decrypt(rec.Ciphertext, rec.Nonce)
	if err != nil {
		return nil, "", err
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, "", fmt.Errorf("malformed document: %w", err)
	}

	parentID := ""
	if rec.ParentID != nil {
		parentID = *rec.ParentID
	}
	plain := doc.PlainText()
	note := &Note{
		ID:       rec.ID,
		Type:     NoteType(rec.Type),
		ParentID: parentID,
		Name:     rec.Name,
		Tags:     ExtractTags(plain),
		Doc:      doc,
	}
	return note, plain, nil
}

// Save creates or updates a note. Tags are recomputed from the extracted
// plain text, the document is encrypted through the session, and the
// record is persisted before any in-memory state changes. On storage
// failure nothing is modified and the same call can be retried.
//
// The returned note carries the assigned id on first save.
func (s *Store) Save(ctx context.Context, n Note) (*Note, error) {
	if n.Name == "" {
		return nil, fmt.Errorf("%w: note name is required", common.ErrorValidation)
	}
	if n.Type != NoteTypeNote && n.Type != NoteTypeFolder {
		return nil, fmt.Errorf("%w: unknown note type %q", common.ErrorValidation, n.Type)
	}
	if err := s.checkParent(n.ParentID); err != nil {
		return nil, err
	}

	plain := n.Doc.PlainText()
	n.Tags = ExtractTags(plain)

	payload, err := json.Marshal(n.Doc)
	if err != nil {
		return nil, err
	}
	ciphertext, nonce, err := s.session.Encrypt(payload)
	if err != nil {
		return nil, err
	}

	email := s.session.Email()
	if n.ID == "" {
		var parent *string
		if n.ParentID != "" {
			parent = &n.ParentID
		}
		created, err := s.gw.CreateRecord(ctx, email, gateway.Record{
			Ciphertext: ciphertext,
			Nonce:      nonce,
			Type:       string(n.Type),
			ParentID:   parent,
			Name:       n.Name,
			Tags:       n.Tags,
		})
		if err != nil {
			return nil, fmt.Errorf("create record: %w", err)
		}
		n.ID = created.ID
	} else {
		if _, err := s.gw.UpdateRecord(ctx, email, n.ID, gateway.RecordUpdate{
			Ciphertext: ciphertext,
			Nonce:      nonce,
			Name:       &n.Name,
			Tags:       n.Tags,
		}); err != nil {
			return nil, fmt.Errorf("update record: %w", err)
		}
	}

	s.mu.Lock()
	s.deindexLocked(n.ID)
	cp := n
	s.indexLocked(&cp, plain)
	s.mu.Unlock()

	result := n
	return &result, nil
}

func (s *Store) checkParent(parentID string) error {
	if parentID == "" {
		return nil
	}
	s.mu.RLock()
	parent, ok := s.notes[parentID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("parent %q: %w", parentID, common.ErrorNotFound)
	}
	if parent.Type != NoteTypeFolder {
		return fmt.Errorf("%w: parent %q is not a folder", common.ErrorValidation, parentID)
	}
	return nil
}

// Move reparents a note. Moving a folder into itself or any of its
// descendants is rejected: the check walks the parent chain upward from
// the destination and fails if it reaches the moved note.
func (s *Store) Move(ctx context.Context, id, newParentID string) error {
	s.mu.RLock()
	note, ok := s.notes[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("note %q: %w", id, common.ErrorNotFound)
	}

	if newParentID != "" {
		if newParentID == id {
			return fmt.Errorf("%w: cannot move a note into itself", common.ErrorValidation)
		}
		if err := s.checkParent(newParentID); err != nil {
			return err
		}
		if s.isDescendant(newParentID, id) {
			return fmt.Errorf("%w: cannot move a folder into its own descendant", common.ErrorValidation)
		}
	}

	var parent *string
	if newParentID != "" {
		parent = &newParentID
	}
	if _, err := s.gw.UpdateRecord(ctx, s.session.Email(), id, gateway.RecordUpdate{
		SetParent: true,
		ParentID:  parent,
	}); err != nil {
		return fmt.Errorf("update record: %w", err)
	}

	s.mu.Lock()
	note.ParentID = newParentID
	s.mu.Unlock()
	return nil
}

// isDescendant reports whether the note with candidateID sits below
// ancestorID in the hierarchy (walking parent links from candidateID up).
func (s *Store) isDescendant(candidateID, ancestorID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for cur := candidateID; cur != ""; {
		if cur == ancestorID {
			return true
		}
		note, ok := s.notes[cur]
		if !ok {
			return false
		}
		cur = note.ParentID
	}
	return false
}

// Get returns a copy of the note with the given id.
func (s *Store) Get(id string) (*Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	if !ok {
		return nil, false
	}
	cp := *note
	return &cp, true
}

// All returns every note, sorted by name.
func (s *Store) All() []*Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Note, 0, len(s.notes))
	for _, n := range s.notes {
		cp := *n
		out = append(out, &cp)
	}
	sortByName(out)
	return out
}

// Children returns the direct children of a folder ("" lists roots).
func (s *Store) Children(parentID string) []*Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Note
	for _, n := range s.notes {
		if n.ParentID == parentID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sortByName(out)
	return out
}

// Search returns notes whose name or extracted text contains the query,
// case-insensitively.
func (s *Store) Search(query string) []*Note {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Note
	for id, text := range s.texts {
		if strings.Contains(text, query) {
			cp := *s.notes[id]
			out = append(out, &cp)
		}
	}
	sortByName(out)
	return out
}

// NotesWithTag returns the notes carrying the given tag.
func (s *Store) NotesWithTag(tag string) []*Note {
	tag = strings.ToLower(tag)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Note
	for id := range s.tagIndex[tag] {
		cp := *s.notes[id]
		out = append(out, &cp)
	}
	sortByName(out)
	return out
}

// Tags returns all known tags, sorted.
func (s *Store) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tagIndex))
	for tag := range s.tagIndex {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Backlinks returns the notes whose text references the named note via a
// [[wiki link]].
func (s *Store) Backlinks(name string) []*Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Note
	for id := range s.backlinks[name] {
		cp := *s.notes[id]
		out = append(out, &cp)
	}
	sortByName(out)
	return out
}

func (s *Store) indexLocked(n *Note, plain string) {
	s.notes[n.ID] = n
	s.texts[n.ID] = strings.ToLower(n.Name + " " + plain)
	for _, tag := range n.Tags {
		if s.tagIndex[tag] == nil {
			s.tagIndex[tag] = make(map[string]struct{})
		}
		s.tagIndex[tag][n.ID] = struct{}{}
	}
	for _, target := range ExtractLinks(plain) {
		if s.backlinks[target] == nil {
			s.backlinks[target] = make(map[string]struct{})
		}
		s.backlinks[target][n.ID] = struct{}{}
	}
}

func (s *Store) deindexLocked(id string) {
	if _, ok := s.notes[id]; !ok {
		return
	}
	delete(s.notes, id)
	delete(s.texts, id)
	for tag, ids := range s.tagIndex {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.tagIndex, tag)
		}
	}
	for target, ids := range s.backlinks {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.backlinks, target)
		}
	}
}

func sortByName(notes []*Note) {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Name != notes[j].Name {
			return notes[i].Name < notes[j].Name
		}
		return notes[i].ID < notes[j].ID
	})
}
