package content

import (
	"regexp"
	"sort"
	"strings"
)

// NoteType distinguishes notes from folders.
type NoteType string

const (
	NoteTypeNote   NoteType = "note"
	NoteTypeFolder NoteType = "folder"
)

// Note is the post-decryption entity. It exists only in client memory;
// the storage backend sees its Doc solely as ciphertext.
//
// ParentID is "" for roots and otherwise must reference a folder note.
type Note struct {
	ID       string
	Type     NoteType
	ParentID string
	Name     string
	Tags     []string
	Doc      Document
}

// tagPattern matches the in-text tag convention: a leading # sigil
// followed by word characters, e.g. "Hello #work".
var tagPattern = regexp.MustCompile(`(?:^|\s)#([\p{L}\d_-]+)`)

// linkPattern matches wiki-style cross-references: [[Note Name]].
var linkPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// ExtractTags returns the tags referenced in text via the # sigil,
// lowercased, deduplicated and sorted.
func ExtractTags(text string) []string {
	seen := make(map[string]struct{})
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		seen[strings.ToLower(m[1])] = struct{}{}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ExtractLinks returns the targets of [[wiki links]] in text, in order of
// first appearance, deduplicated. Targets are trimmed but otherwise kept
// verbatim: links resolve against note names case-sensitively.
func ExtractLinks(text string) []string {
	seen := make(map[string]struct{})
	var links []string
	for _, m := range linkPattern.FindAllStringSubmatch(text, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		links = append(links, target)
	}
	return links
}
