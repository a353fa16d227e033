// Package content implements the plaintext note model that exists only in
// client memory after decryption: the note/folder hierarchy, tag and
// backlink indices, and full-text search. Everything in this package
// operates on decrypted data; serialization back to the storage backend
// always goes through the vault session.
package content

import "strings"

// Document is a minimal rich-text block document. The structure is opaque
// to the rest of the core beyond plain-text extraction; unknown block
// types round-trip untouched through their Text and Content fields.
type Document struct {
	Type    string  `json:"type"`
	Content []Block `json:"content,omitempty"`
}

// Block is one node of a document tree.
type Block struct {
	Type    string  `json:"type"`
	Text    string  `json:"text,omitempty"`
	Content []Block `json:"content,omitempty"`
}

// NewTextDocument wraps plain text in a single-paragraph document.
func NewTextDocument(text string) Document {
	return Document{
		Type: "doc",
		Content: []Block{
			{Type: "paragraph", Content: []Block{{Type: "text", Text: text}}},
		},
	}
}

// PlainText extracts the document's text for search, tag and backlink
// computation. Sibling blocks are separated by a space.
func (d Document) PlainText() string {
	var sb strings.Builder
	for _, b := range d.Content {
		b.appendText(&sb)
	}
	return strings.TrimSpace(sb.String())
}

func (b Block) appendText(sb *strings.Builder) {
	if b.Type == "text" {
		sb.WriteString(b.Text)
	}
	if len(b.Content) > 0 {
		for _, c := range b.Content {
			c.appendText(sb)
		}
		sb.WriteByte(' ')
	}
}
