package cli

import (
	"context"
	"fmt"
	"strings"
)

// Search prints notes whose decrypted text contains the query.
func (a *App) Search(_ context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	query, err := a.argOrPrompt(args, "Search for")
	if err != nil {
		return err
	}

	matches := a.store.Search(query)
	if len(matches) == 0 {
		fmt.Fprintln(a.out, "No matches.")
		return nil
	}
	for _, n := range matches {
		fmt.Fprintln(a.out, formatEntry(n))
	}
	return nil
}

// Tag lists notes carrying a tag; with no argument it lists all tags.
func (a *App) Tag(_ context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	if len(args) == 0 {
		tags := a.store.Tags()
		if len(tags) == 0 {
			fmt.Fprintln(a.out, "No tags.")
			return nil
		}
		fmt.Fprintln(a.out, "#"+strings.Join(tags, " #"))
		return nil
	}

	tag := strings.TrimPrefix(args[0], "#")
	notes := a.store.NotesWithTag(tag)
	if len(notes) == 0 {
		fmt.Fprintf(a.out, "No notes tagged #%s.\n", tag)
		return nil
	}
	for _, n := range notes {
		fmt.Fprintln(a.out, formatEntry(n))
	}
	return nil
}

// Links prints the notes whose text links to the named note.
func (a *App) Links(_ context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	ref, err := a.argOrPrompt(args, "Note name")
	if err != nil {
		return err
	}
	n, err := a.findNote(ref)
	if err != nil {
		return err
	}

	backlinks := a.store.Backlinks(n.Name)
	if len(backlinks) == 0 {
		fmt.Fprintf(a.out, "Nothing links to %q.\n", n.Name)
		return nil
	}
	for _, b := range backlinks {
		fmt.Fprintln(a.out, formatEntry(b))
	}
	return nil
}
