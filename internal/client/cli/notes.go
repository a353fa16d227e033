package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/avolkov/notevault/internal/common"
	"github.com/avolkov/notevault/internal/content"
)

// requireLogin guards commands that need an active session.
func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return fmt.Errorf("%w: log in first", common.ErrorUnauthorized)
	}
	return nil
}

// findNote resolves a user-supplied reference to a note: by exact ID
// first, then by case-insensitive name.
func (a *App) findNote(ref string) (*content.Note, error) {
	if n, ok := a.store.Get(ref); ok {
		return n, nil
	}
	for _, n := range a.store.All() {
		if strings.EqualFold(n.Name, ref) {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: no note or folder named %q", common.ErrorNotFound, ref)
}

// argOrPrompt takes the command argument if present, otherwise prompts.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) Add(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Note name", a.out)
	if err != nil {
		return err
	}

	body, err := getMultiline(a.reader, "Note text (#tags and [[links]] are picked up automatically)", a.out)
	if err != nil {
		return err
	}

	saved, err := a.store.Save(ctx, content.Note{
		Type: content.NoteTypeNote,
		Name: name,
		Doc:  content.NewTextDocument(body),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved %q (%s)\n", saved.Name, saved.ID)
	return nil
}

func (a *App) Mkdir(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Folder name", a.out)
	if err != nil {
		return err
	}

	saved, err := a.store.Save(ctx, content.Note{
		Type: content.NoteTypeFolder,
		Name: name,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created folder %q (%s)\n", saved.Name, saved.ID)
	return nil
}

// List prints the children of a folder, or of the root when no folder
// is given.
func (a *App) List(_ context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	parentID := ""
	if len(args) > 0 {
		folder, err := a.findNote(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if folder.Type != content.NoteTypeFolder {
			return fmt.Errorf("%w: %q is not a folder", common.ErrorValidation, folder.Name)
		}
		parentID = folder.ID
	}

	children := a.store.Children(parentID)
	if len(children) == 0 {
		fmt.Fprintln(a.out, "(empty)")
		return nil
	}
	for _, n := range children {
		fmt.Fprintln(a.out, formatEntry(n))
	}
	return nil
}

func formatEntry(n *content.Note) string {
	marker := " "
	if n.Type == content.NoteTypeFolder {
		marker = "/"
	}
	line := fmt.Sprintf("%s%s  [%s]", n.Name, marker, n.ID)
	if len(n.Tags) > 0 {
		line += "  #" + strings.Join(n.Tags, " #")
	}
	return line
}

func (a *App) Show(_ context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	ref, err := a.argOrPrompt(args, "Note name or id")
	if err != nil {
		return err
	}
	n, err := a.findNote(ref)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, formatEntry(n))
	if n.Type == content.NoteTypeNote {
		fmt.Fprintln(a.out, n.Doc.PlainText())
	}
	return nil
}

// Edit replaces the body of a note; tags and links are re-extracted on
// save.
func (a *App) Edit(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	ref, err := a.argOrPrompt(args, "Note name or id")
	if err != nil {
		return err
	}
	n, err := a.findNote(ref)
	if err != nil {
		return err
	}
	if n.Type != content.NoteTypeNote {
		return fmt.Errorf("%w: %q is a folder", common.ErrorValidation, n.Name)
	}

	fmt.Fprintln(a.out, "Current text:")
	fmt.Fprintln(a.out, n.Doc.PlainText())

	body, err := getMultiline(a.reader, "New text", a.out)
	if err != nil {
		return err
	}

	updated := *n
	updated.Doc = content.NewTextDocument(body)
	if _, err := a.store.Save(ctx, updated); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Saved.")
	return nil
}

// Move re-parents a note or folder. The destination "/" means the root.
func (a *App) Move(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	var src, dst string
	var err error
	if len(args) >= 2 {
		src, dst = args[0], args[1]
	} else {
		if src, err = a.argOrPrompt(args, "What to move (name or id)"); err != nil {
			return err
		}
		if dst, err = getSimpleText(a.reader, "Destination folder (or / for the root)", a.out); err != nil {
			return err
		}
	}

	n, err := a.findNote(src)
	if err != nil {
		return err
	}

	parentID := ""
	if dst != "/" && dst != "" {
		folder, err := a.findNote(dst)
		if err != nil {
			return err
		}
		if folder.Type != content.NoteTypeFolder {
			return fmt.Errorf("%w: %q is not a folder", common.ErrorValidation, folder.Name)
		}
		parentID = folder.ID
	}

	if err := a.store.Move(ctx, n.ID, parentID); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Moved.")
	return nil
}
