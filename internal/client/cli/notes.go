package cli

import (
	"context"
	"fmt"

	"github.com/nixixoo/Notex/internal/client/models"
)

func (a *App) Notes(ctx context.Context, args []string) {
	f := models.NoteFilter{Status: models.NoteStatusActive}
	if len(args) > 0 {
		f.Status = models.NoteStatus(args[0])
	}

	items, err := a.notes.List(ctx, f)
	if err != nil {
		a.fail(err)
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "no notes")
		return
	}
	for _, n := range items {
		group := ""
		if n.GroupID != "" {
			group = " [" + n.GroupID + "]"
		}
		fmt.Fprintf(a.out, "%s  %-10s %s - %s%s\n", n.ID, n.Status, n.Title, n.Subtitle, group)
	}
}

func (a *App) AddNote(ctx context.Context) {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		a.fail(err)
		return
	}
	subtitle, err := GetSimpleText(a.reader, "Subtitle", a.out)
	if err != nil {
		a.fail(err)
		return
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		a.fail(err)
		return
	}

	note, err := a.notes.Create(ctx, models.CreateNoteRequest{Title: title, Subtitle: subtitle, Content: content})
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "created %s\n", note.ID)
}

func (a *App) ShowNote(ctx context.Context, args []string) {
	id, ok := requireID(a, args)
	if !ok {
		return
	}
	note, err := a.notes.GetByID(ctx, id)
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "%s - %s (%s)\n", note.Title, note.Subtitle, note.Status)
	if note.Content != "" {
		fmt.Fprintln(a.out, note.Content)
	}
	fmt.Fprintf(a.out, "updated %s\n", note.UpdatedAt.Format("2006-01-02 15:04"))
}

// EditNote prompts for new values; an empty answer keeps the current one.
func (a *App) EditNote(ctx context.Context, args []string) {
	id, ok := requireID(a, args)
	if !ok {
		return
	}
	current, err := a.notes.GetByID(ctx, id)
	if err != nil {
		a.fail(err)
		return
	}

	title, err := GetSimpleText(a.reader, "Title ["+current.Title+"]", a.out)
	if err != nil {
		a.fail(err)
		return
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		a.fail(err)
		return
	}

	req := models.UpdateNoteRequest{}
	if title != "" {
		req.Title = &title
	}
	if content != "" {
		req.Content = &content
	}
	if req.Title == nil && req.Content == nil {
		fmt.Fprintln(a.out, "nothing to change")
		return
	}
	if _, err := a.notes.Update(ctx, id, req); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "updated %s\n", id)
}

func (a *App) Archive(ctx context.Context, args []string) {
	a.changeStatus(ctx, args, a.notes.Archive, "archived")
}

func (a *App) TrashNote(ctx context.Context, args []string) {
	a.changeStatus(ctx, args, a.notes.Trash, "trashed")
}

func (a *App) RestoreNote(ctx context.Context, args []string) {
	a.changeStatus(ctx, args, a.notes.Restore, "restored")
}

func (a *App) changeStatus(ctx context.Context, args []string, op func(context.Context, string) (*models.Note, error), verb string) {
	id, ok := requireID(a, args)
	if !ok {
		return
	}
	if _, err := op(ctx, id); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "%s %s\n", verb, id)
}

func (a *App) DeleteNote(ctx context.Context, args []string) {
	id, ok := requireID(a, args)
	if !ok {
		return
	}
	removed, err := a.notes.Remove(ctx, id)
	if err != nil {
		a.fail(err)
		return
	}
	if !removed {
		fmt.Fprintln(a.out, "nothing to delete")
		return
	}
	fmt.Fprintf(a.out, "deleted %s\n", id)
}

func (a *App) Counts(ctx context.Context) {
	counts, err := a.notes.Counts(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "active: %d  archived: %d  trashed: %d\n", counts.Active, counts.Archived, counts.Trashed)
}

func requireID(a *App, args []string) (string, bool) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: <command> <id>")
		return "", false
	}
	return args[0], true
}
