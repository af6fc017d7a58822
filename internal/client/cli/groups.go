package cli

import (
	"context"
	"fmt"

	"github.com/nixixoo/Notex/internal/client/models"
)

// Groups dispatches the group subcommands:
//
//	groups              list groups
//	groups add          create a group
//	groups rename <id>  rename a group
//	groups delete <id>  delete a group
//	groups notes <id>   list active notes in a group
func (a *App) Groups(ctx context.Context, args []string) {
	if len(args) == 0 {
		a.listGroups(ctx)
		return
	}

	switch args[0] {
	case "add":
		a.addGroup(ctx)
	case "rename":
		a.renameGroup(ctx, args[1:])
	case "delete":
		a.deleteGroup(ctx, args[1:])
	case "notes":
		a.groupNotes(ctx, args[1:])
	default:
		fmt.Fprintf(a.out, "unknown groups subcommand: %s\n", args[0])
	}
}

func (a *App) listGroups(ctx context.Context) {
	items, err := a.groups.List(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "no groups")
		return
	}
	for _, g := range items {
		fmt.Fprintf(a.out, "%s  %s\n", g.ID, g.Name)
	}
}

func (a *App) addGroup(ctx context.Context) {
	name, err := GetSimpleText(a.reader, "Group name", a.out)
	if err != nil {
		a.fail(err)
		return
	}
	group, err := a.groups.Create(ctx, models.CreateGroupRequest{Name: name})
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "created %s\n", group.ID)
}

func (a *App) renameGroup(ctx context.Context, args []string) {
	id, ok := requireID(a, args)
	if !ok {
		return
	}
	name, err := GetSimpleText(a.reader, "New name", a.out)
	if err != nil {
		a.fail(err)
		return
	}
	if _, err := a.groups.Update(ctx, id, models.UpdateGroupRequest{Name: &name}); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "renamed %s\n", id)
}

func (a *App) deleteGroup(ctx context.Context, args []string) {
	id, ok := requireID(a, args)
	if !ok {
		return
	}
	removed, err := a.groups.Remove(ctx, id)
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

func (a *App) groupNotes(ctx context.Context, args []string) {
	id, ok := requireID(a, args)
	if !ok {
		return
	}
	items, err := a.groups.NotesInGroup(ctx, id)
	if err != nil {
		a.fail(err)
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "no notes in group")
		return
	}
	for _, n := range items {
		fmt.Fprintf(a.out, "%s  %s - %s\n", n.ID, n.Title, n.Subtitle)
	}
}
