package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/nixixoo/Notex/internal/client/services"
)

func (a *App) prompt() string {
	switch a.sess.Mode() {
	case services.ModeGuest:
		return "notex (guest)> "
	case services.ModeAuthenticated:
		name := ""
		if u := a.sess.CurrentUser(); u != nil {
			name = u.Username
		}
		return fmt.Sprintf("notex (%s)> ", name)
	}
	return "notex> "
}

// Root runs the command loop until exit or EOF.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to Notex (type 'help' for commands)")

	for {
		fmt.Fprint(a.out, a.prompt())
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "login":
			a.Login(ctx)
		case "register":
			a.Register(ctx)
		case "guest":
			a.Guest(ctx)
		case "logout":
			a.Logout(ctx)
		case "notes":
			a.Notes(ctx, args)
		case "add":
			a.AddNote(ctx)
		case "show":
			a.ShowNote(ctx, args)
		case "edit":
			a.EditNote(ctx, args)
		case "archive":
			a.Archive(ctx, args)
		case "trash":
			a.TrashNote(ctx, args)
		case "restore":
			a.RestoreNote(ctx, args)
		case "delete":
			a.DeleteNote(ctx, args)
		case "counts":
			a.Counts(ctx)
		case "groups":
			a.Groups(ctx, args)
		case "chat":
			a.Chat(ctx)
		case "exit", "quit":
			return
		default:
			fmt.Fprintf(a.out, "unknown command: %s\n", cmd)
		}
	}
}

func (a *App) printHelp() {
	if a.sess.IsActive() {
		fmt.Fprintln(a.out, "Commands: notes [active|archived|trashed|all], add, show <id>, edit <id>, archive <id>, trash <id>, restore <id>, delete <id>, counts, groups, chat, logout, exit")
	} else {
		fmt.Fprintln(a.out, "Commands: login, register, guest, exit")
	}
}

// fail prints an operation error in a uniform way.
func (a *App) fail(err error) {
	fmt.Fprintf(a.out, "error: %v\n", err)
}
