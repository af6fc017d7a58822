package cli

import (
	"context"
	"fmt"

	"github.com/nixixoo/Notex/internal/client/models"
)

func (a *App) Login(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		a.fail(err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		a.fail(err)
		return
	}

	resp, err := a.sess.Login(ctx, models.LoginRequest{Username: username, Password: string(password)})
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", resp.User.Username)
}

func (a *App) Register(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		a.fail(err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		a.fail(err)
		return
	}

	resp, err := a.sess.Register(ctx, models.RegisterRequest{Username: username, Password: string(password)})
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", resp.User.Username)
}

func (a *App) Guest(ctx context.Context) {
	if err := a.sess.EnableGuestMode(ctx); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintln(a.out, "Guest mode enabled; everything stays on this device")
}

func (a *App) Logout(ctx context.Context) {
	if err := a.sess.Logout(ctx); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintln(a.out, "Logged out")
}
