// Package cli is the interactive terminal front-end of the Notex client.
// It is a thin consumer of the services layer: it subscribes to the
// reactive collections and invokes their CRUD methods; all mode handling
// lives below.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"

	"github.com/nixixoo/Notex/internal/client/client"
	"github.com/nixixoo/Notex/internal/client/config"
	"github.com/nixixoo/Notex/internal/client/repositories/kv"
	"github.com/nixixoo/Notex/internal/client/services"
	"github.com/nixixoo/Notex/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	db     *sql.DB
	sess   *services.Session
	notes  *services.NotesService
	groups *services.GroupsService
	chat   *services.ChatService
	log    logging.Logger

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, store, err := kv.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.APIBaseURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		client.WithTokenSource(services.NewStoredTokenSource(store)),
		client.WithLogger(log),
	)

	sess := services.NewSession(api, store, log)

	app := &App{
		config: cfg,
		db:     db,
		sess:   sess,
		notes:  services.NewNotesService(sess, store, api, log),
		groups: services.NewGroupsService(sess, store, api, log),
		chat:   services.NewChatService(sess, store, api, log),
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.sess.Restore(ctx); err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	}
	a.Root(ctx)
	return nil
}

func (a *App) close() {
	a.notes.Close()
	a.groups.Close()
	a.chat.Close()
	_ = a.db.Close()
}
