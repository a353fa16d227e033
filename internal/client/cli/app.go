// Package cli implements the interactive NoteVault client. All
// encryption happens here, on the user's machine: the app derives the
// master key from the password at login and the server only ever
// receives ciphertext.
package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/avolkov/notevault/internal/client/config"
	"github.com/avolkov/notevault/internal/content"
	"github.com/avolkov/notevault/internal/gateway"
	"github.com/avolkov/notevault/internal/gateway/httpclient"
	"github.com/avolkov/notevault/internal/logging"
	"github.com/avolkov/notevault/internal/vault"
)

type App struct {
	config  *config.Config
	session *vault.Session
	store   *content.Store
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) *App {
	log := logging.NewDefault(slog.LevelWarn)
	gw := httpclient.New(c.ServerAddr)
	return newApp(c, gw, log, os.Stdin, os.Stdout)
}

func newApp(c *config.Config, gw gateway.Gateway, log logging.Logger, in io.Reader, out io.Writer) *App {
	session := vault.NewSession(gw, log)
	return &App{
		config:  c,
		session: session,
		store:   content.NewStore(session, gw, log),
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Active()
}

func (a *App) Run(ctx context.Context) {
	runREPL(ctx, a, a.status, a.reader)
}

// status is shown in the REPL prompt.
func (a *App) status() string {
	if a.isLoggedIn() {
		return a.session.Email()
	}
	return "logged out"
}
