package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/openflag/internal/client/client"
	"github.com/dmitrijs2005/openflag/internal/client/config"
)

// snapshotDir is the working-directory subfolder downloaded snapshots go to.
const snapshotDir = "snapshots"

type App struct {
	config *config.Config
	api    client.Client
	email  string
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		api.SetToken(c.Token)
	}

	return &App{config: c, api: api, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}
