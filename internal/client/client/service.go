package client

import (
	"context"

	"github.com/dmitrijs2005/openflag/internal/client/models"
)

// Client is the OpenFlag API as used by the CLI.
type Client interface {
	List(ctx context.Context) ([]models.Flag, error)
	Check(ctx context.Context, name string) (*models.Flag, error)
	Create(ctx context.Context, name string, value bool, description string) error
	Update(ctx context.Context, name, newName, description string) error
	Toggle(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) error

	Login(ctx context.Context, email, password string) error
	Logout()
	LoggedIn() bool
	Me(ctx context.Context) (*models.Identity, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, name, email, password string) (*models.User, error)

	Snapshot(ctx context.Context) (*models.Snapshot, error)
}
