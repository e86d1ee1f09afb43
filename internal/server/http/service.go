// Package http exposes the flag and user services as a JSON REST API built
// from go-kit endpoints routed by gorilla/mux.
package http

import (
	"context"

	"github.com/dmitrijs2005/openflag/internal/server/auth"
	"github.com/dmitrijs2005/openflag/internal/server/models"
	"github.com/dmitrijs2005/openflag/internal/server/services"
)

// FlagService is the flag store as seen by the API.
type FlagService interface {
	Create(ctx context.Context, name string, value bool, description string) (*models.Flag, error)
	Check(ctx context.Context, name string) (*models.Flag, error)
	List(ctx context.Context) ([]*models.Flag, error)
	Rename(ctx context.Context, current, newName, description string) error
	Toggle(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) error
}

// UserService is the credential store as seen by the API.
type UserService interface {
	CreateUser(ctx context.Context, name, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id *int64, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id int64, name, email string, password *string) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	Login(ctx context.Context, email, password string) (string, error)
}

// Snapshotter exports the flag set to object storage.
type Snapshotter interface {
	Export(ctx context.Context) (*services.Snapshot, error)
}

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Operation names one API operation; the authorization policy and the
// metrics are keyed by it.
type Operation string

const (
	OpListFlags  Operation = "list_flags"
	OpCreateFlag Operation = "create_flag"
	OpRenameFlag Operation = "rename_flag"
	OpToggleFlag Operation = "toggle_flag"
	OpCheckFlag  Operation = "check_flag"
	OpRemoveFlag Operation = "remove_flag"
	OpListUsers  Operation = "list_users"
	OpCreateUser Operation = "create_user"
	OpGetUser    Operation = "get_user"
	OpUpdateUser Operation = "update_user"
	OpDeleteUser Operation = "delete_user"
	OpLogin      Operation = "login"
	OpMe         Operation = "me"
	OpSnapshot   Operation = "snapshot"
)

// Operations lists every operation served by the API.
var Operations = []Operation{
	OpListFlags, OpCreateFlag, OpRenameFlag, OpToggleFlag, OpCheckFlag, OpRemoveFlag,
	OpListUsers, OpCreateUser, OpGetUser, OpUpdateUser, OpDeleteUser,
	OpLogin, OpMe, OpSnapshot,
}
