package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/server/migrations"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/flags"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// RepositoryManager vends dialect-specific repositories bound to a DBTX, so
// services can run them either on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Flags(db dbx.DBTX) flags.Repository
	Users(db dbx.DBTX) users.Repository
}

// New returns the manager for dialect d.
func New(d dbx.Dialect) (RepositoryManager, error) {
	switch d {
	case dbx.DialectPostgres:
		return NewPostgresRepositoryManager()
	case dbx.DialectSQLite:
		return NewSQLiteRepositoryManager()
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", string(d))
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, dir)
}
