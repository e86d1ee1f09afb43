// Package repotest opens migrated in-memory SQLite databases for repository
// and service tests.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/server/migrations"
	"github.com/pressly/goose/v3"
)

// NewSQLite returns a fresh migrated database private to t.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	ctx := context.Background()
	db, err := dbx.Open(ctx, dbx.DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fsys, err := migrations.For("sqlite")
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		t.Fatalf("goose provider: %v", err)
	}
	if _, err := p.Up(ctx); err != nil {
		t.Fatalf("goose up: %v", err)
	}
	return db
}
