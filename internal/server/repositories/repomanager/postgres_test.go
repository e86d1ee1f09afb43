package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/flags"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNew_Dialects(t *testing.T) {
	m, err := New(dbx.DialectPostgres)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*PostgresRepositoryManager); !ok {
		t.Fatalf("want *PostgresRepositoryManager, got %T", m)
	}

	m, err = New(dbx.DialectSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*SQLiteRepositoryManager); !ok {
		t.Fatalf("want *SQLiteRepositoryManager, got %T", m)
	}

	if _, err := New("oracle"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	pg := &PostgresRepositoryManager{}
	if _, ok := pg.Flags(db).(*flags.PostgresRepository); !ok {
		t.Fatal("Flags() is not postgres")
	}
	if _, ok := pg.Users(db).(*users.PostgresRepository); !ok {
		t.Fatal("Users() is not postgres")
	}

	lite := &SQLiteRepositoryManager{}
	if _, ok := lite.Flags(db).(*flags.SQLiteRepository); !ok {
		t.Fatal("Flags() is not sqlite")
	}
	if _, ok := lite.Users(db).(*users.SQLiteRepository); !ok {
		t.Fatal("Users() is not sqlite")
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if gotDir != "postgres" {
		t.Fatalf("dir = %q, want postgres", gotDir)
	}

	s := &SQLiteRepositoryManager{}
	if err := s.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if gotDir != "sqlite" {
		t.Fatalf("dir = %q, want sqlite", gotDir)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
