package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/openflag/internal/cryptox"
	"github.com/dmitrijs2005/openflag/internal/server/auth"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/repotest"
	"github.com/stretchr/testify/require"
)

var testArgon = cryptox.Params{Time: 1, MemoryKiB: 1024, Threads: 1}

func newTestDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	return repotest.NewSQLite(t), &repomanager.SQLiteRepositoryManager{}
}

func newTestFlagService(t *testing.T) *FlagService {
	t.Helper()
	db, rm := newTestDB(t)
	return NewFlagService(db, rm)
}

func newTestUserService(t *testing.T) (*UserService, *auth.TokenService) {
	t.Helper()
	db, rm := newTestDB(t)
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	s, err := NewUserService(db, rm, tokens, testArgon)
	require.NoError(t, err)
	return s, tokens
}

// steppingClock returns strictly increasing instants one millisecond apart.
func steppingClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Millisecond)
		return cur
	}
}
