package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/openflag/internal/cryptox"
	"github.com/dmitrijs2005/openflag/internal/logging"
	"github.com/dmitrijs2005/openflag/internal/server/auth"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/openflag/internal/server/services"
	"github.com/go-kit/kit/metrics/generic"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type testAPI struct {
	srv   *httptest.Server
	users *services.UserService
	token string
}

type apiOption func(*Deps)

func withPolicy(p Policy) apiOption { return func(d *Deps) { d.Policy = p } }

func withSnapshots(s Snapshotter) apiOption { return func(d *Deps) { d.Snapshots = s } }

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()

	db := repotest.NewSQLite(t)
	rm := &repomanager.SQLiteRepositoryManager{}
	tokens := auth.NewTokenService(testSecret, time.Hour)

	us, err := services.NewUserService(db, rm, tokens, cryptox.Params{Time: 1, MemoryKiB: 1024, Threads: 1})
	require.NoError(t, err)

	d := Deps{
		Flags:  services.NewFlagService(db, rm),
		Users:  us,
		Tokens: tokens,
		Logger: nopLogger{},
		Metrics: &Metrics{
			Requests: generic.NewCounter("requests"),
			Latency:  generic.NewSimpleHistogram(),
		},
	}
	for _, o := range opts {
		o(&d)
	}

	srv := httptest.NewServer(NewHandler(MakeEndpoints(d), nopLogger{}, nil))
	t.Cleanup(srv.Close)

	api := &testAPI{srv: srv, users: us}
	_, err = us.CreateUser(context.Background(), "admin", "admin@example.com", "secret")
	require.NoError(t, err)
	api.token, err = us.Login(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	return api
}

// do sends body (if not nil) as JSON and returns the status and raw body.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) (*stdhttp.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := stdhttp.NewRequest(method, a.srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
