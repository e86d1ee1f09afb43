package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/dmitrijs2005/openflag/internal/server/auth"
	"github.com/dmitrijs2005/openflag/internal/server/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flagBody struct {
	Name        string `json:"name"`
	Value       bool   `json:"value"`
	Description string `json:"description"`
}

type fullFlag struct {
	Name        string    `json:"name"`
	Value       bool      `json:"value"`
	Description string    `json:"description"`
	UsageLog    []float64 `json:"usage_log"`
}

type listedFlag struct {
	Name            string    `json:"name"`
	Value           bool      `json:"value"`
	UsageTimestamps []float64 `json:"usage_timestamps"`
}

type userBody struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func TestFlagLifecycle(t *testing.T) {
	api := newTestAPI(t)

	resp, raw := api.do(t, "POST", "/flags", api.token, flagBody{Name: "new_checkout", Value: false, Description: "d"})
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode, string(raw))
	assert.Equal(t, flagBody{Name: "new_checkout", Description: "d"}, decode[flagBody](t, raw))

	resp, raw = api.do(t, "POST", "/flags", api.token, flagBody{Name: "new_checkout", Value: true, Description: "x"})
	assert.Equal(t, stdhttp.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, raw).Detail, "already exists")

	resp, raw = api.do(t, "PUT", "/flags/new_checkout/toggle", api.token, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))
	assert.JSONEq(t, `{"message":"Flag new_checkout toggled successfully","new_value":true}`, string(raw))

	resp, raw = api.do(t, "GET", "/flags/new_checkout", "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	f := decode[fullFlag](t, raw)
	assert.True(t, f.Value)
	assert.Len(t, f.UsageLog, 1)

	resp, raw = api.do(t, "GET", "/flags", "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	list := decode[[]listedFlag](t, raw)
	require.Len(t, list, 1)
	assert.Len(t, list[0].UsageTimestamps, 1)

	resp, raw = api.do(t, "PUT", "/flags/new_checkout", api.token, map[string]string{"name": "checkout_v2", "description": "moved"})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))
	assert.JSONEq(t, `{"name":"checkout_v2","description":"moved"}`, string(raw))

	resp, _ = api.do(t, "GET", "/flags/new_checkout", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)

	resp, raw = api.do(t, "DELETE", "/flags/checkout_v2", api.token, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"checkout_v2"`, string(raw))

	resp, raw = api.do(t, "DELETE", "/flags/checkout_v2", api.token, nil)
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "flag checkout_v2: not found", decode[errorResponse](t, raw).Detail)

	resp, raw = api.do(t, "GET", "/flags", "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestFlagNameIsPathUnescaped(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.do(t, "POST", "/flags", api.token, flagBody{Name: "team a/beta", Description: ""})
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode)

	resp, raw := api.do(t, "GET", "/flags/"+url.PathEscape("team a/beta"), "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "team a/beta", decode[fullFlag](t, raw).Name)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		UserID:           1,
	}).SignedString(testSecret)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{"POST", "/flags"},
		{"PUT", "/flags/x"},
		{"PUT", "/flags/x/toggle"},
		{"DELETE", "/flags/x"},
		{"PUT", "/users/1"},
		{"DELETE", "/users/1"},
		{"GET", "/me"},
		{"POST", "/snapshots"},
	}
	for _, rt := range routes {
		for name, tok := range map[string]string{"none": "", "garbage": "not.a.jwt", "expired": expired} {
			resp, raw := api.do(t, rt.method, rt.path, tok, map[string]any{"name": "x", "value": true, "description": "", "email": "a@b.c"})
			assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode, "%s %s %s: %s", rt.method, rt.path, name, raw)
			assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		}
	}

	// nothing was mutated by the rejected calls
	resp, raw := api.do(t, "GET", "/flags", "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(raw))

	_, raw = api.do(t, "GET", "/me", expired, nil)
	assert.Equal(t, "token expired", decode[errorResponse](t, raw).Detail)
}

func TestValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name         string
		method, path string
		body         any
	}{
		{"missing value", "POST", "/flags", map[string]any{"name": "a", "description": ""}},
		{"missing description", "POST", "/flags", map[string]any{"name": "a", "value": true}},
		{"empty name", "POST", "/flags", map[string]any{"name": "", "value": true, "description": ""}},
		{"empty body", "POST", "/flags", nil},
		{"rename without name", "PUT", "/flags/a", map[string]any{"description": "x"}},
		{"bad email", "POST", "/users", map[string]any{"name": "n", "email": "nope", "password": "p"}},
		{"bad user id", "PUT", "/users/abc", map[string]any{"name": "n", "email": "a@b.c"}},
		{"login without password", "POST", "/login", map[string]any{"email": "a@b.c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := api.do(t, tt.method, tt.path, api.token, tt.body)
			assert.Equal(t, stdhttp.StatusUnprocessableEntity, resp.StatusCode, string(raw))
		})
	}

	resp, _ := api.do(t, "GET", "/users/abc", "", nil)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUserRoutes(t *testing.T) {
	api := newTestAPI(t)

	resp, raw := api.do(t, "POST", "/users", "", userBody{Name: "bob", Email: "bob@example.com", Password: "pw"})
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode, string(raw))
	assert.NotContains(t, string(raw), "password")
	bob := decode[userBody](t, raw)
	assert.Equal(t, "bob@example.com", bob.Email)
	id := strconv.FormatInt(bob.ID, 10)

	resp, _ = api.do(t, "POST", "/users", "", userBody{Name: "bob2", Email: "bob@example.com", Password: "pw"})
	assert.Equal(t, stdhttp.StatusInternalServerError, resp.StatusCode)

	resp, raw = api.do(t, "GET", "/users", "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]userBody](t, raw), 2)
	assert.NotContains(t, string(raw), "hash")

	resp, raw = api.do(t, "GET", "/users/"+id, "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob", decode[userBody](t, raw).Name)

	resp, raw = api.do(t, "GET", "/users?email=bob@example.com", "", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, bob.ID, decode[userBody](t, raw).ID)

	resp, _ = api.do(t, "GET", "/users/9999", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)

	resp, raw = api.do(t, "PUT", "/users/"+id, api.token, map[string]string{"name": "robert", "email": "bob@example.com", "password": "new"})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "robert", decode[userBody](t, raw).Name)

	resp, raw = api.do(t, "POST", "/login", "", map[string]string{"email": "bob@example.com", "password": "new"})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode, string(raw))
	bobToken := decode[map[string]string](t, raw)["token"]
	require.NotEmpty(t, bobToken)

	resp, raw = api.do(t, "GET", "/me", bobToken, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"user_id":`+id+`,"email":"bob@example.com"}`, string(raw))

	resp, _ = api.do(t, "POST", "/login", "", map[string]string{"email": "bob@example.com", "password": "pw"})
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)

	resp, raw = api.do(t, "DELETE", "/users/"+id, api.token, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "message")

	resp, _ = api.do(t, "DELETE", "/users/"+id, api.token, nil)
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
}

func TestStrictPolicyClosesUserDirectory(t *testing.T) {
	api := newTestAPI(t, withPolicy(StrictPolicy()))

	for _, rt := range []struct{ method, path string }{{"GET", "/users"}, {"GET", "/users/1"}, {"POST", "/users"}} {
		resp, _ := api.do(t, rt.method, rt.path, "", userBody{Name: "n", Email: "n@example.com", Password: "p"})
		assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode, rt.path)
	}

	resp, _ := api.do(t, "GET", "/users", api.token, nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}

type fakeSnapshotter struct {
	snap *services.Snapshot
	err  error
}

func (f fakeSnapshotter) Export(context.Context) (*services.Snapshot, error) { return f.snap, f.err }

func TestSnapshotRoute(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		api := newTestAPI(t)
		resp, _ := api.do(t, "POST", "/snapshots", api.token, nil)
		assert.Equal(t, stdhttp.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("exported", func(t *testing.T) {
		api := newTestAPI(t, withSnapshots(fakeSnapshotter{snap: &services.Snapshot{Key: "snapshots/k.json", URL: "https://s3/k"}}))
		resp, raw := api.do(t, "POST", "/snapshots", api.token, nil)
		require.Equal(t, stdhttp.StatusCreated, resp.StatusCode)
		assert.JSONEq(t, `{"key":"snapshots/k.json","url":"https://s3/k"}`, string(raw))
	})

	t.Run("storage failure is hidden", func(t *testing.T) {
		api := newTestAPI(t, withSnapshots(fakeSnapshotter{err: errors.New("s3: access denied")}))
		resp, raw := api.do(t, "POST", "/snapshots", api.token, nil)
		assert.Equal(t, stdhttp.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, common.ErrorInternal.Error(), decode[errorResponse](t, raw).Detail)
	})
}

func TestRequestIDAndUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.do(t, "GET", "/flags", "", nil)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := stdhttp.NewRequest("GET", api.srv.URL+"/flags", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = api.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	resp, raw := api.do(t, "GET", "/nowhere", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
	assert.True(t, strings.Contains(string(raw), "detail"))
}
