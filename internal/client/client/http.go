package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/openflag/internal/client/models"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	kithttp "github.com/go-kit/kit/transport/http"
)

type HTTPClient struct {
	base *url.URL
	http *http.Client

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient talks to the API rooted at serverURL. A zero timeout means
// no client-side limit.
func NewHTTPClient(serverURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", serverURL)
	}
	return &HTTPClient{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// SetToken replaces the session token; an empty token logs out.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Logout() { c.SetToken("") }

func (c *HTTPClient) LoggedIn() bool { return c.Token() != "" }

// endpointURL appends path segments to the base URL, escaping each one so
// that a "/" inside a flag name stays part of the name.
func (c *HTTPClient) endpointURL(segments ...string) *url.URL {
	u := *c.base
	raw := c.base.EscapedPath()
	for _, s := range segments {
		u.Path += "/" + s
		raw += "/" + url.PathEscape(s)
	}
	u.RawPath = raw
	return &u
}

type errorBody struct {
	Detail string `json:"detail"`
}

func decodeError(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	e := &APIError{StatusCode: resp.StatusCode, Detail: body.Detail}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		e.kind = ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		e.kind = ErrUnauthorized
	case resp.StatusCode == http.StatusUnprocessableEntity:
		e.kind = ErrInvalidInput
	case resp.StatusCode == http.StatusServiceUnavailable:
		e.kind = ErrUnavailable
	case resp.StatusCode == http.StatusInternalServerError && strings.HasSuffix(body.Detail, "already exists"):
		// the server reports duplicates as 500
		e.kind = ErrAlreadyExists
	}
	return e
}

// decodeInto returns a decoder that fills out from a 2xx JSON body; out may
// be nil to discard the body.
func decodeInto(out interface{}) kithttp.DecodeResponseFunc {
	return func(_ context.Context, resp *http.Response) (interface{}, error) {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, decodeError(resp)
		}
		if out == nil {
			return nil, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return out, nil
	}
}

func encodeNoBody(context.Context, *http.Request, interface{}) error { return nil }

// call performs one request through a go-kit client endpoint.
func (c *HTTPClient) call(ctx context.Context, method string, u *url.URL, req, out interface{}) error {
	enc := encodeNoBody
	if req != nil {
		enc = kithttp.EncodeJSONRequest
	}

	ep := kithttp.NewClient(method, u, enc, decodeInto(out),
		kithttp.SetClient(c.http),
		kithttp.ClientBefore(kitjwt.ContextToHTTP()),
	).Endpoint()

	if token := c.Token(); token != "" {
		ctx = context.WithValue(ctx, kitjwt.JWTContextKey, token)
	}

	_, err := ep(ctx, req)
	var netErr net.Error
	var urlErr *url.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		return fmt.Errorf("%s %s: %w: %v", method, u.Path, ErrUnavailable, err)
	default:
		return err
	}
}

type flagDTO struct {
	Name            string    `json:"name"`
	Value           bool      `json:"value"`
	Description     string    `json:"description"`
	UsageLog        []float64 `json:"usage_log"`
	UsageTimestamps []float64 `json:"usage_timestamps"`
}

func (d flagDTO) model() models.Flag {
	secs := d.UsageLog
	if secs == nil {
		secs = d.UsageTimestamps
	}
	return models.Flag{
		Name:        d.Name,
		Value:       d.Value,
		Description: d.Description,
		UsageLog:    models.TimesFromSeconds(secs),
	}
}

// List returns every flag without recording a check.
func (c *HTTPClient) List(ctx context.Context) ([]models.Flag, error) {
	var dtos []flagDTO
	if err := c.call(ctx, http.MethodGet, c.endpointURL("flags"), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Flag, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.model())
	}
	return out, nil
}

// Check reads a flag; the server records the read in its usage log.
func (c *HTTPClient) Check(ctx context.Context, name string) (*models.Flag, error) {
	var d flagDTO
	if err := c.call(ctx, http.MethodGet, c.endpointURL("flags", name), nil, &d); err != nil {
		return nil, err
	}
	f := d.model()
	return &f, nil
}

func (c *HTTPClient) Create(ctx context.Context, name string, value bool, description string) error {
	body := map[string]interface{}{"name": name, "value": value, "description": description}
	return c.call(ctx, http.MethodPost, c.endpointURL("flags"), body, nil)
}

// Update renames name to newName and replaces its description.
func (c *HTTPClient) Update(ctx context.Context, name, newName, description string) error {
	body := map[string]string{"name": newName, "description": description}
	return c.call(ctx, http.MethodPut, c.endpointURL("flags", name), body, nil)
}

// Toggle flips the flag and returns its new value.
func (c *HTTPClient) Toggle(ctx context.Context, name string) (bool, error) {
	var resp struct {
		NewValue bool `json:"new_value"`
	}
	if err := c.call(ctx, http.MethodPut, c.endpointURL("flags", name, "toggle"), nil, &resp); err != nil {
		return false, err
	}
	return resp.NewValue, nil
}

func (c *HTTPClient) Remove(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodDelete, c.endpointURL("flags", name), nil, nil)
}

// Login exchanges credentials for a session token kept by the client.
func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, c.endpointURL("login"), body, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return fmt.Errorf("login: empty token in response")
	}
	c.SetToken(resp.Token)
	return nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.Identity, error) {
	var resp struct {
		UserID int64  `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := c.call(ctx, http.MethodGet, c.endpointURL("me"), nil, &resp); err != nil {
		return nil, err
	}
	return &models.Identity{UserID: resp.UserID, Email: resp.Email}, nil
}

type userDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var dtos []userDTO
	if err := c.call(ctx, http.MethodGet, c.endpointURL("users"), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, models.User(d))
	}
	return out, nil
}

// GetUser looks a user up by id.
func (c *HTTPClient) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var d userDTO
	if err := c.call(ctx, http.MethodGet, c.endpointURL("users", strconv.FormatInt(id, 10)), nil, &d); err != nil {
		return nil, err
	}
	u := models.User(d)
	return &u, nil
}

func (c *HTTPClient) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	var d userDTO
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, c.endpointURL("users"), body, &d); err != nil {
		return nil, err
	}
	u := models.User(d)
	return &u, nil
}

// Snapshot asks the server to export the flag set to object storage.
func (c *HTTPClient) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var resp struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	if err := c.call(ctx, http.MethodPost, c.endpointURL("snapshots"), nil, &resp); err != nil {
		return nil, err
	}
	return &models.Snapshot{Key: resp.Key, URL: resp.URL}, nil
}
