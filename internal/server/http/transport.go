package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/dmitrijs2005/openflag/internal/logging"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = common.RequestIDHeaderName

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewHandler routes the API onto the given endpoints. metrics, when not nil,
// is mounted at /metrics.
func NewHandler(e Endpoints, l logging.Logger, metrics stdhttp.Handler) stdhttp.Handler {
	r := mux.NewRouter().UseEncodedPath()
	r.Use(requestID)
	r.NotFoundHandler = stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		encodeError(r.Context(), fmt.Errorf("route %s: %w", r.URL.Path, common.ErrorNotFound), w)
	})
	r.MethodNotAllowedHandler = stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(stdhttp.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(errorResponse{Detail: "method not allowed"})
	})

	options := []kithttp.ServerOption{
		kithttp.ServerBefore(kitjwt.HTTPToContext()),
		kithttp.ServerErrorEncoder(encodeError),
		kithttp.ServerErrorHandler(errorHandler{l}),
	}
	handle := func(method, path string, h stdhttp.Handler) {
		r.Methods(method).Path(path).Handler(h)
	}
	server := func(ep endpoint.Endpoint, dec kithttp.DecodeRequestFunc) *kithttp.Server {
		return kithttp.NewServer(ep, dec, kithttp.EncodeJSONResponse, options...)
	}

	handle("GET", "/flags", server(e.ListFlags, decodeNoRequest))
	handle("POST", "/flags", server(e.CreateFlag, decodeCreateFlagRequest))
	handle("PUT", "/flags/{name}", server(e.RenameFlag, decodeRenameFlagRequest))
	handle("PUT", "/flags/{name}/toggle", server(e.ToggleFlag, decodeFlagNameRequest))
	handle("GET", "/flags/{name}", server(e.CheckFlag, decodeFlagNameRequest))
	handle("DELETE", "/flags/{name}", server(e.RemoveFlag, decodeFlagNameRequest))

	r.Methods("GET").Path("/users").Queries("email", "{email}").
		Handler(server(e.FindUser, decodeFindUserRequest))
	handle("GET", "/users", server(e.ListUsers, decodeNoRequest))
	handle("POST", "/users", server(e.CreateUser, decodeCreateUserRequest))
	handle("GET", "/users/{id}", server(e.GetUser, decodeGetUserRequest))
	handle("PUT", "/users/{id}", server(e.UpdateUser, decodeUpdateUserRequest))
	handle("DELETE", "/users/{id}", server(e.DeleteUser, decodeUserIDRequest))

	handle("POST", "/login", server(e.Login, decodeLoginRequest))
	handle("GET", "/me", server(e.Me, decodeNoRequest))
	handle("POST", "/snapshots", server(e.Snapshot, decodeNoRequest))

	if metrics != nil {
		r.Methods("GET").Path("/metrics").Handler(metrics)
	}
	return r
}

func requestID(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// errorHandler reports transport-level failures to the service logger.
type errorHandler struct {
	l logging.Logger
}

var _ transport.ErrorHandler = errorHandler{}

func (h errorHandler) Handle(ctx context.Context, err error) {
	if codeFrom(err) >= stdhttp.StatusInternalServerError && !errors.Is(err, common.ErrorAlreadyExists) {
		h.l.Error(ctx, "transport error", "error", err)
	}
}

func decodeNoRequest(_ context.Context, _ *stdhttp.Request) (interface{}, error) {
	return struct{}{}, nil
}

// decodeBody decodes the JSON body into v and validates it.
func decodeBody(r *stdhttp.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body: %w", common.ErrorValidation)
		}
		return fmt.Errorf("malformed request body: %s: %w", err.Error(), common.ErrorValidation)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), common.ErrorValidation)
	}
	return nil
}

func pathVar(r *stdhttp.Request, key string) (string, error) {
	raw, ok := mux.Vars(r)[key]
	if !ok {
		return "", fmt.Errorf("missing %s: %w", key, common.ErrorValidation)
	}
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("bad %s %q: %w", key, raw, common.ErrorValidation)
	}
	return v, nil
}

func pathID(r *stdhttp.Request) (int64, error) {
	raw, err := pathVar(r, "id")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad id %q: %w", raw, common.ErrorValidation)
	}
	return id, nil
}

func decodeCreateFlagRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	var req createFlagRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeRenameFlagRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	current, err := pathVar(r, "name")
	if err != nil {
		return nil, err
	}
	var req renameFlagRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	req.Current = current
	return req, nil
}

func decodeFlagNameRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	name, err := pathVar(r, "name")
	if err != nil {
		return nil, err
	}
	return flagNameRequest{Name: name}, nil
}

func decodeCreateUserRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeGetUserRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return getUserRequest{ID: &id}, nil
}

func decodeFindUserRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	email := r.URL.Query().Get("email")
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("bad email %q: %w", email, common.ErrorValidation)
	}
	return getUserRequest{Email: email}, nil
}

func decodeUpdateUserRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	req.ID = id
	return req, nil
}

func decodeUserIDRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return userIDRequest{ID: id}, nil
}

func decodeLoginRequest(_ context.Context, r *stdhttp.Request) (interface{}, error) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return req, nil
}
