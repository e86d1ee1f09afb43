package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/dmitrijs2005/openflag/internal/logging"
	"github.com/dmitrijs2005/openflag/internal/server/models"
	"github.com/go-kit/kit/endpoint"
)

// Endpoints collects one go-kit endpoint per operation.
type Endpoints struct {
	ListFlags  endpoint.Endpoint
	CreateFlag endpoint.Endpoint
	RenameFlag endpoint.Endpoint
	ToggleFlag endpoint.Endpoint
	CheckFlag  endpoint.Endpoint
	RemoveFlag endpoint.Endpoint
	ListUsers  endpoint.Endpoint
	CreateUser endpoint.Endpoint
	GetUser    endpoint.Endpoint
	FindUser   endpoint.Endpoint
	UpdateUser endpoint.Endpoint
	DeleteUser endpoint.Endpoint
	Login      endpoint.Endpoint
	Me         endpoint.Endpoint
	Snapshot   endpoint.Endpoint
}

// Deps are the collaborators of the endpoints. Snapshots and Metrics may be
// nil.
type Deps struct {
	Flags     FlagService
	Users     UserService
	Snapshots Snapshotter
	Tokens    TokenValidator
	Policy    Policy
	Logger    logging.Logger
	Metrics   *Metrics
}

// MakeEndpoints builds every endpoint wrapped, innermost first, in the
// authorization gate, instrumentation and logging.
func MakeEndpoints(d Deps) Endpoints {
	if d.Policy == nil {
		d.Policy = DefaultPolicy()
	}
	wrap := func(op Operation, e endpoint.Endpoint) endpoint.Endpoint {
		e = Gate(d.Tokens, d.Policy, op)(e)
		if d.Metrics != nil {
			e = Instrumenting(d.Metrics, op)(e)
		}
		return Logging(d.Logger, op)(e)
	}

	return Endpoints{
		ListFlags:  wrap(OpListFlags, makeListFlagsEndpoint(d.Flags)),
		CreateFlag: wrap(OpCreateFlag, makeCreateFlagEndpoint(d.Flags)),
		RenameFlag: wrap(OpRenameFlag, makeRenameFlagEndpoint(d.Flags)),
		ToggleFlag: wrap(OpToggleFlag, makeToggleFlagEndpoint(d.Flags)),
		CheckFlag:  wrap(OpCheckFlag, makeCheckFlagEndpoint(d.Flags)),
		RemoveFlag: wrap(OpRemoveFlag, makeRemoveFlagEndpoint(d.Flags)),
		ListUsers:  wrap(OpListUsers, makeListUsersEndpoint(d.Users)),
		CreateUser: wrap(OpCreateUser, makeCreateUserEndpoint(d.Users)),
		GetUser:    wrap(OpGetUser, makeGetUserEndpoint(d.Users)),
		FindUser:   wrap(OpGetUser, makeGetUserEndpoint(d.Users)),
		UpdateUser: wrap(OpUpdateUser, makeUpdateUserEndpoint(d.Users)),
		DeleteUser: wrap(OpDeleteUser, makeDeleteUserEndpoint(d.Users)),
		Login:      wrap(OpLogin, makeLoginEndpoint(d.Users)),
		Me:         wrap(OpMe, makeMeEndpoint()),
		Snapshot:   wrap(OpSnapshot, makeSnapshotEndpoint(d.Snapshots)),
	}
}

// Flags

type flagSummary struct {
	Name            string    `json:"name"`
	Value           bool      `json:"value"`
	Description     string    `json:"description"`
	UsageTimestamps []float64 `json:"usage_timestamps"`
}

type listFlagsResponse []flagSummary

func makeListFlagsEndpoint(s FlagService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		flags, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		resp := make(listFlagsResponse, 0, len(flags))
		for _, f := range flags {
			resp = append(resp, flagSummary{
				Name:            f.Name,
				Value:           f.Value,
				Description:     f.Description,
				UsageTimestamps: f.UsageLog.Seconds(),
			})
		}
		return resp, nil
	}
}

type createFlagRequest struct {
	Name        string  `json:"name" validate:"required"`
	Value       *bool   `json:"value" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

type createFlagResponse struct {
	Name        string `json:"name"`
	Value       bool   `json:"value"`
	Description string `json:"description"`
}

func (createFlagResponse) StatusCode() int { return stdhttp.StatusCreated }

func makeCreateFlagEndpoint(s FlagService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(createFlagRequest)
		f, err := s.Create(ctx, req.Name, *req.Value, *req.Description)
		if err != nil {
			return nil, err
		}
		return createFlagResponse{Name: f.Name, Value: f.Value, Description: f.Description}, nil
	}
}

type renameFlagRequest struct {
	Current     string  `json:"-"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description" validate:"required"`
}

type renameFlagResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func makeRenameFlagEndpoint(s FlagService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(renameFlagRequest)
		if err := s.Rename(ctx, req.Current, req.Name, *req.Description); err != nil {
			return nil, err
		}
		return renameFlagResponse{Name: req.Name, Description: *req.Description}, nil
	}
}

type flagNameRequest struct {
	Name string
}

type toggleFlagResponse struct {
	Message  string `json:"message"`
	NewValue bool   `json:"new_value"`
}

func makeToggleFlagEndpoint(s FlagService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(flagNameRequest)
		v, err := s.Toggle(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return toggleFlagResponse{
			Message:  fmt.Sprintf("Flag %s toggled successfully", req.Name),
			NewValue: v,
		}, nil
	}
}

type checkFlagResponse struct {
	Name        string    `json:"name"`
	Value       bool      `json:"value"`
	Description string    `json:"description"`
	UsageLog    []float64 `json:"usage_log"`
}

func makeCheckFlagEndpoint(s FlagService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(flagNameRequest)
		f, err := s.Check(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return checkFlagResponse{
			Name:        f.Name,
			Value:       f.Value,
			Description: f.Description,
			UsageLog:    f.UsageLog.Seconds(),
		}, nil
	}
}

// removeFlagResponse is encoded as a bare JSON string.
type removeFlagResponse string

func makeRemoveFlagEndpoint(s FlagService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(flagNameRequest)
		if err := s.Remove(ctx, req.Name); err != nil {
			return nil, err
		}
		return removeFlagResponse(req.Name), nil
	}
}

// Users

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type createdUserResponse struct {
	userResponse
}

func (createdUserResponse) StatusCode() int { return stdhttp.StatusCreated }

func makeListUsersEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		users, err := s.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]userResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserResponse(u))
		}
		return resp, nil
	}
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func makeCreateUserEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(createUserRequest)
		u, err := s.CreateUser(ctx, req.Name, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		return createdUserResponse{toUserResponse(u)}, nil
	}
}

// getUserRequest carries exactly one of ID or Email.
type getUserRequest struct {
	ID    *int64
	Email string
}

func makeGetUserEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(getUserRequest)
		u, err := s.GetUser(ctx, req.ID, req.Email)
		if err != nil {
			return nil, err
		}
		return toUserResponse(u), nil
	}
}

type updateUserRequest struct {
	ID       int64   `json:"-"`
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=1"`
}

func makeUpdateUserEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(updateUserRequest)
		u, err := s.UpdateUser(ctx, req.ID, req.Name, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		return toUserResponse(u), nil
	}
}

type userIDRequest struct {
	ID int64
}

type messageResponse struct {
	Message string `json:"message"`
}

func makeDeleteUserEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(userIDRequest)
		if err := s.DeleteUser(ctx, req.ID); err != nil {
			return nil, err
		}
		return messageResponse{Message: fmt.Sprintf("User %d deleted successfully", req.ID)}, nil
	}
}

// Auth

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

func makeLoginEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(loginRequest)
		token, err := s.Login(ctx, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		return loginResponse{Token: token, TokenType: "bearer"}, nil
	}
}

type meResponse struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func makeMeEndpoint() endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		claims, ok := ClaimsFromContext(ctx)
		if !ok {
			return nil, fmt.Errorf("missing bearer token: %w", common.ErrorUnauthorized)
		}
		return meResponse{UserID: claims.UserID, Email: claims.Email}, nil
	}
}

// Snapshots

type snapshotResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (snapshotResponse) StatusCode() int { return stdhttp.StatusCreated }

func makeSnapshotEndpoint(s Snapshotter) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		if s == nil {
			return nil, fmt.Errorf("snapshots are not configured: %w", common.ErrorUnavailable)
		}
		snap, err := s.Export(ctx)
		if err != nil {
			return nil, err
		}
		return snapshotResponse{Key: snap.Key, URL: snap.URL}, nil
	}
}
