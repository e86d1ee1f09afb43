package http

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/dmitrijs2005/openflag/internal/server/auth"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
)

// Policy maps each operation to whether it needs a valid bearer token.
// Operations missing from the table require one.
type Policy map[Operation]bool

// DefaultPolicy gates every flag and user mutation except registration.
// Reading flags, listing and reading users, registering and logging in stay
// open to anonymous callers.
func DefaultPolicy() Policy {
	return Policy{
		OpListFlags:  false,
		OpCheckFlag:  false,
		OpCreateFlag: true,
		OpRenameFlag: true,
		OpToggleFlag: true,
		OpRemoveFlag: true,
		OpListUsers:  false,
		OpGetUser:    false,
		OpCreateUser: false,
		OpUpdateUser: true,
		OpDeleteUser: true,
		OpLogin:      false,
		OpMe:         true,
		OpSnapshot:   true,
	}
}

// StrictPolicy is DefaultPolicy with the user directory and registration
// closed to anonymous callers as well.
func StrictPolicy() Policy {
	p := DefaultPolicy()
	p[OpListUsers] = true
	p[OpGetUser] = true
	p[OpCreateUser] = true
	return p
}

// Requires reports whether op needs a token.
func (p Policy) Requires(op Operation) bool {
	required, ok := p[op]
	return !ok || required
}

type claimsKey struct{}

// ClaimsFromContext returns the claims placed by the gate.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// Gate rejects calls to a protected op unless the context carries a bearer
// token (see kitjwt.HTTPToContext) that v accepts. The wrapped endpoint then
// sees the token's claims through ClaimsFromContext.
func Gate(v TokenValidator, p Policy, op Operation) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		if !p.Requires(op) {
			return next
		}
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			token, ok := ctx.Value(kitjwt.JWTContextKey).(string)
			if !ok || token == "" {
				return nil, fmt.Errorf("missing bearer token: %w", common.ErrorUnauthorized)
			}

			claims, err := v.Validate(token)
			if err != nil {
				return nil, err
			}

			return next(context.WithValue(ctx, claimsKey{}, claims), request)
		}
	}
}
