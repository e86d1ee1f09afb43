// Package auth issues and validates the signed session tokens handed out by
// login.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultValidity is the token lifetime used when none is configured.
const DefaultValidity = 24 * time.Hour

// Claims binds a token to one user. Subject repeats the id as a string for
// generic JWT consumers.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
}

// TokenService signs tokens with a process-wide HS256 secret fixed at
// construction.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewTokenService copies secret; a non-positive validity selects
// DefaultValidity.
func NewTokenService(secret []byte, validity time.Duration) *TokenService {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &TokenService{
		secret:   append([]byte(nil), secret...),
		validity: validity,
		now:      time.Now,
	}
}

// Validity returns the configured token lifetime.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Issue returns a signed token for the given user that expires after the
// configured validity.
func (s *TokenService) Issue(userID int64, email string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		UserID: userID,
		Email:  email,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Validate checks the signature and then the expiry. It returns
// common.ErrTokenExpired for a well-signed token past its expiry and
// common.ErrInvalidToken for everything else.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
