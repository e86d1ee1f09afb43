package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/dmitrijs2005/openflag/internal/cryptox"
	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/server/auth"
	"github.com/dmitrijs2005/openflag/internal/server/models"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/repomanager"
)

// UserService owns user accounts: registration, lookup, updates, login and
// the bootstrap administrator. Password hashes never leave it.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	argon       cryptox.Params
	now         func() time.Time

	// dummyHash is verified against when the email is unknown so that a
	// failed login costs the same either way.
	dummyHash string
}

// NewUserService constructs a UserService hashing with the given argon2id
// parameters.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, argon cryptox.Params) (*UserService, error) {
	dummy, err := cryptox.HashPassword(string(common.GenerateRandByteArray(16)), argon)
	if err != nil {
		return nil, fmt.Errorf("prepare password hashing: %w", err)
	}
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		argon:       argon,
		now:         time.Now,
		dummyHash:   dummy,
	}, nil
}

func userError(what string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("user %s: %w", what, common.ErrorNotFound)
	case errors.Is(err, common.ErrorAlreadyExists):
		return fmt.Errorf("user %s: %w", what, common.ErrorAlreadyExists)
	default:
		return err
	}
}

func withoutHash(u *models.User) *models.User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// CreateUser registers a user. A taken email yields common.ErrorAlreadyExists
// and leaves the existing account untouched.
func (s *UserService) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", common.ErrorValidation)
	}

	hash, err := cryptox.HashPassword(password, s.argon)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash, CreatedAt: s.now().UTC()}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, userError(email, err)
	}
	return withoutHash(u), nil
}

// GetUser looks a user up by exactly one of id or email.
func (s *UserService) GetUser(ctx context.Context, id *int64, email string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	var (
		u   *models.User
		err error
	)
	switch {
	case id != nil && email != "":
		return nil, fmt.Errorf("give either id or email, not both: %w", common.ErrorValidation)
	case id != nil:
		u, err = repo.GetByID(ctx, *id)
		if err != nil {
			return nil, userError(fmt.Sprint(*id), err)
		}
	case email != "":
		u, err = repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, userError(email, err)
		}
	default:
		return nil, fmt.Errorf("id or email is required: %w", common.ErrorValidation)
	}
	return withoutHash(u), nil
}

// ListUsers returns all users without their password hashes.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	for i, u := range list {
		list[i] = withoutHash(u)
	}
	return list, nil
}

// UpdateUser overwrites name and email. A nil password keeps the stored
// hash; otherwise the new password is hashed.
func (s *UserService) UpdateUser(ctx context.Context, id int64, name, email string, password *string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("email is required: %w", common.ErrorValidation)
	}

	user := &models.User{ID: id, Name: name, Email: email}
	if password != nil {
		if *password == "" {
			return nil, fmt.Errorf("password is empty: %w", common.ErrorValidation)
		}
		hash, err := cryptox.HashPassword(*password, s.argon)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := repo.Update(ctx, user); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return userError(email, err)
			}
			return userError(fmt.Sprint(id), err)
		}
		var err error
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return withoutHash(updated), nil
}

// DeleteUser removes the account.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return userError(fmt.Sprint(id), err)
	}
	return nil
}

// Login verifies the credentials and returns a signed session token. An
// unknown email and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(s.dummyHash, password)
			return "", fmt.Errorf("invalid email or password: %w", common.ErrorUnauthorized)
		}
		return "", err
	}

	ok, err := cryptox.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("invalid email or password: %w", common.ErrorUnauthorized)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// EnsureAdmin creates the bootstrap account when no user with email exists.
// An empty password is replaced by a random one, returned as generated so
// the caller can report it once. It returns created=false when the account
// was already present.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (created bool, generated string, err error) {
	_, err = s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err == nil {
		return false, "", nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, "", err
	}

	if password == "" {
		generated, err = common.MakeRandHexString(12)
		if err != nil {
			return false, "", err
		}
		password = generated
	}

	if _, err := s.CreateUser(ctx, name, email, password); err != nil {
		// Another instance may have created it between the lookup and here.
		if errors.Is(err, common.ErrorAlreadyExists) {
			return false, "", nil
		}
		return false, "", err
	}
	return true, generated, nil
}
