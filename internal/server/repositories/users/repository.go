// Package users persists user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/openflag/internal/server/models"
)

// Repository is the storage contract for users. Emails are unique; a
// collision maps to common.ErrorAlreadyExists and a missing row to
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// Update overwrites name and email. An empty PasswordHash keeps the
	// stored hash.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
