// Package services contains server-side business logic: the flag store
// operations, user accounts and login, and flag snapshots.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/server/models"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/repomanager"
)

// FlagService implements the flag store operations. Every mutation is a
// single statement or runs inside one transaction.
type FlagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

// NewFlagService constructs a FlagService over db.
func NewFlagService(db *sql.DB, m repomanager.RepositoryManager) *FlagService {
	return &FlagService{
		db:          db,
		repomanager: m,
		now:         time.Now,
	}
}

func flagError(name string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("flag %s: %w", name, common.ErrorNotFound)
	case errors.Is(err, common.ErrorAlreadyExists):
		return fmt.Errorf("flag %s: %w", name, common.ErrorAlreadyExists)
	default:
		return err
	}
}

// Create stores a new flag with an empty usage log.
func (s *FlagService) Create(ctx context.Context, name string, value bool, description string) (*models.Flag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("flag name is empty: %w", common.ErrorValidation)
	}

	f := &models.Flag{Name: name, Value: value, Description: description}
	if err := s.repomanager.Flags(s.db).Create(ctx, f); err != nil {
		return nil, flagError(name, err)
	}
	return f, nil
}

// Check is the externally visible read: it records the access in the usage
// log and returns the flag including that entry.
func (s *FlagService) Check(ctx context.Context, name string) (*models.Flag, error) {
	var f *models.Flag
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Flags(tx)
		if err := repo.AppendUsage(ctx, name, s.now()); err != nil {
			return err
		}
		var err error
		f, err = repo.Get(ctx, name)
		return err
	})
	if err != nil {
		return nil, flagError(name, err)
	}
	return f, nil
}

// List returns every flag with its usage log. Listing records no usage.
func (s *FlagService) List(ctx context.Context) ([]*models.Flag, error) {
	return s.repomanager.Flags(s.db).List(ctx)
}

// Rename moves current to newName and replaces the description. Renaming a
// flag to its own name only updates the description; the value never
// changes.
func (s *FlagService) Rename(ctx context.Context, current, newName, description string) error {
	if strings.TrimSpace(newName) == "" {
		return fmt.Errorf("flag name is empty: %w", common.ErrorValidation)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Flags(tx)

		found, err := repo.Exists(ctx, current)
		if err != nil {
			return err
		}
		if !found {
			return flagError(current, common.ErrorNotFound)
		}

		if newName != current {
			taken, err := repo.Exists(ctx, newName)
			if err != nil {
				return err
			}
			if taken {
				return flagError(newName, common.ErrorAlreadyExists)
			}
		}

		if err := repo.Rename(ctx, current, newName, description); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return flagError(newName, err)
			}
			return flagError(current, err)
		}
		return nil
	})
}

// Toggle flips the flag and returns the value after the flip.
func (s *FlagService) Toggle(ctx context.Context, name string) (bool, error) {
	v, err := s.repomanager.Flags(s.db).Toggle(ctx, name)
	if err != nil {
		return false, flagError(name, err)
	}
	return v, nil
}

// Remove deletes the flag together with its usage log.
func (s *FlagService) Remove(ctx context.Context, name string) error {
	if err := s.repomanager.Flags(s.db).Delete(ctx, name); err != nil {
		return flagError(name, err)
	}
	return nil
}
