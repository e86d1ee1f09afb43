// Package flags persists feature flags and their usage logs.
package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/openflag/internal/server/models"
)

// Repository is the storage contract for flags. Every method maps a missing
// flag to common.ErrorNotFound and a name collision to
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, flag *models.Flag) error
	Get(ctx context.Context, name string) (*models.Flag, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]*models.Flag, error)
	// AppendUsage adds at to the flag's usage log in a single statement.
	AppendUsage(ctx context.Context, name string, at time.Time) error
	Rename(ctx context.Context, current, newName, description string) error
	// Toggle flips the value in a single statement and returns the new value.
	Toggle(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlag(row rowScanner) (*models.Flag, error) {
	var (
		f   models.Flag
		raw string
	)
	if err := row.Scan(&f.Name, &f.Value, &f.Description, &raw); err != nil {
		return nil, err
	}

	var secs []float64
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &secs); err != nil {
			return nil, fmt.Errorf("decode usage log of %q: %w", f.Name, err)
		}
	}
	f.UsageLog = models.UsageLogFromSeconds(secs)
	return &f, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}
