package flags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, flag *models.Flag) error {
	query :=
		`INSERT INTO flags (name, value, description, usage_log)
		 VALUES (?, ?, ?, '[]')
		 `

	_, err := r.db.ExecContext(ctx, query, flag.Name, flag.Value, flag.Description)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	flag.UsageLog = models.UsageLog{}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, name string) (*models.Flag, error) {
	query :=
		`SELECT name, value, description, usage_log FROM flags
		 WHERE name = ?
		 `

	f, err := scanFlag(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM flags WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Flag, error) {
	query :=
		`SELECT name, value, description, usage_log FROM flags
		 ORDER BY name
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Flag, 0)
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) AppendUsage(ctx context.Context, name string, at time.Time) error {
	query :=
		`UPDATE flags
		 SET usage_log = json_insert(usage_log, '$[#]', ?)
		 WHERE name = ?
		 `

	res, err := r.db.ExecContext(ctx, query, unixSeconds(at), name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func (r *SQLiteRepository) Rename(ctx context.Context, current, newName, description string) error {
	query :=
		`UPDATE flags SET name = ?, description = ?
		 WHERE name = ?
		 `

	res, err := r.db.ExecContext(ctx, query, newName, description, current)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func (r *SQLiteRepository) Toggle(ctx context.Context, name string) (bool, error) {
	query :=
		`UPDATE flags SET value = NOT value
		 WHERE name = ?
		 RETURNING value
		 `

	var value bool
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return value, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM flags WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}
