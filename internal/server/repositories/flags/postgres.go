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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, flag *models.Flag) error {
	query :=
		`INSERT INTO flags (name, value, description, usage_log)
		 VALUES ($1, $2, $3, '[]')
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

func (r *PostgresRepository) Get(ctx context.Context, name string) (*models.Flag, error) {
	query :=
		`SELECT name, value, description, usage_log FROM flags
		 WHERE name = $1
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

func (r *PostgresRepository) Exists(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM flags WHERE name = $1)`

	var found bool
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Flag, error) {
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

func (r *PostgresRepository) AppendUsage(ctx context.Context, name string, at time.Time) error {
	query :=
		`UPDATE flags
		 SET usage_log = (usage_log::jsonb || to_jsonb($1::double precision))::text
		 WHERE name = $2
		 `

	res, err := r.db.ExecContext(ctx, query, unixSeconds(at), name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func (r *PostgresRepository) Rename(ctx context.Context, current, newName, description string) error {
	query :=
		`UPDATE flags SET name = $1, description = $2
		 WHERE name = $3
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

func (r *PostgresRepository) Toggle(ctx context.Context, name string) (bool, error) {
	query :=
		`UPDATE flags SET value = NOT value
		 WHERE name = $1
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

func (r *PostgresRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM flags WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
