// Package entries provides the PostgreSQL-backed repository of Remote API
// entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/dbx"
	"github.com/dmitrijs2005/syncbox/internal/server/models"
)

const returningColumns = `id, title, notes, completed, created_at, updated_at, inserted_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.Entry, error) {
	var e models.Entry
	if err := row.Scan(&e.ID, &e.Title, &e.Notes, &e.Completed, &e.CreatedAt, &e.UpdatedAt, &e.InsertedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Create relies on the unique client_key: a conflicting insert turns into a
// no-op update so RETURNING yields the stored row.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO entries (title, notes, completed, created_at, updated_at, client_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (client_key)
		DO UPDATE SET client_key = EXCLUDED.client_key
		RETURNING ` + returningColumns
	return r.getOne(ctx, query, e.Title, e.Notes, e.Completed, e.CreatedAt, e.UpdatedAt, e.ClientKey)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	query := `SELECT ` + returningColumns + ` FROM entries WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByClientKey(ctx context.Context, key string) (*models.Entry, error) {
	query := `SELECT ` + returningColumns + ` FROM entries WHERE client_key = $1`
	return r.getOne(ctx, query, key)
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, p models.Patch) (*models.Entry, error) {
	query := `
		UPDATE entries SET
			updated_at = $1,
			title = COALESCE($2, title),
			notes = COALESCE($3, notes),
			completed = COALESCE($4, completed)
		WHERE id = $5
		RETURNING ` + returningColumns
	return r.getOne(ctx, query, p.UpdatedAt, p.Title, p.Notes, p.Completed, id)
}

// Delete reports whether a row was removed.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]models.Entry, error) {
	query := `SELECT ` + returningColumns + ` FROM entries ORDER BY updated_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
