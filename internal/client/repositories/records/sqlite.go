package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/dbx"
)

const selectColumns = `id, remote_id, title, notes, completed, is_synced, created_at, updated_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.Record) (int64, error) {
	query := `INSERT INTO records (remote_id, title, notes, completed, is_synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		nullableID(rec.RemoteID), rec.Title, rec.Notes, rec.Completed, rec.IsSynced, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read record id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec *models.Record) error {
	query := `UPDATE records
		SET remote_id = ?, title = ?, notes = ?, completed = ?, is_synced = ?, created_at = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		nullableID(rec.RemoteID), rec.Title, rec.Notes, rec.Completed, rec.IsSynced, rec.CreatedAt, rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %d: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM records ORDER BY created_at DESC, id DESC`)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM records WHERE is_synced = 0 ORDER BY created_at, id`)
}

func (r *SQLiteRepository) ListUnsyncedWithoutOutbox(ctx context.Context) ([]models.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM records r
		WHERE r.is_synced = 0
		  AND NOT EXISTS (SELECT 1 FROM outbox o WHERE o.task_id = r.id)
		ORDER BY r.created_at, r.id`)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, remoteID, updatedAt int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE records
		SET remote_id = ?, is_synced = CASE WHEN updated_at = ? THEN 1 ELSE is_synced END
		WHERE id = ?`, remoteID, updatedAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark record synced: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	var synced bool
	if err := r.db.QueryRowContext(ctx, `SELECT is_synced FROM records WHERE id = ?`, id).Scan(&synced); err != nil {
		return false, fmt.Errorf("failed to read sync flag: %w", err)
	}
	return synced, nil
}

func (r *SQLiteRepository) CountUnsynced(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE is_synced = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unsynced records: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	result := []models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.Record, error) {
	var (
		rec      models.Record
		remoteID sql.NullInt64
	)
	if err := s.Scan(&rec.ID, &remoteID, &rec.Title, &rec.Notes, &rec.Completed, &rec.IsSynced, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if remoteID.Valid {
		v := remoteID.Int64
		rec.RemoteID = &v
	}
	rec = models.NormalizeRecord(rec)
	return &rec, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
