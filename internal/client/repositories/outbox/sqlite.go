package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/dbx"
)

const selectColumns = `id, op, task_id, payload, created_at, idempotency_key, remote_id, attempts, last_error, quarantined`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, item *models.OutboxItem) (int64, error) {
	var payload any
	if item.Payload != nil {
		b, err := json.Marshal(item.Payload)
		if err != nil {
			return 0, fmt.Errorf("failed to encode outbox payload: %w", err)
		}
		payload = string(b)
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO outbox
		(op, task_id, payload, created_at, idempotency_key, remote_id, attempts, last_error, quarantined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(item.Op), nullable(item.TaskID), payload, item.CreatedAt, item.IdempotencyKey,
		nullable(item.RemoteID), item.Attempts, item.LastError, item.Quarantined)
	if err != nil {
		return 0, fmt.Errorf("failed to insert outbox item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ReadBatch(ctx context.Context, limit int) ([]models.OutboxItem, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM outbox
		WHERE quarantined = 0
		ORDER BY created_at, id
		LIMIT ?`, limit)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete outbox item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteForTask(ctx context.Context, taskID int64, ops ...models.Op) (int64, error) {
	query := `DELETE FROM outbox WHERE task_id = ?`
	args := []any{taskID}
	if len(ops) > 0 {
		query += ` AND op IN (` + placeholders(len(ops)) + `)`
		for _, op := range ops {
			args = append(args, string(op))
		}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete outbox items of record %d: %w", taskID, err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) ExistsForTask(ctx context.Context, taskID int64, ops ...models.Op) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM outbox WHERE task_id = ?`
	args := []any{taskID}
	if len(ops) > 0 {
		query += ` AND op IN (` + placeholders(len(ops)) + `)`
		for _, op := range ops {
			args = append(args, string(op))
		}
	}
	query += `)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to look up outbox items of record %d: %w", taskID, err)
	}
	return exists, nil
}

func (r *SQLiteRepository) RecordFailure(ctx context.Context, id int64, msg string, quarantine bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox
		SET attempts = attempts + 1, last_error = ?, quarantined = ?
		WHERE id = ?`, msg, quarantine, id)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListQuarantined(ctx context.Context) ([]models.OutboxItem, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM outbox
		WHERE quarantined = 1
		ORDER BY created_at, id`)
}

func (r *SQLiteRepository) Requeue(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE outbox SET quarantined = 0, attempts = 0 WHERE quarantined = 1`
	args := make([]any, 0, len(ids))
	if len(ids) > 0 {
		query += ` AND id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue outbox items: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) Counts(ctx context.Context) (int, int, error) {
	var live, dead sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT
		SUM(CASE WHEN quarantined = 0 THEN 1 ELSE 0 END),
		SUM(CASE WHEN quarantined = 1 THEN 1 ELSE 0 END)
		FROM outbox`).Scan(&live, &dead)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count outbox items: %w", err)
	}
	return int(live.Int64), int(dead.Int64), nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.OutboxItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select outbox items: %w", err)
	}
	defer rows.Close()

	result := []models.OutboxItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox item: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox items: %w", err)
	}
	return result, nil
}

// scanItem decodes one row. A payload that no longer decodes is left nil so
// the engine can reject that single item instead of failing the batch.
func scanItem(rows *sql.Rows) (models.OutboxItem, error) {
	var (
		item     models.OutboxItem
		op       string
		taskID   sql.NullInt64
		payload  sql.NullString
		remoteID sql.NullInt64
	)
	err := rows.Scan(&item.ID, &op, &taskID, &payload, &item.CreatedAt, &item.IdempotencyKey,
		&remoteID, &item.Attempts, &item.LastError, &item.Quarantined)
	if err != nil {
		return item, err
	}

	item.Op = models.Op(op)
	if taskID.Valid {
		v := taskID.Int64
		item.TaskID = &v
	}
	if remoteID.Valid {
		v := remoteID.Int64
		item.RemoteID = &v
	}
	if payload.Valid && payload.String != "" {
		if p, err := models.NormalizePayload([]byte(payload.String)); err == nil {
			item.Payload = &p
		}
	}
	return item, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullable(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
