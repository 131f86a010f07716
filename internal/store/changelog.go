package store

import (
	"context"
	"fmt"

	"github.com/recoupio/recoup/internal/models"
)

// ChangeLogStore reads and advances the change_log table that the
// database triggers append to.
type ChangeLogStore struct {
	Base
}

func NewChangeLogStore(base Base) *ChangeLogStore {
	return &ChangeLogStore{Base: base}
}

const changeLogColumns = `id, table_name, record_id, action, old_values, new_values, changed_fields, triggered_at, processed, processed_at`

// FetchUnprocessed returns up to limit unprocessed entries with id greater
// than afterID, in ascending id order.
func (s *ChangeLogStore) FetchUnprocessed(ctx context.Context, afterID int64, limit int) ([]models.ChangeLogEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		SELECT `+changeLogColumns+`
		FROM change_log
		WHERE NOT processed AND id > $1
		ORDER BY id ASC
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unprocessed change log: %w", err)
	}
	defer rows.Close()

	var entries []models.ChangeLogEntry
	for rows.Next() {
		var e models.ChangeLogEntry
		if err := rows.Scan(&e.ID, &e.TableName, &e.RecordID, &e.Action, &e.OldValues, &e.NewValues,
			&e.ChangedFields, &e.TriggeredAt, &e.Processed, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan change log entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// MarkProcessed flags a single entry as handled. Marking an already
// processed entry is a no-op.
func (s *ChangeLogStore) MarkProcessed(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx, `
		UPDATE change_log
		SET processed = TRUE, processed_at = NOW()
		WHERE id = $1 AND NOT processed`, id)
	if err != nil {
		return fmt.Errorf("mark change log entry %d processed: %w", id, err)
	}

	return nil
}

// MarkAllUnprocessed clears the processed flag on every entry so the
// relay replays the full log from the beginning.
func (s *ChangeLogStore) MarkAllUnprocessed(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `
		UPDATE change_log
		SET processed = FALSE, processed_at = NULL
		WHERE processed`)
	if err != nil {
		return 0, fmt.Errorf("reset change log processed flags: %w", err)
	}

	return tag.RowsAffected(), nil
}

// LatestProcessedID returns the highest id currently marked processed,
// or zero when nothing has been processed yet.
func (s *ChangeLogStore) LatestProcessedID(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var id int64
	err := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(id), 0) FROM change_log WHERE processed`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("latest processed change log id: %w", err)
	}

	return id, nil
}

// CountUnprocessed returns the number of entries still awaiting delivery.
func (s *ChangeLogStore) CountUnprocessed(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM change_log WHERE NOT processed`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unprocessed change log: %w", err)
	}

	return count, nil
}
