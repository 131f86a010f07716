package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recoupio/recoup/internal/models"
)

// ContactStore handles contact logs, the immutable contact history, and
// the inverse send_at mirror the relay maintains.
type ContactStore struct {
	Base
}

func NewContactStore(base Base) *ContactStore {
	return &ContactStore{Base: base}
}

const contactLogColumns = `c.id, c.account_id, COALESCE(a.customer_code, ''), c.message, c.send_at,
	c.first_remind_at, c.second_remind_at, c.remind_status, c.error_message, c.created_at, c.updated_at`

const contactLogFrom = ` FROM contact_logs c LEFT JOIN debt_accounts a ON a.id = c.account_id`

func scanContactLog(row pgx.Row) (models.ContactLog, error) {
	var c models.ContactLog
	err := row.Scan(&c.ID, &c.AccountID, &c.CustomerCode, &c.Message, &c.SendAt,
		&c.FirstRemindAt, &c.SecondRemindAt, &c.RemindStatus, &c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt)

	return c, err
}

// GetByID returns one contact log, or models.ErrContactNotFound.
func (s *ContactStore) GetByID(ctx context.Context, id int64) (*models.ContactLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	c, err := scanContactLog(s.Pool.QueryRow(ctx,
		`SELECT `+contactLogColumns+contactLogFrom+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact log %d: %w", id, err)
	}

	return &c, nil
}

// GetByAccountID returns the contact log owned by an account, or
// models.ErrContactNotFound. Each account has at most one.
func (s *ContactStore) GetByAccountID(ctx context.Context, accountID int64) (*models.ContactLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	c, err := scanContactLog(s.Pool.QueryRow(ctx,
		`SELECT `+contactLogColumns+contactLogFrom+` WHERE c.account_id = $1`, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact log for account %d: %w", accountID, err)
	}

	return &c, nil
}

// SetSendAt mirrors an account's send_last_at onto its contact log.
// Returns true when a row was updated.
func (s *ContactStore) SetSendAt(ctx context.Context, accountID int64, sendAt *time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `
		UPDATE contact_logs
		SET send_at = $2, updated_at = NOW()
		WHERE account_id = $1 AND send_at IS DISTINCT FROM $2`, accountID, sendAt)
	if err != nil {
		return false, fmt.Errorf("set send_at on contact log for account %d: %w", accountID, err)
	}

	return tag.RowsAffected() > 0, nil
}

// List returns contact logs joined with their account identity,
// optionally filtered by remind status, most recently updated first.
func (s *ContactStore) List(ctx context.Context, status models.RemindStatus, limit, offset int) ([]models.ContactLog, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	f := &filterBuilder{}
	if status != "" {
		f.add("c.remind_status = $?", status)
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*)`+contactLogFrom+f.where("WHERE"), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact logs: %w", err)
	}

	query := `SELECT ` + contactLogColumns + contactLogFrom + f.where("WHERE") +
		fmt.Sprintf(" ORDER BY c.updated_at DESC LIMIT $%d OFFSET $%d", f.next(), f.next()+1)
	args := append(f.args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ContactLog
	for rows.Next() {
		c, err := scanContactLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact log: %w", err)
		}
		logs = append(logs, c)
	}

	return logs, total, rows.Err()
}

// CloneToHistory appends an immutable history row for every contact log
// whose send_at falls on the given day and that has no history row for
// that send_at yet. Returns the number of rows appended.
func (s *ContactStore) CloneToHistory(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO contact_history (contact_log_id, customer_code, employee_code, send_at, remind_status)
		SELECT c.id, COALESCE(a.customer_code, ''), COALESCE(a.employee_code, ''), c.send_at, c.remind_status
		FROM contact_logs c
		LEFT JOIN debt_accounts a ON a.id = c.account_id
		WHERE c.send_at::date = $1::date
		  AND NOT EXISTS (
			SELECT 1 FROM contact_history h
			WHERE h.contact_log_id = c.id AND h.send_at = c.send_at
		  )`, day)
	if err != nil {
		return 0, fmt.Errorf("clone contact logs to history: %w", err)
	}

	return tag.RowsAffected(), nil
}
