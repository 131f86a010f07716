package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recoupio/recoup/internal/models"
)

// AccountStore handles debt account rows and the send_last_at mirror
// the relay maintains.
type AccountStore struct {
	Base
}

func NewAccountStore(base Base) *AccountStore {
	return &AccountStore{Base: base}
}

const accountColumns = `id, customer_code, customer_name, customer_type, employee_id, employee_code,
	send_last_at, created_at, updated_at`

// GetByID returns one account, or models.ErrAccountNotFound.
func (s *AccountStore) GetByID(ctx context.Context, id int64) (*models.DebtAccount, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a models.DebtAccount
	err := s.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM debt_accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.CustomerCode, &a.CustomerName, &a.CustomerType, &a.EmployeeID, &a.EmployeeCode,
			&a.SendLastAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}

	return &a, nil
}

// SetSendLastAt mirrors a contact log's send_at onto the owning account.
// Returns true when a row was updated.
func (s *AccountStore) SetSendLastAt(ctx context.Context, id int64, sendAt *time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `
		UPDATE debt_accounts
		SET send_last_at = $2, updated_at = NOW()
		WHERE id = $1 AND send_last_at IS DISTINCT FROM $2`, id, sendAt)
	if err != nil {
		return false, fmt.Errorf("set send_last_at on account %d: %w", id, err)
	}

	return tag.RowsAffected() > 0, nil
}
