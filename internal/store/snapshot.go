package store

import (
	"context"
	"fmt"
	"time"
)

// SnapshotStore writes and inspects the daily debt_snapshots table.
type SnapshotStore struct {
	Base
}

func NewSnapshotStore(base Base) *SnapshotStore {
	return &SnapshotStore{Base: base}
}

// CountForDate returns how many snapshot rows already exist for a day.
// The capture job uses this as its idempotency check.
func (s *SnapshotStore) CountForDate(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM debt_snapshots WHERE snapshot_date = $1::date`, day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count snapshots for %s: %w", day.Format("2006-01-02"), err)
	}

	return count, nil
}

// CountSource returns how many live debt rows are eligible for capture.
func (s *SnapshotStore) CountSource(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM debts WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count capture source rows: %w", err)
	}

	return count, nil
}

// CaptureBatch copies one id-ordered batch of live debt rows into
// debt_snapshots for the given day. ON CONFLICT DO NOTHING makes a retry
// of a partially completed run safe: rows written by the earlier attempt
// are skipped. Returns the number of rows actually inserted.
func (s *SnapshotStore) CaptureBatch(ctx context.Context, day time.Time, limit, offset int) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO debt_snapshots (
			snapshot_date, original_debt_id, customer_raw_code, invoice_code, bill_code,
			total_amount, remaining, issue_date, due_date, pay_later, status,
			employee_code, employee_name, account_id, customer_code, customer_name, note,
			original_created_at, original_updated_at
		)
		SELECT
			$1::date, d.id, d.customer_raw_code, d.invoice_code, d.bill_code,
			d.total_amount, d.remaining, d.issue_date, d.due_date, d.pay_later, d.status,
			d.employee_code, d.employee_name, d.account_id,
			COALESCE(a.customer_code, ''), COALESCE(a.customer_name, ''), d.note,
			d.created_at, d.updated_at
		FROM debts d
		LEFT JOIN debt_accounts a ON a.id = d.account_id
		WHERE d.deleted_at IS NULL
		ORDER BY d.id
		LIMIT $2 OFFSET $3
		ON CONFLICT (snapshot_date, original_debt_id) DO NOTHING`, day, limit, offset)
	if err != nil {
		return 0, fmt.Errorf("capture snapshot batch (offset %d): %w", offset, err)
	}

	return tag.RowsAffected(), nil
}
