package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/recoupio/recoup/internal/models"
)

// DebtStore handles CRUD on live debt rows. All reads exclude
// soft-deleted rows.
type DebtStore struct {
	Base
}

func NewDebtStore(base Base) *DebtStore {
	return &DebtStore{Base: base}
}

const debtColumns = `d.id, d.customer_raw_code, d.invoice_code, d.bill_code, d.total_amount, d.remaining,
	d.issue_date, d.due_date, d.pay_later, d.status, d.employee_code, d.employee_name, d.note,
	d.account_id, COALESCE(a.customer_code, ''), COALESCE(a.customer_name, ''),
	d.created_at, d.updated_at, d.deleted_at`

const debtFrom = ` FROM debts d LEFT JOIN debt_accounts a ON a.id = d.account_id`

func scanDebt(row pgx.Row) (models.Debt, error) {
	var d models.Debt
	err := row.Scan(&d.ID, &d.CustomerRawCode, &d.InvoiceCode, &d.BillCode, &d.TotalAmount, &d.Remaining,
		&d.IssueDate, &d.DueDate, &d.PayLater, &d.Status, &d.EmployeeCode, &d.EmployeeName, &d.Note,
		&d.AccountID, &d.CustomerCode, &d.CustomerName,
		&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)

	return d, err
}

// GetByID returns one live debt, or models.ErrDebtNotFound.
func (s *DebtStore) GetByID(ctx context.Context, id int64) (*models.Debt, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	d, err := scanDebt(s.Pool.QueryRow(ctx,
		`SELECT `+debtColumns+debtFrom+` WHERE d.id = $1 AND d.deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrDebtNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get debt %d: %w", id, err)
	}

	return &d, nil
}

// List returns live debts matching the filters, newest first, with the
// total count for pagination.
func (s *DebtStore) List(ctx context.Context, opts models.DebtListOpts) ([]models.Debt, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	f := &filterBuilder{}
	if opts.Status != "" {
		f.add("d.status = $?", opts.Status)
	}
	if opts.EmployeeCode != "" {
		f.add("d.employee_code = $?", opts.EmployeeCode)
	}
	if opts.CustomerCode != "" {
		f.add("a.customer_code = $?", opts.CustomerCode)
	}

	var total int64
	countQuery := `SELECT COUNT(*)` + debtFrom + ` WHERE d.deleted_at IS NULL` + f.where("AND")
	if err := s.Pool.QueryRow(ctx, countQuery, f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count debts: %w", err)
	}

	query := `SELECT ` + debtColumns + debtFrom + ` WHERE d.deleted_at IS NULL` + f.where("AND") +
		` ORDER BY d.updated_at DESC LIMIT $` + strconv.Itoa(f.next()) + ` OFFSET $` + strconv.Itoa(f.next()+1)
	args := append(f.args, opts.Limit, opts.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []models.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, d)
	}

	return debts, total, rows.Err()
}

// Update applies the non-nil fields of req to one live debt and returns
// the updated row.
func (s *DebtStore) Update(ctx context.Context, id int64, req models.UpdateDebtRequest) (*models.Debt, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	f := &filterBuilder{}
	if req.Status != nil {
		f.add("status = $?", *req.Status)
	}
	if req.PayLater != nil {
		f.add("pay_later = $?", *req.PayLater)
	}
	if req.Note != nil {
		f.add("note = $?", *req.Note)
	}
	if len(f.conditions) == 0 {
		return nil, models.ErrEmptyUpdate
	}

	sets := f.conditions
	query := `UPDATE debts SET updated_at = NOW()`
	for _, set := range sets {
		query += ", " + set
	}
	query += ` WHERE id = $` + strconv.Itoa(f.next()) + ` AND deleted_at IS NULL`
	args := append(f.args, id)

	tag, err := s.Pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update debt %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrDebtNotFound
	}

	return s.GetByID(ctx, id)
}
