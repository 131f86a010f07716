// Package models defines data types for the receivables backend.
package models

import "time"

// DebtStatus classifies the collection state of a receivable.
type DebtStatus string

// Debt statuses.
const (
	StatusPaid     DebtStatus = "paid"
	StatusPayLater DebtStatus = "pay_later"
	StatusNoInfo   DebtStatus = "no_information_available"
)

// Debt is one live receivable row. Soft-deleted rows carry a non-nil
// DeletedAt and are excluded from all aggregates and snapshots.
type Debt struct {
	ID              int64      `json:"id"`
	CustomerRawCode string     `json:"customer_raw_code"`
	InvoiceCode     string     `json:"invoice_code"`
	BillCode        string     `json:"bill_code"`
	TotalAmount     float64    `json:"total_amount"`
	Remaining       float64    `json:"remaining"`
	IssueDate       *time.Time `json:"issue_date,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	PayLater        *time.Time `json:"pay_later,omitempty"`
	Status          DebtStatus `json:"status"`
	EmployeeCode    string     `json:"employee_code,omitempty"`
	EmployeeName    string     `json:"employee_name,omitempty"`
	Note            string     `json:"note,omitempty"`
	AccountID       *int64     `json:"account_id,omitempty"`
	CustomerCode    string     `json:"customer_code,omitempty"`
	CustomerName    string     `json:"customer_name,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// DebtListOpts holds filters for listing live debts.
type DebtListOpts struct {
	Status       DebtStatus
	EmployeeCode string
	CustomerCode string
	Limit        int
	Offset       int
}

// UpdateDebtRequest is the payload for updating a debt's collection state.
type UpdateDebtRequest struct {
	Status   *DebtStatus `json:"status,omitempty"`
	PayLater *time.Time  `json:"pay_later,omitempty"`
	Note     *string     `json:"note,omitempty"`
}

// Validate checks that the update carries at least one field and a known status.
func (r *UpdateDebtRequest) Validate() error {
	if r.Status == nil && r.PayLater == nil && r.Note == nil {
		return ErrEmptyUpdate
	}

	if r.Status != nil {
		switch *r.Status {
		case StatusPaid, StatusPayLater, StatusNoInfo:
		default:
			return ErrInvalidStatus
		}
	}

	return nil
}
