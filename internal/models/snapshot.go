package models

import "time"

// DebtSnapshot is an immutable dated copy of a live debt row, written once
// per day by the capture job. Uniqueness: one row per
// (snapshot_date, original_debt_id).
type DebtSnapshot struct {
	ID              int64      `json:"id"`
	SnapshotDate    time.Time  `json:"snapshot_date"`
	OriginalDebtID  int64      `json:"original_debt_id"`
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
	AccountID       *int64     `json:"account_id,omitempty"`
	CustomerCode    string     `json:"customer_code,omitempty"`
	CustomerName    string     `json:"customer_name,omitempty"`
	Note            string     `json:"note,omitempty"`
	OriginalCreated time.Time  `json:"original_created_at"`
	OriginalUpdated time.Time  `json:"original_updated_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CaptureResult summarizes one snapshot capture run.
type CaptureResult struct {
	RunID        string    `json:"run_id"`
	SnapshotDate time.Time `json:"snapshot_date"`
	RowsCaptured int       `json:"rows_captured"`
	Batches      int       `json:"batches"`
	Skipped      bool      `json:"skipped"`
	Duration     string    `json:"duration"`
}
