package models

import "time"

// DebtAccount is a per-customer collection account. It carries the
// denormalized customer identity joined into snapshots at capture time.
type DebtAccount struct {
	ID           int64      `json:"id"`
	CustomerCode string     `json:"customer_code"`
	CustomerName string     `json:"customer_name"`
	CustomerType string     `json:"customer_type,omitempty"`
	EmployeeID   *int64     `json:"employee_id,omitempty"`
	EmployeeCode string     `json:"employee_code,omitempty"`
	SendLastAt   *time.Time `json:"send_last_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
