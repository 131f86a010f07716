package models

import "time"

// RemindStatus classifies the reminder state of a contact log.
type RemindStatus string

// Remind statuses.
const (
	RemindNotSent           RemindStatus = "Not Sent"
	RemindDebtReported      RemindStatus = "Debt Reported"
	RemindFirstReminder     RemindStatus = "First Reminder"
	RemindSecondReminder    RemindStatus = "Second Reminder"
	RemindCustomerResponded RemindStatus = "Customer Responded"
	RemindErrorSend         RemindStatus = "Error Send"
	RemindSentNotVerified   RemindStatus = "Sent But Not Verified"
)

// ContactLog is the current reminder state for one debt account.
// One row per account; mutated in place as reminders go out.
type ContactLog struct {
	ID             int64        `json:"id"`
	AccountID      int64        `json:"account_id"`
	CustomerCode   string       `json:"customer_code,omitempty"`
	Message        string       `json:"message,omitempty"`
	SendAt         *time.Time   `json:"send_at,omitempty"`
	FirstRemindAt  *time.Time   `json:"first_remind_at,omitempty"`
	SecondRemindAt *time.Time   `json:"second_remind_at,omitempty"`
	RemindStatus   RemindStatus `json:"remind_status"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ContactHistory is one immutable recorded contact attempt. Rows are
// appended by the nightly history clone and never mutated.
type ContactHistory struct {
	ID           int64        `json:"id"`
	ContactLogID int64        `json:"contact_log_id"`
	CustomerCode string       `json:"customer_code,omitempty"`
	EmployeeCode string       `json:"employee_code,omitempty"`
	SendAt       *time.Time   `json:"send_at,omitempty"`
	RemindStatus RemindStatus `json:"remind_status"`
	CreatedAt    time.Time    `json:"created_at"`
}
