package models

import "time"

// ReportFilter narrows report aggregates to one employee and/or customer.
// Zero values mean no filtering.
type ReportFilter struct {
	EmployeeCode string
	CustomerCode string
}

// Overview is the status/amount breakdown over a date range.
type Overview struct {
	Total           int64   `json:"total"`
	Paid            int64   `json:"paid"`
	PayLater        int64   `json:"pay_later"`
	NoInfo          int64   `json:"no_info"`
	TotalAmount     float64 `json:"total_amount"`
	PaidAmount      float64 `json:"paid_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	CollectionRate  float64 `json:"collection_rate"`
}

// Add accumulates another partial into o and recomputes the collection rate.
func (o *Overview) Add(p Overview) {
	o.Total += p.Total
	o.Paid += p.Paid
	o.PayLater += p.PayLater
	o.NoInfo += p.NoInfo
	o.TotalAmount += p.TotalAmount
	o.PaidAmount += p.PaidAmount
	o.RemainingAmount += p.RemainingAmount
	if o.TotalAmount > 0 {
		o.CollectionRate = o.PaidAmount / o.TotalAmount * 100
	}
}

// Bucket is one histogram bar of an aging or delay distribution.
type Bucket struct {
	Range  string  `json:"range"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

// TrendPoint is one day of the trend series. Days with no matching rows
// still emit a zero-filled point.
type TrendPoint struct {
	Date           string  `json:"date"`
	Total          int64   `json:"total"`
	Paid           int64   `json:"paid"`
	PayLater       int64   `json:"pay_later"`
	NoInfo         int64   `json:"no_info"`
	TotalAmount    float64 `json:"total_amount"`
	CollectionRate float64 `json:"collection_rate"`
}

// DailyBuckets pairs one calendar day with its bucket distribution.
type DailyBuckets struct {
	Date    string   `json:"date"`
	Buckets []Bucket `json:"buckets"`
}

// StatusCount is one bar of a contact-response distribution.
type StatusCount struct {
	Status RemindStatus `json:"status"`
	Count  int64        `json:"count"`
}

// DailyStatusCounts pairs one calendar day with its response distribution.
type DailyStatusCounts struct {
	Date      string        `json:"date"`
	Responses []StatusCount `json:"responses"`
}

// EmployeePerformance aggregates collection outcomes per employee.
type EmployeePerformance struct {
	EmployeeCode    string  `json:"employee_code"`
	EmployeeName    string  `json:"employee_name"`
	TotalDebts      int64   `json:"total_debts"`
	PaidDebts       int64   `json:"paid_debts"`
	TotalAmount     float64 `json:"total_amount"`
	CollectedAmount float64 `json:"collected_amount"`
	CollectionRate  float64 `json:"collection_rate"`
}

// Page is a generic paginated result envelope.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// DetailOpts holds filters for the paginated detail listing.
type DetailOpts struct {
	Status       DebtStatus
	EmployeeCode string
	CustomerCode string
	Page         int
	Limit        int
}

// BucketRow is the minimal row shape the resolver needs to classify a
// record into an aging or delay bucket: the reference date and the
// outstanding amount.
type BucketRow struct {
	ReferenceDate *time.Time
	Amount        float64
}
