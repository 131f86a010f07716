package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/recoupio/recoup/internal/models"
)

// ReportStore runs the aggregate queries behind the reporting endpoints.
// Every aggregate exists in two flavors: one over the live debts table
// and one over debt_snapshots, so the resolver can stitch a date range
// together from both sources.
type ReportStore struct {
	Base
}

func NewReportStore(base Base) *ReportStore {
	return &ReportStore{Base: base}
}

// overviewSelect computes the status/amount breakdown in one pass.
// Works against either source table via the alias "d".
const overviewSelect = `
	COUNT(*),
	COUNT(*) FILTER (WHERE d.status = 'paid'),
	COUNT(*) FILTER (WHERE d.status = 'pay_later'),
	COUNT(*) FILTER (WHERE d.status = 'no_information_available'),
	COALESCE(SUM(d.total_amount), 0),
	COALESCE(SUM(d.total_amount) FILTER (WHERE d.status = 'paid'), 0),
	COALESCE(SUM(d.remaining) FILTER (WHERE d.status <> 'paid'), 0)`

func scanOverview(row pgx.Row) (models.Overview, error) {
	var o models.Overview
	err := row.Scan(&o.Total, &o.Paid, &o.PayLater, &o.NoInfo,
		&o.TotalAmount, &o.PaidAmount, &o.RemainingAmount)
	if err != nil {
		return o, err
	}
	if o.TotalAmount > 0 {
		o.CollectionRate = o.PaidAmount / o.TotalAmount * 100
	}

	return o, nil
}

func liveFilter(filter models.ReportFilter) *filterBuilder {
	f := &filterBuilder{}
	if filter.EmployeeCode != "" {
		f.add("d.employee_code = $?", filter.EmployeeCode)
	}
	if filter.CustomerCode != "" {
		f.add("a.customer_code = $?", filter.CustomerCode)
	}

	return f
}

func snapshotFilter(filter models.ReportFilter) *filterBuilder {
	f := &filterBuilder{}
	if filter.EmployeeCode != "" {
		f.add("d.employee_code = $?", filter.EmployeeCode)
	}
	if filter.CustomerCode != "" {
		f.add("d.customer_code = $?", filter.CustomerCode)
	}

	return f
}

// OverviewLive aggregates the current live debt rows.
func (s *ReportStore) OverviewLive(ctx context.Context, filter models.ReportFilter) (models.Overview, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	f := liveFilter(filter)
	query := `SELECT ` + overviewSelect + debtFrom + ` WHERE d.deleted_at IS NULL` + f.where("AND")

	o, err := scanOverview(s.Pool.QueryRow(ctx, query, f.args...))
	if err != nil {
		return o, fmt.Errorf("live overview: %w", err)
	}

	return o, nil
}

// OverviewLiveToday aggregates only the live rows touched today. The
// trend series uses this for its current-day point so today's bar
// reflects today's activity, matching how past days reflect theirs.
func (s *ReportStore) OverviewLiveToday(ctx context.Context, filter models.ReportFilter) (models.Overview, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	f := liveFilter(filter)
	query := `SELECT ` + overviewSelect + debtFrom +
		` WHERE d.deleted_at IS NULL AND d.updated_at::date = CURRENT_DATE` + f.where("AND")

	o, err := scanOverview(s.Pool.QueryRow(ctx, query, f.args...))
	if err != nil {
		return o, fmt.Errorf("live overview for today: %w", err)
	}

	return o, nil
}

// OverviewSnapshot aggregates the snapshot rows of one day.
func (s *ReportStore) OverviewSnapshot(ctx context.Context, day time.Time, filter models.ReportFilter) (models.Overview, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	f := snapshotFilter(filter)
	f.add("d.snapshot_date = $?::date", day)
	query := `SELECT ` + overviewSelect + ` FROM debt_snapshots d` + f.where("WHERE")

	o, err := scanOverview(s.Pool.QueryRow(ctx, query, f.args...))
	if err != nil {
		return o, fmt.Errorf("snapshot overview for %s: %w", day.Format("2006-01-02"), err)
	}

	return o, nil
}

// AgingRowsLive returns the due date and outstanding amount of every
// live unpaid row. Classification into buckets happens in the service.
func (s *ReportStore) AgingRowsLive(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error) {
	f := liveFilter(filter)
	query := `SELECT d.due_date, d.remaining` + debtFrom +
		` WHERE d.deleted_at IS NULL AND d.status <> 'paid'` + f.where("AND")

	return s.bucketRows(ctx, query, f.args, "live aging rows")
}

// AgingRowsAsOf returns, for each debt, its latest snapshot row on or
// before the given day, restricted to unpaid rows.
func (s *ReportStore) AgingRowsAsOf(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error) {
	f := snapshotFilter(filter)
	f.add("d.snapshot_date <= $?::date", day)
	query := `
		SELECT due_date, remaining FROM (
			SELECT DISTINCT ON (d.original_debt_id) d.due_date, d.remaining, d.status
			FROM debt_snapshots d` + f.where("WHERE") + `
			ORDER BY d.original_debt_id, d.snapshot_date DESC
		) latest
		WHERE latest.status <> 'paid'`

	return s.bucketRows(ctx, query, f.args, "aging rows as of "+day.Format("2006-01-02"))
}

// DelayRowsLive returns the promised pay-later date and outstanding
// amount of every live pay_later row.
func (s *ReportStore) DelayRowsLive(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error) {
	f := liveFilter(filter)
	query := `SELECT d.pay_later, d.remaining` + debtFrom +
		` WHERE d.deleted_at IS NULL AND d.status = 'pay_later'` + f.where("AND")

	return s.bucketRows(ctx, query, f.args, "live delay rows")
}

// DelayRowsAsOf is DelayRowsLive against the latest snapshot on or
// before the given day.
func (s *ReportStore) DelayRowsAsOf(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error) {
	f := snapshotFilter(filter)
	f.add("d.snapshot_date <= $?::date", day)
	query := `
		SELECT pay_later, remaining FROM (
			SELECT DISTINCT ON (d.original_debt_id) d.pay_later, d.remaining, d.status
			FROM debt_snapshots d` + f.where("WHERE") + `
			ORDER BY d.original_debt_id, d.snapshot_date DESC
		) latest
		WHERE latest.status = 'pay_later'`

	return s.bucketRows(ctx, query, f.args, "delay rows as of "+day.Format("2006-01-02"))
}

func (s *ReportStore) bucketRows(ctx context.Context, query string, args []any, what string) ([]models.BucketRow, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var result []models.BucketRow
	for rows.Next() {
		var r models.BucketRow
		if err := rows.Scan(&r.ReferenceDate, &r.Amount); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		result = append(result, r)
	}

	return result, rows.Err()
}

// ContactEventsRange counts recorded contact attempts per remind status
// over a send_at date range in the immutable history.
func (s *ReportStore) ContactEventsRange(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.StatusCount, error) {
	f := &filterBuilder{}
	f.add("h.send_at::date >= $?::date", from)
	f.add("h.send_at::date <= $?::date", to)
	if filter.EmployeeCode != "" {
		f.add("h.employee_code = $?", filter.EmployeeCode)
	}
	if filter.CustomerCode != "" {
		f.add("h.customer_code = $?", filter.CustomerCode)
	}
	query := `SELECT h.remind_status, COUNT(*) FROM contact_history h` + f.where("WHERE") +
		` GROUP BY h.remind_status`

	return s.statusCounts(ctx, query, f.args, "contact events")
}

// ContactEventsToday counts contact logs whose send_at falls on the
// current day, per remind status. Today's attempts live only in the
// mutable logs until the nightly history clone runs.
func (s *ReportStore) ContactEventsToday(ctx context.Context, filter models.ReportFilter) ([]models.StatusCount, error) {
	f := &filterBuilder{}
	f.add("c.send_at::date = $?::date", time.Now())
	if filter.EmployeeCode != "" {
		f.add("a.employee_code = $?", filter.EmployeeCode)
	}
	if filter.CustomerCode != "" {
		f.add("a.customer_code = $?", filter.CustomerCode)
	}
	query := `SELECT c.remind_status, COUNT(*)` + contactLogFrom + f.where("WHERE") +
		` GROUP BY c.remind_status`

	return s.statusCounts(ctx, query, f.args, "today's contact events")
}

// ContactDistribution counts current contact logs per remind status,
// regardless of date.
func (s *ReportStore) ContactDistribution(ctx context.Context, filter models.ReportFilter) ([]models.StatusCount, error) {
	f := &filterBuilder{}
	if filter.EmployeeCode != "" {
		f.add("a.employee_code = $?", filter.EmployeeCode)
	}
	if filter.CustomerCode != "" {
		f.add("a.customer_code = $?", filter.CustomerCode)
	}
	query := `SELECT c.remind_status, COUNT(*)` + contactLogFrom + f.where("WHERE") +
		` GROUP BY c.remind_status`

	return s.statusCounts(ctx, query, f.args, "contact distribution")
}

func (s *ReportStore) statusCounts(ctx context.Context, query string, args []any, what string) ([]models.StatusCount, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var result []models.StatusCount
	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		result = append(result, sc)
	}

	return result, rows.Err()
}

// ContactHistoryPage pages through recorded contact attempts in a
// send_at date range, optionally narrowed to one remind status.
func (s *ReportStore) ContactHistoryPage(ctx context.Context, from, to time.Time, status models.RemindStatus, limit, offset int) ([]models.ContactHistory, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	f := &filterBuilder{}
	f.add("h.send_at::date >= $?::date", from)
	f.add("h.send_at::date <= $?::date", to)
	if status != "" {
		f.add("h.remind_status = $?", status)
	}

	var total int64
	if err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contact_history h`+f.where("WHERE"), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact history: %w", err)
	}

	query := `SELECT h.id, h.contact_log_id, h.customer_code, h.employee_code, h.send_at, h.remind_status, h.created_at
		FROM contact_history h` + f.where("WHERE") +
		fmt.Sprintf(" ORDER BY h.send_at DESC NULLS LAST, h.id DESC LIMIT $%d OFFSET $%d", f.next(), f.next()+1)
	args := append(f.args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("contact history page: %w", err)
	}
	defer rows.Close()

	var result []models.ContactHistory
	for rows.Next() {
		var h models.ContactHistory
		if err := rows.Scan(&h.ID, &h.ContactLogID, &h.CustomerCode, &h.EmployeeCode, &h.SendAt,
			&h.RemindStatus, &h.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan contact history: %w", err)
		}
		result = append(result, h)
	}

	return result, total, rows.Err()
}

const snapshotColumns = `id, snapshot_date, original_debt_id, customer_raw_code, invoice_code, bill_code,
	total_amount, remaining, issue_date, due_date, pay_later, status, employee_code, employee_name,
	account_id, customer_code, customer_name, note, original_created_at, original_updated_at, created_at`

// DetailSnapshot pages through the snapshot rows of one day.
func (s *ReportStore) DetailSnapshot(ctx context.Context, day time.Time, opts models.DetailOpts) ([]models.DebtSnapshot, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	f := snapshotFilter(models.ReportFilter{EmployeeCode: opts.EmployeeCode, CustomerCode: opts.CustomerCode})
	if opts.Status != "" {
		f.add("d.status = $?", opts.Status)
	}
	f.add("d.snapshot_date = $?::date", day)

	var total int64
	if err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM debt_snapshots d`+f.where("WHERE"), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshot detail: %w", err)
	}

	query := `SELECT ` + snapshotColumns + ` FROM debt_snapshots d` + f.where("WHERE") +
		fmt.Sprintf(" ORDER BY d.original_debt_id LIMIT $%d OFFSET $%d", f.next(), f.next()+1)
	args := append(f.args, opts.Limit, (opts.Page-1)*opts.Limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("snapshot detail: %w", err)
	}
	defer rows.Close()

	var result []models.DebtSnapshot
	for rows.Next() {
		var sn models.DebtSnapshot
		if err := rows.Scan(&sn.ID, &sn.SnapshotDate, &sn.OriginalDebtID, &sn.CustomerRawCode, &sn.InvoiceCode,
			&sn.BillCode, &sn.TotalAmount, &sn.Remaining, &sn.IssueDate, &sn.DueDate, &sn.PayLater,
			&sn.Status, &sn.EmployeeCode, &sn.EmployeeName, &sn.AccountID, &sn.CustomerCode,
			&sn.CustomerName, &sn.Note, &sn.OriginalCreated, &sn.OriginalUpdated, &sn.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan snapshot detail: %w", err)
		}
		result = append(result, sn)
	}

	return result, total, rows.Err()
}

const performanceSelect = `
	d.employee_code,
	MAX(d.employee_name),
	COUNT(*),
	COUNT(*) FILTER (WHERE d.status = 'paid'),
	COALESCE(SUM(d.total_amount), 0),
	COALESCE(SUM(d.total_amount) FILTER (WHERE d.status = 'paid'), 0)`

// PerformanceLive aggregates collection outcomes per employee over the
// current live rows.
func (s *ReportStore) PerformanceLive(ctx context.Context) ([]models.EmployeePerformance, error) {
	query := `SELECT ` + performanceSelect + `
		FROM debts d
		WHERE d.deleted_at IS NULL AND d.employee_code <> ''
		GROUP BY d.employee_code
		ORDER BY d.employee_code`

	return s.performance(ctx, query, nil, "live employee performance")
}

// PerformanceAsOf aggregates per employee from the snapshot of one day.
func (s *ReportStore) PerformanceAsOf(ctx context.Context, day time.Time) ([]models.EmployeePerformance, error) {
	query := `SELECT ` + performanceSelect + `
		FROM debt_snapshots d
		WHERE d.snapshot_date = $1::date AND d.employee_code <> ''
		GROUP BY d.employee_code
		ORDER BY d.employee_code`

	return s.performance(ctx, query, []any{day}, "employee performance as of "+day.Format("2006-01-02"))
}

func (s *ReportStore) performance(ctx context.Context, query string, args []any, what string) ([]models.EmployeePerformance, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var result []models.EmployeePerformance
	for rows.Next() {
		var p models.EmployeePerformance
		if err := rows.Scan(&p.EmployeeCode, &p.EmployeeName, &p.TotalDebts, &p.PaidDebts,
			&p.TotalAmount, &p.CollectedAmount); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		if p.TotalAmount > 0 {
			p.CollectionRate = p.CollectedAmount / p.TotalAmount * 100
		}
		result = append(result, p)
	}

	return result, rows.Err()
}
