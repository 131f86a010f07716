package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/models"
)

// ReportStore is the aggregate query surface the resolver composes.
type ReportStore interface {
	OverviewLive(ctx context.Context, filter models.ReportFilter) (models.Overview, error)
	OverviewLiveToday(ctx context.Context, filter models.ReportFilter) (models.Overview, error)
	OverviewSnapshot(ctx context.Context, day time.Time, filter models.ReportFilter) (models.Overview, error)
	AgingRowsLive(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error)
	AgingRowsAsOf(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error)
	DelayRowsLive(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error)
	DelayRowsAsOf(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error)
	ContactEventsRange(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.StatusCount, error)
	ContactEventsToday(ctx context.Context, filter models.ReportFilter) ([]models.StatusCount, error)
	ContactDistribution(ctx context.Context, filter models.ReportFilter) ([]models.StatusCount, error)
	ContactHistoryPage(ctx context.Context, from, to time.Time, status models.RemindStatus, limit, offset int) ([]models.ContactHistory, int64, error)
	DetailSnapshot(ctx context.Context, day time.Time, opts models.DetailOpts) ([]models.DebtSnapshot, int64, error)
	PerformanceLive(ctx context.Context) ([]models.EmployeePerformance, error)
	PerformanceAsOf(ctx context.Context, day time.Time) ([]models.EmployeePerformance, error)
}

// DebtLister is the live-table surface for detail pages today.
type DebtLister interface {
	List(ctx context.Context, opts models.DebtListOpts) ([]models.Debt, int64, error)
}

// ContactLister is the live contact log surface for detail pages.
type ContactLister interface {
	List(ctx context.Context, status models.RemindStatus, limit, offset int) ([]models.ContactLog, int64, error)
}

// Response modes for contact aggregates.
const (
	ModeEvents       = "events"
	ModeDistribution = "distribution"
)

// Default bucket boundaries (days).
var (
	DefaultAgingBoundaries = []int{30, 60, 90}
	DefaultDelayBoundaries = []int{7, 14, 30}
)

// source tells the resolver where one calendar day's data lives.
type source int

const (
	sourceNone source = iota
	sourceLive
	sourceSnapshot
)

// sourceFor picks the data source for one day: the live table covers
// today, snapshots cover the past, the future holds nothing. Pure so
// the routing is testable without a database.
func sourceFor(day, today time.Time) source {
	day, today = Midnight(day), Midnight(today)
	switch {
	case day.Equal(today):
		return sourceLive
	case day.Before(today):
		return sourceSnapshot
	default:
		return sourceNone
	}
}

// DateRange is the caller's date selection: a single day or a from/to
// span, never both.
type DateRange struct {
	Date *time.Time
	From *time.Time
	To   *time.Time
}

// Validate rejects empty or inverted selections.
func (r DateRange) Validate() error {
	if r.Date == nil && (r.From == nil || r.To == nil) {
		return models.ErrMissingDate
	}
	if r.From != nil && r.To != nil && Midnight(*r.From).After(Midnight(*r.To)) {
		return models.ErrInvalidRange
	}

	return nil
}

// days enumerates the selected calendar days in order.
func (r DateRange) days() []time.Time {
	if r.Date != nil {
		return []time.Time{Midnight(*r.Date)}
	}

	var out []time.Time
	for d := Midnight(*r.From); !d.After(Midnight(*r.To)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}

	return out
}

// ReportService resolves reporting queries against the day-appropriate
// source, one partial aggregate per day, never a mixed query.
type ReportService struct {
	reports  ReportStore
	debts    DebtLister
	contacts ContactLister
	log      *logrus.Logger

	restWeekday time.Weekday

	// now is swapped in tests.
	now func() time.Time
}

// NewReportService creates the resolver. restWeekday is the weekly day
// off excluded from trend series.
func NewReportService(reports ReportStore, debts DebtLister, contacts ContactLister, restWeekday time.Weekday, log *logrus.Logger) *ReportService {
	return &ReportService{
		reports:     reports,
		debts:       debts,
		contacts:    contacts,
		log:         log,
		restWeekday: restWeekday,
		now:         time.Now,
	}
}

// Overview sums the status/amount breakdown over the selected days.
// A single day equal to today reads the full live book; days inside a
// range read the day's own activity (snapshots for the past, rows
// touched today for today).
func (s *ReportService) Overview(ctx context.Context, r DateRange, filter models.ReportFilter) (models.Overview, error) {
	var total models.Overview

	if err := r.Validate(); err != nil {
		return total, err
	}

	if r.Date != nil {
		switch sourceFor(*r.Date, s.now()) {
		case sourceLive:
			return s.reports.OverviewLive(ctx, filter)
		case sourceSnapshot:
			return s.reports.OverviewSnapshot(ctx, *r.Date, filter)
		case sourceNone:
			return total, nil
		}
	}

	for _, day := range r.days() {
		partial, err := s.overviewForDay(ctx, day, filter)
		if err != nil {
			return total, err
		}
		total.Add(partial)
	}

	return total, nil
}

func (s *ReportService) overviewForDay(ctx context.Context, day time.Time, filter models.ReportFilter) (models.Overview, error) {
	switch sourceFor(day, s.now()) {
	case sourceLive:
		return s.reports.OverviewLiveToday(ctx, filter)
	case sourceSnapshot:
		return s.reports.OverviewSnapshot(ctx, day, filter)
	default:
		return models.Overview{}, nil
	}
}

// Trend produces one point per calendar day in [from, to], zero-filled
// for days with no rows. The weekly rest day is omitted entirely.
func (s *ReportService) Trend(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.TrendPoint, error) {
	r := DateRange{From: &from, To: &to}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	points := make([]models.TrendPoint, 0)
	for _, day := range r.days() {
		if day.Weekday() == s.restWeekday {
			continue
		}

		o, err := s.overviewForDay(ctx, day, filter)
		if err != nil {
			return nil, fmt.Errorf("trend point %s: %w", day.Format("2006-01-02"), err)
		}

		points = append(points, models.TrendPoint{
			Date:           day.Format("2006-01-02"),
			Total:          o.Total,
			Paid:           o.Paid,
			PayLater:       o.PayLater,
			NoInfo:         o.NoInfo,
			TotalAmount:    o.TotalAmount,
			CollectionRate: o.CollectionRate,
		})
	}

	return points, nil
}

// Aging buckets unpaid debts by how many days overdue they are as of
// the given day. Boundaries default to 30/60/90.
func (s *ReportService) Aging(ctx context.Context, asOf time.Time, boundaries []int, filter models.ReportFilter) ([]models.Bucket, error) {
	boundaries, err := normalizeBoundaries(boundaries, DefaultAgingBoundaries)
	if err != nil {
		return nil, err
	}

	rows, err := s.bucketRowsFor(ctx, asOf, filter, s.reports.AgingRowsLive, s.reports.AgingRowsAsOf)
	if err != nil {
		return nil, err
	}

	return classify(rows, boundaries, Midnight(asOf)), nil
}

// PayLaterDelay buckets pay_later debts by how many days their promised
// payment date has slipped as of the given day. Boundaries default to
// 7/14/30.
func (s *ReportService) PayLaterDelay(ctx context.Context, asOf time.Time, boundaries []int, filter models.ReportFilter) ([]models.Bucket, error) {
	boundaries, err := normalizeBoundaries(boundaries, DefaultDelayBoundaries)
	if err != nil {
		return nil, err
	}

	rows, err := s.bucketRowsFor(ctx, asOf, filter, s.reports.DelayRowsLive, s.reports.DelayRowsAsOf)
	if err != nil {
		return nil, err
	}

	return classify(rows, boundaries, Midnight(asOf)), nil
}

// AgingDaily is the aging distribution computed per day over a range.
func (s *ReportService) AgingDaily(ctx context.Context, from, to time.Time, boundaries []int, filter models.ReportFilter) ([]models.DailyBuckets, error) {
	return s.bucketsDaily(ctx, from, to, boundaries, DefaultAgingBoundaries, filter,
		s.reports.AgingRowsLive, s.reports.AgingRowsAsOf)
}

// PayLaterDelayDaily is the delay distribution computed per day over a range.
func (s *ReportService) PayLaterDelayDaily(ctx context.Context, from, to time.Time, boundaries []int, filter models.ReportFilter) ([]models.DailyBuckets, error) {
	return s.bucketsDaily(ctx, from, to, boundaries, DefaultDelayBoundaries, filter,
		s.reports.DelayRowsLive, s.reports.DelayRowsAsOf)
}

type bucketRowsFn func(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error)

type bucketRowsAsOfFn func(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error)

func (s *ReportService) bucketRowsFor(ctx context.Context, asOf time.Time, filter models.ReportFilter, live bucketRowsFn, asOfFn bucketRowsAsOfFn) ([]models.BucketRow, error) {
	switch sourceFor(asOf, s.now()) {
	case sourceLive:
		return live(ctx, filter)
	case sourceSnapshot:
		return asOfFn(ctx, asOf, filter)
	default:
		return nil, nil
	}
}

func (s *ReportService) bucketsDaily(ctx context.Context, from, to time.Time, boundaries, defaults []int, filter models.ReportFilter, live bucketRowsFn, asOfFn bucketRowsAsOfFn) ([]models.DailyBuckets, error) {
	r := DateRange{From: &from, To: &to}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	boundaries, err := normalizeBoundaries(boundaries, defaults)
	if err != nil {
		return nil, err
	}

	out := make([]models.DailyBuckets, 0)
	for _, day := range r.days() {
		rows, err := s.bucketRowsFor(ctx, day, filter, live, asOfFn)
		if err != nil {
			return nil, fmt.Errorf("buckets for %s: %w", day.Format("2006-01-02"), err)
		}

		out = append(out, models.DailyBuckets{
			Date:    day.Format("2006-01-02"),
			Buckets: classify(rows, boundaries, day),
		})
	}

	return out, nil
}

// ContactResponses aggregates contact outcomes. Mode "events" counts
// recorded attempts inside the range; mode "distribution" counts the
// current status of every contact log and ignores the range.
func (s *ReportService) ContactResponses(ctx context.Context, mode string, r DateRange, filter models.ReportFilter) ([]models.StatusCount, error) {
	switch mode {
	case ModeDistribution:
		return s.reports.ContactDistribution(ctx, filter)
	case ModeEvents:
	default:
		return nil, fmt.Errorf("%w: mode must be %q or %q", models.ErrInvalidMode, ModeEvents, ModeDistribution)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	from, to := r.bounds()
	today := Midnight(s.now())

	merged := map[models.RemindStatus]int64{}

	if from.Before(today) {
		histTo := to
		if !histTo.Before(today) {
			histTo = today.AddDate(0, 0, -1)
		}
		counts, err := s.reports.ContactEventsRange(ctx, from, histTo, filter)
		if err != nil {
			return nil, err
		}
		for _, c := range counts {
			merged[c.Status] += c.Count
		}
	}

	if !from.After(today) && !to.Before(today) {
		counts, err := s.reports.ContactEventsToday(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, c := range counts {
			merged[c.Status] += c.Count
		}
	}

	return sortedStatusCounts(merged), nil
}

// ContactResponsesDaily is the events aggregate computed per day.
func (s *ReportService) ContactResponsesDaily(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.DailyStatusCounts, error) {
	r := DateRange{From: &from, To: &to}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	out := make([]models.DailyStatusCounts, 0)
	for _, day := range r.days() {
		var counts []models.StatusCount
		var err error

		switch sourceFor(day, s.now()) {
		case sourceLive:
			counts, err = s.reports.ContactEventsToday(ctx, filter)
		case sourceSnapshot:
			counts, err = s.reports.ContactEventsRange(ctx, day, day, filter)
		case sourceNone:
		}
		if err != nil {
			return nil, fmt.Errorf("responses for %s: %w", day.Format("2006-01-02"), err)
		}

		if counts == nil {
			counts = []models.StatusCount{}
		}
		out = append(out, models.DailyStatusCounts{
			Date:      day.Format("2006-01-02"),
			Responses: counts,
		})
	}

	return out, nil
}

// ContactDetailsDistribution pages the current contact logs, optionally
// narrowed to one remind status.
func (s *ReportService) ContactDetailsDistribution(ctx context.Context, status models.RemindStatus, page, limit int) (*models.Page[models.ContactLog], error) {
	page, limit = normalizePage(page, limit)

	logs, total, err := s.contacts.List(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return newPage(logs, total, page, limit), nil
}

// ContactDetailsEvents pages the recorded contact attempts in a range.
func (s *ReportService) ContactDetailsEvents(ctx context.Context, r DateRange, status models.RemindStatus, page, limit int) (*models.Page[models.ContactHistory], error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)

	from, to := r.bounds()
	events, total, err := s.reports.ContactHistoryPage(ctx, from, to, status, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return newPage(events, total, page, limit), nil
}

// Detailed pages the full debt rows for one day from the
// day-appropriate source. Snapshot rows are presented in the live row
// shape, keyed by the original debt id.
func (s *ReportService) Detailed(ctx context.Context, day time.Time, opts models.DetailOpts) (*models.Page[models.Debt], error) {
	opts.Page, opts.Limit = normalizePage(opts.Page, opts.Limit)

	switch sourceFor(day, s.now()) {
	case sourceLive:
		debts, total, err := s.debts.List(ctx, models.DebtListOpts{
			Status:       opts.Status,
			EmployeeCode: opts.EmployeeCode,
			CustomerCode: opts.CustomerCode,
			Limit:        opts.Limit,
			Offset:       (opts.Page - 1) * opts.Limit,
		})
		if err != nil {
			return nil, err
		}

		return newPage(debts, total, opts.Page, opts.Limit), nil

	case sourceSnapshot:
		snapshots, total, err := s.reports.DetailSnapshot(ctx, day, opts)
		if err != nil {
			return nil, err
		}

		debts := make([]models.Debt, 0, len(snapshots))
		for i := range snapshots {
			debts = append(debts, snapshotAsDebt(&snapshots[i]))
		}

		return newPage(debts, total, opts.Page, opts.Limit), nil

	default:
		return newPage([]models.Debt{}, 0, opts.Page, opts.Limit), nil
	}
}

// EmployeePerformance aggregates collection outcomes per employee for
// one day (defaulting to today).
func (s *ReportService) EmployeePerformance(ctx context.Context, date *time.Time) ([]models.EmployeePerformance, error) {
	day := s.now()
	if date != nil {
		day = *date
	}

	switch sourceFor(day, s.now()) {
	case sourceLive:
		return s.reports.PerformanceLive(ctx)
	case sourceSnapshot:
		return s.reports.PerformanceAsOf(ctx, day)
	default:
		return []models.EmployeePerformance{}, nil
	}
}

// bounds returns the effective [from, to] of the selection. Validate
// must have passed.
func (r DateRange) bounds() (time.Time, time.Time) {
	if r.Date != nil {
		d := Midnight(*r.Date)

		return d, d
	}

	return Midnight(*r.From), Midnight(*r.To)
}

// normalizeBoundaries applies defaults and rejects non-ascending or
// non-positive boundary lists.
func normalizeBoundaries(boundaries, defaults []int) ([]int, error) {
	if len(boundaries) == 0 {
		return defaults, nil
	}

	prev := 0
	for _, b := range boundaries {
		if b <= prev {
			return nil, models.ErrInvalidBucket
		}
		prev = b
	}

	return boundaries, nil
}

// classify routes rows into buckets by the day difference between asOf
// and the reference date. Rows with no reference date or a difference
// of zero or less are excluded; a difference exactly on a boundary
// lands in the lower bucket.
func classify(rows []models.BucketRow, boundaries []int, asOf time.Time) []models.Bucket {
	buckets := make([]models.Bucket, len(boundaries)+1)
	lower := 1
	for i, b := range boundaries {
		buckets[i].Range = fmt.Sprintf("%d-%d", lower, b)
		lower = b + 1
	}
	buckets[len(boundaries)].Range = fmt.Sprintf("%d+", lower)

	for _, row := range rows {
		if row.ReferenceDate == nil {
			continue
		}

		delta := daysBetween(Midnight(*row.ReferenceDate), asOf)
		if delta <= 0 {
			continue
		}

		idx := len(boundaries)
		for i, b := range boundaries {
			if delta <= b {
				idx = i

				break
			}
		}

		buckets[idx].Count++
		buckets[idx].Amount += row.Amount
	}

	return buckets
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)) / (24 * time.Hour))
}

func sortedStatusCounts(merged map[models.RemindStatus]int64) []models.StatusCount {
	// Fixed status order keeps the payload stable for clients.
	order := []models.RemindStatus{
		models.RemindNotSent,
		models.RemindDebtReported,
		models.RemindFirstReminder,
		models.RemindSecondReminder,
		models.RemindCustomerResponded,
		models.RemindSentNotVerified,
		models.RemindErrorSend,
	}

	out := make([]models.StatusCount, 0, len(merged))
	for _, status := range order {
		if count, ok := merged[status]; ok {
			out = append(out, models.StatusCount{Status: status, Count: count})
			delete(merged, status)
		}
	}
	for status, count := range merged {
		out = append(out, models.StatusCount{Status: status, Count: count})
	}

	return out
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit
}

func newPage[T any](data []T, total int64, page, limit int) *models.Page[T] {
	if data == nil {
		data = []T{}
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &models.Page[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

func snapshotAsDebt(sn *models.DebtSnapshot) models.Debt {
	return models.Debt{
		ID:              sn.OriginalDebtID,
		CustomerRawCode: sn.CustomerRawCode,
		InvoiceCode:     sn.InvoiceCode,
		BillCode:        sn.BillCode,
		TotalAmount:     sn.TotalAmount,
		Remaining:       sn.Remaining,
		IssueDate:       sn.IssueDate,
		DueDate:         sn.DueDate,
		PayLater:        sn.PayLater,
		Status:          sn.Status,
		EmployeeCode:    sn.EmployeeCode,
		EmployeeName:    sn.EmployeeName,
		Note:            sn.Note,
		AccountID:       sn.AccountID,
		CustomerCode:    sn.CustomerCode,
		CustomerName:    sn.CustomerName,
		CreatedAt:       sn.OriginalCreated,
		UpdatedAt:       sn.OriginalUpdated,
	}
}
