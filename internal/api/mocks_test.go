package api_test

import (
	"context"
	"time"

	"github.com/recoupio/recoup/internal/models"
	"github.com/recoupio/recoup/internal/relay"
	"github.com/recoupio/recoup/internal/service"
)

// mockReports implements api.ReportResolver with overridable function fields.
type mockReports struct {
	overviewFn              func(ctx context.Context, r service.DateRange, filter models.ReportFilter) (models.Overview, error)
	trendFn                 func(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.TrendPoint, error)
	agingFn                 func(ctx context.Context, asOf time.Time, boundaries []int, filter models.ReportFilter) ([]models.Bucket, error)
	agingDailyFn            func(ctx context.Context, from, to time.Time, boundaries []int, filter models.ReportFilter) ([]models.DailyBuckets, error)
	delayFn                 func(ctx context.Context, asOf time.Time, boundaries []int, filter models.ReportFilter) ([]models.Bucket, error)
	delayDailyFn            func(ctx context.Context, from, to time.Time, boundaries []int, filter models.ReportFilter) ([]models.DailyBuckets, error)
	contactResponsesFn      func(ctx context.Context, mode string, r service.DateRange, filter models.ReportFilter) ([]models.StatusCount, error)
	contactResponsesDailyFn func(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.DailyStatusCounts, error)
	contactDistributionFn   func(ctx context.Context, status models.RemindStatus, page, limit int) (*models.Page[models.ContactLog], error)
	contactEventsFn         func(ctx context.Context, r service.DateRange, status models.RemindStatus, page, limit int) (*models.Page[models.ContactHistory], error)
	detailedFn              func(ctx context.Context, day time.Time, opts models.DetailOpts) (*models.Page[models.Debt], error)
	performanceFn           func(ctx context.Context, date *time.Time) ([]models.EmployeePerformance, error)
}

func (m *mockReports) Overview(ctx context.Context, r service.DateRange, filter models.ReportFilter) (models.Overview, error) {
	if m.overviewFn == nil {
		return models.Overview{}, nil
	}
	return m.overviewFn(ctx, r, filter)
}

func (m *mockReports) Trend(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.TrendPoint, error) {
	if m.trendFn == nil {
		return nil, nil
	}
	return m.trendFn(ctx, from, to, filter)
}

func (m *mockReports) Aging(ctx context.Context, asOf time.Time, boundaries []int, filter models.ReportFilter) ([]models.Bucket, error) {
	if m.agingFn == nil {
		return nil, nil
	}
	return m.agingFn(ctx, asOf, boundaries, filter)
}

func (m *mockReports) AgingDaily(ctx context.Context, from, to time.Time, boundaries []int, filter models.ReportFilter) ([]models.DailyBuckets, error) {
	if m.agingDailyFn == nil {
		return nil, nil
	}
	return m.agingDailyFn(ctx, from, to, boundaries, filter)
}

func (m *mockReports) PayLaterDelay(ctx context.Context, asOf time.Time, boundaries []int, filter models.ReportFilter) ([]models.Bucket, error) {
	if m.delayFn == nil {
		return nil, nil
	}
	return m.delayFn(ctx, asOf, boundaries, filter)
}

func (m *mockReports) PayLaterDelayDaily(ctx context.Context, from, to time.Time, boundaries []int, filter models.ReportFilter) ([]models.DailyBuckets, error) {
	if m.delayDailyFn == nil {
		return nil, nil
	}
	return m.delayDailyFn(ctx, from, to, boundaries, filter)
}

func (m *mockReports) ContactResponses(ctx context.Context, mode string, r service.DateRange, filter models.ReportFilter) ([]models.StatusCount, error) {
	if m.contactResponsesFn == nil {
		return nil, nil
	}
	return m.contactResponsesFn(ctx, mode, r, filter)
}

func (m *mockReports) ContactResponsesDaily(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.DailyStatusCounts, error) {
	if m.contactResponsesDailyFn == nil {
		return nil, nil
	}
	return m.contactResponsesDailyFn(ctx, from, to, filter)
}

func (m *mockReports) ContactDetailsDistribution(ctx context.Context, status models.RemindStatus, page, limit int) (*models.Page[models.ContactLog], error) {
	if m.contactDistributionFn == nil {
		return &models.Page[models.ContactLog]{Data: []models.ContactLog{}}, nil
	}
	return m.contactDistributionFn(ctx, status, page, limit)
}

func (m *mockReports) ContactDetailsEvents(ctx context.Context, r service.DateRange, status models.RemindStatus, page, limit int) (*models.Page[models.ContactHistory], error) {
	if m.contactEventsFn == nil {
		return &models.Page[models.ContactHistory]{Data: []models.ContactHistory{}}, nil
	}
	return m.contactEventsFn(ctx, r, status, page, limit)
}

func (m *mockReports) Detailed(ctx context.Context, day time.Time, opts models.DetailOpts) (*models.Page[models.Debt], error) {
	if m.detailedFn == nil {
		return &models.Page[models.Debt]{Data: []models.Debt{}}, nil
	}
	return m.detailedFn(ctx, day, opts)
}

func (m *mockReports) EmployeePerformance(ctx context.Context, date *time.Time) ([]models.EmployeePerformance, error) {
	if m.performanceFn == nil {
		return nil, nil
	}
	return m.performanceFn(ctx, date)
}

// mockDebts implements api.DebtRepository.
type mockDebts struct {
	getFn    func(ctx context.Context, id int64) (*models.Debt, error)
	listFn   func(ctx context.Context, opts models.DebtListOpts, page int) (*models.Page[models.Debt], error)
	updateFn func(ctx context.Context, id int64, req models.UpdateDebtRequest) (*models.Debt, error)
}

func (m *mockDebts) Get(ctx context.Context, id int64) (*models.Debt, error) {
	if m.getFn == nil {
		return nil, models.ErrDebtNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockDebts) List(ctx context.Context, opts models.DebtListOpts, page int) (*models.Page[models.Debt], error) {
	if m.listFn == nil {
		return &models.Page[models.Debt]{Data: []models.Debt{}}, nil
	}
	return m.listFn(ctx, opts, page)
}

func (m *mockDebts) Update(ctx context.Context, id int64, req models.UpdateDebtRequest) (*models.Debt, error) {
	if m.updateFn == nil {
		return nil, models.ErrDebtNotFound
	}
	return m.updateFn(ctx, id, req)
}

// mockRelay implements api.RelayController.
type mockRelay struct {
	statusFn    func(ctx context.Context) (relay.Status, error)
	reprocessFn func(ctx context.Context) (int64, error)
}

func (m *mockRelay) Status(ctx context.Context) (relay.Status, error) {
	if m.statusFn == nil {
		return relay.Status{Running: true}, nil
	}
	return m.statusFn(ctx)
}

func (m *mockRelay) ForceReprocessAll(ctx context.Context) (int64, error) {
	if m.reprocessFn == nil {
		return 0, nil
	}
	return m.reprocessFn(ctx)
}

// mockCapture implements api.CaptureRunner.
type mockCapture struct {
	captureFn func(ctx context.Context, day time.Time) (*models.CaptureResult, error)
	cloneFn   func(ctx context.Context, day time.Time) (int64, error)
}

func (m *mockCapture) CaptureDaily(ctx context.Context, day time.Time) (*models.CaptureResult, error) {
	if m.captureFn == nil {
		return &models.CaptureResult{SnapshotDate: day}, nil
	}
	return m.captureFn(ctx, day)
}

func (m *mockCapture) CaptureContactHistory(ctx context.Context, day time.Time) (int64, error) {
	if m.cloneFn == nil {
		return 0, nil
	}
	return m.cloneFn(ctx, day)
}
