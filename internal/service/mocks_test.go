package service

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mockReportStore implements ReportStore with overridable function
// fields. Unset fields return zero values.
type mockReportStore struct {
	overviewLiveFn        func(ctx context.Context, filter models.ReportFilter) (models.Overview, error)
	overviewLiveTodayFn   func(ctx context.Context, filter models.ReportFilter) (models.Overview, error)
	overviewSnapshotFn    func(ctx context.Context, day time.Time, filter models.ReportFilter) (models.Overview, error)
	agingRowsLiveFn       func(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error)
	agingRowsAsOfFn       func(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error)
	delayRowsLiveFn       func(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error)
	delayRowsAsOfFn       func(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error)
	contactEventsRangeFn  func(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.StatusCount, error)
	contactEventsTodayFn  func(ctx context.Context, filter models.ReportFilter) ([]models.StatusCount, error)
	contactDistributionFn func(ctx context.Context, filter models.ReportFilter) ([]models.StatusCount, error)
	contactHistoryPageFn  func(ctx context.Context, from, to time.Time, status models.RemindStatus, limit, offset int) ([]models.ContactHistory, int64, error)
	detailSnapshotFn      func(ctx context.Context, day time.Time, opts models.DetailOpts) ([]models.DebtSnapshot, int64, error)
	performanceLiveFn     func(ctx context.Context) ([]models.EmployeePerformance, error)
	performanceAsOfFn     func(ctx context.Context, day time.Time) ([]models.EmployeePerformance, error)
}

func (m *mockReportStore) OverviewLive(ctx context.Context, filter models.ReportFilter) (models.Overview, error) {
	if m.overviewLiveFn == nil {
		return models.Overview{}, nil
	}
	return m.overviewLiveFn(ctx, filter)
}

func (m *mockReportStore) OverviewLiveToday(ctx context.Context, filter models.ReportFilter) (models.Overview, error) {
	if m.overviewLiveTodayFn == nil {
		return models.Overview{}, nil
	}
	return m.overviewLiveTodayFn(ctx, filter)
}

func (m *mockReportStore) OverviewSnapshot(ctx context.Context, day time.Time, filter models.ReportFilter) (models.Overview, error) {
	if m.overviewSnapshotFn == nil {
		return models.Overview{}, nil
	}
	return m.overviewSnapshotFn(ctx, day, filter)
}

func (m *mockReportStore) AgingRowsLive(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error) {
	if m.agingRowsLiveFn == nil {
		return nil, nil
	}
	return m.agingRowsLiveFn(ctx, filter)
}

func (m *mockReportStore) AgingRowsAsOf(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error) {
	if m.agingRowsAsOfFn == nil {
		return nil, nil
	}
	return m.agingRowsAsOfFn(ctx, day, filter)
}

func (m *mockReportStore) DelayRowsLive(ctx context.Context, filter models.ReportFilter) ([]models.BucketRow, error) {
	if m.delayRowsLiveFn == nil {
		return nil, nil
	}
	return m.delayRowsLiveFn(ctx, filter)
}

func (m *mockReportStore) DelayRowsAsOf(ctx context.Context, day time.Time, filter models.ReportFilter) ([]models.BucketRow, error) {
	if m.delayRowsAsOfFn == nil {
		return nil, nil
	}
	return m.delayRowsAsOfFn(ctx, day, filter)
}

func (m *mockReportStore) ContactEventsRange(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.StatusCount, error) {
	if m.contactEventsRangeFn == nil {
		return nil, nil
	}
	return m.contactEventsRangeFn(ctx, from, to, filter)
}

func (m *mockReportStore) ContactEventsToday(ctx context.Context, filter models.ReportFilter) ([]models.StatusCount, error) {
	if m.contactEventsTodayFn == nil {
		return nil, nil
	}
	return m.contactEventsTodayFn(ctx, filter)
}

func (m *mockReportStore) ContactDistribution(ctx context.Context, filter models.ReportFilter) ([]models.StatusCount, error) {
	if m.contactDistributionFn == nil {
		return nil, nil
	}
	return m.contactDistributionFn(ctx, filter)
}

func (m *mockReportStore) ContactHistoryPage(ctx context.Context, from, to time.Time, status models.RemindStatus, limit, offset int) ([]models.ContactHistory, int64, error) {
	if m.contactHistoryPageFn == nil {
		return nil, 0, nil
	}
	return m.contactHistoryPageFn(ctx, from, to, status, limit, offset)
}

func (m *mockReportStore) DetailSnapshot(ctx context.Context, day time.Time, opts models.DetailOpts) ([]models.DebtSnapshot, int64, error) {
	if m.detailSnapshotFn == nil {
		return nil, 0, nil
	}
	return m.detailSnapshotFn(ctx, day, opts)
}

func (m *mockReportStore) PerformanceLive(ctx context.Context) ([]models.EmployeePerformance, error) {
	if m.performanceLiveFn == nil {
		return nil, nil
	}
	return m.performanceLiveFn(ctx)
}

func (m *mockReportStore) PerformanceAsOf(ctx context.Context, day time.Time) ([]models.EmployeePerformance, error) {
	if m.performanceAsOfFn == nil {
		return nil, nil
	}
	return m.performanceAsOfFn(ctx, day)
}

type mockDebtLister struct {
	listFn func(ctx context.Context, opts models.DebtListOpts) ([]models.Debt, int64, error)
}

func (m *mockDebtLister) List(ctx context.Context, opts models.DebtListOpts) ([]models.Debt, int64, error) {
	if m.listFn == nil {
		return nil, 0, nil
	}
	return m.listFn(ctx, opts)
}

type mockContactLister struct {
	listFn func(ctx context.Context, status models.RemindStatus, limit, offset int) ([]models.ContactLog, int64, error)
}

func (m *mockContactLister) List(ctx context.Context, status models.RemindStatus, limit, offset int) ([]models.ContactLog, int64, error) {
	if m.listFn == nil {
		return nil, 0, nil
	}
	return m.listFn(ctx, status, limit, offset)
}

type mockSnapshotStore struct {
	countForDateFn func(ctx context.Context, day time.Time) (int64, error)
	countSourceFn  func(ctx context.Context) (int64, error)
	captureBatchFn func(ctx context.Context, day time.Time, limit, offset int) (int64, error)
}

func (m *mockSnapshotStore) CountForDate(ctx context.Context, day time.Time) (int64, error) {
	if m.countForDateFn == nil {
		return 0, nil
	}
	return m.countForDateFn(ctx, day)
}

func (m *mockSnapshotStore) CountSource(ctx context.Context) (int64, error) {
	if m.countSourceFn == nil {
		return 0, nil
	}
	return m.countSourceFn(ctx)
}

func (m *mockSnapshotStore) CaptureBatch(ctx context.Context, day time.Time, limit, offset int) (int64, error) {
	if m.captureBatchFn == nil {
		return 0, nil
	}
	return m.captureBatchFn(ctx, day, limit, offset)
}

type mockContactCloner struct {
	cloneFn func(ctx context.Context, day time.Time) (int64, error)
}

func (m *mockContactCloner) CloneToHistory(ctx context.Context, day time.Time) (int64, error) {
	if m.cloneFn == nil {
		return 0, nil
	}
	return m.cloneFn(ctx, day)
}
