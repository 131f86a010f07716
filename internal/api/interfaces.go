package api

import (
	"context"
	"time"

	"github.com/recoupio/recoup/internal/models"
	"github.com/recoupio/recoup/internal/relay"
	"github.com/recoupio/recoup/internal/service"
)

// ReportResolver defines the reporting operations used by ReportHandler.
type ReportResolver interface {
	Overview(ctx context.Context, r service.DateRange, filter models.ReportFilter) (models.Overview, error)
	Trend(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.TrendPoint, error)
	Aging(ctx context.Context, asOf time.Time, boundaries []int, filter models.ReportFilter) ([]models.Bucket, error)
	AgingDaily(ctx context.Context, from, to time.Time, boundaries []int, filter models.ReportFilter) ([]models.DailyBuckets, error)
	PayLaterDelay(ctx context.Context, asOf time.Time, boundaries []int, filter models.ReportFilter) ([]models.Bucket, error)
	PayLaterDelayDaily(ctx context.Context, from, to time.Time, boundaries []int, filter models.ReportFilter) ([]models.DailyBuckets, error)
	ContactResponses(ctx context.Context, mode string, r service.DateRange, filter models.ReportFilter) ([]models.StatusCount, error)
	ContactResponsesDaily(ctx context.Context, from, to time.Time, filter models.ReportFilter) ([]models.DailyStatusCounts, error)
	ContactDetailsDistribution(ctx context.Context, status models.RemindStatus, page, limit int) (*models.Page[models.ContactLog], error)
	ContactDetailsEvents(ctx context.Context, r service.DateRange, status models.RemindStatus, page, limit int) (*models.Page[models.ContactHistory], error)
	Detailed(ctx context.Context, day time.Time, opts models.DetailOpts) (*models.Page[models.Debt], error)
	EmployeePerformance(ctx context.Context, date *time.Time) ([]models.EmployeePerformance, error)
}

// DebtRepository defines the live debt operations used by DebtHandler.
type DebtRepository interface {
	Get(ctx context.Context, id int64) (*models.Debt, error)
	List(ctx context.Context, opts models.DebtListOpts, page int) (*models.Page[models.Debt], error)
	Update(ctx context.Context, id int64, req models.UpdateDebtRequest) (*models.Debt, error)
}

// RelayController defines the relay admin operations used by RelayHandler.
type RelayController interface {
	Status(ctx context.Context) (relay.Status, error)
	ForceReprocessAll(ctx context.Context) (int64, error)
}

// CaptureRunner defines the manual capture operations used by SnapshotHandler.
type CaptureRunner interface {
	CaptureDaily(ctx context.Context, day time.Time) (*models.CaptureResult, error)
	CaptureContactHistory(ctx context.Context, day time.Time) (int64, error)
}
