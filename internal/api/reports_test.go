package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/recoupio/recoup/internal/api"
	"github.com/recoupio/recoup/internal/models"
	"github.com/recoupio/recoup/internal/service"
)

func TestOverviewPassesRangeAndFilter(t *testing.T) {
	var gotRange service.DateRange
	var gotFilter models.ReportFilter
	reports := &mockReports{
		overviewFn: func(_ context.Context, r service.DateRange, filter models.ReportFilter) (models.Overview, error) {
			gotRange = r
			gotFilter = filter

			return models.Overview{Total: 12, Paid: 4, TotalAmount: 1000, PaidAmount: 250, CollectionRate: 25}, nil
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/overview", h.Overview)

	w := doRequest(r, http.MethodGet, "/reports/overview?from=2026-06-01&to=2026-06-07&employee_code=E1&customer_code=C9", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if gotRange.From == nil || gotRange.From.Format("2006-01-02") != "2026-06-01" {
		t.Errorf("from = %v, want 2026-06-01", gotRange.From)
	}
	if gotRange.To == nil || gotRange.To.Format("2006-01-02") != "2026-06-07" {
		t.Errorf("to = %v, want 2026-06-07", gotRange.To)
	}
	if gotFilter.EmployeeCode != "E1" || gotFilter.CustomerCode != "C9" {
		t.Errorf("filter = %+v, want E1/C9", gotFilter)
	}

	var overview models.Overview
	if err := json.Unmarshal(w.Body.Bytes(), &overview); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if overview.Total != 12 || overview.CollectionRate != 25 {
		t.Errorf("overview = %+v", overview)
	}
}

func TestOverviewMalformedDate(t *testing.T) {
	h := api.NewReportHandler(&mockReports{}, testLogger())
	r := newTestRouter()
	r.GET("/reports/overview", h.Overview)

	w := doRequest(r, http.MethodGet, "/reports/overview?date=June-1st", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["code"] != "invalid_request" {
		t.Errorf("code = %q, want invalid_request", resp["code"])
	}
}

func TestOverviewServiceValidationIs400(t *testing.T) {
	reports := &mockReports{
		overviewFn: func(context.Context, service.DateRange, models.ReportFilter) (models.Overview, error) {
			return models.Overview{}, models.ErrMissingDate
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/overview", h.Overview)

	w := doRequest(r, http.MethodGet, "/reports/overview", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
	}
}

func TestOverviewInternalErrorIs500(t *testing.T) {
	reports := &mockReports{
		overviewFn: func(context.Context, service.DateRange, models.ReportFilter) (models.Overview, error) {
			return models.Overview{}, context.DeadlineExceeded
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/overview", h.Overview)

	w := doRequest(r, http.MethodGet, "/reports/overview?date=2026-06-01", "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestTrendRequiresRange(t *testing.T) {
	h := api.NewReportHandler(&mockReports{}, testLogger())
	r := newTestRouter()
	r.GET("/reports/trend", h.Trend)

	w := doRequest(r, http.MethodGet, "/reports/trend?from=2026-06-01", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAgingParsesBoundaries(t *testing.T) {
	var gotBoundaries []int
	var gotAsOf time.Time
	reports := &mockReports{
		agingFn: func(_ context.Context, asOf time.Time, boundaries []int, _ models.ReportFilter) ([]models.Bucket, error) {
			gotAsOf = asOf
			gotBoundaries = boundaries

			return []models.Bucket{{Range: "1-15", Count: 2, Amount: 300}}, nil
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/aging", h.Aging)

	w := doRequest(r, http.MethodGet, "/reports/aging?date=2026-06-10&boundaries=15,45,90", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if gotAsOf.Format("2006-01-02") != "2026-06-10" {
		t.Errorf("as-of = %v, want 2026-06-10", gotAsOf)
	}
	if len(gotBoundaries) != 3 || gotBoundaries[0] != 15 || gotBoundaries[2] != 90 {
		t.Errorf("boundaries = %v, want [15 45 90]", gotBoundaries)
	}
}

func TestAgingMalformedBoundaries(t *testing.T) {
	h := api.NewReportHandler(&mockReports{}, testLogger())
	r := newTestRouter()
	r.GET("/reports/aging", h.Aging)

	w := doRequest(r, http.MethodGet, "/reports/aging?boundaries=30,sixty", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAgingDefaultsAsOfToToday(t *testing.T) {
	var gotAsOf time.Time
	reports := &mockReports{
		agingFn: func(_ context.Context, asOf time.Time, _ []int, _ models.ReportFilter) ([]models.Bucket, error) {
			gotAsOf = asOf

			return nil, nil
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/aging", h.Aging)

	w := doRequest(r, http.MethodGet, "/reports/aging", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	today := time.Now().Format("2006-01-02")
	if gotAsOf.Format("2006-01-02") != today {
		t.Errorf("as-of = %v, want today %s", gotAsOf, today)
	}
}

func TestContactResponsesDefaultsToEventsMode(t *testing.T) {
	var gotMode string
	reports := &mockReports{
		contactResponsesFn: func(_ context.Context, mode string, _ service.DateRange, _ models.ReportFilter) ([]models.StatusCount, error) {
			gotMode = mode

			return []models.StatusCount{{Status: "answered", Count: 3}}, nil
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/contact-responses", h.ContactResponses)

	w := doRequest(r, http.MethodGet, "/reports/contact-responses?from=2026-06-01&to=2026-06-07", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if gotMode != service.ModeEvents {
		t.Errorf("mode = %q, want %q", gotMode, service.ModeEvents)
	}
}

func TestContactDetailsRejectsUnknownMode(t *testing.T) {
	h := api.NewReportHandler(&mockReports{}, testLogger())
	r := newTestRouter()
	r.GET("/reports/contact-details", h.ContactDetails)

	w := doRequest(r, http.MethodGet, "/reports/contact-details?mode=histogram", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestContactDetailsRoutesByMode(t *testing.T) {
	distributionCalled := false
	eventsCalled := false
	reports := &mockReports{
		contactDistributionFn: func(_ context.Context, status models.RemindStatus, page, limit int) (*models.Page[models.ContactLog], error) {
			distributionCalled = true
			if status != "pay_later" || page != 2 || limit != 50 {
				t.Errorf("distribution args = %v/%d/%d", status, page, limit)
			}

			return &models.Page[models.ContactLog]{Data: []models.ContactLog{}, Page: page, Limit: limit}, nil
		},
		contactEventsFn: func(_ context.Context, r service.DateRange, _ models.RemindStatus, _, _ int) (*models.Page[models.ContactHistory], error) {
			eventsCalled = true
			if r.From == nil || r.To == nil {
				t.Error("events mode should receive the parsed range")
			}

			return &models.Page[models.ContactHistory]{Data: []models.ContactHistory{}}, nil
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/contact-details", h.ContactDetails)

	w := doRequest(r, http.MethodGet, "/reports/contact-details?mode=distribution&status=pay_later&page=2&limit=50", "")
	if w.Code != http.StatusOK {
		t.Fatalf("distribution status = %d, want 200", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/reports/contact-details?mode=events&from=2026-06-01&to=2026-06-07", "")
	if w.Code != http.StatusOK {
		t.Fatalf("events status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	if !distributionCalled || !eventsCalled {
		t.Errorf("called: distribution=%v events=%v, want both", distributionCalled, eventsCalled)
	}
}

func TestDetailedPassesFiltersAndPaging(t *testing.T) {
	var gotDay time.Time
	var gotOpts models.DetailOpts
	reports := &mockReports{
		detailedFn: func(_ context.Context, day time.Time, opts models.DetailOpts) (*models.Page[models.Debt], error) {
			gotDay = day
			gotOpts = opts

			return &models.Page[models.Debt]{Data: []models.Debt{{ID: 7}}, Total: 1, Page: 3, Limit: 10, TotalPages: 1}, nil
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/detailed", h.Detailed)

	w := doRequest(r, http.MethodGet, "/reports/detailed?date=2026-06-01&status=paid&employee_code=E1&page=3&limit=10", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if gotDay.Format("2006-01-02") != "2026-06-01" {
		t.Errorf("day = %v, want 2026-06-01", gotDay)
	}
	if gotOpts.Status != models.StatusPaid || gotOpts.EmployeeCode != "E1" || gotOpts.Page != 3 || gotOpts.Limit != 10 {
		t.Errorf("opts = %+v", gotOpts)
	}
}

func TestEmployeePerformanceOptionalDate(t *testing.T) {
	var gotDate *time.Time
	reports := &mockReports{
		performanceFn: func(_ context.Context, date *time.Time) ([]models.EmployeePerformance, error) {
			gotDate = date

			return []models.EmployeePerformance{{EmployeeCode: "E1", TotalDebts: 5}}, nil
		},
	}
	h := api.NewReportHandler(reports, testLogger())
	r := newTestRouter()
	r.GET("/reports/employee-performance", h.EmployeePerformance)

	w := doRequest(r, http.MethodGet, "/reports/employee-performance", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotDate != nil {
		t.Errorf("date = %v, want nil for live query", gotDate)
	}

	w = doRequest(r, http.MethodGet, "/reports/employee-performance?date=2026-05-20", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotDate == nil || gotDate.Format("2006-01-02") != "2026-05-20" {
		t.Errorf("date = %v, want 2026-05-20", gotDate)
	}
}
