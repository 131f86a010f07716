// Package service implements the business logic between the HTTP layer
// and the stores: the daily snapshot capture, its scheduler, and the
// point-in-time report resolver.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/metrics"
	"github.com/recoupio/recoup/internal/models"
)

// SnapshotStore is the persistence surface of the capture job.
type SnapshotStore interface {
	CountForDate(ctx context.Context, day time.Time) (int64, error)
	CountSource(ctx context.Context) (int64, error)
	CaptureBatch(ctx context.Context, day time.Time, limit, offset int) (int64, error)
}

// ContactCloner appends the day's contact attempts to the history log.
type ContactCloner interface {
	CloneToHistory(ctx context.Context, day time.Time) (int64, error)
}

// maxCaptureBatches bounds a single run regardless of table size.
const maxCaptureBatches = 10000

// SnapshotService copies the live debt book into dated snapshot rows,
// one run per day.
type SnapshotService struct {
	snapshots  SnapshotStore
	contacts   ContactCloner
	log        *logrus.Logger
	batchSize  int
	batchDelay time.Duration
}

// NewSnapshotService creates the capture service.
func NewSnapshotService(snapshots SnapshotStore, contacts ContactCloner, batchSize int, batchDelay time.Duration, log *logrus.Logger) *SnapshotService {
	return &SnapshotService{
		snapshots:  snapshots,
		contacts:   contacts,
		log:        log,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// CaptureDaily snapshots every live debt row under the given date.
//
// The run is idempotent twice over: a day that already has snapshot
// rows is skipped outright, and a retry after a mid-run failure re-runs
// the batches with ON CONFLICT DO NOTHING absorbing the rows the first
// attempt already wrote. Batches are sequential with a pause between them
// so the capture never monopolizes the pool.
func (s *SnapshotService) CaptureDaily(ctx context.Context, day time.Time) (*models.CaptureResult, error) {
	day = Midnight(day)
	start := time.Now()
	result := &models.CaptureResult{
		RunID:        uuid.NewString(),
		SnapshotDate: day,
	}

	runLog := s.log.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"date":   day.Format("2006-01-02"),
	})

	existing, err := s.snapshots.CountForDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("snapshot idempotency check: %w", err)
	}
	if existing > 0 {
		result.Skipped = true
		result.Duration = time.Since(start).String()
		runLog.WithField("existing", existing).Info("snapshot already captured for date, skipping")

		return result, nil
	}

	source, err := s.snapshots.CountSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("count capture source: %w", err)
	}

	offset := 0
	for batch := 0; batch < maxCaptureBatches; batch++ {
		inserted, err := s.snapshots.CaptureBatch(ctx, day, s.batchSize, offset)
		if err != nil {
			return result, fmt.Errorf("capture batch %d: %w", batch, err)
		}

		result.RowsCaptured += int(inserted)
		result.Batches++
		offset += s.batchSize

		if int64(offset) >= source {
			break
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(s.batchDelay):
		}
	}

	result.Duration = time.Since(start).String()

	metrics.SnapshotRows.Add(float64(result.RowsCaptured))
	metrics.SnapshotLastRun.SetToCurrentTime()

	runLog.WithFields(logrus.Fields{
		"rows":     result.RowsCaptured,
		"batches":  result.Batches,
		"duration": result.Duration,
	}).Info("snapshot capture complete")

	return result, nil
}

// CaptureContactHistory appends the day's contact attempts to the
// immutable history log.
func (s *SnapshotService) CaptureContactHistory(ctx context.Context, day time.Time) (int64, error) {
	day = Midnight(day)

	cloned, err := s.contacts.CloneToHistory(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("clone contact history: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"date": day.Format("2006-01-02"),
		"rows": cloned,
	}).Info("contact history captured")

	return cloned, nil
}

// Midnight truncates a timestamp to its calendar date.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
