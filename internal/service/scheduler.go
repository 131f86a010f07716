package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/models"
)

// Capturer is the nightly work the scheduler triggers.
type Capturer interface {
	CaptureDaily(ctx context.Context, day time.Time) (*models.CaptureResult, error)
	CaptureContactHistory(ctx context.Context, day time.Time) (int64, error)
}

// captureRunTimeout bounds one nightly run.
const captureRunTimeout = 30 * time.Minute

// CaptureScheduler fires the snapshot capture once a day at a fixed
// local time. A failed run is logged and retried at the next firing;
// the capture's idempotency makes re-firing safe.
type CaptureScheduler struct {
	capturer Capturer
	hour     int
	minute   int
	log      *logrus.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewCaptureScheduler creates a scheduler firing daily at hour:minute.
func NewCaptureScheduler(capturer Capturer, hour, minute int, log *logrus.Logger) *CaptureScheduler {
	return &CaptureScheduler{
		capturer: capturer,
		hour:     hour,
		minute:   minute,
		log:      log,
		now:      time.Now,
	}
}

// Run sleeps until the next firing time, runs the capture, and repeats
// until ctx is cancelled.
func (cs *CaptureScheduler) Run(ctx context.Context) {
	cs.log.WithFields(logrus.Fields{
		"hour":   cs.hour,
		"minute": cs.minute,
	}).Info("capture scheduler started")

	for {
		wait := time.Until(cs.NextFiring(cs.now()))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			cs.log.Info("capture scheduler stopped")

			return
		case <-timer.C:
		}

		cs.fire(ctx)
	}
}

// NextFiring returns the first hour:minute occurrence strictly after t.
func (cs *CaptureScheduler) NextFiring(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), cs.hour, cs.minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

func (cs *CaptureScheduler) fire(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, captureRunTimeout)
	defer cancel()

	day := cs.now()

	if _, err := cs.capturer.CaptureDaily(runCtx, day); err != nil {
		cs.log.WithError(err).Error("nightly snapshot capture failed, will retry tomorrow")
	}

	if _, err := cs.capturer.CaptureContactHistory(runCtx, day); err != nil {
		cs.log.WithError(err).Error("nightly contact history capture failed, will retry tomorrow")
	}
}
