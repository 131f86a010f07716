// Package relay polls the append-only change log and turns row changes
// into debounced client broadcasts, applying cross-entity sync rules
// along the way.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/metrics"
	"github.com/recoupio/recoup/internal/models"
	"github.com/recoupio/recoup/internal/ws"
)

// ChangeLogStore is the change_log surface the engine needs.
type ChangeLogStore interface {
	FetchUnprocessed(ctx context.Context, afterID int64, limit int) ([]models.ChangeLogEntry, error)
	MarkProcessed(ctx context.Context, id int64) error
	MarkAllUnprocessed(ctx context.Context) (int64, error)
	LatestProcessedID(ctx context.Context) (int64, error)
	CountUnprocessed(ctx context.Context) (int64, error)
}

// DebtReader re-reads live debts after a change.
type DebtReader interface {
	GetByID(ctx context.Context, id int64) (*models.Debt, error)
}

// AccountStore reads accounts and applies the send_last_at mirror.
type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*models.DebtAccount, error)
	SetSendLastAt(ctx context.Context, id int64, sendAt *time.Time) (bool, error)
}

// ContactStore reads contact logs and applies the send_at mirror.
type ContactStore interface {
	GetByID(ctx context.Context, id int64) (*models.ContactLog, error)
	SetSendAt(ctx context.Context, accountID int64, sendAt *time.Time) (bool, error)
}

// Enqueuer receives outbound change events for debounced delivery.
type Enqueuer interface {
	Enqueue(topic string, ev ws.ChangeEvent)
}

// Status is a point-in-time view of the engine for the status endpoint.
type Status struct {
	Running     bool  `json:"running"`
	Cursor      int64 `json:"cursor"`
	Unprocessed int64 `json:"unprocessed"`
	BatchSize   int   `json:"batch_size"`
	IntervalMS  int64 `json:"interval_ms"`
}

// unprocessedGaugeEvery is how many ticks pass between refreshes of the
// unprocessed backlog gauge.
const unprocessedGaugeEvery = 20

// Engine tails the change log with a cursor. Each tick it fetches a
// batch of unprocessed entries past the cursor, handles them in id
// order, and advances the cursor only across contiguously successful
// entries. A failed entry is retried on a later tick, so delivery is
// at least once.
type Engine struct {
	changeLog ChangeLogStore
	debts     DebtReader
	accounts  AccountStore
	contacts  ContactStore
	out       Enqueuer
	log       *logrus.Logger

	interval  time.Duration
	batchSize int

	mu      sync.Mutex
	cursor  int64
	running bool
	ticks   uint64
}

// NewEngine creates a relay engine. Call Run to start polling.
func NewEngine(changeLog ChangeLogStore, debts DebtReader, accounts AccountStore, contacts ContactStore,
	out Enqueuer, interval time.Duration, batchSize int, log *logrus.Logger,
) *Engine {
	return &Engine{
		changeLog: changeLog,
		debts:     debts,
		accounts:  accounts,
		contacts:  contacts,
		out:       out,
		log:       log,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls until ctx is cancelled. The in-flight batch finishes before
// Run returns, so shutdown never strands a half-marked batch.
func (e *Engine) Run(ctx context.Context) {
	cursor, err := e.changeLog.LatestProcessedID(ctx)
	if err != nil {
		e.log.WithError(err).Warn("could not restore relay cursor, starting from 0")
		cursor = 0
	}

	e.mu.Lock()
	e.cursor = cursor
	e.running = true
	e.mu.Unlock()

	metrics.RelayCursor.Set(float64(cursor))
	e.log.WithFields(logrus.Fields{
		"cursor":   cursor,
		"interval": e.interval,
		"batch":    e.batchSize,
	}).Info("relay engine started")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			e.log.Info("relay engine stopped")

			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick processes one batch. Exported behavior is covered via Run in
// production; tests drive tick directly.
func (e *Engine) tick(ctx context.Context) {
	e.mu.Lock()
	cursor := e.cursor
	e.ticks++
	refreshGauge := e.ticks%unprocessedGaugeEvery == 1
	e.mu.Unlock()

	entries, err := e.changeLog.FetchUnprocessed(ctx, cursor, e.batchSize)
	if err != nil {
		e.log.WithError(err).Warn("failed to fetch change log batch")

		return
	}

	if refreshGauge {
		if backlog, err := e.changeLog.CountUnprocessed(ctx); err == nil {
			metrics.RelayUnprocessed.Set(float64(backlog))
		}
	}

	if len(entries) == 0 {
		return
	}

	blocked := false
	for i := range entries {
		entry := &entries[i]

		if err := e.process(ctx, entry); err != nil {
			metrics.RelayProcessed.WithLabelValues(entry.TableName, "error").Inc()
			e.log.WithError(err).WithFields(logrus.Fields{
				"entry_id": entry.ID,
				"table":    entry.TableName,
				"record":   entry.RecordID,
			}).Warn("change log entry failed, will retry")
			blocked = true

			continue
		}

		metrics.RelayProcessed.WithLabelValues(entry.TableName, "ok").Inc()

		if !blocked {
			e.mu.Lock()
			e.cursor = entry.ID
			e.mu.Unlock()
			metrics.RelayCursor.Set(float64(entry.ID))
		}
	}
}

// process handles one entry and marks it processed. The mark is part of
// the entry's success: a failed mark leaves the entry for redelivery.
func (e *Engine) process(ctx context.Context, entry *models.ChangeLogEntry) error {
	if err := e.handle(ctx, entry); err != nil {
		return err
	}

	return e.changeLog.MarkProcessed(ctx, entry.ID)
}

// ForceReprocessAll clears every processed flag and rewinds the cursor,
// causing the full change log to be redelivered.
func (e *Engine) ForceReprocessAll(ctx context.Context) (int64, error) {
	reset, err := e.changeLog.MarkAllUnprocessed(ctx)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	e.cursor = 0
	e.mu.Unlock()
	metrics.RelayCursor.Set(0)

	e.log.WithField("entries", reset).Info("relay cursor rewound, reprocessing full change log")

	return reset, nil
}

// Status reports the engine's current cursor and backlog.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	e.mu.Lock()
	st := Status{
		Running:    e.running,
		Cursor:     e.cursor,
		BatchSize:  e.batchSize,
		IntervalMS: e.interval.Milliseconds(),
	}
	e.mu.Unlock()

	backlog, err := e.changeLog.CountUnprocessed(ctx)
	if err != nil {
		return st, err
	}
	st.Unprocessed = backlog

	return st, nil
}
