package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/models"
	"github.com/recoupio/recoup/internal/ws"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeChangeLog is an in-memory change_log honoring the processed flag
// and cursor semantics of the real store.
type fakeChangeLog struct {
	mu      sync.Mutex
	entries []models.ChangeLogEntry
}

func (f *fakeChangeLog) FetchUnprocessed(_ context.Context, afterID int64, limit int) ([]models.ChangeLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ChangeLogEntry
	for _, e := range f.entries {
		if e.Processed || e.ID <= afterID {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeChangeLog) MarkProcessed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].Processed = true
		}
	}
	return nil
}

func (f *fakeChangeLog) MarkAllUnprocessed(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for i := range f.entries {
		if f.entries[i].Processed {
			f.entries[i].Processed = false
			n++
		}
	}
	return n, nil
}

func (f *fakeChangeLog) LatestProcessedID(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var max int64
	for _, e := range f.entries {
		if e.Processed && e.ID > max {
			max = e.ID
		}
	}
	return max, nil
}

func (f *fakeChangeLog) CountUnprocessed(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, e := range f.entries {
		if !e.Processed {
			n++
		}
	}
	return n, nil
}

func (f *fakeChangeLog) processed(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.entries {
		if e.ID == id {
			return e.Processed
		}
	}
	return false
}

type mockDebts struct {
	getByIDFn func(ctx context.Context, id int64) (*models.Debt, error)
}

func (m *mockDebts) GetByID(ctx context.Context, id int64) (*models.Debt, error) {
	return m.getByIDFn(ctx, id)
}

type mockAccounts struct {
	getByIDFn       func(ctx context.Context, id int64) (*models.DebtAccount, error)
	setSendLastAtFn func(ctx context.Context, id int64, sendAt *time.Time) (bool, error)
}

func (m *mockAccounts) GetByID(ctx context.Context, id int64) (*models.DebtAccount, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockAccounts) SetSendLastAt(ctx context.Context, id int64, sendAt *time.Time) (bool, error) {
	if m.setSendLastAtFn == nil {
		return false, nil
	}
	return m.setSendLastAtFn(ctx, id, sendAt)
}

type mockContacts struct {
	getByIDFn   func(ctx context.Context, id int64) (*models.ContactLog, error)
	setSendAtFn func(ctx context.Context, accountID int64, sendAt *time.Time) (bool, error)
}

func (m *mockContacts) GetByID(ctx context.Context, id int64) (*models.ContactLog, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockContacts) SetSendAt(ctx context.Context, accountID int64, sendAt *time.Time) (bool, error) {
	if m.setSendAtFn == nil {
		return false, nil
	}
	return m.setSendAtFn(ctx, accountID, sendAt)
}

// recordingEnqueuer captures enqueued events in order.
type recordingEnqueuer struct {
	mu     sync.Mutex
	events []ws.ChangeEvent
}

func (r *recordingEnqueuer) Enqueue(_ string, ev ws.ChangeEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingEnqueuer) recorded() []ws.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ws.ChangeEvent, len(r.events))
	copy(out, r.events)
	return out
}

func debtEntry(id, recordID int64, action models.ChangeAction) models.ChangeLogEntry {
	return models.ChangeLogEntry{
		ID:          id,
		TableName:   ws.TopicDebts,
		RecordID:    recordID,
		Action:      action,
		TriggeredAt: time.Now(),
	}
}

func newTestEngine(cl *fakeChangeLog, debts *mockDebts, accounts *mockAccounts, contacts *mockContacts, out *recordingEnqueuer) *Engine {
	if debts == nil {
		debts = &mockDebts{getByIDFn: func(_ context.Context, id int64) (*models.Debt, error) {
			return &models.Debt{ID: id, Status: models.StatusNoInfo}, nil
		}}
	}
	if accounts == nil {
		accounts = &mockAccounts{getByIDFn: func(_ context.Context, id int64) (*models.DebtAccount, error) {
			return &models.DebtAccount{ID: id}, nil
		}}
	}
	if contacts == nil {
		contacts = &mockContacts{getByIDFn: func(_ context.Context, id int64) (*models.ContactLog, error) {
			return &models.ContactLog{ID: id, AccountID: 1}, nil
		}}
	}
	return NewEngine(cl, debts, accounts, contacts, out, 10*time.Millisecond, 50, testLogger())
}

func TestTickDeliversInOrderAndAdvancesCursor(t *testing.T) {
	cl := &fakeChangeLog{entries: []models.ChangeLogEntry{
		debtEntry(1, 10, models.ActionInsert),
		debtEntry(2, 11, models.ActionUpdate),
		debtEntry(3, 10, models.ActionUpdate),
	}}
	out := &recordingEnqueuer{}
	e := newTestEngine(cl, nil, nil, nil, out)

	e.tick(context.Background())

	events := out.recorded()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, ev := range events {
		if ev.RecordID != []int64{10, 11, 10}[i] {
			t.Errorf("event %d out of order: record %d", i, ev.RecordID)
		}
	}

	if e.cursor != 3 {
		t.Errorf("cursor = %d, want 3", e.cursor)
	}
	for id := int64(1); id <= 3; id++ {
		if !cl.processed(id) {
			t.Errorf("entry %d not marked processed", id)
		}
	}
}

func TestTickFailedEntryBlocksCursorButNotSuccessors(t *testing.T) {
	cl := &fakeChangeLog{entries: []models.ChangeLogEntry{
		debtEntry(1, 10, models.ActionUpdate),
		debtEntry(2, 11, models.ActionUpdate),
		debtEntry(3, 12, models.ActionUpdate),
	}}

	dbDown := true
	debts := &mockDebts{getByIDFn: func(_ context.Context, id int64) (*models.Debt, error) {
		if id == 11 && dbDown {
			return nil, errors.New("connection reset")
		}
		return &models.Debt{ID: id}, nil
	}}
	out := &recordingEnqueuer{}
	e := newTestEngine(cl, debts, nil, nil, out)

	e.tick(context.Background())

	if cl.processed(2) {
		t.Error("failed entry 2 must stay unprocessed")
	}
	if !cl.processed(1) || !cl.processed(3) {
		t.Error("entries around the failure must still be processed")
	}
	if e.cursor != 1 {
		t.Errorf("cursor = %d, want 1 (never past a failed entry)", e.cursor)
	}

	// Next tick retries only the failed entry.
	dbDown = false
	e.tick(context.Background())

	if !cl.processed(2) {
		t.Error("entry 2 not processed on retry")
	}
	if e.cursor != 2 {
		t.Errorf("cursor after retry = %d, want 2", e.cursor)
	}

	events := out.recorded()
	if len(events) != 3 {
		t.Fatalf("got %d events total, want 3 (no duplicate for 10 or 12)", len(events))
	}
}

func TestTickMissingRecordMarkedProcessedWithoutEvent(t *testing.T) {
	cl := &fakeChangeLog{entries: []models.ChangeLogEntry{
		debtEntry(1, 99, models.ActionUpdate),
	}}
	debts := &mockDebts{getByIDFn: func(_ context.Context, _ int64) (*models.Debt, error) {
		return nil, models.ErrDebtNotFound
	}}
	out := &recordingEnqueuer{}
	e := newTestEngine(cl, debts, nil, nil, out)

	e.tick(context.Background())

	if !cl.processed(1) {
		t.Error("entry for missing record must be marked processed")
	}
	if len(out.recorded()) != 0 {
		t.Error("missing record must not produce an event")
	}
	if e.cursor != 1 {
		t.Errorf("cursor = %d, want 1", e.cursor)
	}
}

func TestTickDeleteEmitsOldValuesWithoutReread(t *testing.T) {
	entry := debtEntry(1, 42, models.ActionDelete)
	entry.OldValues = map[string]any{"id": float64(42), "status": "paid"}
	cl := &fakeChangeLog{entries: []models.ChangeLogEntry{entry}}

	debts := &mockDebts{getByIDFn: func(_ context.Context, _ int64) (*models.Debt, error) {
		t.Fatal("delete must not re-read the entity")
		return nil, nil
	}}
	out := &recordingEnqueuer{}
	e := newTestEngine(cl, debts, nil, nil, out)

	e.tick(context.Background())

	events := out.recorded()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Action != "DELETE" {
		t.Errorf("action = %q, want DELETE", events[0].Action)
	}
}

func TestContactSendAtMirrorsToAccount(t *testing.T) {
	sendAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	entry := models.ChangeLogEntry{
		ID: 1, TableName: ws.TopicContacts, RecordID: 7,
		Action:        models.ActionUpdate,
		ChangedFields: []string{"send_at", "remind_status"},
		TriggeredAt:   time.Now(),
	}
	cl := &fakeChangeLog{entries: []models.ChangeLogEntry{entry}}

	contacts := &mockContacts{
		getByIDFn: func(_ context.Context, id int64) (*models.ContactLog, error) {
			return &models.ContactLog{ID: id, AccountID: 3, SendAt: &sendAt}, nil
		},
	}

	var mirroredID int64
	var mirroredAt *time.Time
	accounts := &mockAccounts{
		getByIDFn: func(_ context.Context, id int64) (*models.DebtAccount, error) {
			return &models.DebtAccount{ID: id}, nil
		},
		setSendLastAtFn: func(_ context.Context, id int64, at *time.Time) (bool, error) {
			mirroredID, mirroredAt = id, at
			return true, nil
		},
	}

	out := &recordingEnqueuer{}
	e := newTestEngine(cl, nil, accounts, contacts, out)

	e.tick(context.Background())

	if mirroredID != 3 {
		t.Errorf("mirror hit account %d, want 3", mirroredID)
	}
	if mirroredAt == nil || !mirroredAt.Equal(sendAt) {
		t.Errorf("mirrored send_at = %v, want %v", mirroredAt, sendAt)
	}
	if len(out.recorded()) != 1 {
		t.Error("sync rule must not suppress the outbound event")
	}
}

func TestAccountSendLastAtMirrorsToContact(t *testing.T) {
	sendLast := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	entry := models.ChangeLogEntry{
		ID: 1, TableName: ws.TopicAccounts, RecordID: 3,
		Action:        models.ActionUpdate,
		ChangedFields: []string{"send_last_at"},
		TriggeredAt:   time.Now(),
	}
	cl := &fakeChangeLog{entries: []models.ChangeLogEntry{entry}}

	accounts := &mockAccounts{
		getByIDFn: func(_ context.Context, id int64) (*models.DebtAccount, error) {
			return &models.DebtAccount{ID: id, SendLastAt: &sendLast}, nil
		},
	}

	var mirroredAccount int64
	contacts := &mockContacts{
		getByIDFn: func(_ context.Context, id int64) (*models.ContactLog, error) {
			return &models.ContactLog{ID: id, AccountID: 3}, nil
		},
		setSendAtFn: func(_ context.Context, accountID int64, at *time.Time) (bool, error) {
			mirroredAccount = accountID
			if at == nil || !at.Equal(sendLast) {
				t.Errorf("mirrored send_at = %v, want %v", at, sendLast)
			}
			return true, nil
		},
	}

	out := &recordingEnqueuer{}
	e := newTestEngine(cl, nil, accounts, contacts, out)

	e.tick(context.Background())

	if mirroredAccount != 3 {
		t.Errorf("mirror hit account %d, want 3", mirroredAccount)
	}
}

func TestUnwatchedTableSkippedButProcessed(t *testing.T) {
	cl := &fakeChangeLog{entries: []models.ChangeLogEntry{{
		ID: 1, TableName: "audit_trail", RecordID: 5,
		Action: models.ActionInsert, TriggeredAt: time.Now(),
	}}}
	out := &recordingEnqueuer{}
	e := newTestEngine(cl, nil, nil, nil, out)

	e.tick(context.Background())

	if !cl.processed(1) {
		t.Error("unwatched entry must be marked processed")
	}
	if len(out.recorded()) != 0 {
		t.Error("unwatched entry must not produce an event")
	}
}

func TestForceReprocessAllRedelivers(t *testing.T) {
	cl := &fakeChangeLog{entries: []models.ChangeLogEntry{
		debtEntry(1, 10, models.ActionInsert),
		debtEntry(2, 11, models.ActionInsert),
	}}
	out := &recordingEnqueuer{}
	e := newTestEngine(cl, nil, nil, nil, out)

	e.tick(context.Background())
	if len(out.recorded()) != 2 {
		t.Fatalf("first pass delivered %d events, want 2", len(out.recorded()))
	}

	reset, err := e.ForceReprocessAll(context.Background())
	if err != nil {
		t.Fatalf("ForceReprocessAll: %v", err)
	}
	if reset != 2 {
		t.Errorf("reset %d entries, want 2", reset)
	}
	if e.cursor != 0 {
		t.Errorf("cursor = %d, want 0 after reset", e.cursor)
	}

	e.tick(context.Background())
	if len(out.recorded()) != 4 {
		t.Errorf("after reprocess %d events total, want 4", len(out.recorded()))
	}
}

func TestRunRestoresCursorFromProcessedRows(t *testing.T) {
	entries := []models.ChangeLogEntry{
		debtEntry(1, 10, models.ActionInsert),
		debtEntry(2, 11, models.ActionInsert),
		debtEntry(3, 12, models.ActionInsert),
	}
	entries[0].Processed = true
	entries[1].Processed = true
	cl := &fakeChangeLog{entries: entries}

	out := &recordingEnqueuer{}
	e := newTestEngine(cl, nil, nil, nil, out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(out.recorded()) < 1 {
		select {
		case <-deadline:
			t.Fatal("engine never delivered the pending entry")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done

	events := out.recorded()
	if len(events) != 1 || events[0].RecordID != 12 {
		t.Fatalf("events = %+v, want exactly the unprocessed record 12", events)
	}
}
