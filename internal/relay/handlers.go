package relay

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/models"
	"github.com/recoupio/recoup/internal/ws"
)

// handle dispatches one change log entry to its table handler. A record
// that no longer exists is logged and treated as handled: re-reading it
// on a later tick cannot succeed either.
func (e *Engine) handle(ctx context.Context, entry *models.ChangeLogEntry) error {
	switch entry.TableName {
	case ws.TopicDebts:
		return e.handleDebt(ctx, entry)
	case ws.TopicAccounts:
		return e.handleAccount(ctx, entry)
	case ws.TopicContacts:
		return e.handleContact(ctx, entry)
	default:
		e.log.WithFields(logrus.Fields{
			"entry_id": entry.ID,
			"table":    entry.TableName,
		}).Warn("change log entry for unwatched table, skipping")

		return nil
	}
}

func (e *Engine) handleDebt(ctx context.Context, entry *models.ChangeLogEntry) error {
	if entry.Action == models.ActionDelete {
		e.emit(entry, entry.OldValues)

		return nil
	}

	debt, err := e.debts.GetByID(ctx, entry.RecordID)
	if errors.Is(err, models.ErrDebtNotFound) {
		e.logMissing(entry)

		return nil
	}
	if err != nil {
		return fmt.Errorf("reread debt %d: %w", entry.RecordID, err)
	}

	e.emit(entry, debt)

	return nil
}

func (e *Engine) handleAccount(ctx context.Context, entry *models.ChangeLogEntry) error {
	if entry.Action == models.ActionDelete {
		e.emit(entry, entry.OldValues)

		return nil
	}

	account, err := e.accounts.GetByID(ctx, entry.RecordID)
	if errors.Is(err, models.ErrAccountNotFound) {
		e.logMissing(entry)

		return nil
	}
	if err != nil {
		return fmt.Errorf("reread account %d: %w", entry.RecordID, err)
	}

	// Sync rule: a changed send_last_at mirrors onto the account's
	// contact log so both entities agree on last contact time. The
	// mirror write is conditional, so an already consistent pair
	// produces no further change log entries.
	if slices.Contains(entry.ChangedFields, "send_last_at") {
		if _, err := e.contacts.SetSendAt(ctx, account.ID, account.SendLastAt); err != nil {
			return fmt.Errorf("mirror send_last_at to contact log: %w", err)
		}
	}

	e.emit(entry, account)

	return nil
}

func (e *Engine) handleContact(ctx context.Context, entry *models.ChangeLogEntry) error {
	if entry.Action == models.ActionDelete {
		e.emit(entry, entry.OldValues)

		return nil
	}

	contact, err := e.contacts.GetByID(ctx, entry.RecordID)
	if errors.Is(err, models.ErrContactNotFound) {
		e.logMissing(entry)

		return nil
	}
	if err != nil {
		return fmt.Errorf("reread contact log %d: %w", entry.RecordID, err)
	}

	// Inverse sync rule: send_at mirrors onto the owning account's
	// send_last_at.
	if slices.Contains(entry.ChangedFields, "send_at") {
		if _, err := e.accounts.SetSendLastAt(ctx, contact.AccountID, contact.SendAt); err != nil {
			return fmt.Errorf("mirror send_at to account: %w", err)
		}
	}

	e.emit(entry, contact)

	return nil
}

// emit queues the outbound event for debounced delivery. The topic is
// the table name.
func (e *Engine) emit(entry *models.ChangeLogEntry, data any) {
	e.out.Enqueue(entry.TableName, ws.ChangeEvent{
		Table:         entry.TableName,
		RecordID:      entry.RecordID,
		Action:        string(entry.Action),
		ChangedFields: entry.ChangedFields,
		Changes:       entry.ChangeMap(),
		Data:          data,
		TriggeredAt:   entry.TriggeredAt,
	})
}

func (e *Engine) logMissing(entry *models.ChangeLogEntry) {
	e.log.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"table":    entry.TableName,
		"record":   entry.RecordID,
	}).Info("record gone before relay caught up, marking processed")
}
