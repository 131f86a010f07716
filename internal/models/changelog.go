package models

import "time"

// ChangeAction identifies the kind of row mutation recorded in the change log.
type ChangeAction string

// Change log actions.
const (
	ActionInsert ChangeAction = "INSERT"
	ActionUpdate ChangeAction = "UPDATE"
	ActionDelete ChangeAction = "DELETE"
)

// ChangeLogEntry is one row of the append-only change_log table. Rows are
// written by database triggers whenever a watched table mutates; the relay
// is the only writer of the processed flag.
type ChangeLogEntry struct {
	ID            int64          `json:"id"`
	TableName     string         `json:"table_name"`
	RecordID      int64          `json:"record_id"`
	Action        ChangeAction   `json:"action"`
	OldValues     map[string]any `json:"old_values,omitempty"`
	NewValues     map[string]any `json:"new_values,omitempty"`
	ChangedFields []string       `json:"changed_fields,omitempty"`
	TriggeredAt   time.Time      `json:"triggered_at"`
	Processed     bool           `json:"processed"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`
}

// FieldChange holds the old and new value of a single changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeMap normalizes old/new values into {field: {old, new}} for the
// fields listed in ChangedFields.
func (e *ChangeLogEntry) ChangeMap() map[string]FieldChange {
	changes := make(map[string]FieldChange, len(e.ChangedFields))
	for _, field := range e.ChangedFields {
		var fc FieldChange
		if e.OldValues != nil {
			fc.Old = e.OldValues[field]
		}
		if e.NewValues != nil {
			fc.New = e.NewValues[field]
		}
		changes[field] = fc
	}

	return changes
}
