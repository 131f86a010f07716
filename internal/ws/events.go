package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/recoupio/recoup/internal/models"
)

// Topics clients can subscribe to. Each maps to one watched table.
const (
	TopicDebts    = "debts"
	TopicAccounts = "debt_accounts"
	TopicContacts = "contact_logs"
)

// Topics lists every broadcast topic.
func Topics() []string {
	return []string{TopicDebts, TopicAccounts, TopicContacts}
}

// ValidTopic reports whether a subscription topic is known.
func ValidTopic(topic string) bool {
	switch topic {
	case TopicDebts, TopicAccounts, TopicContacts:
		return true
	}

	return false
}

// ChangeEvent is one captured row change as delivered to clients.
type ChangeEvent struct {
	Table         string                        `json:"table"`
	RecordID      int64                         `json:"record_id"`
	Action        string                        `json:"action"`
	ChangedFields []string                      `json:"changed_fields,omitempty"`
	Changes       map[string]models.FieldChange `json:"changes,omitempty"`
	Data          any                           `json:"data,omitempty"`
	TriggeredAt   time.Time                     `json:"triggered_at"`
}

// FlushPayload is the body of one debounced broadcast: every change
// coalesced during the quiet window, in arrival order, plus the flag
// telling clients to refetch.
type FlushPayload struct {
	Events         []ChangeEvent `json:"events"`
	RefreshRequest bool          `json:"refresh_request"`
}

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type  string          `json:"type"`
	ID    uint64          `json:"id"`
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
	Time  time.Time       `json:"time"`
}

// SubscribeMsg is sent by the client on connect to pick topics and
// request event replay.
type SubscribeMsg struct {
	Type        string   `json:"type"`
	Topics      []string `json:"topics"`
	LastEventID uint64   `json:"last_event_id"`
}

// ResetMsg tells the client to do a full refresh (requested events too old).
type ResetMsg struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Reason string `json:"reason"`
}

// EventSequence tracks monotonic event IDs per topic.
type EventSequence struct {
	mu       sync.Mutex
	counters map[string]*atomic.Uint64
}

// NewEventSequence creates a new EventSequence.
func NewEventSequence() *EventSequence {
	return &EventSequence{
		counters: make(map[string]*atomic.Uint64),
	}
}

// Next returns the next sequence number for a topic.
func (es *EventSequence) Next(topic string) uint64 {
	es.mu.Lock()
	counter, ok := es.counters[topic]
	if !ok {
		counter = &atomic.Uint64{}
		es.counters[topic] = counter
	}
	es.mu.Unlock()

	return counter.Add(1)
}
