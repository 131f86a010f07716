package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/metrics"
)

// Broadcaster is the hub surface the debouncer needs.
type Broadcaster interface {
	BroadcastEvent(eventType, topic string, data json.RawMessage)
}

// Debouncer coalesces change events per topic. Each enqueued event
// restarts that topic's quiet-window timer; only when a full window
// passes with no new event does the queue flush as a single broadcast
// carrying every coalesced event in arrival order.
//
// A topic under continuous change therefore broadcasts nothing until
// the writes pause, which is the point: clients refetch once per burst
// instead of once per row.
type Debouncer struct {
	hub    Broadcaster
	window time.Duration
	log    *logrus.Logger

	mu     sync.Mutex
	queues map[string][]ChangeEvent
	timers map[string]*time.Timer
	gens   map[string]uint64
	closed bool
}

// NewDebouncer creates a Debouncer flushing through hub after window of
// quiet per topic.
func NewDebouncer(hub Broadcaster, window time.Duration, log *logrus.Logger) *Debouncer {
	return &Debouncer{
		hub:    hub,
		window: window,
		log:    log,
		queues: make(map[string][]ChangeEvent),
		timers: make(map[string]*time.Timer),
		gens:   make(map[string]uint64),
	}
}

// Enqueue appends an event to the topic's queue and restarts its
// quiet-window timer. Events enqueued after Close are dropped.
func (d *Debouncer) Enqueue(topic string, ev ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.queues[topic] = append(d.queues[topic], ev)
	metrics.BroadcastQueueDepth.WithLabelValues(topic).Set(float64(len(d.queues[topic])))

	// Each enqueue invalidates any timer callback already on its way to
	// the lock: a fired-but-unserviced timer must not deliver this event
	// before its own quiet window has passed.
	d.gens[topic]++
	gen := d.gens[topic]

	if timer, ok := d.timers[topic]; ok {
		timer.Stop()
	}

	d.timers[topic] = time.AfterFunc(d.window, func() { d.flushGen(topic, gen) })
}

// flushGen is the timer callback. It flushes only when no newer enqueue
// has restarted the topic's window since the timer was armed.
func (d *Debouncer) flushGen(topic string, gen uint64) {
	d.mu.Lock()
	if d.gens[topic] != gen {
		d.mu.Unlock()

		return
	}
	queue := d.takeLocked(topic)
	d.mu.Unlock()

	d.broadcast(topic, queue)
}

// takeLocked removes and returns the topic's queue and cancels its
// timer. Callers must hold d.mu.
func (d *Debouncer) takeLocked(topic string) []ChangeEvent {
	queue := d.queues[topic]
	delete(d.queues, topic)
	if timer, ok := d.timers[topic]; ok {
		timer.Stop()
		delete(d.timers, topic)
	}
	d.gens[topic]++

	return queue
}

// Flush delivers the topic's queued events immediately as one broadcast.
// A no-op when the queue is empty.
func (d *Debouncer) Flush(topic string) {
	d.mu.Lock()
	queue := d.takeLocked(topic)
	d.mu.Unlock()

	d.broadcast(topic, queue)
}

// FlushAll delivers every pending queue. Used on shutdown so coalesced
// events are not lost.
func (d *Debouncer) FlushAll() {
	d.mu.Lock()
	pending := make(map[string][]ChangeEvent, len(d.queues))
	for topic := range d.queues {
		pending[topic] = d.takeLocked(topic)
	}
	d.mu.Unlock()

	for topic, queue := range pending {
		d.broadcast(topic, queue)
	}
}

// Close flushes all pending queues and rejects further events.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.FlushAll()
}

// Pending returns the queued event count for a topic.
func (d *Debouncer) Pending(topic string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.queues[topic])
}

func (d *Debouncer) broadcast(topic string, queue []ChangeEvent) {
	if len(queue) == 0 {
		return
	}

	payload, err := json.Marshal(FlushPayload{Events: queue, RefreshRequest: true})
	if err != nil {
		d.log.WithError(err).WithField("topic", topic).Error("failed to marshal flush payload")

		return
	}

	d.hub.BroadcastEvent("changes", topic, payload)

	metrics.BroadcastFlushes.WithLabelValues(topic).Inc()
	metrics.BroadcastQueueDepth.WithLabelValues(topic).Set(0)

	d.log.WithFields(logrus.Fields{
		"topic":  topic,
		"events": len(queue),
	}).Debug("flushed debounced broadcast")
}
