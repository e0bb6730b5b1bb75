// Package events implements the per-debate publish/subscribe fan-out used
// for live spectator updates. Delivery is best effort: there is no replay
// for late subscribers and no buffering, callers needing current state read
// a snapshot before subscribing.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/metrics"
)

// EventType names an event on a debate's live stream.
type EventType string

const (
	EventConnected     EventType = "connected"
	EventDebateStarted EventType = "debate.started"
	EventTurnCreated   EventType = "turn.created"
	EventScoresUpdated EventType = "scores.updated"
	EventAIResponded   EventType = "ai.responded"
	EventJudgeFinal    EventType = "judge.final"
	EventDebateEnded   EventType = "debate.ended"
)

// StreamHandle is the minimal capability a live transport must provide.
// Any transport implementing it (SSE, WebSocket, a test buffer) can
// subscribe; detecting a dead peer and unsubscribing is the transport's
// responsibility, not the bus's.
type StreamHandle interface {
	Write(p []byte) error
	Close() error
}

// Envelope is the serialized payload carried by every frame.
type Envelope struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}

// Bus fans events out to every handle currently subscribed to a debate id.
// Writes are synchronous and fire-and-forget.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[StreamHandle]struct{}
	log  *logrus.Logger
}

// NewBus creates an empty bus.
func NewBus(log *logrus.Logger) *Bus {
	if log == nil {
		log = logrus.New()
	}
	return &Bus{
		subs: make(map[string]map[StreamHandle]struct{}),
		log:  log,
	}
}

// Subscribe attaches a handle to a debate's stream, creating the subscriber
// set lazily.
func (b *Bus) Subscribe(debateID string, h StreamHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[debateID]
	if set == nil {
		set = make(map[StreamHandle]struct{})
		b.subs[debateID] = set
	}
	set[h] = struct{}{}
}

// Unsubscribe detaches a handle, deleting the debate's set when it empties.
// Unknown handles are ignored.
func (b *Bus) Unsubscribe(debateID string, h StreamHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[debateID]
	if !ok {
		return
	}
	delete(set, h)
	if len(set) == 0 {
		delete(b.subs, debateID)
	}
}

// SubscriberCount reports how many handles are attached to a debate.
func (b *Bus) SubscriberCount(debateID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[debateID])
}

// Emit stamps a timestamp, serializes the envelope and synchronously writes
// one wire frame to every handle currently subscribed to the debate. A
// failed write is counted and logged but never unsubscribes the handle.
func (b *Bus) Emit(debateID string, eventType EventType, data interface{}) {
	frame, err := Frame(eventType, data)
	if err != nil {
		b.log.WithError(err).WithField("type", eventType).Error("Failed to serialize event")
		return
	}

	b.mu.RLock()
	handles := make([]StreamHandle, 0, len(b.subs[debateID]))
	for h := range b.subs[debateID] {
		handles = append(handles, h)
	}
	b.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(string(eventType)).Inc()

	for _, h := range handles {
		if err := h.Write(frame); err != nil {
			metrics.EventsDropped.Inc()
			b.log.WithError(err).WithFields(logrus.Fields{
				"debate_id": debateID,
				"type":      eventType,
			}).Warn("Dropped event frame on failed write")
			continue
		}
		metrics.EventsDelivered.Inc()
	}
}

// Frame renders one SSE wire frame: "event: <type>\ndata: <json>\n\n".
func Frame(eventType EventType, data interface{}) ([]byte, error) {
	env := Envelope{Type: eventType, Data: data, Time: time.Now().UTC()}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload)), nil
}
