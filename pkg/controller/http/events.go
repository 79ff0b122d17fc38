package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
	"github.com/secmon-lab/gathsalt/pkg/usecase"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
)

// Event types pushed to dashboard clients
const (
	EventInsightCreated = "insight.created"
	EventInsightDeleted = "insight.deleted"
)

const (
	eventBuffer       = 16
	eventWriteTimeout = 10 * time.Second
)

// Event is one store change pushed over /api/events
type Event struct {
	Type    string          `json:"type"`
	ID      model.InsightID `json:"id"`
	Insight *model.Insight  `json:"insight,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// EventHub broadcasts insight store changes to connected websocket clients.
// A client that falls behind by more than eventBuffer events is disconnected.
type EventHub struct {
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

var _ usecase.InsightObserver = &EventHub{}

func NewEventHub() *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subscribers: make(map[*subscriber]struct{}),
	}
}

func (h *EventHub) InsightCreated(ctx context.Context, insight *model.Insight) {
	h.broadcast(Event{Type: EventInsightCreated, ID: insight.ID, Insight: insight})
}

func (h *EventHub) InsightDeleted(ctx context.Context, id model.InsightID) {
	h.broadcast(Event{Type: EventInsightDeleted, ID: id})
}

func (h *EventHub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- ev:
		default:
			delete(h.subscribers, sub)
			sub.close()
		}
	}
}

func (h *EventHub) register(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = struct{}{}
}

func (h *EventHub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		sub.close()
	}
}

// Subscribers returns the number of connected clients
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ServeHTTP upgrades the request and streams events until the client leaves
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.From(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	sub := &subscriber{conn: conn, send: make(chan Event, eventBuffer)}
	h.register(sub)
	logger.Debug("event subscriber connected")

	go h.writeLoop(r.Context(), sub)

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(sub)
	logger.Debug("event subscriber disconnected")
}

func (h *EventHub) writeLoop(ctx context.Context, sub *subscriber) {
	defer func() {
		if err := sub.conn.Close(); err != nil {
			logging.From(ctx).Debug("failed to close websocket", "error", err.Error())
		}
	}()

	for ev := range sub.send {
		if err := sub.conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout)); err != nil {
			return
		}
		if err := sub.conn.WriteJSON(ev); err != nil {
			logging.From(ctx).Debug("failed to push event", "error", err.Error(), "type", ev.Type)
			h.unregister(sub)
			return
		}
	}

	_ = sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
