// pattern: Imperative Shell

package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types pushed to subscribers.
const (
	EventConnected = "connected"
	EventRefresh   = "refresh"
)

// Event tells a client the catalog changed.
type Event struct {
	Type     string    `json:"type"`
	Projects int       `json:"projects"`
	At       time.Time `json:"at"`
}

// eventBroker fans out catalog events to SSE and websocket subscribers.
type eventBroker struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

func newEventBroker() *eventBroker {
	return &eventBroker{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel holding at most one pending event.
// The caller must call Unsubscribe when done.
func (b *eventBroker) Subscribe() chan Event {
	ch := make(chan Event, 1)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel.
func (b *eventBroker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
}

// Publish never blocks: a subscriber that has not consumed its pending
// event gets it replaced by ev.
func (b *eventBroker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// handleEvents is the SSE endpoint. It sends a "connected" event on open,
// then a "refresh" event carrying the event JSON after each refresh.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)

	fmt.Fprintf(w, "event: %s\ndata: ok\n\n", EventConnected)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.stop.Done():
			return
		case ev := <-ch:
			data, _ := json.Marshal(ev)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
