// pattern: Imperative Shell

package web

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const wsWriteTimeout = 5 * time.Second

// handleWebsocket streams catalog events as JSON messages. Clients only
// listen; anything they send is discarded.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	// Restrict to localhost origins to prevent cross-origin WebSocket attacks.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"127.0.0.1:*", "localhost:*"},
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	// r.Context() must not be used after the upgrade.
	ctx := conn.CloseRead(s.stop)

	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)

	hello := Event{Type: EventConnected, At: time.Now()}
	s.mu.RLock()
	if s.snapshot != nil {
		hello.Projects = len(s.snapshot.Projects)
	}
	s.mu.RUnlock()
	if err := s.writeEvent(ctx, conn, hello); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "server stopping")
			return
		case ev := <-ch:
			if err := s.writeEvent(ctx, conn, ev); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) writeEvent(ctx context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
