package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamBuffer   = 64
	writeTimeout   = 5 * time.Second
	readIdleWindow = 60 * time.Second
)

// hub fans record messages out to websocket subscribers.
type hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	dropped int
}

func newHub() *hub {
	return &hub{clients: make(map[chan []byte]struct{})}
}

func (h *hub) add() chan []byte {
	ch := make(chan []byte, streamBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) remove(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast never blocks; slow subscribers miss messages.
func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.dropped++
		}
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	out := s.hub.add()
	defer s.hub.remove(out)
	slog.Debug("stream subscriber joined", "remote", r.RemoteAddr, "subscribers", s.hub.len())

	// Writer goroutine.
	writeErr := make(chan error, 1)
	go func() {
		for b := range out {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				writeErr <- err
				return
			}
		}
		writeErr <- nil
	}()

	// Reader loop: the stream is one-way, so incoming messages only keep
	// the connection alive.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readIdleWindow))
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.remove(out)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
}
