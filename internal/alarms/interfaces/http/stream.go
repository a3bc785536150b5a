package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	alarmapp "noc-console/internal/alarms/application"
)

// defaultHeartbeat keeps proxies from idling out a quiet stream.
const defaultHeartbeat = 25 * time.Second

// sseFrame is one wire frame: the SSE event name plus its JSON payload.
type sseFrame struct {
	event string
	data  []byte
}

// SSEBroker fans out alarm lifecycle events to connected console clients.
// Each lifecycle stage gets its own SSE event name ("alarm.acknowledged",
// "alarm.ingested", ...) so browser clients attach per-stage listeners
// instead of demultiplexing one generic event.
type SSEBroker struct {
	mu      sync.Mutex
	clients map[chan sseFrame]struct{}
}

// NewSSEBroker constructs a broker.
func NewSSEBroker() *SSEBroker {
	return &SSEBroker{clients: make(map[chan sseFrame]struct{})}
}

// Notify implements application.Notifier.
func (b *SSEBroker) Notify(_ context.Context, event alarmapp.Event) {
	if b == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	b.broadcast(sseFrame{event: "alarm." + event.Type, data: payload})
}

// Subscribe registers a new client channel.
func (b *SSEBroker) Subscribe() chan sseFrame {
	if b == nil {
		return nil
	}
	ch := make(chan sseFrame, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a client channel.
func (b *SSEBroker) Unsubscribe(ch chan sseFrame) {
	if b == nil || ch == nil {
		return
	}
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *SSEBroker) broadcast(frame sseFrame) {
	b.mu.Lock()
	clients := make([]chan sseFrame, 0, len(b.clients))
	for ch := range b.clients {
		clients = append(clients, ch)
	}
	b.mu.Unlock()
	for _, ch := range clients {
		select {
		case ch <- frame:
		default:
			// Slow client; drop rather than stall the broadcast.
		}
	}
}

// StreamHandler serves the SSE alarm stream.
type StreamHandler struct {
	broker    *SSEBroker
	heartbeat time.Duration
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broker *SSEBroker) *StreamHandler {
	return &StreamHandler{broker: broker, heartbeat: defaultHeartbeat}
}

// ServeHTTP handles GET /api/v1/alarms/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.broker.Subscribe()
	if ch == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}
	defer h.broker.Unsubscribe(ch)

	writeFrame(w, sseFrame{event: "ready", data: []byte("{}")})
	flusher.Flush()

	keepalive := time.NewTicker(h.heartbeat)
	defer keepalive.Stop()

	notify := r.Context().Done()
	for {
		select {
		case frame, ok := <-ch:
			if !ok {
				return
			}
			writeFrame(w, frame)
			flusher.Flush()
		case <-keepalive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

func writeFrame(w http.ResponseWriter, frame sseFrame) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.event, frame.data)
}
