package server

import (
	"fmt"
	"net/http"
	"sync"
)

// Hub fans a reload signal out to every browser connected to /events.
type Hub struct {
	mu      sync.Mutex
	clients map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan struct{}]struct{})}
}

// Broadcast signals every connected client. Clients that are not
// listening right now are skipped rather than blocked on.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for clientChan := range h.clients {
		select {
		case clientChan <- struct{}{}:
		default:
		}
	}
}

// ServeHTTP is the Server-Sent Events endpoint. Each client gets
// "connected" on attach and "reload" whenever Broadcast fires.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan struct{}, 1)
	h.mu.Lock()
	h.clients[clientChan] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, clientChan)
		h.mu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-clientChan:
			_, _ = fmt.Fprintf(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}
