// Package sse streams live run activity via Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/felixgeelhaar/weaver/pkg/domain/run"
)

type streamEvent struct {
	name string
	data []byte
}

// StreamHandler fans run entries and progress updates out to connected
// SSE clients. It implements run.Observer so it can be subscribed
// directly to a run context.
type StreamHandler struct {
	mu      sync.RWMutex
	clients map[chan streamEvent]struct{}
}

func NewStreamHandler() *StreamHandler {
	return &StreamHandler{
		clients: make(map[chan streamEvent]struct{}),
	}
}

// OnEntry broadcasts a run log entry to every connected client.
func (h *StreamHandler) OnEntry(entry run.Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	h.broadcast(streamEvent{name: "entry", data: data})
}

// OnProgress broadcasts a progress update to every connected client.
func (h *StreamHandler) OnProgress(percent float64) {
	data, err := json.Marshal(map[string]float64{"percent": percent})
	if err != nil {
		return
	}
	h.broadcast(streamEvent{name: "progress", data: data})
}

func (h *StreamHandler) broadcast(ev streamEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			// Drop if client is slow
		}
	}
}

// ServeHTTP handles SSE connections.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := make(chan streamEvent, 64)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
		close(ch)
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: %s\n", ev.name)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", ev.data)
			flusher.Flush()
		}
	}
}
