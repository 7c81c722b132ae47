package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultHeartbeat keeps idle proxies from closing the stream.
const DefaultHeartbeat = 15 * time.Second

// Writer writes server-sent events to a streaming response.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// NewWriter prepares w for streaming and sends the SSE headers.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes one named event with a JSON payload.
func (s *Writer) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sse payload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Heartbeat writes a keep-alive event.
func (s *Writer) Heartbeat() error {
	return s.Send("heartbeat", map[string]any{
		"status": "heartbeat",
		"ts":     time.Now().UTC().Format(time.RFC3339),
	})
}
