package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// sseEmitter serializes events onto a Server-Sent Events stream as data-only
// messages ("data: <json>\n\n", no event names). Headers are written lazily
// on the first event, so a request that fails before any event can still get
// a plain JSON error response.
type sseEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// newSSEEmitter creates an emitter. Returns an error when the writer cannot
// flush, since unflushed SSE defeats the point of streaming.
func newSSEEmitter(w http.ResponseWriter) (*sseEmitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	return &sseEmitter{w: w, flusher: flusher}, nil
}

// Started reports whether any event has been written.
func (e *sseEmitter) Started() bool {
	return e.started
}

// Emit writes one event. The first call sets the SSE headers.
func (e *sseEmitter) Emit(ctx context.Context, event any) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("client disconnected: %w", ctx.Err())
	default:
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if !e.started {
		h := e.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no") // disable nginx buffering
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}

	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	e.flusher.Flush()
	return nil
}
