package gateway

import (
	"fmt"
	"net/http"

	"github.com/admitpath/coach-gateway/internal/protocol"
	"github.com/admitpath/coach-gateway/internal/utils"
)

// eventWriter frames protocol events as SSE and flushes each one
// immediately so deltas reach the browser as they arrive.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newEventWriter sets streaming headers and returns the writer. The
// ResponseWriter must support flushing; plain buffered writers would
// hold deltas until the stream ends.
func newEventWriter(w http.ResponseWriter) (*eventWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventWriter{w: w, flusher: flusher}, true
}

// send writes one event frame. Marshal must not HTML-escape: tool
// output is full of < and > markup the client parses verbatim.
func (ew *eventWriter) send(ev protocol.Event) error {
	data, err := utils.MarshalNoEscape(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := fmt.Fprintf(ew.w, "data: %s\n\n", data); err != nil {
		return err
	}
	ew.flusher.Flush()
	return nil
}
