package server

import (
	"fmt"
	"net/http"
	"time"
)

// FrameSource supplies the latest composited JPEG frame and its sequence
// number. The sequence increases once per published frame.
type FrameSource interface {
	LatestFrame() ([]byte, uint64)
}

// StreamHandler serves the composited board as an MJPEG stream.
type StreamHandler struct {
	source FrameSource
}

// NewStreamHandler creates a new StreamHandler reading from the given
// source.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames to connected clients. Each client polls
// the published frame and writes a part only when the sequence advances,
// so a stalled pipeline stalls the stream instead of repeating frames.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var last uint64
	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		buf, seq := h.source.LatestFrame()
		if len(buf) == 0 || seq == last {
			time.Sleep(33 * time.Millisecond)
			continue
		}
		last = seq

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		time.Sleep(33 * time.Millisecond)
	}
}
