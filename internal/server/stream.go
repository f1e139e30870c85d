package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/capture"
)

// DefaultStreamInterval is how often the stream checks for a new frame.
const DefaultStreamInterval = 33 * time.Millisecond

// StreamHandler serves the camera feed as MJPEG. It only reads the frames
// the detection pipeline already captured.
type StreamHandler struct {
	feed     *capture.Feed
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler over feed.
func NewStreamHandler(feed *capture.Feed) *StreamHandler {
	return &StreamHandler{feed: feed, interval: DefaultStreamInterval}
}

// ServeHTTP writes each new frame as one multipart part until the client leaves.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last uint64
	for {
		if data, seq, err := h.feed.Latest(); err == nil && seq != last {
			last = seq
			if err := writePart(w, data); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
