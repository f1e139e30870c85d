package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrame is returned by Feed.Latest before anything was published.
var ErrNoFrame = errors.New("no frame published")

// Feed holds the most recent camera frame as JPEG for the video stream.
// The detection goroutine publishes; any number of viewers read.
type Feed struct {
	mu   sync.RWMutex
	jpeg []byte
	seq  uint64
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Publish encodes frame as JPEG and makes it the latest frame.
func (f *Feed) Publish(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	f.PublishJPEG(buf.GetBytes())
	return nil
}

// PublishJPEG stores an already-encoded frame. The bytes are copied.
func (f *Feed) PublishJPEG(data []byte) {
	cp := append([]byte(nil), data...)

	f.mu.Lock()
	f.jpeg = cp
	f.seq++
	f.mu.Unlock()
}

// Latest returns the newest JPEG and its sequence number. The returned
// slice must not be modified.
func (f *Feed) Latest() ([]byte, uint64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.seq == 0 {
		return nil, 0, ErrNoFrame
	}
	return f.jpeg, f.seq, nil
}
