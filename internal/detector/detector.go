package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. Only the first
	// hand drives the controls.
	MaxHands int `json:"maxHands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `json:"minDetectionConfidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `json:"minTrackingConfidence"`

	// IdleTimeoutSec shuts the detector process down after this many
	// seconds without a frame. Zero disables the idle shutdown.
	IdleTimeoutSec int `json:"-"`
}

// DefaultConfig returns the single-hand configuration used by the controller.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.7,
		IdleTimeoutSec:  30,
	}
}

// First returns the first detected hand, or nil when there is none.
func First(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}
