// Package gesture turns per-frame hand landmarks into particle field controls:
// spread from hand openness, rotation from pointing, and flick momentum.
//
// All state lives in a Controller owned by a single goroutine. Observe is the
// landmark callback and Tick is the render callback; they must not be called
// concurrently.
package gesture

import "github.com/ayusman/mudra/internal/detector"

// SmoothingFactor is the fraction of the gap to the raw value closed per sample.
const SmoothingFactor = 0.15

// RawOpenness returns the mean distance from the palm base to the five fingertips.
func RawOpenness(h *detector.HandLandmarks) float64 {
	palm := h.Palm()
	var sum float64
	for _, tip := range detector.Fingertips {
		sum += detector.Distance(palm, h.Points[tip])
	}
	return sum / float64(len(detector.Fingertips))
}

// Openness holds the raw and exponentially smoothed openness signal.
type Openness struct {
	Raw    float64
	Smooth float64
}

// Update folds a new hand sample into the smoothed signal.
// A nil hand leaves the signal untouched.
func (o *Openness) Update(h *detector.HandLandmarks) {
	if h == nil {
		return
	}
	o.Raw = RawOpenness(h)
	o.Smooth += (o.Raw - o.Smooth) * SmoothingFactor
}
