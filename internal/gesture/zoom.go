package gesture

import "math"

// Spread response constants.
const (
	SpreadFloor   = 0.15
	SpreadRange   = 5.0
	ResponseGamma = 2.8
	// InitialSpread is reported until the first mapped value exists.
	InitialSpread = 1.0
)

// Calibration holds the closed and open openness bounds.
// Either bound may be unset, and Min may exceed Max; an inverted pair maps
// closing the hand to a larger spread.
type Calibration struct {
	minOpen sample
	maxOpen sample
}

// NewCalibration builds a calibration from optional bounds.
func NewCalibration(minOpen, maxOpen *float64) Calibration {
	var c Calibration
	if minOpen != nil {
		c.minOpen.set(*minOpen)
	}
	if maxOpen != nil {
		c.maxOpen.set(*maxOpen)
	}
	return c
}

// SetClosed records the fully-closed openness.
func (c *Calibration) SetClosed(v float64) { c.minOpen.set(v) }

// SetOpen records the fully-open openness.
func (c *Calibration) SetOpen(v float64) { c.maxOpen.set(v) }

// Min returns the closed bound, if set.
func (c Calibration) Min() (float64, bool) { return c.minOpen.value, c.minOpen.ok }

// Max returns the open bound, if set.
func (c Calibration) Max() (float64, bool) { return c.maxOpen.value, c.maxOpen.ok }

// Complete reports whether both bounds are set.
func (c Calibration) Complete() bool { return c.minOpen.ok && c.maxOpen.ok }

// MinPtr and MaxPtr expose the bounds as nullable values for storage.
func (c Calibration) MinPtr() *float64 { return ptr(c.minOpen) }
func (c Calibration) MaxPtr() *float64 { return ptr(c.maxOpen) }

func ptr(s sample) *float64 {
	if !s.ok {
		return nil
	}
	v := s.value
	return &v
}

// Normalize maps openness into [0,1] between the bounds. Equal bounds and
// non-finite ratios map to 0. ok is false while either bound is unset.
func (c Calibration) Normalize(openness float64) (t float64, ok bool) {
	if !c.Complete() {
		return 0, false
	}
	span := c.maxOpen.value - c.minOpen.value
	if span == 0 {
		return 0, true
	}
	t = (openness - c.minOpen.value) / span
	if math.IsNaN(t) {
		return 0, true
	}
	return math.Min(math.Max(t, 0), 1), true
}

// Spread maps smoothed openness to a particle spread in [0.15, 5.15].
// ok is false while either bound is unset, and the caller keeps its prior spread.
func Spread(openness float64, c Calibration) (float64, bool) {
	t, ok := c.Normalize(openness)
	if !ok {
		return 0, false
	}
	return SpreadFloor + math.Pow(t, ResponseGamma)*SpreadRange, true
}
