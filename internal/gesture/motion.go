package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Rotation tuning constants.
const (
	// Deadzone is the minimum pointing-angle change in radians that rotates.
	Deadzone = 0.02
	// YawGain scales angle deltas into rotY.
	YawGain = 1.2
	// PitchGain scales angle deltas into rotX.
	PitchGain = 0.8
	// FlickGain scales index-tip x displacement into a velY impulse.
	FlickGain = 8.0
	// VelocityDecay is the per-tick velocity retention factor.
	VelocityDecay = 0.92
)

// sample is a value observed on the previous frame, if any.
type sample struct {
	value float64
	ok    bool
}

func (s *sample) set(v float64) { s.value, s.ok = v, true }
func (s *sample) clear()        { *s = sample{} }

// Rotation is the accumulated orientation and angular velocity of the field.
// Angles are unbounded; consumers apply them through periodic functions.
type Rotation struct {
	RotX float64 `json:"rotX"`
	RotY float64 `json:"rotY"`
	VelX float64 `json:"velX"`
	VelY float64 `json:"velY"`
}

// Integrate decays velocity and adds it into the orientation.
func (r *Rotation) Integrate() {
	r.VelX *= VelocityDecay
	r.VelY *= VelocityDecay
	r.RotX += r.VelX
	r.RotY += r.VelY
}

// PointingAngle returns the direction from the palm to the index fingertip.
func PointingAngle(h *detector.HandLandmarks) float64 {
	palm := h.Palm()
	tip := h.Points[detector.IndexTip]
	return math.Atan2(tip.Y-palm.Y, tip.X-palm.X)
}

// RotationController maps pointing-angle changes to direct rotation.
type RotationController struct {
	lastAngle sample
}

// Update applies the angle change since the previous rotate frame.
func (c *RotationController) Update(h *detector.HandLandmarks, r *Rotation) {
	angle := PointingAngle(h)
	if c.lastAngle.ok {
		delta := angle - c.lastAngle.value
		if math.Abs(delta) > Deadzone {
			r.RotY += delta * YawGain
			r.RotX += delta * PitchGain
		}
	}
	c.lastAngle.set(angle)
}

// Reset drops the baseline so the next Update starts fresh.
func (c *RotationController) Reset() {
	c.lastAngle.clear()
}

// LastAngle returns the previous pointing angle, if one is held.
func (c *RotationController) LastAngle() (float64, bool) {
	return c.lastAngle.value, c.lastAngle.ok
}

// FlickController maps horizontal index-tip movement to angular velocity.
type FlickController struct {
	lastIndexX sample
}

// Update adds an impulse proportional to the index-tip x displacement.
func (c *FlickController) Update(h *detector.HandLandmarks, r *Rotation) {
	x := h.Points[detector.IndexTip].X
	if c.lastIndexX.ok {
		r.VelY += (x - c.lastIndexX.value) * FlickGain
	}
	c.lastIndexX.set(x)
}

// Reset drops the baseline so the next Update starts fresh.
func (c *FlickController) Reset() {
	c.lastIndexX.clear()
}

// LastIndexX returns the previous index-tip x, if one is held.
func (c *FlickController) LastIndexX() (float64, bool) {
	return c.lastIndexX.value, c.lastIndexX.ok
}
