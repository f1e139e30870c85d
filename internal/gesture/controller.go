package gesture

import "github.com/ayusman/mudra/internal/detector"

// Frame is what the visual sink reads on each render tick.
type Frame struct {
	Spread float64    `json:"spread"`
	RotX   float64    `json:"rotX"`
	RotY   float64    `json:"rotY"`
	Pause  PauseState `json:"pause"`
}

// Controller owns every piece of persistent gesture state.
type Controller struct {
	openness    Openness
	calibration Calibration
	rotation    Rotation
	rotate      RotationController
	flick       FlickController
	pause       PauseMachine
	spread      float64
}

// NewController returns a controller with no calibration and the initial spread.
func NewController() *Controller {
	return &Controller{spread: InitialSpread}
}

// Observe is the landmark callback. A nil hand means none was detected.
// It returns the mode derived for this frame.
func (c *Controller) Observe(h *detector.HandLandmarks) Mode {
	c.openness.Update(h)

	mode := Classify(h, c.pause.State())

	if mode == ModeRotate {
		c.rotate.Update(h, &c.rotation)
	} else {
		c.rotate.Reset()
	}

	if mode == ModeFlick {
		c.flick.Update(h, &c.rotation)
	} else {
		c.flick.Reset()
	}

	return mode
}

// Tick is the render callback. It resolves the spread through the pause
// machine, integrates inertia and returns the frame to draw.
func (c *Controller) Tick() Frame {
	switch gate, pinned := c.pause.Gate(c.openness.Smooth); gate {
	case GatePinned:
		c.spread = pinned
	case GateLive:
		if s, ok := Spread(c.openness.Smooth, c.calibration); ok {
			c.spread = s
		}
	}

	c.rotation.Integrate()

	return c.Frame()
}

// Frame returns the current output without advancing time.
func (c *Controller) Frame() Frame {
	return Frame{
		Spread: c.spread,
		RotX:   c.rotation.RotX,
		RotY:   c.rotation.RotY,
		Pause:  c.pause.State(),
	}
}

// CalibrateClosed stores the current smoothed openness as the closed bound.
func (c *Controller) CalibrateClosed() float64 {
	c.calibration.SetClosed(c.openness.Smooth)
	return c.openness.Smooth
}

// CalibrateOpen stores the current smoothed openness as the open bound.
func (c *Controller) CalibrateOpen() float64 {
	c.calibration.SetOpen(c.openness.Smooth)
	return c.openness.Smooth
}

// TogglePause pauses or resumes zoom and returns the new state.
func (c *Controller) TogglePause() PauseState {
	spread, ok := Spread(c.openness.Smooth, c.calibration)
	return c.pause.Toggle(spread, ok, c.openness.Smooth)
}

// SetCalibration replaces both bounds, e.g. from a stored profile.
func (c *Controller) SetCalibration(cal Calibration) {
	c.calibration = cal
}

// Calibration returns the current bounds.
func (c *Controller) Calibration() Calibration {
	return c.calibration
}

// Openness returns the current openness signal.
func (c *Controller) Openness() Openness {
	return c.openness
}

// Rotation returns orientation and velocity.
func (c *Controller) Rotation() Rotation {
	return c.rotation
}

// PauseSnapshot returns the held pause snapshot, or nil.
func (c *Controller) PauseSnapshot() *Snapshot {
	return c.pause.Snapshot()
}
