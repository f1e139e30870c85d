// Package scene applies controller frames to a particle point cloud.
package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/gesture"
)

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
)

// Cloud holds a fixed base geometry and the transformed positions derived
// from the latest frame. The base is never modified.
type Cloud struct {
	base  []r3.Vec
	local []r3.Vec
	world []r3.Vec
	frame gesture.Frame
}

// NewCloud copies the base points into a new cloud at unit spread.
func NewCloud(base []r3.Vec) *Cloud {
	c := &Cloud{
		base:  append([]r3.Vec(nil), base...),
		local: make([]r3.Vec, len(base)),
		world: make([]r3.Vec, len(base)),
	}
	c.Apply(gesture.Frame{Spread: 1})
	return c
}

// Len returns the number of particles.
func (c *Cloud) Len() int {
	return len(c.base)
}

// Apply scales every base point by the frame spread and orients the cloud
// by (RotX, RotY) in XYZ Euler order. The returned slice is reused on the
// next call.
func (c *Cloud) Apply(f gesture.Frame) []r3.Vec {
	c.frame = f

	rx := r3.NewRotation(f.RotX, axisX)
	ry := r3.NewRotation(f.RotY, axisY)

	for i, p := range c.base {
		c.local[i] = r3.Scale(f.Spread, p)
		c.world[i] = rx.Rotate(ry.Rotate(c.local[i]))
	}
	return c.world
}

// Local returns positions after scaling but before rotation.
func (c *Cloud) Local() []r3.Vec {
	return c.local
}

// Frame returns the frame last applied.
func (c *Cloud) Frame() gesture.Frame {
	return c.frame
}

// Render implements the visual sink used by the application loop.
func (c *Cloud) Render(f gesture.Frame) {
	c.Apply(f)
}
