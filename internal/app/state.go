package app

import (
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// State is the snapshot published to sinks after every render tick and
// command. Frame fields are inlined on the wire.
type State struct {
	gesture.Frame

	Mode     gesture.Mode `json:"mode"`
	Openness float64      `json:"openness"`
	MinOpen  *float64     `json:"minOpen"`
	MaxOpen  *float64     `json:"maxOpen"`

	ProfileID   string `json:"profileId,omitempty"`
	ProfileName string `json:"profile,omitempty"`

	Skeleton    bool                `json:"skeleton"`
	Video       bool                `json:"video"`
	Landmarks   []detector.Point3D `json:"landmarks,omitempty"`
	Connections [][2]int            `json:"connections,omitempty"`

	Settings store.ViewerSettings `json:"settings"`
}

// Sink receives every published state. Render is called from the event
// loop and must not block.
type Sink interface {
	Render(State)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(State)

// Render calls f(s).
func (f SinkFunc) Render(s State) { f(s) }

// snapshot builds the published state from loop-owned fields.
func (a *App) snapshot(frame gesture.Frame) State {
	cal := a.controller.Calibration()

	s := State{
		Frame:    frame,
		Mode:     a.mode,
		Openness: a.controller.Openness().Smooth,
		MinOpen:  cal.MinPtr(),
		MaxOpen:  cal.MaxPtr(),
		Skeleton: a.skeleton,
		Video:    a.video,
		Settings: a.settings,
	}
	if a.profile != nil {
		s.ProfileID = a.profile.ID
		s.ProfileName = a.profile.Name
	}
	if a.skeleton && a.hand != nil {
		s.Landmarks = append([]detector.Point3D(nil), a.hand.Points[:]...)
		s.Connections = detector.Connections
	}
	return s
}
