package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// Mode is the control mode derived from a single frame.
type Mode int

const (
	// ModeIdle means no hand was seen this frame.
	ModeIdle Mode = iota
	// ModeRotate turns the pointing angle into rotation.
	ModeRotate
	// ModeFlick turns horizontal index movement into angular velocity.
	ModeFlick
)

// String returns the mode name used on the wire.
func (m Mode) String() string {
	switch m {
	case ModeRotate:
		return "rotate"
	case ModeFlick:
		return "flick"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	for _, v := range []Mode{ModeIdle, ModeRotate, ModeFlick} {
		if v.String() == string(text) {
			*m = v
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// Classify derives the mode from the current hand and pause state.
// Flick is only reachable while zoom is held, so it never competes with
// ordinary rotation.
func Classify(h *detector.HandLandmarks, pause PauseState) Mode {
	if h == nil {
		return ModeIdle
	}

	indexUp := h.FingerUp(detector.IndexTip, detector.IndexPIP)
	middleUp := h.FingerUp(detector.MiddleTip, detector.MiddlePIP)

	if pause.Held() && indexUp && middleUp {
		return ModeFlick
	}
	return ModeRotate
}
