package gesture

import (
	"fmt"
	"math"
)

// ResumeThreshold is the smoothed-openness change needed before a resumed
// zoom follows the hand again.
const ResumeThreshold = 0.05

// PauseState is the zoom pause state.
type PauseState int

const (
	// Running follows live openness.
	Running PauseState = iota
	// Paused holds the spread captured at pause time.
	Paused
	// ResumePending holds the captured spread until the hand moves.
	ResumePending
)

// String returns the state name used on the wire.
func (s PauseState) String() string {
	switch s {
	case Paused:
		return "paused"
	case ResumePending:
		return "resume-pending"
	default:
		return "running"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s PauseState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *PauseState) UnmarshalText(text []byte) error {
	for _, v := range []PauseState{Running, Paused, ResumePending} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown pause state %q", text)
}

// Held reports whether zoom is not following the hand.
func (s PauseState) Held() bool {
	return s != Running
}

// Snapshot is the spread and openness captured when zoom was paused.
type Snapshot struct {
	Spread     float64 `json:"spread"`
	SmoothOpen float64 `json:"smoothOpen"`
}

// Gate says how a render tick obtains its spread.
type Gate int

const (
	// GateLive computes spread from live openness.
	GateLive Gate = iota
	// GatePinned uses the snapshot spread.
	GatePinned
	// GateHold keeps the previous spread.
	GateHold
)

// PauseMachine freezes the spread on pause and releases it on resume only
// after the hand has moved away from where it was when pausing.
type PauseMachine struct {
	state    PauseState
	snapshot *Snapshot
}

// State returns the current pause state.
func (m *PauseMachine) State() PauseState {
	return m.state
}

// Snapshot returns a copy of the held snapshot, or nil.
func (m *PauseMachine) Snapshot() *Snapshot {
	if m.snapshot == nil {
		return nil
	}
	s := *m.snapshot
	return &s
}

// Toggle pauses or resumes. When pausing, spread is the value the zoom
// mapper yields right now; hasSpread is false before calibration, in which
// case no snapshot is taken.
func (m *PauseMachine) Toggle(spread float64, hasSpread bool, smoothOpen float64) PauseState {
	switch m.state {
	case Paused:
		if m.snapshot != nil {
			m.state = ResumePending
		} else {
			m.state = Running
		}
	default:
		m.state = Paused
		m.snapshot = nil
		if hasSpread {
			m.snapshot = &Snapshot{Spread: spread, SmoothOpen: smoothOpen}
		}
	}
	return m.state
}

// Gate resolves this tick's spread source. In ResumePending it clears the
// snapshot and returns to Running once the hand has moved far enough.
func (m *PauseMachine) Gate(smoothOpen float64) (Gate, float64) {
	switch m.state {
	case Paused:
		if m.snapshot == nil {
			return GateHold, 0
		}
		return GatePinned, m.snapshot.Spread
	case ResumePending:
		if math.Abs(smoothOpen-m.snapshot.SmoothOpen) < ResumeThreshold {
			return GatePinned, m.snapshot.Spread
		}
		m.snapshot = nil
		m.state = Running
		return GateLive, 0
	default:
		return GateLive, 0
	}
}
