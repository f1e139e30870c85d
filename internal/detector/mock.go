package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// Queued results are returned one per Detect call; once the queue is
// drained the fixed hands set with SetHands are returned.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	queue  [][]HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned once the queue is empty.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Queue appends per-call results. A nil entry simulates a frame without a hand.
func (m *MockDetector) Queue(results ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, results...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued result, the fixed hands, or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Pose describes a synthetic hand used to build test landmarks.
type Pose struct {
	// Palm is the wrist position.
	Palm Point3D
	// Reach is the distance from the palm to every fingertip, so it is
	// also the raw openness of the resulting hand.
	Reach float64
	// PointAngle is the direction of the index fingertip from the palm,
	// atan2(dy, dx) in image space.
	PointAngle float64
	// IndexUp and MiddleUp place the fingertip above its middle joint.
	IndexUp  bool
	MiddleUp bool
}

// DefaultPose is a right hand pointing straight up with a half-open spread.
func DefaultPose() Pose {
	return Pose{
		Palm:       Point3D{X: 0.5, Y: 0.8},
		Reach:      0.2,
		PointAngle: -math.Pi / 2,
	}
}

// PoseLandmarks builds the 21 landmarks for a pose.
func PoseLandmarks(p Pose) HandLandmarks {
	lm := HandLandmarks{Handedness: "Right", Score: 0.95}
	lm.Points[Wrist] = p.Palm

	at := func(angle, r float64) Point3D {
		return Point3D{
			X: p.Palm.X + r*math.Cos(angle),
			Y: p.Palm.Y + r*math.Sin(angle),
			Z: p.Palm.Z,
		}
	}

	// Fingers fan out from the index direction.
	offsets := map[int]float64{
		ThumbTip:  0.9,
		IndexTip:  0,
		MiddleTip: -0.25,
		RingTip:   -0.5,
		PinkyTip:  -0.75,
	}
	for tip, off := range offsets {
		angle := p.PointAngle + off
		lm.Points[tip] = at(angle, p.Reach)
		lm.Points[tip-3] = at(angle, p.Reach*0.35)
		lm.Points[tip-2] = at(angle, p.Reach*0.6)
		lm.Points[tip-1] = at(angle, p.Reach*0.8)
	}

	placeJoint(&lm, IndexTip, IndexPIP, p.IndexUp)
	placeJoint(&lm, MiddleTip, MiddlePIP, p.MiddleUp)

	return lm
}

// placeJoint moves the joint just below or above the fingertip so that
// FingerUp(tip, joint) reports up.
func placeJoint(lm *HandLandmarks, tip, joint int, up bool) {
	const gap = 0.02
	if up {
		lm.Points[joint].Y = lm.Points[tip].Y + gap
	} else {
		lm.Points[joint].Y = lm.Points[tip].Y - gap
	}
}

// FlickLandmarks returns index and middle fingers raised with the index tip at x.
func FlickLandmarks(indexX float64) HandLandmarks {
	p := DefaultPose()
	p.IndexUp = true
	p.MiddleUp = true
	lm := PoseLandmarks(p)
	shift := indexX - lm.Points[IndexTip].X
	for i := range lm.Points {
		lm.Points[i].X += shift
	}
	return lm
}

// PointingLandmarks returns a pointing hand with the index at the given angle.
func PointingLandmarks(angle float64) HandLandmarks {
	p := DefaultPose()
	p.PointAngle = angle
	return PoseLandmarks(p)
}

// OpennessLandmarks returns a hand whose raw openness equals reach.
func OpennessLandmarks(reach float64) HandLandmarks {
	p := DefaultPose()
	p.Reach = reach
	return PoseLandmarks(p)
}
