package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// BlurKernel is the Gaussian kernel edge applied before differencing.
	BlurKernel = 21
	// PixelDelta is the per-pixel intensity change counted as motion.
	PixelDelta = 25
)

// MotionDetector compares each frame against the previous one and reports
// the percentage of pixels that changed.
type MotionDetector struct {
	threshold float64
	prev      gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionDetector returns a detector that fires when more than threshold
// percent of the pixels change between consecutive frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect reports whether frame differs from the previous frame by more than
// the threshold. The first frame after construction or Reset only primes the
// baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurKernel, BlurKernel), 0, 0, gocv.BorderDefault)

	if !m.primed {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100

	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame. The detector may be reused afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold changes the change percentage. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// RateGate picks the detection rate from motion: the idle rate until motion
// is seen, then the active rate until IdleTimeout passes without motion.
type RateGate struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration

	active     bool
	lastMotion time.Time
}

// NewRateGate returns a gate that starts idle.
func NewRateGate(idleFPS, activeFPS int, idleTimeout time.Duration) *RateGate {
	return &RateGate{IdleFPS: idleFPS, ActiveFPS: activeFPS, IdleTimeout: idleTimeout}
}

// Observe records whether the frame at now showed motion and returns the
// rate to capture at next. changed is true when the gate switched modes.
func (g *RateGate) Observe(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		g.lastMotion = now
		if !g.active {
			g.active = true
			changed = true
		}
	case g.active && now.Sub(g.lastMotion) > g.IdleTimeout:
		g.active = false
		changed = true
	}
	return g.FPS(), changed
}

// Active reports whether frames should be sent to the hand detector.
func (g *RateGate) Active() bool {
	return g.active
}

// FPS returns the rate for the current mode.
func (g *RateGate) FPS() int {
	if g.active {
		return g.ActiveFPS
	}
	return g.IdleFPS
}

// Interval returns the frame period for the current mode.
func (g *RateGate) Interval() time.Duration {
	fps := g.FPS()
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}
