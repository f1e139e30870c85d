package gesture

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ayusman/mudra/internal/detector"
)

var approxOpt = cmpopts.EquateApprox(0, epsilon)

// settle feeds the same hand until smoothed openness is within 1e-9 of its raw value.
func settle(c *Controller, h detector.HandLandmarks) {
	for i := 0; i < 200; i++ {
		c.Observe(&h)
	}
}

func calibrated(minOpen, maxOpen float64) *Controller {
	c := NewController()
	c.SetCalibration(NewCalibration(&minOpen, &maxOpen))
	return c
}

func TestController_InitialFrame(t *testing.T) {
	c := NewController()
	want := Frame{Spread: InitialSpread, Pause: Running}
	if diff := cmp.Diff(want, c.Tick(), approxOpt); diff != "" {
		t.Errorf("Tick() mismatch (-want +got):\n%s", diff)
	}
}

func TestController_CalibrationCommands(t *testing.T) {
	c := NewController()

	settle(c, detector.OpennessLandmarks(0.08))
	closed := c.CalibrateClosed()

	settle(c, detector.OpennessLandmarks(0.30))
	open := c.CalibrateOpen()

	if math.Abs(closed-0.08) > 1e-6 || math.Abs(open-0.30) > 1e-6 {
		t.Fatalf("calibrated bounds = (%f, %f), want about (0.08, 0.30)", closed, open)
	}

	frame := c.Tick()
	if math.Abs(frame.Spread-(SpreadFloor+SpreadRange)) > 1e-4 {
		t.Errorf("fully open spread = %f, want about %f", frame.Spread, SpreadFloor+SpreadRange)
	}

	settle(c, detector.OpennessLandmarks(0.08))
	frame = c.Tick()
	if math.Abs(frame.Spread-SpreadFloor) > 1e-4 {
		t.Errorf("fully closed spread = %f, want about %f", frame.Spread, SpreadFloor)
	}
}

func TestController_SpreadHeldWhileUncalibrated(t *testing.T) {
	c := NewController()
	settle(c, detector.OpennessLandmarks(0.3))
	c.CalibrateClosed()

	for i := 0; i < 5; i++ {
		if got := c.Tick().Spread; got != InitialSpread {
			t.Fatalf("tick %d spread = %f, want %f with one bound unset", i, got, InitialSpread)
		}
	}
}

func TestController_PauseResume(t *testing.T) {
	c := calibrated(0.1, 0.4)
	c.openness.Smooth = 0.25

	before := c.Tick().Spread
	if state := c.TogglePause(); state != Paused {
		t.Fatalf("TogglePause() = %s, want paused", state)
	}

	snap := c.PauseSnapshot()
	want := &Snapshot{Spread: before, SmoothOpen: 0.25}
	if diff := cmp.Diff(want, snap, approxOpt); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	t.Run("paused ignores live openness", func(t *testing.T) {
		c.openness.Smooth = 0.39
		if got := c.Tick().Spread; got != before {
			t.Errorf("paused spread = %f, want %f", got, before)
		}
	})

	c.openness.Smooth = 0.26
	if state := c.TogglePause(); state != ResumePending {
		t.Fatalf("TogglePause() = %s, want resume-pending", state)
	}

	t.Run("small movement keeps spread pinned", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			frame := c.Tick()
			if frame.Spread != before {
				t.Fatalf("tick %d spread = %f, want pinned %f", i, frame.Spread, before)
			}
			if frame.Pause != ResumePending {
				t.Fatalf("tick %d state = %s, want resume-pending", i, frame.Pause)
			}
		}
	})

	t.Run("movement past threshold resumes with a fresh spread", func(t *testing.T) {
		c.openness.Smooth = 0.31
		frame := c.Tick()

		fresh, _ := Spread(0.31, c.Calibration())
		if !approx(frame.Spread, fresh) {
			t.Errorf("spread = %f, want fresh %f", frame.Spread, fresh)
		}
		if frame.Pause != Running {
			t.Errorf("state = %s, want running", frame.Pause)
		}
		if c.PauseSnapshot() != nil {
			t.Error("snapshot should be cleared after resume")
		}
	})
}

func TestController_PauseBeforeCalibration(t *testing.T) {
	c := NewController()
	c.openness.Smooth = 0.2

	if state := c.TogglePause(); state != Paused {
		t.Fatalf("TogglePause() = %s, want paused", state)
	}
	if c.PauseSnapshot() != nil {
		t.Fatal("no snapshot should exist before calibration")
	}

	c.SetCalibration(NewCalibration(f(0.1), f(0.3)))
	if got := c.Tick().Spread; got != InitialSpread {
		t.Errorf("paused spread without snapshot = %f, want held %f", got, InitialSpread)
	}

	if state := c.TogglePause(); state != Running {
		t.Fatalf("resume without snapshot = %s, want running", state)
	}
	if got, _ := Spread(0.2, c.Calibration()); !approx(c.Tick().Spread, got) {
		t.Errorf("spread after resume should follow openness")
	}
}

func TestController_RepauseDuringResumePending(t *testing.T) {
	c := calibrated(0.1, 0.4)
	c.openness.Smooth = 0.2
	c.Tick()
	c.TogglePause()
	c.TogglePause()

	c.openness.Smooth = 0.22
	if state := c.TogglePause(); state != Paused {
		t.Fatalf("TogglePause() = %s, want paused", state)
	}
	if snap := c.PauseSnapshot(); snap == nil || snap.SmoothOpen != 0.22 {
		t.Errorf("snapshot = %+v, want fresh capture at 0.22", snap)
	}
}

func TestController_FlickOnlyWhilePaused(t *testing.T) {
	c := NewController()
	a := detector.FlickLandmarks(0.40)
	b := detector.FlickLandmarks(0.50)

	if mode := c.Observe(&a); mode != ModeRotate {
		t.Fatalf("running flick pose mode = %s, want rotate", mode)
	}

	c.TogglePause()
	if mode := c.Observe(&a); mode != ModeFlick {
		t.Fatalf("paused flick pose mode = %s, want flick", mode)
	}
	if _, ok := c.rotate.LastAngle(); ok {
		t.Error("rotate baseline should be cleared in flick mode")
	}

	c.Observe(&b)
	if got := c.Rotation().VelY; !approx(got, 0.1*FlickGain) {
		t.Errorf("VelY = %f, want %f", got, 0.1*FlickGain)
	}

	frame := c.Tick()
	if !approx(frame.RotY, 0.1*FlickGain*VelocityDecay) {
		t.Errorf("RotY after one tick = %f, want %f", frame.RotY, 0.1*FlickGain*VelocityDecay)
	}
}

func TestController_ContinuityResetOnModeChange(t *testing.T) {
	c := NewController()
	c.TogglePause()

	pointA := detector.PointingLandmarks(-1.0)
	pointB := detector.PointingLandmarks(1.0)
	flick := detector.FlickLandmarks(0.4)

	c.Observe(&pointA)
	c.Observe(&flick)
	c.Observe(&pointB)

	if rot := c.Rotation(); rot.RotX != 0 || rot.RotY != 0 {
		t.Errorf("re-entering rotate applied a stale delta: %+v", rot)
	}
	if _, ok := c.flick.LastIndexX(); ok {
		t.Error("flick baseline should be cleared in rotate mode")
	}

	c.Observe(&flick)
	c.Observe(nil)
	if _, ok := c.flick.LastIndexX(); ok {
		t.Error("flick baseline should be cleared on a frame without a hand")
	}
	if _, ok := c.rotate.LastAngle(); ok {
		t.Error("rotate baseline should be cleared on a frame without a hand")
	}
}

func TestController_HandAbsentFrames(t *testing.T) {
	c := calibrated(0.1, 0.3)
	c.openness.Smooth = 0.2
	c.rotation.VelY = 0.5
	c.rotation.VelX = -0.25

	spread := c.Tick().Spread
	prev := c.Rotation()

	for i := 0; i < 100; i++ {
		if mode := c.Observe(nil); mode != ModeIdle {
			t.Fatalf("frame %d mode = %s, want idle", i, mode)
		}
		frame := c.Tick()
		if frame.Spread != spread {
			t.Fatalf("frame %d spread = %f, want held %f", i, frame.Spread, spread)
		}
		rot := c.Rotation()
		if rot.RotY <= prev.RotY || rot.RotX >= prev.RotX {
			t.Fatalf("frame %d rotation did not keep coasting: %+v", i, rot)
		}
		if math.Abs(rot.VelY) >= math.Abs(prev.VelY) {
			t.Fatalf("frame %d velocity did not decay", i)
		}
		prev = rot
	}

	want := 0.5 * math.Pow(VelocityDecay, 101)
	if !approx(c.Rotation().VelY, want) {
		t.Errorf("VelY = %g, want %g", c.Rotation().VelY, want)
	}
}

func TestModeAndStateStrings(t *testing.T) {
	modes := map[Mode]string{ModeIdle: "idle", ModeRotate: "rotate", ModeFlick: "flick"}
	for m, want := range modes {
		if m.String() != want {
			t.Errorf("Mode(%d).String() = %s, want %s", m, m.String(), want)
		}
	}
	states := map[PauseState]string{Running: "running", Paused: "paused", ResumePending: "resume-pending"}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("PauseState(%d).String() = %s, want %s", s, s.String(), want)
		}
	}
}

func TestFrameJSON(t *testing.T) {
	in := Frame{Spread: 0.5, RotX: 1, RotY: -2, Pause: ResumePending}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"pause":"resume-pending"`) {
		t.Errorf("pause state should be encoded by name: %s", data)
	}

	var out Frame
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	var m Mode
	if err := m.UnmarshalText([]byte("flick")); err != nil || m != ModeFlick {
		t.Errorf("UnmarshalText(flick) = %v, %v", m, err)
	}
	if err := m.UnmarshalText([]byte("wave")); err == nil {
		t.Error("UnmarshalText(wave) should fail")
	}
}
