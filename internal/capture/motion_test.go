package capture

import (
	"testing"
	"time"
)

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frames := SolidFrames(2, 640, 480, 0)
	defer closeAll(frames)

	detected, changed := md.Detect(frames[0])
	if detected || changed != 0 {
		t.Errorf("first frame = (%v, %f), want (false, 0)", detected, changed)
	}

	if detected, changed = md.Detect(frames[1]); detected {
		t.Errorf("identical frames should not detect motion, changed = %f", changed)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black := SolidFrames(1, 640, 480, 0)
	white := SolidFrames(1, 640, 480, 255)
	defer closeAll(black)
	defer closeAll(white)

	md.Detect(black[0])
	detected, changed := md.Detect(white[0])
	if !detected {
		t.Errorf("black to white should detect motion, changed = %f", changed)
	}
	if changed < 50 {
		t.Errorf("changed = %f, want > 50", changed)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black := SolidFrames(1, 640, 480, 0)
	white := SolidFrames(1, 640, 480, 255)
	defer closeAll(black)
	defer closeAll(white)

	md.Detect(black[0])
	md.Reset()

	if md.primed {
		t.Error("detector should not be primed after Reset")
	}
	if detected, _ := md.Detect(white[0]); detected {
		t.Error("first frame after Reset should only prime the baseline")
	}
}

func TestMotionDetector_NilFrame(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if detected, changed := md.Detect(nil); detected || changed != 0 {
		t.Errorf("Detect(nil) = (%v, %f), want (false, 0)", detected, changed)
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.threshold != 5.0 {
		t.Errorf("threshold = %f, want 5.0", md.threshold)
	}

	md.SetThreshold(-1.0)
	if md.threshold != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.threshold)
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}

func TestRateGate(t *testing.T) {
	start := time.Unix(1000, 0)
	g := NewRateGate(5, 30, 2*time.Second)

	if g.Active() || g.FPS() != 5 {
		t.Fatalf("new gate: active=%v fps=%d, want idle at 5", g.Active(), g.FPS())
	}
	if g.Interval() != 200*time.Millisecond {
		t.Errorf("idle Interval() = %v, want 200ms", g.Interval())
	}

	steps := []struct {
		name        string
		motion      bool
		at          time.Duration
		wantFPS     int
		wantChanged bool
	}{
		{name: "still frame stays idle", motion: false, at: 0, wantFPS: 5},
		{name: "motion activates", motion: true, at: 100 * time.Millisecond, wantFPS: 30, wantChanged: true},
		{name: "motion while active", motion: true, at: time.Second, wantFPS: 30},
		{name: "still within timeout", motion: false, at: 2900 * time.Millisecond, wantFPS: 30},
		{name: "still past timeout", motion: false, at: 3100 * time.Millisecond, wantFPS: 5, wantChanged: true},
		{name: "stays idle", motion: false, at: 10 * time.Second, wantFPS: 5},
	}

	for _, s := range steps {
		t.Run(s.name, func(t *testing.T) {
			fps, changed := g.Observe(s.motion, start.Add(s.at))
			if fps != s.wantFPS || changed != s.wantChanged {
				t.Errorf("Observe() = (%d, %v), want (%d, %v)", fps, changed, s.wantFPS, s.wantChanged)
			}
		})
	}
}

func TestRateGate_ZeroRateInterval(t *testing.T) {
	g := NewRateGate(0, 0, time.Second)
	if g.Interval() != time.Second {
		t.Errorf("Interval() = %v, want 1s", g.Interval())
	}
}
