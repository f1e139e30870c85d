package app

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"gocv.io/x/gocv"
)

func closeFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// alternatingFrames returns black and white frames so that every read after
// the first shows motion.
func alternatingFrames() []*gocv.Mat {
	black := capture.SolidFrames(1, 160, 120, 0)
	white := capture.SolidFrames(1, 160, 120, 255)
	return append(black, white...)
}

func newCameraApp(cam capture.Camera, d detector.Detector) *App {
	cfg := DefaultConfig()
	cfg.RenderFPS = 200
	cfg.IdleFPS = 100
	cfg.ActiveFPS = 100
	a := New(cfg)
	a.SetCamera(cam)
	a.SetDetector(d)
	return a
}

func TestDetectOnce_MotionGatesDetector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frames := alternatingFrames()
	defer closeFrames(frames)

	cam := capture.NewMockCamera(frames, true)
	cam.Open()
	mock := detector.NewMockDetector()
	a := newCameraApp(cam, mock)
	defer a.motion.Close()

	now := time.Unix(0, 0)

	a.detectOnce(cam, mock, now)
	if mock.Calls() != 0 {
		t.Errorf("first frame should only prime motion detection, detector calls = %d", mock.Calls())
	}
	if _, seq, err := a.Feed().Latest(); err != nil || seq != 1 {
		t.Errorf("feed after first frame: seq=%d err=%v", seq, err)
	}

	a.detectOnce(cam, mock, now.Add(10*time.Millisecond))
	if mock.Calls() != 1 {
		t.Errorf("detector calls after motion = %d, want 1", mock.Calls())
	}
	if cam.FPS() != 100 {
		t.Errorf("camera FPS = %d, want active rate 100", cam.FPS())
	}
	if len(a.landmarks) != 1 {
		t.Errorf("buffered results = %d, want 1", len(a.landmarks))
	}
}

func TestDetectOnce_ErrorsAreSkipped(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frames := alternatingFrames()
	defer closeFrames(frames)

	cam := capture.NewMockCamera(frames, true)
	mock := detector.NewMockDetector()
	mock.SetError(errors.New("service crashed"))
	a := newCameraApp(cam, mock)
	defer a.motion.Close()

	a.detectOnce(cam, mock, time.Now())
	if cam.Reads() != 0 {
		t.Error("closed camera should not deliver frames")
	}

	cam.Open()
	a.detectOnce(cam, mock, time.Now())
	a.detectOnce(cam, mock, time.Now())
	if mock.Calls() != 1 {
		t.Errorf("detector calls = %d, want 1", mock.Calls())
	}
	if len(a.landmarks) != 0 {
		t.Error("failed detections should not deliver results")
	}
}

func TestApp_CameraPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frames := alternatingFrames()
	defer closeFrames(frames)

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.PointingLandmarks(-1.2)})
	cam := capture.NewMockCamera(frames, true)
	a := newCameraApp(cam, mock)

	if err := a.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for a.State().Mode != gesture.ModeRotate && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	a.Stop()

	if a.State().Mode != gesture.ModeRotate {
		t.Errorf("Mode = %v, want rotate once hands flow through the pipeline", a.State().Mode)
	}
	if cam.IsOpen() {
		t.Error("Stop() should close the camera")
	}
	if _, _, err := a.Feed().Latest(); err != nil {
		t.Errorf("video feed should hold a frame: %v", err)
	}
}
