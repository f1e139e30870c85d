package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

// runLoop is the only goroutine that touches the controller. Render ticks,
// detection results and requests are serialized here, so Observe and Tick
// never overlap.
func (a *App) runLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(a.config.RenderFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case hands := <-a.landmarks:
			a.observe(hands)
		case req := <-a.requests:
			err := req.fn()
			a.publish(a.snapshot(a.controller.Frame()))
			req.reply <- err
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *App) observe(hands []detector.HandLandmarks) {
	hand := detector.First(hands)
	a.mode = a.controller.Observe(hand)
	if hand != nil {
		h := *hand
		a.hand = &h
	} else {
		a.hand = nil
	}
}

func (a *App) tick() {
	a.publish(a.snapshot(a.controller.Tick()))
}

func (a *App) publish(s State) {
	a.stateMu.Lock()
	a.state = s
	a.stateMu.Unlock()

	a.sinksMu.RLock()
	defer a.sinksMu.RUnlock()
	for _, sink := range a.sinks {
		sink.Render(s)
	}
}

// apply runs one command against loop-owned state.
func (a *App) apply(cmd Command) error {
	switch cmd {
	case CmdCalibrateClosed:
		v := a.controller.CalibrateClosed()
		log.Printf("Calibrated closed: %.4f", v)
		a.persistBound(store.BoundClosed, v)
	case CmdCalibrateOpen:
		v := a.controller.CalibrateOpen()
		log.Printf("Calibrated open: %.4f", v)
		a.persistBound(store.BoundOpen, v)
	case CmdTogglePause:
		log.Printf("Zoom %s", a.controller.TogglePause())
	case CmdToggleSkeleton:
		a.skeleton = !a.skeleton
		log.Printf("Skeleton overlay: %v", a.skeleton)
	case CmdToggleVideo:
		a.video = !a.video
		log.Printf("Video feed: %v", a.video)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return nil
}

// runDetection reads frames at the rate chosen by the motion gate, publishes
// them to the video feed and sends detected hands to the event loop. Frames
// without motion past the idle timeout are not sent to the detector.
func (a *App) runDetection(ctx context.Context, camera capture.Camera, d detector.Detector) {
	timer := time.NewTimer(a.gate.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		a.detectOnce(camera, d, time.Now())
		timer.Reset(a.gate.Interval())
	}
}

func (a *App) detectOnce(camera capture.Camera, d detector.Detector, now time.Time) {
	frame, err := camera.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		return
	}
	defer frame.Close()

	if err := a.feed.Publish(frame); err != nil {
		log.Printf("Error publishing frame: %v", err)
	}

	motion, _ := a.motion.Detect(frame)
	if fps, changed := a.gate.Observe(motion, now); changed {
		camera.SetFPS(fps)
		if a.gate.Active() {
			log.Printf("Motion detected, detecting at %d fps", fps)
		} else {
			log.Printf("No motion, idling at %d fps", fps)
		}
	}

	if !a.gate.Active() || d == nil {
		return
	}

	hands, err := d.Detect(frame)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return
	}
	offer(a.landmarks, hands)
}
