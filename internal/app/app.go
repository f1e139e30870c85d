// Package app runs the mudra gesture pipeline: it owns the gesture
// controller, feeds it landmarks from the camera or a remote client, applies
// commands and publishes a State to every sink on each render tick.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// Landmark sources.
const (
	SourceCamera = "camera"
	SourceRemote = "remote"
)

// LandmarkBuffer is the number of undelivered detection results kept before
// the oldest is dropped.
const LandmarkBuffer = 1

// ErrNotRunning is returned by requests made while the event loop is stopped.
var ErrNotRunning = errors.New("pipeline is not running")

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	Source       string
	Camera       capture.Config
	Detector     detector.Config
	RenderFPS    int
	IdleFPS      int
	ActiveFPS    int
	MotionThresh float64
	IdleTimeout  time.Duration
	// Profile is the calibration profile used when none was activated before.
	Profile string
}

// DefaultConfig returns camera-sourced settings with a 60 Hz render tick.
func DefaultConfig() Config {
	return Config{
		Source:       SourceCamera,
		Camera:       capture.DefaultConfig(),
		Detector:     detector.DefaultConfig(),
		RenderFPS:    60,
		IdleFPS:      5,
		ActiveFPS:    30,
		MotionThresh: 1.0,
		IdleTimeout:  2 * time.Second,
		Profile:      "default",
	}
}

type request struct {
	fn    func() error
	reply chan error
}

// App is the pipeline. All controller access happens on the event loop
// goroutine started by Start.
type App struct {
	config Config

	camera   capture.Camera
	motion   *capture.MotionDetector
	gate     *capture.RateGate
	feed     *capture.Feed
	detector detector.Detector

	landmarks chan []detector.HandLandmarks
	requests  chan request

	// Owned by the event loop.
	controller *gesture.Controller
	mode       gesture.Mode
	hand       *detector.HandLandmarks
	skeleton   bool
	video      bool
	settings   store.ViewerSettings
	profile    *store.Profile

	sinksMu sync.RWMutex
	sinks   []Sink

	stateMu sync.RWMutex
	state   State

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an App. With the camera source it prepares the capture device
// and the MediaPipe detector, falling back to a mock detector when the
// service is unavailable.
func New(config Config) *App {
	def := DefaultConfig()
	if config.RenderFPS <= 0 {
		config.RenderFPS = def.RenderFPS
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = def.IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = def.ActiveFPS
	}
	if config.MotionThresh <= 0 {
		config.MotionThresh = def.MotionThresh
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = def.IdleTimeout
	}
	if config.Source == "" {
		config.Source = def.Source
	}
	if config.Profile == "" {
		config.Profile = def.Profile
	}
	if config.Detector.MaxHands == 0 {
		config.Detector = def.Detector
	}

	a := &App{
		config:     config,
		feed:       capture.NewFeed(),
		landmarks:  make(chan []detector.HandLandmarks, LandmarkBuffer),
		requests:   make(chan request),
		controller: gesture.NewController(),
		settings:   store.DefaultViewerSettings(),
	}
	a.state = a.snapshot(a.controller.Frame())

	if config.Source == SourceCamera {
		camCfg := config.Camera
		camCfg.FPS = config.IdleFPS
		a.camera = capture.NewCamera(camCfg)
		a.motion = capture.NewMotionDetector(config.MotionThresh)
		a.gate = capture.NewRateGate(config.IdleFPS, config.ActiveFPS, config.IdleTimeout)

		if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// SetCamera replaces the capture device. Call before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector replaces the hand detector. Call before Start.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// AddSink registers a sink for published states.
func (a *App) AddSink(s Sink) {
	a.sinksMu.Lock()
	defer a.sinksMu.Unlock()
	a.sinks = append(a.sinks, s)
}

// Feed returns the latest-frame buffer backing the video stream.
func (a *App) Feed() *capture.Feed {
	return a.feed
}

// Source returns the configured landmark source.
func (a *App) Source() string {
	return a.config.Source
}

// State returns the most recently published state.
func (a *App) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

// Start loads the active profile and viewer settings, opens the camera when
// the source needs it and starts the event loop and detection goroutines.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.loadProfile(); err != nil {
		return err
	}
	if err := a.loadSettings(); err != nil {
		return err
	}
	a.publish(a.snapshot(a.controller.Frame()))

	var camera capture.Camera
	if a.config.Source == SourceCamera && a.camera != nil {
		if err := a.camera.Open(); err != nil {
			return fmt.Errorf("start pipeline: %w", err)
		}
		a.camera.SetFPS(a.config.IdleFPS)
		camera = a.camera
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runLoop(ctx)
	}()

	if camera != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runDetection(ctx, camera, a.detector)
		}()
	}

	go func() {
		wg.Wait()
		close(a.done)
	}()

	log.Printf("Pipeline started (source=%s, render=%d fps)", a.config.Source, a.config.RenderFPS)
	return nil
}

// Stop cancels the loops, waits for them and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.cancel = nil

	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Pipeline stopped")
}

// Done is closed once both loops have exited after Stop or context
// cancellation. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// SubmitLandmarks delivers one detection result from a remote client. An
// empty slice means no hand. When the loop has not consumed the previous
// result it is dropped in favor of this one.
func (a *App) SubmitLandmarks(hands []detector.HandLandmarks) {
	offer(a.landmarks, hands)
}

func offer(ch chan []detector.HandLandmarks, hands []detector.HandLandmarks) {
	for {
		select {
		case ch <- hands:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Execute applies a command on the event loop and returns the resulting state.
func (a *App) Execute(ctx context.Context, cmd Command) (State, error) {
	if _, err := ParseCommand(string(cmd)); err != nil {
		return State{}, err
	}
	if err := a.do(ctx, func() error { return a.apply(cmd) }); err != nil {
		return State{}, err
	}
	return a.State(), nil
}

// ActivateProfile switches the controller to the bounds of a stored profile
// and remembers it as the active profile.
func (a *App) ActivateProfile(ctx context.Context, id string) error {
	if a.config.Store == nil {
		return fmt.Errorf("activate profile: %w", store.ErrNotFound)
	}
	return a.do(ctx, func() error {
		p, err := a.config.Store.Profiles().GetByID(id)
		if err != nil {
			return fmt.Errorf("activate profile %s: %w", id, err)
		}
		if err := a.config.Store.Settings().Set(store.SettingActiveProfile, p.ID); err != nil {
			return fmt.Errorf("activate profile %s: %w", id, err)
		}
		a.useProfile(p)
		log.Printf("Activated profile %q", p.Name)
		return nil
	})
}

// ReloadProfile re-reads the active profile, e.g. after it was edited.
func (a *App) ReloadProfile(ctx context.Context) error {
	return a.do(ctx, func() error {
		if a.config.Store == nil || a.profile == nil {
			return nil
		}
		p, err := a.config.Store.Profiles().GetByID(a.profile.ID)
		if err != nil {
			return fmt.Errorf("reload profile: %w", err)
		}
		a.useProfile(p)
		return nil
	})
}

// ApplySettings validates, stores and publishes new viewer settings.
func (a *App) ApplySettings(ctx context.Context, v store.ViewerSettings) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return a.do(ctx, func() error {
		if a.config.Store != nil {
			if err := a.config.Store.Settings().SaveViewer(v); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
		}
		a.settings = v
		return nil
	})
}

// do runs fn on the event loop and publishes the resulting state.
func (a *App) do(ctx context.Context, fn func() error) error {
	done := a.Done()
	if done == nil {
		return ErrNotRunning
	}

	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case a.requests <- req:
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loadProfile picks the remembered active profile, or the configured one,
// creating it when it does not exist yet.
func (a *App) loadProfile() error {
	if a.config.Store == nil {
		return nil
	}
	profiles := a.config.Store.Profiles()

	if id, err := a.config.Store.Settings().Get(store.SettingActiveProfile); err == nil {
		if p, err := profiles.GetByID(id); err == nil {
			a.useProfile(p)
			return nil
		}
		log.Printf("Active profile %s is gone, falling back to %q", id, a.config.Profile)
	}

	p, err := profiles.GetByName(a.config.Profile)
	if errors.Is(err, store.ErrNotFound) {
		p = &store.Profile{ID: uuid.New().String(), Name: a.config.Profile}
		if err := profiles.Create(p); err != nil {
			return fmt.Errorf("create profile %q: %w", a.config.Profile, err)
		}
		log.Printf("Created profile %q", p.Name)
	} else if err != nil {
		return fmt.Errorf("load profile %q: %w", a.config.Profile, err)
	}

	a.useProfile(p)
	return nil
}

func (a *App) useProfile(p *store.Profile) {
	a.profile = p
	a.controller.SetCalibration(gesture.NewCalibration(p.MinOpen, p.MaxOpen))
}

func (a *App) loadSettings() error {
	if a.config.Store == nil {
		return nil
	}
	v, err := a.config.Store.Settings().Viewer()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	a.settings = v
	return nil
}

// persistBound stores a calibration bound on the active profile. Failures
// are logged; the in-memory bound stays applied.
func (a *App) persistBound(bound store.Bound, value float64) {
	if a.config.Store == nil || a.profile == nil {
		return
	}
	if err := a.config.Store.Profiles().Calibrate(a.profile.ID, bound, value); err != nil {
		log.Printf("Failed to save %s bound for %q: %v", bound, a.profile.Name, err)
		return
	}
	if bound == store.BoundClosed {
		a.profile.MinOpen = &value
	} else {
		a.profile.MaxOpen = &value
	}
}
