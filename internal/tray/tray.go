// Package tray provides the system tray menu for mudra.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu. Callbacks run on the tray's click goroutine.
type Tray struct {
	onPause     func()
	onCalibrate func(open bool)
	onViewer    func()
	onQuit      func()
	paused      bool
	mu          sync.RWMutex

	menuPause  *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a Tray with zoom running.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback for the pause menu item.
func (t *Tray) OnPause(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnCalibrate sets the callback for the calibrate menu items. open reports
// which bound was requested.
func (t *Tray) OnCalibrate(fn func(open bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCalibrate = fn
}

// OnViewer sets the callback for the viewer menu item.
func (t *Tray) OnViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand-gesture particles")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(statusTitle(""), "Active calibration profile")
	t.menuStatus.Disable()
	systray.AddSeparator()
	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Freeze or resume zoom")
	t.mu.Unlock()

	menuClosed := systray.AddMenuItem("Calibrate Closed", "Record the current hand as fully closed")
	menuOpen := systray.AddMenuItem("Calibrate Open", "Record the current hand as fully open")
	systray.AddSeparator()

	menuViewer := systray.AddMenuItem("Open Viewer...", "Open the viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handle(func() func() { return t.onPause })
			case <-menuClosed.ClickedCh:
				t.handleCalibrate(false)
			case <-menuOpen.ClickedCh:
				t.handleCalibrate(true)
			case <-menuViewer.ClickedCh:
				t.handle(func() func() { return t.onViewer })
			case <-menuQuit.ClickedCh:
				t.handle(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

// handle reads a callback under the lock and calls it outside it.
func (t *Tray) handle(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleCalibrate(open bool) {
	t.mu.RLock()
	callback := t.onCalibrate
	t.mu.RUnlock()

	if callback != nil {
		callback(open)
	}
}

// SetPaused updates the pause item to match the pipeline.
func (t *Tray) SetPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused == paused {
		return
	}
	t.paused = paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(paused))
	}
}

// SetProfile shows the active profile name.
func (t *Tray) SetProfile(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(name))
	}
}

// IsPaused reports the last state passed to SetPaused.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

func pauseTitle(paused bool) string {
	if paused {
		return "○ Zoom Paused"
	}
	return "● Zoom Running"
}

func statusTitle(profile string) string {
	if profile == "" {
		return "Profile: none"
	}
	return "Profile: " + profile
}
