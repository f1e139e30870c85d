package tray

import "testing"

func TestTray_Titles(t *testing.T) {
	if got := pauseTitle(false); got != "● Zoom Running" {
		t.Errorf("pauseTitle(false) = %q", got)
	}
	if got := pauseTitle(true); got != "○ Zoom Paused" {
		t.Errorf("pauseTitle(true) = %q", got)
	}
	if got := statusTitle(""); got != "Profile: none" {
		t.Errorf("statusTitle(\"\") = %q", got)
	}
	if got := statusTitle("couch"); got != "Profile: couch" {
		t.Errorf("statusTitle(couch) = %q", got)
	}
}

func TestTray_StateBeforeReady(t *testing.T) {
	tr := New()
	if tr.IsPaused() {
		t.Error("new tray should not be paused")
	}

	// Menu items do not exist until Run; updates must still be safe.
	tr.SetPaused(true)
	tr.SetProfile("couch")
	if !tr.IsPaused() {
		t.Error("IsPaused() = false after SetPaused(true)")
	}

	var calls []bool
	tr.OnCalibrate(func(open bool) { calls = append(calls, open) })
	tr.handleCalibrate(true)
	tr.handleCalibrate(false)
	if len(calls) != 2 || !calls[0] || calls[1] {
		t.Errorf("calibrate calls = %v, want [true false]", calls)
	}

	paused := 0
	tr.OnPause(func() { paused++ })
	tr.handle(func() func() { return tr.onPause })
	if paused != 1 {
		t.Errorf("pause callback called %d times, want 1", paused)
	}

	// Unset callbacks are ignored.
	tr.handle(func() func() { return tr.onViewer })
}
