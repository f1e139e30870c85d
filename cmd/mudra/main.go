package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	fmt.Println("Mudra - Hand Gesture Particles")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	camera := capture.DefaultConfig()
	camera.DeviceID = cfg.CameraID

	appCfg := app.DefaultConfig()
	appCfg.Store = st
	appCfg.Source = cfg.Source
	appCfg.Camera = camera
	appCfg.RenderFPS = cfg.RenderFPS
	appCfg.IdleFPS = cfg.IdleFPS
	appCfg.ActiveFPS = cfg.ActiveFPS
	appCfg.MotionThresh = cfg.MotionThresh
	appCfg.IdleTimeout = cfg.IdleTimeout
	appCfg.Profile = cfg.Profile

	pipeline := app.New(appCfg)

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       pipeline,
	})

	if err := pipeline.Start(ctx); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer pipeline.Stop()

	go func() {
		fmt.Printf("Starting server on %s (source: %s)\n", cfg.Addr, cfg.Source)
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if cfg.Tray {
		t := newTray(ctx, pipeline, viewerURL(cfg.Addr), stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// The tray needs the main thread on macOS.
		t.Run()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// newTray wires the tray menu to the pipeline.
func newTray(ctx context.Context, pipeline *app.App, url string, quit func()) *tray.Tray {
	t := tray.New()

	t.OnPause(func() {
		if _, err := pipeline.Execute(ctx, app.CmdTogglePause); err != nil {
			log.Printf("Pause failed: %v", err)
		}
	})
	t.OnCalibrate(func(open bool) {
		cmd := app.CmdCalibrateClosed
		if open {
			cmd = app.CmdCalibrateOpen
		}
		if _, err := pipeline.Execute(ctx, cmd); err != nil {
			log.Printf("Calibration failed: %v", err)
		}
	})
	t.OnViewer(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open viewer: %v", err)
		}
	})
	t.OnQuit(quit)

	pipeline.AddSink(app.SinkFunc(func(s app.State) {
		t.SetPaused(s.Pause != gesture.Running)
		t.SetProfile(s.ProfileName)
	}))
	return t
}

func viewerURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
