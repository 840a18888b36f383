package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/mouse"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

const version = "0.1.0"

func main() {
	addr := flag.String("addr", ":8765", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device index")
	mockDetector := flag.Bool("mock-detector", false, "use the mock detector instead of MediaPipe")
	flag.Parse()

	fmt.Println("Mudra - Hand Mouse")

	dataDir, err := resolveDataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "mudra.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	settings, err := st.Settings().Load()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	a, err := app.New(app.Config{
		Store:    st,
		Camera:   capture.NewWebcam(*cameraID),
		Detector: newDetector(settings, *mockDetector),
		Actuator: mouse.NewController(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	webDir := findWebDir(dataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Version:   version,
		Store:     st,
		App:       a,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	tr := tray.New()
	tr.OnToggle(func(enable bool) error {
		if enable {
			return a.StartControl()
		}
		a.StopControl()
		return nil
	})
	tr.OnDashboard(func() {
		openBrowser(dashboardURL(*addr))
	})
	tr.OnQuit(func() {
		a.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	})

	// systray owns the main goroutine until Quit.
	tr.Run()
}

// newDetector builds the MediaPipe detector, falling back to the mock when
// the sidecar script is missing or the mock was requested.
func newDetector(settings store.Settings, useMock bool) detector.Detector {
	if useMock {
		log.Println("Using mock detector")
		return detector.NewMockDetector()
	}

	det, err := detector.NewMediaPipeDetector(detector.Config{
		ModelComplexity:        settings.ModelComplexity,
		MaxHands:               1,
		MinDetectionConfidence: settings.MinDetectionConfidence,
		MinTrackingConfidence:  settings.MinTrackingConfidence,
	})
	if err != nil {
		log.Printf("MediaPipe detector unavailable (%v), falling back to mock detector", err)
		return detector.NewMockDetector()
	}
	return det
}

// resolveDataDir returns the data directory, honoring the MUDRA_HOME
// override.
func resolveDataDir() (string, error) {
	if dir := os.Getenv("MUDRA_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".mudra"), nil
}

// findWebDir searches for the operator page in common locations.
// It checks "web", "../web", "../../web", and the data directory.
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

func dashboardURL(addr string) string {
	if addr != "" && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens the URL with the platform opener. Failures are logged;
// the dashboard stays reachable by pasting the address.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v (dashboard at %s)", err, url)
	}
}
