// Package server provides the HTTP operator surface for the mudra hand mouse.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Version   string
	Store     *store.Store
	App       *app.App
}

// Server is the HTTP surface over the orchestrator. It reads snapshots and
// calls App methods; it never touches the frame queue directly.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time

	mu      sync.Mutex
	httpSrv *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.App != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/control", s.handleControl)

		calibrationHandler := api.NewCalibrationHandler(s.config.App)
		s.mux.Handle("/api/calibration", calibrationHandler)
		s.mux.Handle("/api/calibration/", calibrationHandler)

		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.App))
	}

	if s.config.App != nil && s.config.Store != nil {
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Store, s.config.App))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type processInfo struct {
	PID         int32    `json:"pid"`
	CPUPercent  *float64 `json:"cpu_percent,omitempty"`
	MemoryBytes *uint64  `json:"memory_bytes,omitempty"`
}

type healthResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Uptime  string       `json:"uptime"`
	Process *processInfo `json:"process,omitempty"`
}

// handleHealth handles GET requests to /api/health. Process stats that
// cannot be read are omitted rather than failing the check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status:  "ok",
		Version: s.config.Version,
		Uptime:  time.Since(s.start).String(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		info := &processInfo{PID: proc.Pid}
		if cpu, err := proc.CPUPercent(); err == nil {
			info.CPUPercent = &cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			info.MemoryBytes = &mem.RSS
		}
		response.Process = info
	}

	writeJSON(w, http.StatusOK, response)
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.config.App.Status())
}

type controlRequest struct {
	Active bool `json:"active"`
}

// handleControl handles POST requests to /api/control, switching cursor
// control on or off and returning the resulting status.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Active {
		if err := s.config.App.StartControl(); err != nil {
			if errors.Is(err, capture.ErrDeviceUnavailable) {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		s.config.App.StopControl()
	}

	writeJSON(w, http.StatusOK, s.config.App.Status())
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.httpSrv = &http.Server{Addr: addr, Handler: s}
	srv := s.httpSrv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
