// Package api provides the HTTP API handlers for the mudra operator surface.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/calibration"
	"github.com/ayusman/mudra/internal/capture"
)

// CalibrationHandler handles HTTP requests for the calibration session.
type CalibrationHandler struct {
	app *app.App
}

// NewCalibrationHandler creates a new CalibrationHandler over the
// orchestrator.
func NewCalibrationHandler(a *app.App) *CalibrationHandler {
	return &CalibrationHandler{app: a}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods. Expected paths: /api/calibration for status and
// /api/calibration/{session|capture|confirm|cancel|apply|reset} for the
// session verbs.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/calibration")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w, r)
		return
	}

	switch path {
	case "session":
		switch r.Method {
		case http.MethodPost:
			h.open(w, r)
		case http.MethodDelete:
			h.close(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "capture":
		h.post(w, r, h.capture)
	case "confirm":
		h.post(w, r, h.confirm)
	case "cancel":
		h.post(w, r, h.cancel)
	case "apply":
		h.post(w, r, h.apply)
	case "reset":
		h.post(w, r, h.reset)
	default:
		http.NotFound(w, r)
	}
}

func (h *CalibrationHandler) post(w http.ResponseWriter, r *http.Request, fn func(http.ResponseWriter, *http.Request)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fn(w, r)
}

// status handles GET /api/calibration and returns the session snapshot.
func (h *CalibrationHandler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.CalibrationStatus()
	if err != nil {
		writeError(w, http.StatusNotFound, "No calibration session")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// open handles POST /api/calibration/session and opens the session.
func (h *CalibrationHandler) open(w http.ResponseWriter, r *http.Request) {
	if err := h.app.StartCalibration(); err != nil {
		switch {
		case errors.Is(err, app.ErrSessionOpen):
			writeError(w, http.StatusConflict, "Calibration session already open")
		case errors.Is(err, capture.ErrDeviceUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	st, _ := h.app.CalibrationStatus()
	writeJSON(w, http.StatusCreated, st)
}

// close handles DELETE /api/calibration/session. Unapplied captures are
// discarded.
func (h *CalibrationHandler) close(w http.ResponseWriter, r *http.Request) {
	if err := h.app.CloseCalibration(); err != nil {
		if errors.Is(err, app.ErrNoSession) {
			writeError(w, http.StatusNotFound, "No calibration session")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type captureRequest struct {
	Step string `json:"step"`
}

// capture handles POST /api/calibration/capture and arms the named step.
func (h *CalibrationHandler) capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	err := h.app.CalibrationCapture(calibration.Step(req.Step))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoSession):
			writeError(w, http.StatusNotFound, "No calibration session")
		case errors.Is(err, calibration.ErrCaptureInProgress):
			writeError(w, http.StatusConflict, err.Error())
		default:
			// Unknown step, missing top-left, missing open-hand average.
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}

	st, _ := h.app.CalibrationStatus()
	writeJSON(w, http.StatusOK, st)
}

// confirm handles POST /api/calibration/confirm and short-circuits a
// corner hold.
func (h *CalibrationHandler) confirm(w http.ResponseWriter, r *http.Request) {
	if err := h.app.CalibrationConfirm(); err != nil {
		writeError(w, http.StatusNotFound, "No calibration session")
		return
	}
	st, _ := h.app.CalibrationStatus()
	writeJSON(w, http.StatusOK, st)
}

// cancel handles POST /api/calibration/cancel and aborts the capture in
// flight.
func (h *CalibrationHandler) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.app.CalibrationCancel(); err != nil {
		writeError(w, http.StatusNotFound, "No calibration session")
		return
	}
	st, _ := h.app.CalibrationStatus()
	writeJSON(w, http.StatusOK, st)
}

// apply handles POST /api/calibration/apply and commits captured values.
func (h *CalibrationHandler) apply(w http.ResponseWriter, r *http.Request) {
	applied, err := h.app.ApplyCalibration()
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoSession):
			writeError(w, http.StatusNotFound, "No calibration session")
		case errors.Is(err, calibration.ErrNothingToApply),
			errors.Is(err, calibration.ErrRegionDegenerate):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, applied)
}

// reset handles POST /api/calibration/reset and restores the default
// region and pinch threshold. It works with or without an open session.
func (h *CalibrationHandler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.app.ResetCalibration(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
