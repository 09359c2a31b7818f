// Package api serves the map UI and the HTTP endpoints it drives the app with.
package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/briangreenhill/mapty/internal/app"
	"github.com/briangreenhill/mapty/internal/mapview"
	"github.com/briangreenhill/mapty/internal/render"
	"github.com/briangreenhill/mapty/internal/workout"
)

//go:embed ui
var uiFiles embed.FS

const maxBodyBytes = 64 << 10

func NewAPI(logger *slog.Logger, a *app.App, view *mapview.View) *http.ServeMux {
	ui, err := fs.Sub(uiFiles, "ui")
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServerFS(ui))
	mux.Handle("GET /api/config", handleConfig(view))
	mux.Handle("GET /api/state", handleState(a, view))
	mux.Handle("POST /api/position", handlePosition(logger, a))
	mux.Handle("POST /api/position/error", handlePositionError(a))
	mux.Handle("POST /api/map/click", handleMapClick(a))
	mux.Handle("POST /api/form/kind", handleFormKind(a))
	mux.Handle("GET /api/workouts", handleListWorkouts(a))
	mux.Handle("POST /api/workouts", handleCreateWorkout(logger, a))
	mux.Handle("GET /api/workouts/entries", handleEntries(logger, a))
	mux.Handle("POST /api/workouts/{id}/focus", handleFocus(a, view))
	mux.Handle("GET /api/markers", handleMarkers(view))
	mux.Handle("GET /healthz", http.HandlerFunc(healthz))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

type coordsRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (r coordsRequest) coords() (workout.Coords, error) {
	if r.Lat == nil || r.Lng == nil {
		return workout.Coords{}, errors.New("lat and lng are required")
	}
	return workout.Coords{*r.Lat, *r.Lng}, nil
}

type stateResponse struct {
	Map       mapview.Snapshot `json:"map"`
	MapLoaded bool             `json:"map_loaded"`
	Form      app.FormState    `json:"form"`
	Alert     string           `json:"alert,omitempty"`
}

type createWorkoutResponse struct {
	Workout   workout.Workout `json:"workout"`
	EntryHTML string          `json:"entry_html"`
	Marker    render.Marker   `json:"marker"`
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleConfig(view *mapview.View) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tiles": view.Snapshot().Tiles})
	})
}

func handleState(a *app.App, view *mapview.View) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, stateResponse{
			Map:       view.Snapshot(),
			MapLoaded: a.MapLoaded(),
			Form:      a.Form(),
			Alert:     a.Alert(),
		})
	})
}

func handlePosition(logger *slog.Logger, a *app.App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req coordsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		coords, err := req.coords()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		if !coords.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_request", app.ErrInvalidCoords.Error())
			return
		}

		logger.Debug("Position received", slog.Float64("lat", coords.Lat()), slog.Float64("lng", coords.Lng()))
		a.LoadMap(coords)
		writeJSON(w, http.StatusOK, map[string]bool{"map_loaded": a.MapLoaded()})
	})
}

func handlePositionError(a *app.App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Reason string `json:"reason"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		err := fmt.Errorf("geolocation failed: %q", req.Reason)
		if req.Reason == "unavailable" {
			err = app.ErrLocationUnavailable
		}
		a.LocationFailed(err)
		writeJSON(w, http.StatusOK, map[string]string{"alert": a.Alert()})
	})
}

func handleMapClick(a *app.App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req coordsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		coords, err := req.coords()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		if err := a.MapClick(coords); err != nil {
			switch {
			case errors.Is(err, app.ErrMapUnavailable):
				writeError(w, http.StatusConflict, "map_unavailable", err.Error())
			default:
				writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, a.Form())
	})
}

func handleFormKind(a *app.App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kind string `json:"kind"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := a.SetFormKind(req.Kind); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, a.Form())
	})
}

func handleListWorkouts(a *app.App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.Workouts())
	})
}

func handleCreateWorkout(logger *slog.Logger, a *app.App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeBodyError(w, err, "unable to parse form")
			return
		}

		form := workout.Form{
			Kind:      r.PostFormValue("type"),
			Distance:  r.PostFormValue("distance"),
			Duration:  r.PostFormValue("duration"),
			Cadence:   r.PostFormValue("cadence"),
			Elevation: r.PostFormValue("elevation"),
		}

		created, err := a.Submit(r.Context(), form)
		if err != nil {
			var verr *workout.ValidationError
			switch {
			case errors.As(err, &verr):
				writeError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Message)
			case errors.Is(err, app.ErrNoLocation):
				writeError(w, http.StatusConflict, "no_location", err.Error())
			default:
				logger.Error("Error creating workout", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "server_error", "workout could not be saved")
			}
			return
		}

		entry, err := render.HTML(render.EntryFor(created))
		if err != nil {
			logger.Error("Error rendering entry", slog.Any("error", err))
		}

		writeJSON(w, http.StatusCreated, createWorkoutResponse{
			Workout:   created,
			EntryHTML: entry,
			Marker:    render.MarkerFor(created),
		})
	})
}

func handleEntries(logger *slog.Logger, a *app.App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html, err := render.HTML(a.Entries()...)
		if err != nil {
			logger.Error("Error rendering entries", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
	})
}

func handleFocus(a *app.App, view *mapview.View) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Focus(r.PathValue("id")) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, view.Snapshot())
	})
}

func handleMarkers(view *mapview.View) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, view.Markers())
	})
}

// decodeJSON reads a size-limited JSON body into v and writes the error
// response itself when that fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBodyError(w, err, "unable to parse body")
		return false
	}
	return true
}

func writeBodyError(w http.ResponseWriter, err error, detail string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_request", detail)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
