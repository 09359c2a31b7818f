// Package app holds the application state and the handlers for every user
// and browser event: geolocation, map clicks, form submits and list clicks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/briangreenhill/mapty/internal/events"
	"github.com/briangreenhill/mapty/internal/metrics"
	"github.com/briangreenhill/mapty/internal/render"
	"github.com/briangreenhill/mapty/internal/workout"
)

var (
	// ErrNoLocation is returned when a workout is submitted before a map click.
	ErrNoLocation = errors.New("no location selected on the map")
	// ErrLocationUnavailable reports a device without geolocation.
	ErrLocationUnavailable = errors.New("geolocation is not available")
	// ErrMapUnavailable is returned for map events while the map is not loaded.
	ErrMapUnavailable = errors.New("map is not loaded")
	ErrInvalidCoords  = errors.New("coordinates out of range")
)

const (
	alertPositionFailed = "Could not get your position."
	alertNoGeolocation  = "Geolocation is not available in this device."
)

// Map is the map widget the app draws on.
type Map interface {
	AddMarker(m render.Marker)
	SetView(center workout.Coords, zoom int, pan render.Pan)
}

// Locator resolves the device position.
type Locator interface {
	Locate(ctx context.Context) (workout.Coords, error)
}

// History loads and saves the full workout sequence.
type History interface {
	SaveAll(ctx context.Context, workouts []workout.Workout) error
	LoadAll(ctx context.Context) []workout.Workout
}

// FormState mirrors the workout form: whether it is open, which variant
// field it shows and the values currently typed in.
type FormState struct {
	Visible   bool            `json:"visible"`
	Kind      workout.Kind    `json:"kind"`
	Distance  string          `json:"distance"`
	Duration  string          `json:"duration"`
	Cadence   string          `json:"cadence"`
	Elevation string          `json:"elevation"`
	Pending   *workout.Coords `json:"pending,omitempty"`
}

type Options struct {
	Zoom        int
	PanDuration time.Duration
	Clock       func() time.Time
	NewID       workout.IDGenerator
	Publisher   events.Publisher
}

type App struct {
	mu sync.Mutex

	logger    *slog.Logger
	history   History
	m         Map
	publisher events.Publisher

	zoom        int
	panDuration time.Duration
	clock       func() time.Time
	newID       workout.IDGenerator

	store       *workout.Store
	entries     []render.Entry
	mapLoaded   bool
	mapDisabled bool
	pending     *workout.Coords
	form        FormState
	alert       string
}

func New(logger *slog.Logger, history History, m Map, opts Options) *App {
	a := &App{
		logger:      logger,
		history:     history,
		m:           m,
		publisher:   opts.Publisher,
		zoom:        opts.Zoom,
		panDuration: opts.PanDuration,
		clock:       opts.Clock,
		newID:       opts.NewID,
		store:       workout.NewStore(),
		form:        FormState{Kind: workout.KindRunning},
	}
	if a.zoom == 0 {
		a.zoom = 13
	}
	if a.panDuration == 0 {
		a.panDuration = time.Second
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if a.newID == nil {
		a.newID = workout.NewID
	}
	if a.publisher == nil {
		a.publisher = events.Noop{}
	}
	return a
}

// Locate asks locator for the device position and loads the map there, or
// disables the map if the position cannot be had.
func (a *App) Locate(ctx context.Context, locator Locator) {
	coords, err := locator.Locate(ctx)
	if err != nil {
		a.LocationFailed(err)
		return
	}
	a.LoadMap(coords)
}

// Hydrate replaces the session with the persisted history and renders a list
// entry for every workout. Markers wait for the map.
func (a *App) Hydrate(ctx context.Context) {
	workouts := a.history.LoadAll(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.store.Replace(workouts)
	a.entries = a.entries[:0]
	for _, w := range workouts {
		a.entries = append(a.entries, render.EntryFor(w))
	}
	if a.mapLoaded {
		for _, w := range workouts {
			a.m.AddMarker(render.MarkerFor(w))
		}
	}
	metrics.WorkoutsStored.Set(float64(len(workouts)))

	a.logger.Info("Restored workout history", slog.Int("workouts", len(workouts)))
}

// LoadMap centers the map on the device position and places a marker for
// every workout in the session.
func (a *App) LoadMap(coords workout.Coords) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mapDisabled || a.mapLoaded {
		return
	}

	a.mapLoaded = true
	a.m.SetView(coords, a.zoom, render.Pan{})
	for _, w := range a.store.All() {
		a.m.AddMarker(render.MarkerFor(w))
	}

	a.logger.Info("Map loaded", slog.Float64("lat", coords.Lat()), slog.Float64("lng", coords.Lng()))
}

// LocationFailed reports a failed position lookup. The map stays disabled
// for the rest of the session.
func (a *App) LocationFailed(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mapLoaded {
		return
	}

	a.mapDisabled = true
	a.alert = alertPositionFailed
	if errors.Is(err, ErrLocationUnavailable) {
		a.alert = alertNoGeolocation
	}

	a.logger.Warn("Geolocation failed", slog.Any("error", err))
}

// MapClick remembers where the user clicked and opens the form.
func (a *App) MapClick(coords workout.Coords) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mapLoaded {
		return ErrMapUnavailable
	}
	if !coords.Valid() {
		return ErrInvalidCoords
	}

	a.pending = &coords
	a.form.Visible = true
	return nil
}

// SetFormKind switches the form between the cadence and elevation fields.
func (a *App) SetFormKind(kind string) error {
	k, err := workout.ParseKind(kind)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.form.Kind = k
	return nil
}

// Submit validates f and, if it passes, records the workout at the pending
// click location, saves the history and renders the workout. Either all of
// that happens or none of it.
func (a *App) Submit(ctx context.Context, f workout.Form) (workout.Workout, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil {
		return workout.Workout{}, ErrNoLocation
	}

	a.form.Distance = f.Distance
	a.form.Duration = f.Duration
	a.form.Cadence = f.Cadence
	a.form.Elevation = f.Elevation
	if k, err := workout.ParseKind(f.Kind); err == nil {
		a.form.Kind = k
	}

	w, err := f.Build(a.newID(), a.clock(), *a.pending)
	if err != nil {
		metrics.WorkoutsRejected.WithLabelValues(metrics.KindLabel(f.Kind)).Inc()
		a.logger.Info("Rejected workout", slog.String("kind", f.Kind), slog.Any("error", err))
		return workout.Workout{}, err
	}

	n := a.store.Len()
	a.store.Append(w)
	if err := a.history.SaveAll(ctx, a.store.All()); err != nil {
		a.store.Truncate(n)
		metrics.SaveFailures.Inc()
		a.logger.Error("Error saving workout", slog.String("id", w.ID), slog.Any("error", err))
		return workout.Workout{}, fmt.Errorf("saving workout: %w", err)
	}

	if a.mapLoaded {
		a.m.AddMarker(render.MarkerFor(w))
	}
	a.entries = append(a.entries, render.EntryFor(w))

	if err := a.publisher.WorkoutLogged(ctx, w); err != nil {
		a.logger.Error("Error publishing workout", slog.String("id", w.ID), slog.Any("error", err))
	}

	metrics.WorkoutsCreated.WithLabelValues(string(w.Kind())).Inc()
	metrics.WorkoutsStored.Set(float64(a.store.Len()))

	a.form = FormState{Kind: a.form.Kind}
	a.pending = nil

	a.logger.Info("Workout added", slog.String("id", w.ID), slog.String("kind", string(w.Kind())))
	return w, nil
}

// Focus pans the map to the workout with the given id. It reports false and
// leaves the view alone when the id is unknown or there is no map.
func (a *App) Focus(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mapLoaded {
		return false
	}

	w, ok := a.store.Find(id)
	if !ok {
		return false
	}

	a.m.SetView(w.Coords, a.zoom, render.Pan{Animate: true, Duration: a.panDuration})
	return true
}

func (a *App) Workouts() []workout.Workout {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.All()
}

func (a *App) Entries() []render.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]render.Entry{}, a.entries...)
}

func (a *App) Form() FormState {
	a.mu.Lock()
	defer a.mu.Unlock()
	f := a.form
	if a.pending != nil {
		p := *a.pending
		f.Pending = &p
	}
	return f
}

// Alert returns the last message the user should be shown, if any.
func (a *App) Alert() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alert
}

func (a *App) MapLoaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mapLoaded
}
