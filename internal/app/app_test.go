package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/mapty/internal/app"
	"github.com/briangreenhill/mapty/internal/render"
	"github.com/briangreenhill/mapty/internal/storage"
	"github.com/briangreenhill/mapty/internal/workout"
)

var now = time.Date(2026, time.October, 17, 8, 30, 0, 0, time.UTC)

type view struct {
	center workout.Coords
	zoom   int
	pan    render.Pan
}

type fakeMap struct {
	markers []render.Marker
	views   []view
}

func (m *fakeMap) AddMarker(marker render.Marker) { m.markers = append(m.markers, marker) }

func (m *fakeMap) SetView(center workout.Coords, zoom int, pan render.Pan) {
	m.views = append(m.views, view{center: center, zoom: zoom, pan: pan})
}

type fakeHistory struct {
	saveFn func(ctx context.Context, workouts []workout.Workout) error
	loadFn func(ctx context.Context) []workout.Workout
}

func (h *fakeHistory) SaveAll(ctx context.Context, workouts []workout.Workout) error {
	if h.saveFn != nil {
		return h.saveFn(ctx, workouts)
	}
	return nil
}

func (h *fakeHistory) LoadAll(ctx context.Context) []workout.Workout {
	if h.loadFn != nil {
		return h.loadFn(ctx)
	}
	return nil
}

type fakePublisher struct {
	err    error
	logged []string
}

func (p *fakePublisher) WorkoutLogged(_ context.Context, w workout.Workout) error {
	p.logged = append(p.logged, w.ID)
	return p.err
}

func (p *fakePublisher) Close() {}

type locatorFunc func(ctx context.Context) (workout.Coords, error)

func (f locatorFunc) Locate(ctx context.Context) (workout.Coords, error) { return f(ctx) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs() workout.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("w%d", n)
	}
}

func newApp(t *testing.T, history app.History) (*app.App, *fakeMap, *fakePublisher) {
	t.Helper()
	m := &fakeMap{}
	pub := &fakePublisher{}
	a := app.New(discardLogger(), history, m, app.Options{
		Zoom:        13,
		PanDuration: time.Second,
		Clock:       func() time.Time { return now },
		NewID:       sequentialIDs(),
		Publisher:   pub,
	})
	return a, m, pub
}

func newRepo() *workout.Repository {
	return workout.NewRepository(storage.NewMemory(), "", discardLogger())
}

var home = workout.Coords{38.72, -9.14}

func TestSubmitRecordsRendersAndSaves(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a, m, pub := newApp(t, repo)

	a.LoadMap(home)
	require.NoError(t, a.MapClick(workout.Coords{38.7, -9.1}))
	assert.True(t, a.Form().Visible)

	w, err := a.Submit(ctx, workout.Form{Kind: "running", Distance: "5", Duration: "25", Cadence: "170"})
	require.NoError(t, err)

	assert.Equal(t, "w1", w.ID)
	assert.Equal(t, workout.Coords{38.7, -9.1}, w.Coords)
	assert.Equal(t, now, w.CreatedAt)
	assert.Equal(t, []workout.Workout{w}, a.Workouts())
	assert.Equal(t, []workout.Workout{w}, repo.LoadAll(ctx))
	assert.Equal(t, []render.Marker{render.MarkerFor(w)}, m.markers)
	assert.Equal(t, []render.Entry{render.EntryFor(w)}, a.Entries())
	assert.Equal(t, []string{"w1"}, pub.logged)

	form := a.Form()
	assert.False(t, form.Visible)
	assert.Empty(t, form.Distance)
	assert.Nil(t, form.Pending)
}

func TestSubmitWithWallClockRoundTrips(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a := app.New(discardLogger(), repo, &fakeMap{}, app.Options{})

	a.LoadMap(home)
	require.NoError(t, a.MapClick(home))
	_, err := a.Submit(ctx, workout.Form{Kind: "cycling", Distance: "12", Duration: "40", Elevation: "85"})
	require.NoError(t, err)

	assert.Equal(t, a.Workouts(), repo.LoadAll(ctx))
}

func TestSubmitKeepsAppendOrder(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a, m, _ := newApp(t, repo)
	a.LoadMap(home)

	require.NoError(t, a.MapClick(workout.Coords{1, 1}))
	r1, err := a.Submit(ctx, workout.Form{Kind: "running", Distance: "5", Duration: "25", Cadence: "170"})
	require.NoError(t, err)

	require.NoError(t, a.MapClick(workout.Coords{2, 2}))
	r2, err := a.Submit(ctx, workout.Form{Kind: "cycling", Distance: "10", Duration: "30", Elevation: "0"})
	require.NoError(t, err)

	assert.Equal(t, []workout.Workout{r1, r2}, a.Workouts())
	assert.Equal(t, []workout.Workout{r1, r2}, repo.LoadAll(ctx))
	assert.Equal(t, []render.Entry{render.EntryFor(r1), render.EntryFor(r2)}, a.Entries())
	require.Len(t, m.markers, 2)
	assert.Equal(t, "w1", m.markers[0].ID)
	assert.Equal(t, "w2", m.markers[1].ID)
	assert.Equal(t, 10.0/30.0, r2.Detail.(workout.Cycling).SpeedKmPerH)
}

func TestSubmitRejectedKeepsFormAndStore(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	a, m, pub := newApp(t, workout.NewRepository(kv, "", discardLogger()))
	a.LoadMap(home)
	require.NoError(t, a.MapClick(workout.Coords{1, 1}))

	_, err := a.Submit(ctx, workout.Form{Kind: "running", Distance: "5", Duration: "10", Cadence: "-3"})

	var verr *workout.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "All inputs must be positive numbers", verr.Message)

	assert.Empty(t, a.Workouts())
	assert.Empty(t, a.Entries())
	assert.Empty(t, m.markers)
	assert.Empty(t, pub.logged)

	_, getErr := kv.Get(ctx, workout.DefaultKey)
	assert.ErrorIs(t, getErr, storage.ErrNotFound)

	form := a.Form()
	assert.True(t, form.Visible)
	assert.Equal(t, "5", form.Distance)
	assert.Equal(t, "10", form.Duration)
	assert.Equal(t, "-3", form.Cadence)
	require.NotNil(t, form.Pending)
	assert.Equal(t, workout.Coords{1, 1}, *form.Pending)
}

func TestSubmitWithoutMapClick(t *testing.T) {
	a, _, _ := newApp(t, newRepo())
	a.LoadMap(home)

	_, err := a.Submit(context.Background(), workout.Form{Kind: "running", Distance: "5", Duration: "25", Cadence: "170"})
	assert.ErrorIs(t, err, app.ErrNoLocation)
}

func TestSubmitSaveFailureRollsBack(t *testing.T) {
	boom := errors.New("disk full")
	a, m, pub := newApp(t, &fakeHistory{
		saveFn: func(ctx context.Context, workouts []workout.Workout) error { return boom },
	})
	a.LoadMap(home)
	require.NoError(t, a.MapClick(workout.Coords{1, 1}))

	_, err := a.Submit(context.Background(), workout.Form{Kind: "running", Distance: "5", Duration: "25", Cadence: "170"})
	assert.ErrorIs(t, err, boom)

	assert.Empty(t, a.Workouts())
	assert.Empty(t, a.Entries())
	assert.Empty(t, m.markers)
	assert.Empty(t, pub.logged)
	assert.True(t, a.Form().Visible)
}

func TestPublishFailureKeepsWorkout(t *testing.T) {
	a, _, pub := newApp(t, newRepo())
	pub.err = errors.New("nats down")
	a.LoadMap(home)
	require.NoError(t, a.MapClick(workout.Coords{1, 1}))

	_, err := a.Submit(context.Background(), workout.Form{Kind: "running", Distance: "5", Duration: "25", Cadence: "170"})
	require.NoError(t, err)
	assert.Len(t, a.Workouts(), 1)
}

func TestHydrateDefersMarkersUntilMapLoads(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	stored := []workout.Workout{
		workout.NewRunning("a", now, workout.Coords{1, 1}, 5, 25, 170),
		workout.NewCycling("b", now, workout.Coords{2, 2}, 10, 30, 0),
	}
	require.NoError(t, repo.SaveAll(ctx, stored))

	a, m, _ := newApp(t, repo)
	a.Hydrate(ctx)

	assert.Equal(t, stored, a.Workouts())
	assert.Equal(t, []render.Entry{render.EntryFor(stored[0]), render.EntryFor(stored[1])}, a.Entries())
	assert.Empty(t, m.markers)

	a.LoadMap(home)
	require.Len(t, m.views, 1)
	assert.Equal(t, view{center: home, zoom: 13}, m.views[0])
	assert.Equal(t, []render.Marker{render.MarkerFor(stored[0]), render.MarkerFor(stored[1])}, m.markers)

	a.LoadMap(workout.Coords{5, 5})
	assert.Len(t, m.views, 1)
	assert.Len(t, m.markers, 2)
}

func TestHydrateWithoutHistory(t *testing.T) {
	a, _, _ := newApp(t, &fakeHistory{})
	a.Hydrate(context.Background())
	assert.Empty(t, a.Workouts())
	assert.Empty(t, a.Entries())
}

func TestFocus(t *testing.T) {
	ctx := context.Background()
	a, m, _ := newApp(t, newRepo())
	a.LoadMap(home)
	require.NoError(t, a.MapClick(workout.Coords{40.4, -3.7}))
	w, err := a.Submit(ctx, workout.Form{Kind: "cycling", Distance: "10", Duration: "30", Elevation: "50"})
	require.NoError(t, err)

	assert.True(t, a.Focus(w.ID))
	require.Len(t, m.views, 2)
	assert.Equal(t, view{
		center: workout.Coords{40.4, -3.7},
		zoom:   13,
		pan:    render.Pan{Animate: true, Duration: time.Second},
	}, m.views[1])

	assert.False(t, a.Focus("stale"))
	assert.Len(t, m.views, 2)
}

func TestFocusWithoutMap(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	require.NoError(t, repo.SaveAll(ctx, []workout.Workout{workout.NewRunning("a", now, workout.Coords{1, 1}, 5, 25, 170)}))

	a, m, _ := newApp(t, repo)
	a.Hydrate(ctx)

	assert.False(t, a.Focus("a"))
	assert.Empty(t, m.views)
}

func TestLocateUnavailable(t *testing.T) {
	a, m, _ := newApp(t, newRepo())

	a.Locate(context.Background(), app.StaticLocator{})

	assert.Equal(t, "Geolocation is not available in this device.", a.Alert())
	assert.False(t, a.MapLoaded())

	a.LoadMap(home)
	assert.False(t, a.MapLoaded())
	assert.Empty(t, m.views)
	assert.ErrorIs(t, a.MapClick(home), app.ErrMapUnavailable)
}

func TestLocateDenied(t *testing.T) {
	a, _, _ := newApp(t, newRepo())

	a.Locate(context.Background(), locatorFunc(func(context.Context) (workout.Coords, error) {
		return workout.Coords{}, errors.New("user denied geolocation")
	}))

	assert.Equal(t, "Could not get your position.", a.Alert())
	assert.False(t, a.MapLoaded())
}

func TestLocateLoadsMap(t *testing.T) {
	a, m, _ := newApp(t, newRepo())

	a.Locate(context.Background(), app.StaticLocator{Enabled: true, Coords: home})

	assert.True(t, a.MapLoaded())
	assert.Empty(t, a.Alert())
	require.Len(t, m.views, 1)
	assert.Equal(t, home, m.views[0].center)
}

func TestMapClickValidatesCoords(t *testing.T) {
	a, _, _ := newApp(t, newRepo())
	a.LoadMap(home)
	assert.ErrorIs(t, a.MapClick(workout.Coords{91, 0}), app.ErrInvalidCoords)
}

func TestSetFormKind(t *testing.T) {
	a, _, _ := newApp(t, newRepo())
	assert.Equal(t, workout.KindRunning, a.Form().Kind)

	require.NoError(t, a.SetFormKind("cycling"))
	assert.Equal(t, workout.KindCycling, a.Form().Kind)

	assert.Error(t, a.SetFormKind("rowing"))
	assert.Equal(t, workout.KindCycling, a.Form().Kind)
}
