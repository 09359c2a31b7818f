package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/mapty/internal/app"
	"github.com/briangreenhill/mapty/internal/mapview"
	"github.com/briangreenhill/mapty/internal/storage"
	"github.com/briangreenhill/mapty/internal/workout"
)

type harness struct {
	kv  storage.KV
	out bytes.Buffer
}

// run builds a fresh app over the shared store, the way every mapty
// invocation starts from what the previous one saved.
func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	view := mapview.New(mapview.TileLayer{})
	a := app.New(logger, workout.NewRepository(h.kv, "", logger), view, app.Options{
		Clock: func() time.Time { return time.Date(2026, time.October, 17, 8, 30, 0, 0, time.UTC) },
	})
	h.out.Reset()
	return NewCLI(&h.out, logger, a, view, nil, ":0").Run(context.Background(), args)
}

func TestAddThenList(t *testing.T) {
	h := &harness{kv: storage.NewMemory()}

	require.NoError(t, h.run(t, "list"))
	assert.Equal(t, "No workouts yet\n", h.out.String())

	require.NoError(t, h.run(t, "add", "--lat", "38.7", "--lng=-9.1",
		"--type", "running", "--distance", "5", "--duration", "25", "--cadence", "170"))
	assert.Contains(t, h.out.String(), "Workout added successfully")
	assert.Contains(t, h.out.String(), "Running on 17 October")

	require.NoError(t, h.run(t, "add", "--lat", "40.4", "--lng=-3.7",
		"--type", "cycling", "--distance", "20", "--duration", "60", "--elevation", "0"))

	require.NoError(t, h.run(t, "list"))
	out := h.out.String()
	assert.Contains(t, out, "Running on 17 October")
	assert.Contains(t, out, "Cycling on 17 October")
	assert.Contains(t, out, "5.0 min/km")
	assert.Contains(t, out, "0.3 km/h")
	assert.Less(t, bytes.Index([]byte(out), []byte("Running")), bytes.Index([]byte(out), []byte("Cycling")))
}

func TestAddRejectsInvalidInput(t *testing.T) {
	h := &harness{kv: storage.NewMemory()}

	err := h.run(t, "add", "--lat", "38.7", "--lng", "9.1",
		"--type", "cycling", "--distance", "20", "--duration", "60", "--elevation", "-5")
	require.ErrorIs(t, err, workout.ErrInvalidInput)

	var verr *workout.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "All inputs must be positive numbers except the elevation gain", verr.Message)

	require.NoError(t, h.run(t, "list"))
	assert.Equal(t, "No workouts yet\n", h.out.String())
}

func TestAddRequiresCoordinates(t *testing.T) {
	h := &harness{kv: storage.NewMemory()}

	err := h.run(t, "add", "--distance", "5", "--duration", "25", "--cadence", "170")
	assert.Error(t, err)
}

func TestAddRejectsCoordinatesOutOfRange(t *testing.T) {
	h := &harness{kv: storage.NewMemory()}

	err := h.run(t, "add", "--lat", "95", "--lng", "0",
		"--distance", "5", "--duration", "25", "--cadence", "170")
	assert.ErrorIs(t, err, app.ErrInvalidCoords)
}

func TestImport(t *testing.T) {
	h := &harness{kv: storage.NewMemory()}

	path := filepath.Join(t.TempDir(), "ride.gpx")
	require.NoError(t, os.WriteFile(path, []byte(`<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="mapty-test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="38.7000" lon="-9.1400"><ele>10</ele><time>2026-10-17T08:00:00Z</time></trkpt>
    <trkpt lat="38.7010" lon="-9.1400"><ele>15</ele><time>2026-10-17T08:01:00Z</time></trkpt>
    <trkpt lat="38.7020" lon="-9.1400"><ele>20</ele><time>2026-10-17T08:02:00Z</time></trkpt>
    <trkpt lat="38.7030" lon="-9.1400"><ele>25</ele><time>2026-10-17T08:03:00Z</time></trkpt>
  </trkseg></trk>
</gpx>`), 0o644))

	require.NoError(t, h.run(t, "import", "--gpx", path, "--type", "cycling"))
	assert.Contains(t, h.out.String(), "Workout added successfully")

	workouts := workout.NewRepository(h.kv, "", slog.New(slog.NewTextHandler(io.Discard, nil))).LoadAll(context.Background())
	require.Len(t, workouts, 1)
	assert.Equal(t, workout.KindCycling, workouts[0].Kind())
	assert.Equal(t, workout.Coords{38.7, -9.14}, workouts[0].Coords)
}

func TestImportMissingFile(t *testing.T) {
	h := &harness{kv: storage.NewMemory()}

	err := h.run(t, "import", "--gpx", filepath.Join(t.TempDir(), "missing.gpx"))
	assert.Error(t, err)
}
