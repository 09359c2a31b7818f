// Package importer turns recorded GPX tracks into workout form input.
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/briangreenhill/mapty/internal/workout"
)

var ErrNoTrackPoints = errors.New("gpx file has no track points")

// FromGPX reads a track and fills a form from it: moving distance in km,
// moving time in minutes and cumulative uphill as elevation gain. The
// returned coordinates are the first track point. cadence is passed through
// because GPX does not carry it.
func FromGPX(data []byte, kind, cadence string) (workout.Form, workout.Coords, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return workout.Form{}, workout.Coords{}, fmt.Errorf("parsing gpx: %w", err)
	}

	start, ok := firstPoint(g)
	if !ok {
		return workout.Form{}, workout.Coords{}, ErrNoTrackPoints
	}

	moving := g.MovingData()
	distanceKm := moving.MovingDistance / 1000.0
	durationMin := moving.MovingTime / 60.0
	uphill := g.UphillDownhill().Uphill

	form := workout.Form{
		Kind:      kind,
		Distance:  strconv.FormatFloat(distanceKm, 'f', -1, 64),
		Duration:  strconv.FormatFloat(durationMin, 'f', -1, 64),
		Cadence:   cadence,
		Elevation: strconv.FormatFloat(uphill, 'f', -1, 64),
	}

	return form, workout.Coords{start.Latitude, start.Longitude}, nil
}

func firstPoint(g *gpx.GPX) (gpx.GPXPoint, bool) {
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			if len(segment.Points) > 0 {
				return segment.Points[0], true
			}
		}
	}
	return gpx.GPXPoint{}, false
}

// ReadFile loads a GPX file from disk.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error reading gpx file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("gpx file is a directory")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
