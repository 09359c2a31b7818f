package app

import (
	"context"

	"github.com/briangreenhill/mapty/internal/workout"
)

// StaticLocator answers with a fixed, configured position. A disabled
// locator behaves like a device without geolocation.
type StaticLocator struct {
	Enabled bool
	Coords  workout.Coords
}

func (l StaticLocator) Locate(ctx context.Context) (workout.Coords, error) {
	if err := ctx.Err(); err != nil {
		return workout.Coords{}, err
	}
	if !l.Enabled {
		return workout.Coords{}, ErrLocationUnavailable
	}
	if !l.Coords.Valid() {
		return workout.Coords{}, ErrInvalidCoords
	}
	return l.Coords, nil
}
