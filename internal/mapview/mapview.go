// Package mapview records what the browser map should display.
package mapview

import (
	"sync"

	"github.com/briangreenhill/mapty/internal/render"
	"github.com/briangreenhill/mapty/internal/workout"
)

// TileLayer describes the tile source drawn under the markers.
type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

// Snapshot is the full map state in a form the UI can apply directly.
type Snapshot struct {
	Tiles       TileLayer       `json:"tiles"`
	Center      workout.Coords  `json:"center"`
	Zoom        int             `json:"zoom"`
	Animate     bool            `json:"animate"`
	PanSeconds  float64         `json:"pan_seconds"`
	Markers     []render.Marker `json:"markers"`
	ViewVersion int             `json:"view_version"`
}

// View is an in-memory map widget. Every SetView bumps ViewVersion so a
// polling client can tell a new pan from an unchanged view.
type View struct {
	mu       sync.RWMutex
	tiles    TileLayer
	center   workout.Coords
	zoom     int
	pan      render.Pan
	markers  []render.Marker
	versions int
}

func New(tiles TileLayer) *View {
	return &View{tiles: tiles}
}

func (v *View) AddMarker(m render.Marker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.markers = append(v.markers, m)
}

func (v *View) SetView(center workout.Coords, zoom int, pan render.Pan) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = center
	v.zoom = zoom
	v.pan = pan
	v.versions++
}

func (v *View) Markers() []render.Marker {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]render.Marker{}, v.markers...)
}

func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{
		Tiles:       v.tiles,
		Center:      v.center,
		Zoom:        v.zoom,
		Animate:     v.pan.Animate,
		PanSeconds:  v.pan.Duration.Seconds(),
		Markers:     append([]render.Marker{}, v.markers...),
		ViewVersion: v.versions,
	}
}
