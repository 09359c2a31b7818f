// Package render turns workouts into map markers and list entries.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/briangreenhill/mapty/internal/workout"
)

// Pan controls how the map moves to a new view.
type Pan struct {
	Animate  bool
	Duration time.Duration
}

// Marker is a map pin with a popup that stays open.
type Marker struct {
	ID           string         `json:"id"`
	Coords       workout.Coords `json:"coords"`
	Popup        string         `json:"popup"`
	ClassName    string         `json:"class_name"`
	AutoClose    bool           `json:"auto_close"`
	CloseOnClick bool           `json:"close_on_click"`
}

func MarkerFor(w workout.Workout) Marker {
	return Marker{
		ID:           w.ID,
		Coords:       w.Coords,
		Popup:        w.Description,
		ClassName:    fmt.Sprintf("%s-popup", w.Kind()),
		AutoClose:    false,
		CloseOnClick: false,
	}
}

type Detail struct {
	Icon  string `json:"icon"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Entry is one item of the workout list.
type Entry struct {
	ID      string       `json:"id"`
	Kind    workout.Kind `json:"kind"`
	Title   string       `json:"title"`
	Details []Detail     `json:"details"`
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func derived(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func EntryFor(w workout.Workout) Entry {
	kind := w.Kind()
	e := Entry{
		ID:    w.ID,
		Kind:  kind,
		Title: fmt.Sprintf("%s on %s", kind.Title(), workout.DateLabel(w.CreatedAt)),
		Details: []Detail{
			{Icon: kind.Icon(), Value: number(w.Distance), Unit: "km"},
			{Icon: "⏱", Value: number(w.Duration), Unit: "min"},
		},
	}

	switch d := w.Detail.(type) {
	case workout.Running:
		e.Details = append(e.Details,
			Detail{Icon: "⚡️", Value: derived(d.PaceMinPerKm), Unit: "min/km"},
			Detail{Icon: "🦶🏼", Value: number(d.CadenceSpm), Unit: "spm"},
		)
	case workout.Cycling:
		e.Details = append(e.Details,
			Detail{Icon: "⚡️", Value: derived(d.SpeedKmPerH), Unit: "km/h"},
			Detail{Icon: "⛰", Value: number(d.ElevationGainM), Unit: "m"},
		)
	}

	return e
}

var entryTemplate = template.Must(template.New("entry").Parse(`{{range .}}<li class="workout workout--{{.Kind}}" data-id="{{.ID}}">
  <h2 class="workout__title">{{.Title}}</h2>
{{- range .Details}}
  <div class="workout__details">
    <span class="workout__icon">{{.Icon}}</span>
    <span class="workout__value">{{.Value}}</span>
    <span class="workout__unit">{{.Unit}}</span>
  </div>
{{- end}}
</li>
{{end}}`))

// HTML renders entries as list items in the given order.
func HTML(entries ...Entry) (string, error) {
	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, entries); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Text writes entries for a terminal, one block per workout.
func Text(w io.Writer, entries ...Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s  [%s]\n", e.Title, e.ID); err != nil {
			return err
		}
		for _, d := range e.Details {
			if _, err := fmt.Fprintf(w, "  %s %s %s\n", d.Icon, d.Value, d.Unit); err != nil {
				return err
			}
		}
	}
	return nil
}
