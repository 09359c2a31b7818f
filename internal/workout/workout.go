package workout

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Kind string

const (
	KindRunning Kind = "running"
	KindCycling Kind = "cycling"
)

var ErrUnknownKind = errors.New("unknown workout kind")

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRunning, KindCycling:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Title returns the capitalised kind, e.g. "Running".
func (k Kind) Title() string {
	return cases.Title(language.English).String(string(k))
}

func (k Kind) Icon() string {
	if k == KindRunning {
		return "🏃‍♂️"
	}
	return "🚴‍♂️"
}

// Coords is a latitude/longitude pair, encoded as [lat, lng].
type Coords [2]float64

func (c Coords) Lat() float64 { return c[0] }
func (c Coords) Lng() float64 { return c[1] }

func (c Coords) Valid() bool {
	return c[0] >= -90 && c[0] <= 90 && c[1] >= -180 && c[1] <= 180
}

// Detail holds the variant-specific fields of a workout. It is implemented
// only by Running and Cycling.
type Detail interface {
	kind() Kind
}

type Running struct {
	CadenceSpm   float64
	PaceMinPerKm float64
}

func (Running) kind() Kind { return KindRunning }

type Cycling struct {
	ElevationGainM float64
	SpeedKmPerH    float64
}

func (Cycling) kind() Kind { return KindCycling }

// Workout is one logged activity. Distance is in kilometres and Duration in
// minutes. Description and the derived metric in Detail are fixed at
// construction.
type Workout struct {
	ID          string
	CreatedAt   time.Time
	Coords      Coords
	Distance    float64
	Duration    float64
	Description string
	Detail      Detail
}

func (w Workout) Kind() Kind {
	if w.Detail == nil {
		return ""
	}
	return w.Detail.kind()
}

// IDGenerator produces workout identifiers.
type IDGenerator func() string

// NewID returns a random UUID.
func NewID() string {
	return uuid.NewString()
}

// Pace returns minutes per kilometre.
func Pace(distanceKm, durationMin float64) float64 {
	return durationMin / distanceKm
}

// Speed returns distance over duration. The list labels it km/h although
// duration is logged in minutes.
func Speed(distanceKm, durationMin float64) float64 {
	return distanceKm / durationMin
}

// DateLabel formats t as "17 October".
func DateLabel(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), t.Month())
}

func describe(k Kind, createdAt time.Time) string {
	return fmt.Sprintf("%s %s Workout on %s", k.Icon(), k.Title(), DateLabel(createdAt))
}

// NewRunning builds a running workout. Inputs are assumed validated.
// createdAt is stored in UTC.
func NewRunning(id string, createdAt time.Time, coords Coords, distance, duration, cadence float64) Workout {
	return Workout{
		ID:          id,
		CreatedAt:   createdAt.UTC(),
		Coords:      coords,
		Distance:    distance,
		Duration:    duration,
		Description: describe(KindRunning, createdAt.UTC()),
		Detail: Running{
			CadenceSpm:   cadence,
			PaceMinPerKm: Pace(distance, duration),
		},
	}
}

// NewCycling builds a cycling workout. Inputs are assumed validated.
// createdAt is stored in UTC.
func NewCycling(id string, createdAt time.Time, coords Coords, distance, duration, elevationGain float64) Workout {
	return Workout{
		ID:          id,
		CreatedAt:   createdAt.UTC(),
		Coords:      coords,
		Distance:    distance,
		Duration:    duration,
		Description: describe(KindCycling, createdAt.UTC()),
		Detail: Cycling{
			ElevationGainM: elevationGain,
			SpeedKmPerH:    Speed(distance, duration),
		},
	}
}

type record struct {
	Coords         Coords    `json:"coords"`
	Distance       float64   `json:"distance"`
	Duration       float64   `json:"duration"`
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	Kind           Kind      `json:"kind"`
	Description    string    `json:"description"`
	CadenceSpm     *float64  `json:"cadenceSpm,omitempty"`
	PaceMinPerKm   *float64  `json:"paceMinPerKm,omitempty"`
	ElevationGainM *float64  `json:"elevationGainM,omitempty"`
	SpeedKmPerH    *float64  `json:"speedKmPerH,omitempty"`
}

func (w Workout) MarshalJSON() ([]byte, error) {
	r := record{
		Coords:      w.Coords,
		Distance:    w.Distance,
		Duration:    w.Duration,
		ID:          w.ID,
		CreatedAt:   w.CreatedAt,
		Description: w.Description,
	}

	switch d := w.Detail.(type) {
	case Running:
		r.Kind = KindRunning
		r.CadenceSpm = &d.CadenceSpm
		r.PaceMinPerKm = &d.PaceMinPerKm
	case Cycling:
		r.Kind = KindCycling
		r.ElevationGainM = &d.ElevationGainM
		r.SpeedKmPerH = &d.SpeedKmPerH
	default:
		return nil, fmt.Errorf("workout %s: %w", w.ID, ErrUnknownKind)
	}

	return json.Marshal(r)
}

// UnmarshalJSON restores a stored record. Derived metrics are taken as stored
// and never recomputed.
func (w *Workout) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	out := Workout{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt.UTC(),
		Coords:      r.Coords,
		Distance:    r.Distance,
		Duration:    r.Duration,
		Description: r.Description,
	}

	switch r.Kind {
	case KindRunning:
		if r.CadenceSpm == nil || r.PaceMinPerKm == nil {
			return fmt.Errorf("workout %s: running record missing cadenceSpm or paceMinPerKm", r.ID)
		}
		out.Detail = Running{CadenceSpm: *r.CadenceSpm, PaceMinPerKm: *r.PaceMinPerKm}
	case KindCycling:
		if r.ElevationGainM == nil || r.SpeedKmPerH == nil {
			return fmt.Errorf("workout %s: cycling record missing elevationGainM or speedKmPerH", r.ID)
		}
		out.Detail = Cycling{ElevationGainM: *r.ElevationGainM, SpeedKmPerH: *r.SpeedKmPerH}
	default:
		return fmt.Errorf("workout %s: %w: %q", r.ID, ErrUnknownKind, r.Kind)
	}

	*w = out
	return nil
}
