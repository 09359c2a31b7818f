package workout

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput matches every *ValidationError.
var ErrInvalidInput = errors.New("invalid workout input")

// ValidationError carries the message shown to the user when a form is rejected.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

const (
	msgRunningMissing  = "All inputs are mandatory and must be positive numbers"
	msgRunningNegative = "All inputs must be positive numbers"
	msgCyclingMissing  = "All inputs are mandatory and must be positive numbers except the elevation gain"
	msgCyclingNegative = "All inputs must be positive numbers except the elevation gain"
	msgUnknownKind     = "Workout type must be running or cycling"
)

// Form holds the raw field values of the workout form.
type Form struct {
	Kind      string
	Distance  string
	Duration  string
	Cadence   string
	Elevation string
}

// toNumber coerces a form field: blank is zero, garbage is NaN.
func toNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func allNumbers(inputs ...float64) bool {
	for _, v := range inputs {
		if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
			return false
		}
	}
	return true
}

func allPositive(inputs ...float64) bool {
	for _, v := range inputs {
		if !(v > 0) {
			return false
		}
	}
	return true
}

// Build validates the form and constructs the matching workout variant.
func (f Form) Build(id string, createdAt time.Time, coords Coords) (Workout, error) {
	kind, err := ParseKind(strings.TrimSpace(f.Kind))
	if err != nil {
		return Workout{}, &ValidationError{Message: msgUnknownKind}
	}

	distance := toNumber(f.Distance)
	duration := toNumber(f.Duration)

	switch kind {
	case KindRunning:
		cadence := toNumber(f.Cadence)
		if !allNumbers(distance, duration, cadence) {
			return Workout{}, &ValidationError{Kind: kind, Message: msgRunningMissing}
		}
		if !allPositive(distance, duration, cadence) {
			return Workout{}, &ValidationError{Kind: kind, Message: msgRunningNegative}
		}
		return NewRunning(id, createdAt, coords, distance, duration, cadence), nil

	default:
		elevation := toNumber(f.Elevation)
		if !allNumbers(distance, duration) || math.IsNaN(elevation) || math.IsInf(elevation, 0) {
			return Workout{}, &ValidationError{Kind: kind, Message: msgCyclingMissing}
		}
		if !allPositive(distance, duration) || elevation < 0 {
			return Workout{}, &ValidationError{Kind: kind, Message: msgCyclingNegative}
		}
		return NewCycling(id, createdAt, coords, distance, duration, elevation), nil
	}
}
