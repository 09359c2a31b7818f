package workout

// Store is the ordered list of workouts for the session. Insertion order is
// display order. Callers serialize access.
type Store struct {
	workouts []Workout
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(w Workout) {
	s.workouts = append(s.workouts, w)
}

// All returns a copy of the workouts in insertion order.
func (s *Store) All() []Workout {
	out := make([]Workout, len(s.workouts))
	copy(out, s.workouts)
	return out
}

func (s *Store) Len() int {
	return len(s.workouts)
}

func (s *Store) Find(id string) (Workout, bool) {
	for _, w := range s.workouts {
		if w.ID == id {
			return w, true
		}
	}
	return Workout{}, false
}

// Replace swaps the whole sequence, as done on rehydration.
func (s *Store) Replace(workouts []Workout) {
	s.workouts = append([]Workout(nil), workouts...)
}

// Truncate drops everything after the first n workouts.
func (s *Store) Truncate(n int) {
	if n < 0 || n >= len(s.workouts) {
		return
	}
	s.workouts = s.workouts[:n]
}
