package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/briangreenhill/mapty/internal/storage"
)

// DefaultKey names the storage entry holding the serialized history.
const DefaultKey = "workouts"

// Repository persists the full workout sequence as one JSON array under a
// single key.
type Repository struct {
	kv     storage.KV
	key    string
	logger *slog.Logger
}

func NewRepository(kv storage.KV, key string, logger *slog.Logger) *Repository {
	if key == "" {
		key = DefaultKey
	}
	return &Repository{
		kv:     kv,
		key:    key,
		logger: logger,
	}
}

// SaveAll overwrites the stored snapshot with workouts.
func (r *Repository) SaveAll(ctx context.Context, workouts []Workout) error {
	if workouts == nil {
		workouts = []Workout{}
	}

	data, err := json.Marshal(workouts)
	if err != nil {
		return fmt.Errorf("encoding workouts: %w", err)
	}

	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("saving workouts: %w", err)
	}

	return nil
}

// LoadAll returns the stored snapshot. A missing, unreadable or corrupt
// snapshot yields an empty history.
func (r *Repository) LoadAll(ctx context.Context) []Workout {
	data, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("Error reading workout history", slog.Any("error", err))
		}
		return []Workout{}
	}

	var workouts []Workout
	if err := json.Unmarshal(data, &workouts); err != nil {
		r.logger.Warn("Discarding unreadable workout history", slog.String("key", r.key), slog.Any("error", err))
		return []Workout{}
	}

	if workouts == nil {
		return []Workout{}
	}

	return workouts
}
