package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Workout is one training session with its exercises.
type Workout struct {
	ID        int64
	UserID    string
	Date      time.Time
	Duration  int // minutes; 0 means not recorded
	Exercises []Exercise
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Exercise is a named movement within a workout. RepsAndWeights is an opaque
// JSON document, e.g. {"reps": [[8],[8],[6,2]], "weight": [[60],[60],[62.5]]}.
type Exercise struct {
	ID             int64
	WorkoutID      int64
	UserID         string
	Name           string
	RepsAndWeights json.RawMessage
}

// Validate validates the workout and its exercises for persistence.
func (w *Workout) Validate() error {
	if w.UserID == "" {
		return errors.New("user id is required")
	}
	if w.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	for i := range w.Exercises {
		e := &w.Exercises[i]
		if e.Name == "" {
			return errors.New("exercise name is required")
		}
		if len(e.Name) > 50 {
			return errors.New("exercise name must be at most 50 characters")
		}
	}
	return nil
}
