package models

import (
	"time"

	"github.com/claude/liftlog/internal/load"
	"github.com/google/uuid"
)

// ExerciseRow is a row of the exercises table.
type ExerciseRow struct {
	ID                   uuid.UUID `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	Type                 string    `json:"type"`
	BodyweightPercentage *float64  `json:"bodyweight_percentage,omitempty"`
	YoutubeLink          string    `json:"youtube_link,omitempty"`
	ImageURI             string    `json:"image_uri,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// LoadProfile returns the exercise fields the load calculator reads.
func (e ExerciseRow) LoadProfile() load.Exercise {
	return load.Exercise{Type: e.Type, BodyweightPercentage: e.BodyweightPercentage}
}

// SessionRow is a row of the workout_sessions table. TotalLoad is derived from
// the exercise and the other fields and is never edited on its own.
type SessionRow struct {
	ID           uuid.UUID `json:"id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	Date         time.Time `json:"date"`
	CompleteReps int       `json:"complete_reps"`
	NegativeReps int       `json:"negative_reps"`
	FailedReps   int       `json:"failed_reps"`
	Sets         int       `json:"sets"`
	Weight       float64   `json:"weight"`
	RestTime     int       `json:"rest_time"`
	TotalLoad    float64   `json:"total_load"`
}

// NewSessionRow builds a row from a computed session result.
func NewSessionRow(id, exerciseID uuid.UUID, date time.Time, res load.SessionResult) SessionRow {
	return SessionRow{
		ID:           id,
		ExerciseID:   exerciseID,
		Date:         date,
		CompleteReps: res.CompleteReps,
		NegativeReps: res.NegativeReps,
		FailedReps:   res.FailedReps,
		Sets:         res.Sets,
		Weight:       res.Weight,
		RestTime:     res.RestTime,
		TotalLoad:    res.TotalLoad,
	}
}

// Input returns the raw form fields of the session.
func (s SessionRow) Input() load.SessionInput {
	return load.SessionInput{
		CompleteReps: s.CompleteReps,
		NegativeReps: s.NegativeReps,
		FailedReps:   s.FailedReps,
		Sets:         s.Sets,
		Weight:       s.Weight,
		RestTime:     s.RestTime,
	}
}

// PlanRow is a row of the workout_plans table.
type PlanRow struct {
	ID         int64     `json:"id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	DayOfWeek  string    `json:"day_of_week"`
	MinReps    int       `json:"min_reps"`
	MaxReps    int       `json:"max_reps"`
	Sets       int       `json:"sets"`
	RestTime   int       `json:"rest_time"`
}
