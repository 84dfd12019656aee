package logbook

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// DefaultRestTime is the rest in seconds assumed when a form leaves it out.
const DefaultRestTime = 80

const maxTitleLen = 200

// ValidationError reports a form field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ExerciseForm is the user input that defines an exercise.
type ExerciseForm struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Type                 string   `json:"type"`
	BodyweightPercentage *float64 `json:"bodyweight_percentage"`
	YoutubeLink          string   `json:"youtube_link"`
	ImageURI             string   `json:"image_uri"`
}

// apply validates the form and copies it onto e. The percentage is kept only
// for bodyweight exercises.
func (f ExerciseForm) apply(e *models.ExerciseRow) error {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return invalid("title", "is required")
	}
	if len(title) > maxTitleLen {
		return invalid("title", "must be at most %d characters", maxTitleLen)
	}

	typ := load.TypeWeight
	if strings.TrimSpace(f.Type) != "" {
		var ok bool
		if typ, ok = models.NormalizeExerciseType(f.Type); !ok {
			return invalid("type", "unknown exercise type %q", f.Type)
		}
	}

	var pct *float64
	if typ == load.TypeBodyweight {
		if f.BodyweightPercentage == nil {
			return invalid("bodyweight_percentage", "is required for bodyweight exercises")
		}
		p := *f.BodyweightPercentage
		if math.IsNaN(p) || p < 1 || p > 100 {
			return invalid("bodyweight_percentage", "must be between 1 and 100")
		}
		pct = &p
	}

	if link := strings.TrimSpace(f.YoutubeLink); link != "" {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("youtube_link", "must be an http(s) URL")
		}
	}

	e.Title = title
	e.Description = strings.TrimSpace(f.Description)
	e.Type = typ
	e.BodyweightPercentage = pct
	e.YoutubeLink = strings.TrimSpace(f.YoutubeLink)
	e.ImageURI = strings.TrimSpace(f.ImageURI)
	return nil
}

// SessionForm is the user input of one logged session.
type SessionForm struct {
	ExerciseID   uuid.UUID  `json:"exercise_id"`
	Date         *time.Time `json:"date,omitempty"`
	CompleteReps int        `json:"complete_reps"`
	NegativeReps int        `json:"negative_reps"`
	FailedReps   int        `json:"failed_reps"`
	Sets         int        `json:"sets"`
	Weight       float64    `json:"weight"`
	RestTime     *int       `json:"rest_time,omitempty"`
}

// Input returns the calculator input with the rest default applied. It does
// not validate, so it is safe for live previews of half-filled forms.
func (f SessionForm) Input() load.SessionInput {
	rest := DefaultRestTime
	if f.RestTime != nil {
		rest = *f.RestTime
	}
	return load.SessionInput{
		CompleteReps: f.CompleteReps,
		NegativeReps: f.NegativeReps,
		FailedReps:   f.FailedReps,
		Sets:         f.Sets,
		Weight:       f.Weight,
		RestTime:     rest,
	}
}

// Validate checks the fields a stored session must have.
func (f SessionForm) Validate() error {
	if f.ExerciseID == uuid.Nil {
		return invalid("exercise_id", "is required")
	}
	counts := []struct {
		field string
		v     int
	}{
		{"complete_reps", f.CompleteReps},
		{"negative_reps", f.NegativeReps},
		{"failed_reps", f.FailedReps},
	}
	for _, c := range counts {
		if c.v < 0 {
			return invalid(c.field, "must not be negative")
		}
	}
	if f.CompleteReps+f.NegativeReps+f.FailedReps == 0 {
		return invalid("complete_reps", "at least one repetition is required")
	}
	if f.Sets < 1 {
		return invalid("sets", "must be at least 1")
	}
	if math.IsNaN(f.Weight) || math.IsInf(f.Weight, 0) || f.Weight < 0 {
		return invalid("weight", "must be a non-negative number")
	}
	if f.RestTime != nil && *f.RestTime < 0 {
		return invalid("rest_time", "must not be negative")
	}
	return nil
}

// PlanForm is the user input of one workout plan entry.
type PlanForm struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	DayOfWeek  string    `json:"day_of_week"`
	MinReps    int       `json:"min_reps"`
	MaxReps    int       `json:"max_reps"`
	Sets       int       `json:"sets"`
	RestTime   *int      `json:"rest_time,omitempty"`
}

func (f PlanForm) row() (models.PlanRow, error) {
	if f.ExerciseID == uuid.Nil {
		return models.PlanRow{}, invalid("exercise_id", "is required")
	}
	day, ok := models.NormalizeWeekday(f.DayOfWeek)
	if !ok {
		return models.PlanRow{}, invalid("day_of_week", "unknown weekday %q", f.DayOfWeek)
	}
	if f.MinReps < 0 {
		return models.PlanRow{}, invalid("min_reps", "must not be negative")
	}
	if f.MaxReps < f.MinReps {
		return models.PlanRow{}, invalid("max_reps", "must be at least min_reps")
	}
	if f.Sets < 1 {
		return models.PlanRow{}, invalid("sets", "must be at least 1")
	}
	rest := DefaultRestTime
	if f.RestTime != nil {
		if *f.RestTime < 0 {
			return models.PlanRow{}, invalid("rest_time", "must not be negative")
		}
		rest = *f.RestTime
	}
	return models.PlanRow{
		ExerciseID: f.ExerciseID,
		DayOfWeek:  day,
		MinReps:    f.MinReps,
		MaxReps:    f.MaxReps,
		Sets:       f.Sets,
		RestTime:   rest,
	}, nil
}
