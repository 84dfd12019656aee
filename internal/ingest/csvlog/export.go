package csvlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// ExportRow pairs a session with the exercise it belongs to.
type ExportRow struct {
	Exercise models.ExerciseRow
	Session  models.SessionRow
}

// Write emits rows in the native layout. Dates are RFC 3339 in their
// stored location.
func Write(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(NativeHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		s := r.Session
		pct := ""
		if r.Exercise.BodyweightPercentage != nil {
			pct = formatFloat(*r.Exercise.BodyweightPercentage)
		}
		if err := cw.Write([]string{
			s.ID.String(),
			r.Exercise.Title,
			r.Exercise.Type,
			pct,
			s.Date.Format(time.RFC3339),
			strconv.Itoa(s.CompleteReps),
			strconv.Itoa(s.NegativeReps),
			strconv.Itoa(s.FailedReps),
			strconv.Itoa(s.Sets),
			formatFloat(s.Weight),
			strconv.Itoa(s.RestTime),
			formatFloat(s.TotalLoad),
		}); err != nil {
			return fmt.Errorf("writing session %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLegacy emits rows in the legacy app layout. Negative reps have no
// column there and are dropped; dates are written as dd/mm/yyyy in loc.
func WriteLegacy(w io.Writer, rows []ExportRow, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(LegacyHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		s := r.Session
		if err := cw.Write([]string{
			r.Exercise.Title,
			formatFloat(s.TotalLoad),
			strconv.Itoa(s.CompleteReps + s.FailedReps),
			formatFloat(s.Weight),
			s.Date.In(loc).Format("02/01/2006"),
			strconv.Itoa(s.RestTime),
			strconv.Itoa(s.FailedReps),
			strconv.Itoa(s.Sets),
			r.Exercise.Description,
		}); err != nil {
			return fmt.Errorf("writing session %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
