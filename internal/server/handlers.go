package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/logbook"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxJSONBody caps form bodies.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps service errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *logbook.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrExerciseInUse), errors.Is(err, storage.ErrDuplicate):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// exerciseParam reads the optional ?exercise= filter. An empty value means
// every exercise.
func exerciseParam(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("exercise")
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid exercise ID %q", raw)
	}
	return id, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// parseTimeRange reads ?period= or ?start=&end=. Dates without a time are
// read in loc and an end date covers its whole day. No parameters at all
// means an unbounded range.
func parseTimeRange(r *http.Request, now time.Time, loc *time.Location) (progress.Range, error) {
	q := r.URL.Query()
	if p := q.Get("period"); p != "" {
		period, err := progress.ParsePeriod(p)
		if err != nil {
			return progress.Range{}, err
		}
		return period.Range(now), nil
	}

	var rng progress.Range
	if raw := q.Get("start"); raw != "" {
		start, _, err := parseTime(raw, loc)
		if err != nil {
			return progress.Range{}, fmt.Errorf("invalid start: %w", err)
		}
		rng.Start = start
	}
	if raw := q.Get("end"); raw != "" {
		end, dateOnly, err := parseTime(raw, loc)
		if err != nil {
			return progress.Range{}, fmt.Errorf("invalid end: %w", err)
		}
		if dateOnly {
			end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		rng.End = end
	}
	if !rng.Start.IsZero() && !rng.End.IsZero() && rng.Start.After(rng.End) {
		return progress.Range{}, errors.New("start is after end")
	}
	return rng, nil
}

func parseTime(raw string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	if t, err = time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", raw)
}
