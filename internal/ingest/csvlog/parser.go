// Package csvlog reads and writes training logs as CSV, in the native column
// layout and in the layout of the legacy mobile app export.
package csvlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// Format identifies a CSV column layout.
type Format string

const (
	FormatNative Format = "native"
	FormatLegacy Format = "legacy"
)

// DefaultRestTime is used when a row carries no usable rest time.
const DefaultRestTime = 80

// NativeHeader is the column layout written by Write.
var NativeHeader = []string{
	"session_id", "exercise", "type", "bodyweight_pct", "date",
	"complete_reps", "negative_reps", "failed_reps", "sets",
	"weight_kg", "rest_sec", "total_load",
}

// LegacyHeader is the column layout of the legacy app export.
var LegacyHeader = []string{
	"Exercício", "Carga Total", "Repetições", "Peso Usado", "Data",
	"Tempo Descanso", "Repetições Falhadas", "Séries", "Descrição",
}

// legacyNamespace seeds the deterministic ids of legacy rows.
var legacyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("liftlog:legacy-session"))

// Record is one parsed session row.
type Record struct {
	Line      int
	SessionID uuid.UUID
	Exercise  string
	// Type is the canonical exercise type, or empty when the file has none.
	Type          string
	BodyweightPct *float64
	Description   string
	Date          time.Time
	Input         load.SessionInput
	// FileLoad is the total load the file claims, if any.
	FileLoad *float64
}

// RowError describes a row that could not be parsed.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Parsed is the outcome of Parse.
type Parsed struct {
	Format  Format
	Records []Record
	Skipped []RowError
}

// Parse reads a CSV log in either format, detected from the header row.
// Dates without a zone are read in loc. Rows that fail to parse are
// collected in Skipped rather than aborting the whole file.
func Parse(r io.Reader, loc *time.Location) (*Parsed, error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty CSV file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	parsed := &Parsed{}
	var parseRow func(fields []string) (Record, error)
	switch {
	case isNativeHeader(header):
		parsed.Format = FormatNative
		cols := columnIndex(header)
		parseRow = func(fields []string) (Record, error) {
			return parseNative(cols, fields, loc)
		}
	case isLegacyHeader(header):
		parsed.Format = FormatLegacy
		parseRow = func(fields []string) (Record, error) {
			return parseLegacy(fields, loc)
		}
	default:
		return nil, fmt.Errorf("unrecognized CSV header %q", strings.Join(header, ","))
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				parsed.Skipped = append(parsed.Skipped, RowError{Line: perr.StartLine, Err: perr.Err})
				continue
			}
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if blank(fields) {
			continue
		}
		line, _ := cr.FieldPos(0)
		rec, err := parseRow(fields)
		if err != nil {
			parsed.Skipped = append(parsed.Skipped, RowError{Line: line, Err: err})
			continue
		}
		rec.Line = line
		parsed.Records = append(parsed.Records, rec)
	}
	return parsed, nil
}

func isNativeHeader(h []string) bool {
	cols := columnIndex(h)
	_, hasExercise := cols["exercise"]
	_, hasDate := cols["date"]
	return hasExercise && hasDate
}

func isLegacyHeader(h []string) bool {
	if len(h) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(h[0]))
	return first == "exercício" || first == "exercicio"
}

func columnIndex(h []string) map[string]int {
	cols := make(map[string]int, len(h))
	for i, name := range h {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseNative(cols map[string]int, fields []string, loc *time.Location) (Record, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	var rec Record
	rec.Exercise = get("exercise")
	if rec.Exercise == "" {
		return rec, fmt.Errorf("exercise is empty")
	}

	if raw := get("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return rec, fmt.Errorf("session_id: %w", err)
		}
		rec.SessionID = id
	}

	if raw := get("type"); raw != "" {
		typ, ok := models.NormalizeExerciseType(raw)
		if !ok {
			return rec, fmt.Errorf("unknown exercise type %q", raw)
		}
		rec.Type = typ
	}

	var err error
	if rec.BodyweightPct, err = optionalFloat(get("bodyweight_pct")); err != nil {
		return rec, fmt.Errorf("bodyweight_pct: %w", err)
	}
	if rec.Date, err = parseDate(get("date"), loc); err != nil {
		return rec, err
	}

	in := &rec.Input
	ints := []struct {
		col string
		dst *int
		def int
	}{
		{"complete_reps", &in.CompleteReps, 0},
		{"negative_reps", &in.NegativeReps, 0},
		{"failed_reps", &in.FailedReps, 0},
		{"sets", &in.Sets, 1},
		{"rest_sec", &in.RestTime, DefaultRestTime},
	}
	for _, f := range ints {
		if *f.dst, err = intOr(get(f.col), f.def); err != nil {
			return rec, fmt.Errorf("%s: %w", f.col, err)
		}
	}
	if in.Weight, err = floatOr(get("weight_kg"), 0); err != nil {
		return rec, fmt.Errorf("weight_kg: %w", err)
	}
	if rec.FileLoad, err = optionalFloat(get("total_load")); err != nil {
		return rec, fmt.Errorf("total_load: %w", err)
	}
	return rec, nil
}

// parseLegacy reads the legacy column order. Its reps column counts failed
// reps too, and broken numbers fall back to the app's defaults.
func parseLegacy(fields []string, loc *time.Location) (Record, error) {
	var rec Record
	if len(fields) < 8 {
		return rec, fmt.Errorf("expected at least 8 columns, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	rec.Exercise = fields[0]
	if rec.Exercise == "" {
		return rec, fmt.Errorf("exercise is empty")
	}
	rec.Type = load.TypeWeight
	if len(fields) > 8 {
		rec.Description = fields[8]
	}

	date, err := parseDate(fields[4], loc)
	if err != nil {
		return rec, err
	}
	rec.Date = date

	totalReps := lenientInt(fields[2], 0)
	failed := lenientInt(fields[6], 0)
	rec.Input = load.SessionInput{
		CompleteReps: max(0, totalReps-failed),
		FailedReps:   failed,
		Sets:         lenientInt(fields[7], 1),
		Weight:       lenientFloat(fields[3]),
		RestTime:     lenientInt(fields[5], DefaultRestTime),
	}
	if v, err := optionalFloat(fields[1]); err == nil {
		rec.FileLoad = v
	}
	rec.SessionID = LegacySessionID(rec)
	return rec, nil
}

// LegacySessionID derives a stable id for a row that carries none, so the
// same file imported twice inserts nothing the second time.
func LegacySessionID(rec Record) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%d|%d|%s|%d",
		strings.ToLower(rec.Exercise),
		rec.Date.Format(time.DateOnly),
		rec.Input.CompleteReps,
		rec.Input.FailedReps,
		strconv.FormatFloat(rec.Input.Weight, 'f', -1, 64),
		rec.Input.Sets,
	)
	return uuid.NewSHA1(legacyNamespace, []byte(key))
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"02/01/2006",
	"2/1/2006",
}

// parseDate accepts RFC 3339, ISO dates and the dd/mm/yyyy form of the
// legacy export.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func intOr(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// floatOr parses a decimal with either separator. NaN and infinities are
// errors even though strconv accepts them.
func floatOr(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return v, nil
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := floatOr(raw, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// lenientInt reads a leading integer the way the legacy app did: "12kg"
// is 12, anything unreadable is def.
func lenientInt(raw string, def int) int {
	end := 0
	for end < len(raw) && (raw[end] >= '0' && raw[end] <= '9' || end == 0 && raw[end] == '-') {
		end++
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil || n == 0 && def != 0 {
		return def
	}
	return n
}

func lenientFloat(raw string) float64 {
	v, err := floatOr(raw, 0)
	if err != nil {
		return 0
	}
	return v
}
