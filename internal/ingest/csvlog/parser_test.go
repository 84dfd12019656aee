package csvlog

import (
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/load"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

const nativeCSV = `session_id,exercise,type,bodyweight_pct,date,complete_reps,negative_reps,failed_reps,sets,weight_kg,rest_sec,total_load
6f1c2a4e-8d0b-4c1e-9a55-0d3c1b2a7e10,Pull-up,bodyweight,70,2025-03-15T18:30:00Z,10,0,0,4,50,90,1400
,Bench Press,peso,,2025-03-16,8,2,1,3,60,,1500
,Dips,levitation,,2025-03-16,8,0,0,3,60,80,0
`

const legacyCSV = "\ufeffExercício,Carga Total,Repetições,Peso Usado,Data,Tempo Descanso,Repetições Falhadas,Séries,Descrição\n" +
	`"Supino Reto",1000,10,50,"15/03/2025",90,2,3,"Peito, barra"` + "\n" +
	`"Agachamento",500,12,40,"16/03/2025",abc,0,,""` + "\n" +
	`"Remada",100,10` + "\n" +
	`"Leg Press",0,10,100,"31/02/2025",60,0,3,""` + "\n"

// TestParseNative verifies column values, defaults for empty cells and that
// bad rows are skipped with their line number.
func TestParseNative(t *testing.T) {
	parsed, err := Parse(strings.NewReader(nativeCSV), time.UTC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Format != FormatNative {
		t.Errorf("format = %q, want native", parsed.Format)
	}
	if len(parsed.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(parsed.Records))
	}
	if len(parsed.Skipped) != 1 || parsed.Skipped[0].Line != 4 {
		t.Errorf("skipped = %v, want line 4", parsed.Skipped)
	}

	pullup := parsed.Records[0]
	if pullup.SessionID != uuid.MustParse("6f1c2a4e-8d0b-4c1e-9a55-0d3c1b2a7e10") {
		t.Errorf("session id = %s", pullup.SessionID)
	}
	if pullup.Type != load.TypeBodyweight || pullup.BodyweightPct == nil || *pullup.BodyweightPct != 70 {
		t.Errorf("pull-up type = %q pct = %v", pullup.Type, pullup.BodyweightPct)
	}
	if pullup.FileLoad == nil || *pullup.FileLoad != 1400 {
		t.Errorf("pull-up file load = %v, want 1400", pullup.FileLoad)
	}
	if !pullup.Date.Equal(time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("pull-up date = %v", pullup.Date)
	}

	bench := parsed.Records[1]
	if bench.SessionID != uuid.Nil {
		t.Errorf("bench session id = %s, want nil", bench.SessionID)
	}
	if bench.Type != load.TypeWeight {
		t.Errorf("bench type = %q, want weight", bench.Type)
	}
	want := load.SessionInput{CompleteReps: 8, NegativeReps: 2, FailedReps: 1, Sets: 3, Weight: 60, RestTime: DefaultRestTime}
	if diff := cmp.Diff(want, bench.Input); diff != "" {
		t.Errorf("bench input mismatch (-want +got):\n%s", diff)
	}
}

// TestParseLegacy verifies the legacy layout: failed reps are subtracted from
// the rep total, unreadable numbers fall back to the app defaults and short or
// undatable rows are skipped.
func TestParseLegacy(t *testing.T) {
	parsed, err := Parse(strings.NewReader(legacyCSV), time.UTC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Format != FormatLegacy {
		t.Errorf("format = %q, want legacy", parsed.Format)
	}
	if len(parsed.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(parsed.Records))
	}
	if len(parsed.Skipped) != 2 {
		t.Errorf("skipped = %d, want 2 (short row, impossible date)", len(parsed.Skipped))
	}

	supino := parsed.Records[0]
	if supino.Description != "Peito, barra" {
		t.Errorf("description = %q", supino.Description)
	}
	if !supino.Date.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want 2025-03-15", supino.Date)
	}
	want := load.SessionInput{CompleteReps: 8, FailedReps: 2, Sets: 3, Weight: 50, RestTime: 90}
	if diff := cmp.Diff(want, supino.Input); diff != "" {
		t.Errorf("supino input mismatch (-want +got):\n%s", diff)
	}
	if supino.SessionID == uuid.Nil {
		t.Error("legacy rows should get a derived session id")
	}

	agach := parsed.Records[1]
	if agach.Input.RestTime != DefaultRestTime {
		t.Errorf("rest = %d, want default %d", agach.Input.RestTime, DefaultRestTime)
	}
	if agach.Input.Sets != 1 {
		t.Errorf("sets = %d, want 1", agach.Input.Sets)
	}
}

// TestParseRejectsUnknownHeader verifies files in neither layout fail up front.
func TestParseRejectsUnknownHeader(t *testing.T) {
	if _, err := Parse(strings.NewReader("name,reps\nsquat,5\n"), time.UTC); err == nil {
		t.Error("expected error for unknown header")
	}
	if _, err := Parse(strings.NewReader(""), time.UTC); err == nil {
		t.Error("expected error for empty input")
	}
}

// TestParseDateLocation verifies zone-less dates are read in the given location.
func TestParseDateLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	in := "session_id,exercise,date\n,Squat,2025-06-01 07:15:00\n"
	parsed, err := Parse(strings.NewReader(in), loc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := time.Date(2025, 6, 1, 10, 15, 0, 0, time.UTC)
	if got := parsed.Records[0].Date; !got.Equal(want) {
		t.Errorf("date = %v, want %v", got, want)
	}
}

// TestLegacySessionIDStable verifies the derived id depends on the row
// content only, ignoring title case.
func TestLegacySessionIDStable(t *testing.T) {
	rec := Record{
		Exercise: "Supino",
		Date:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Input:    load.SessionInput{CompleteReps: 8, FailedReps: 2, Sets: 3, Weight: 50},
	}
	a := LegacySessionID(rec)
	rec.Exercise = "SUPINO"
	if b := LegacySessionID(rec); a != b {
		t.Errorf("ids differ by title case: %s vs %s", a, b)
	}
	rec.Input.Weight = 52.5
	if c := LegacySessionID(rec); a == c {
		t.Error("different weight should derive a different id")
	}
	if a.Version() != 5 {
		t.Errorf("version = %d, want 5", a.Version())
	}
}

// TestLenientInt verifies the legacy app's integer fallbacks.
func TestLenientInt(t *testing.T) {
	tests := []struct {
		raw  string
		def  int
		want int
	}{
		{"12", 0, 12},
		{"12kg", 0, 12},
		{"", 80, 80},
		{"abc", 80, 80},
		{"0", 80, 80},
		{"0", 0, 0},
		{"-", 1, 1},
	}
	for _, tt := range tests {
		if got := lenientInt(tt.raw, tt.def); got != tt.want {
			t.Errorf("lenientInt(%q, %d) = %d, want %d", tt.raw, tt.def, got, tt.want)
		}
	}
}

// TestParseNativeRejectsNonFinite verifies Inf and NaN in any float column
// skip the row instead of reaching the load calculator.
func TestParseNativeRejectsNonFinite(t *testing.T) {
	header := "exercise,type,bodyweight_pct,date,complete_reps,sets,weight_kg,total_load\n"
	tests := []struct {
		name string
		row  string
	}{
		{"weight Inf", "Squat,weight,,2025-03-15,5,3,Inf,\n"},
		{"weight +Inf", "Squat,weight,,2025-03-15,5,3,+Inf,\n"},
		{"weight NaN", "Squat,weight,,2025-03-15,5,3,NaN,\n"},
		{"total load -Inf", "Squat,weight,,2025-03-15,5,3,100,-Inf\n"},
		{"bodyweight pct infinity", "Dips,bodyweight,infinity,2025-03-15,5,3,80,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(strings.NewReader(header+tt.row), time.UTC)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(parsed.Records) != 0 {
				t.Errorf("records = %+v, want none", parsed.Records)
			}
			if len(parsed.Skipped) != 1 || parsed.Skipped[0].Line != 2 {
				t.Errorf("skipped = %v, want line 2", parsed.Skipped)
			}
		})
	}
}

// TestLenientFloat verifies the legacy float fallback, including non-finite values.
func TestLenientFloat(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"62,5", 62.5},
		{"80", 80},
		{"", 0},
		{"heavy", 0},
		{"Inf", 0},
		{"-Inf", 0},
		{"NaN", 0},
	}
	for _, tt := range tests {
		if got := lenientFloat(tt.raw); got != tt.want {
			t.Errorf("lenientFloat(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
