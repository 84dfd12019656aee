package logbook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/ingest/csvlog"
	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/logbook/logbooktest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *logbooktest.Store) {
	t.Helper()
	store := logbooktest.NewStore()
	svc := New(store, Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, store
}

func ptr[T any](v T) *T { return &v }

func mustExercise(t *testing.T, svc *Service, form ExerciseForm) uuid.UUID {
	t.Helper()
	ex, err := svc.CreateExercise(context.Background(), form)
	if err != nil {
		t.Fatalf("CreateExercise(%q): %v", form.Title, err)
	}
	return ex.ID
}

func logAt(t *testing.T, svc *Service, exID uuid.UUID, daysAgo int, reps int, weight float64) uuid.UUID {
	t.Helper()
	res, err := svc.LogSession(context.Background(), SessionForm{
		ExerciseID:   exID,
		Date:         ptr(fixedNow.AddDate(0, 0, -daysAgo)),
		CompleteReps: reps,
		Sets:         1,
		Weight:       weight,
	})
	if err != nil {
		t.Fatalf("LogSession: %v", err)
	}
	return res.Session.ID
}

// TestCreateExerciseValidation verifies the form rules for titles, types and
// bodyweight percentages.
func TestCreateExerciseValidation(t *testing.T) {
	tests := []struct {
		name      string
		form      ExerciseForm
		wantField string
	}{
		{"missing title", ExerciseForm{Title: "  "}, "title"},
		{"unknown type", ExerciseForm{Title: "Squat", Type: "cardio"}, "type"},
		{"bodyweight without pct", ExerciseForm{Title: "Dips", Type: "bodyweight"}, "bodyweight_percentage"},
		{"pct above 100", ExerciseForm{Title: "Dips", Type: "bodyweight", BodyweightPercentage: ptr(120.0)}, "bodyweight_percentage"},
		{"pct below 1", ExerciseForm{Title: "Dips", Type: "bodyweight", BodyweightPercentage: ptr(0.5)}, "bodyweight_percentage"},
		{"bad link", ExerciseForm{Title: "Squat", YoutubeLink: "not a url"}, "youtube_link"},
	}
	svc, _ := newTestService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateExercise(context.Background(), tt.form)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

// TestCreateExerciseNormalizes verifies localized types are canonicalized and
// the percentage is dropped for weight exercises.
func TestCreateExerciseNormalizes(t *testing.T) {
	svc, _ := newTestService(t)
	ex, err := svc.CreateExercise(context.Background(), ExerciseForm{
		Title: " Flexão ", Type: "Peso Corporal", BodyweightPercentage: ptr(64.0),
	})
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	if ex.Title != "Flexão" || ex.Type != load.TypeBodyweight || *ex.BodyweightPercentage != 64 {
		t.Errorf("exercise = %+v", ex)
	}

	ex, err = svc.CreateExercise(context.Background(), ExerciseForm{Title: "Curl", BodyweightPercentage: ptr(50.0)})
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	if ex.Type != load.TypeWeight || ex.BodyweightPercentage != nil {
		t.Errorf("weight exercise = %+v, want type weight without pct", ex)
	}
}

// TestLogSessionComputesLoad verifies the stored total load and the rest default.
func TestLogSessionComputesLoad(t *testing.T) {
	svc, store := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Pull-up", Type: "bodyweight", BodyweightPercentage: ptr(70.0)})

	res, err := svc.LogSession(context.Background(), SessionForm{
		ExerciseID: exID, CompleteReps: 10, Sets: 4, Weight: 50,
	})
	if err != nil {
		t.Fatalf("LogSession: %v", err)
	}
	if res.Session.TotalLoad != 1400 {
		t.Errorf("total load = %v, want 1400", res.Session.TotalLoad)
	}
	if res.Session.RestTime != DefaultRestTime {
		t.Errorf("rest = %d, want %d", res.Session.RestTime, DefaultRestTime)
	}
	if !res.Session.Date.Equal(fixedNow) {
		t.Errorf("date = %v, want now", res.Session.Date)
	}
	if res.DuplicateToday {
		t.Error("first session of the day flagged as duplicate")
	}
	if _, err := store.GetSession(context.Background(), res.Session.ID); err != nil {
		t.Errorf("session not stored: %v", err)
	}

	again, err := svc.LogSession(context.Background(), SessionForm{ExerciseID: exID, CompleteReps: 8, Sets: 3, Weight: 50})
	if err != nil {
		t.Fatalf("LogSession: %v", err)
	}
	if !again.DuplicateToday {
		t.Error("second session on the same day should be flagged")
	}
}

// TestLogSessionValidation verifies rejected forms and that an unknown
// exercise is a field error.
func TestLogSessionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Squat"})

	tests := []struct {
		name      string
		form      SessionForm
		wantField string
	}{
		{"no exercise", SessionForm{CompleteReps: 5, Sets: 1}, "exercise_id"},
		{"no reps", SessionForm{ExerciseID: exID, Sets: 1}, "complete_reps"},
		{"negative failed", SessionForm{ExerciseID: exID, CompleteReps: 5, FailedReps: -1, Sets: 1}, "failed_reps"},
		{"zero sets", SessionForm{ExerciseID: exID, CompleteReps: 5}, "sets"},
		{"negative weight", SessionForm{ExerciseID: exID, CompleteReps: 5, Sets: 1, Weight: -1}, "weight"},
		{"negative rest", SessionForm{ExerciseID: exID, CompleteReps: 5, Sets: 1, RestTime: ptr(-5)}, "rest_time"},
		{"unknown exercise", SessionForm{ExerciseID: uuid.New(), CompleteReps: 5, Sets: 1}, "exercise_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.LogSession(context.Background(), tt.form)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

// TestPreviewClamps verifies preview accepts half-filled forms and clamps them.
func TestPreviewClamps(t *testing.T) {
	svc, _ := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Row"})

	res, err := svc.Preview(context.Background(), SessionForm{ExerciseID: exID, CompleteReps: 10, FailedReps: -3, Weight: 40})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if res.Sets != 1 || res.FailedReps != 0 || res.TotalLoad != 400 {
		t.Errorf("preview = %+v, want sets 1, failed 0, load 400", res)
	}

	if _, err := svc.Preview(context.Background(), SessionForm{ExerciseID: uuid.New()}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("preview of unknown exercise = %v, want ErrNotFound", err)
	}
}

// TestEditSessionRecomputes verifies an edit recomputes the load from the full
// form and keeps the original date.
func TestEditSessionRecomputes(t *testing.T) {
	svc, _ := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Bench"})
	id := logAt(t, svc, exID, 3, 10, 60)

	row, err := svc.EditSession(context.Background(), id, SessionForm{
		ExerciseID: exID, CompleteReps: 8, FailedReps: 2, Sets: 3, Weight: 60,
	})
	if err != nil {
		t.Fatalf("EditSession: %v", err)
	}
	// 60 × (8 + 1.2) × 3
	if row.TotalLoad != 1656 {
		t.Errorf("total load = %v, want 1656", row.TotalLoad)
	}
	if !row.Date.Equal(fixedNow.AddDate(0, 0, -3)) {
		t.Errorf("date = %v, want original", row.Date)
	}

	if _, err := svc.EditSession(context.Background(), uuid.New(), SessionForm{ExerciseID: exID, CompleteReps: 1, Sets: 1}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("edit of unknown session = %v, want ErrNotFound", err)
	}
}

// TestUpdateExerciseRecomputesSessions verifies changing the percentage
// rewrites the stored load of every session.
func TestUpdateExerciseRecomputesSessions(t *testing.T) {
	svc, store := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Dips", Type: "bodyweight", BodyweightPercentage: ptr(50.0)})
	id := logAt(t, svc, exID, 1, 10, 80)

	if _, err := svc.UpdateExercise(context.Background(), exID, ExerciseForm{
		Title: "Dips", Type: "bodyweight", BodyweightPercentage: ptr(75.0),
	}); err != nil {
		t.Fatalf("UpdateExercise: %v", err)
	}
	row, _ := store.GetSession(context.Background(), id)
	if row.TotalLoad != 600 {
		t.Errorf("recomputed load = %v, want 600", row.TotalLoad)
	}
}

// TestDeleteExerciseInUse verifies exercises with sessions cannot be deleted.
func TestDeleteExerciseInUse(t *testing.T) {
	svc, _ := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Deadlift"})
	id := logAt(t, svc, exID, 0, 5, 100)

	if err := svc.DeleteExercise(context.Background(), exID); !errors.Is(err, storage.ErrExerciseInUse) {
		t.Fatalf("DeleteExercise = %v, want ErrExerciseInUse", err)
	}
	if err := svc.DeleteSession(context.Background(), id); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := svc.DeleteExercise(context.Background(), exID); err != nil {
		t.Errorf("DeleteExercise after sessions removed: %v", err)
	}
}

// TestProgressAllExercises verifies one evolution per exercise with sessions,
// ordered by title, and the single-exercise form with no data.
func TestProgressAllExercises(t *testing.T) {
	svc, _ := newTestService(t)
	squat := mustExercise(t, svc, ExerciseForm{Title: "Squat"})
	bench := mustExercise(t, svc, ExerciseForm{Title: "Bench"})
	idle := mustExercise(t, svc, ExerciseForm{Title: "Curl"})

	logAt(t, svc, squat, 10, 10, 100) // 1000
	logAt(t, svc, squat, 2, 10, 120)  // 1200
	logAt(t, svc, bench, 5, 10, 50)   // 500

	rng := progress.Period{Days: 30}.Range(fixedNow)
	got, err := svc.Progress(context.Background(), rng, uuid.Nil)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Bench" || got[1].Title != "Squat" {
		t.Fatalf("progress = %+v, want Bench then Squat", got)
	}
	if got[1].Evolution.Percent != 20 {
		t.Errorf("squat percent = %v, want 20", got[1].Evolution.Percent)
	}

	one, err := svc.Progress(context.Background(), rng, idle)
	if err != nil {
		t.Fatalf("Progress(idle): %v", err)
	}
	if len(one) != 1 || one[0].Evolution != nil {
		t.Errorf("idle progress = %+v, want one entry with nil evolution", one)
	}
}

// TestTopRecordsOnly verifies period filtering, record criteria and the default limit.
func TestTopRecordsOnly(t *testing.T) {
	svc, _ := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Press"})
	logAt(t, svc, exID, 1, 10, 30)
	logAt(t, svc, exID, 2, 10, 40)
	logAt(t, svc, exID, 40, 10, 90) // outside 30d

	// six sets disqualify it as a record
	if _, err := svc.LogSession(context.Background(), SessionForm{
		ExerciseID: exID, Date: ptr(fixedNow.AddDate(0, 0, -3)), CompleteReps: 10, Sets: 6, Weight: 50,
	}); err != nil {
		t.Fatalf("LogSession: %v", err)
	}

	got, err := svc.Top(context.Background(), TopQuery{Period: progress.Period{Days: 30}, RecordsOnly: true})
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(got) != 2 || got[0].Session.TotalLoad != 400 || got[1].Session.TotalLoad != 300 {
		t.Errorf("top = %+v, want loads 400, 300", got)
	}

	all, err := svc.Top(context.Background(), TopQuery{Period: progress.All, Limit: 1})
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(all) != 1 || all[0].Session.TotalLoad != 3000 {
		t.Errorf("top all = %+v, want the 3000 session", all)
	}
}

// TestStats verifies the summary is computed over the whole log.
func TestStats(t *testing.T) {
	svc, _ := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Lunge"})
	logAt(t, svc, exID, 0, 10, 10)
	logAt(t, svc, exID, 1, 10, 10)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Summary.TotalSessions != 2 || stats.Summary.TotalLoad != 200 || stats.Summary.CurrentStreak != 2 {
		t.Errorf("summary = %+v", stats.Summary)
	}
	if stats.Summary.FavoriteExercise != "Lunge" {
		t.Errorf("favorite = %q", stats.Summary.FavoriteExercise)
	}
	wantPer := []progress.ExerciseTotal{{ExerciseID: exID, Title: "Lunge", Sessions: 2, TotalLoad: 200, AverageLoad: 100}}
	if diff := cmp.Diff(wantPer, stats.Summary.PerExercise); diff != "" {
		t.Errorf("per exercise mismatch (-want +got):\n%s", diff)
	}
	if stats.Summary.AverageLoad != 100 {
		t.Errorf("average load = %v, want 100", stats.Summary.AverageLoad)
	}
	if stats.Data.TotalSessions != 2 {
		t.Errorf("data sessions = %d, want 2", stats.Data.TotalSessions)
	}
}

// TestPlans verifies plan validation, weekday normalization and ordering.
func TestPlans(t *testing.T) {
	svc, _ := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Squat"})
	ctx := context.Background()

	if _, err := svc.CreatePlan(ctx, PlanForm{ExerciseID: exID, DayOfWeek: "Quarta", MinReps: 8, MaxReps: 12, Sets: 3}); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	monday, err := svc.CreatePlan(ctx, PlanForm{ExerciseID: exID, DayOfWeek: "monday", MinReps: 5, MaxReps: 5, Sets: 5, RestTime: ptr(180)})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	plans, err := svc.ListPlans(ctx, "")
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 2 || plans[0].DayOfWeek != "monday" || plans[1].DayOfWeek != "wednesday" {
		t.Errorf("plans = %+v, want monday then wednesday", plans)
	}
	if plans[1].RestTime != DefaultRestTime {
		t.Errorf("rest = %d, want default", plans[1].RestTime)
	}

	var verr *ValidationError
	if _, err := svc.CreatePlan(ctx, PlanForm{ExerciseID: exID, DayOfWeek: "friday", MinReps: 10, MaxReps: 8, Sets: 3}); !errors.As(err, &verr) {
		t.Errorf("min > max = %v, want ValidationError", err)
	}
	if _, err := svc.CreatePlan(ctx, PlanForm{ExerciseID: exID, DayOfWeek: "someday", MinReps: 1, MaxReps: 2, Sets: 1}); !errors.As(err, &verr) {
		t.Errorf("bad weekday = %v, want ValidationError", err)
	}

	if err := svc.DeletePlan(ctx, monday.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if plans, _ := svc.ListPlans(ctx, "segunda"); len(plans) != 0 {
		t.Errorf("monday plans after delete = %d, want 0", len(plans))
	}
}

// TestImportRecordsLog verifies imports write an import log entry on success
// and on failure.
func TestImportRecordsLog(t *testing.T) {
	svc, store := newTestService(t)
	csv := "session_id,exercise,type,bodyweight_pct,date,complete_reps,negative_reps,failed_reps,sets,weight_kg,rest_sec,total_load\n" +
		",Squat,weight,,2025-06-01,5,0,0,5,100,180,2500\n"

	res, err := svc.Import(context.Background(), "api", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.SessionsInserted != 1 || res.LoadMismatches != 0 {
		t.Errorf("result = %+v", res)
	}

	if _, err := svc.Import(context.Background(), "api", strings.NewReader("garbage\n")); err == nil {
		t.Error("expected error for unrecognized file")
	}

	logs, err := svc.ImportLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("ImportLogs: %v", err)
	}
	if store.ImportLogCount() != 2 || logs[0].Status != storage.ImportError || logs[1].Status != storage.ImportSuccess {
		t.Errorf("logs = %+v, want error then success", logs)
	}
}

type failingSessionStore struct {
	*logbooktest.Store
}

func (failingSessionStore) InsertSessions(context.Context, []models.SessionRow) (int64, error) {
	return 0, errors.New("disk full")
}

// TestImportFailureLogsCreatedExercises verifies the import log of a failed
// insert counts the exercises that were created and kept.
func TestImportFailureLogsCreatedExercises(t *testing.T) {
	store := failingSessionStore{logbooktest.NewStore()}
	svc := New(store, Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	csv := "exercise,type,bodyweight_pct,date,complete_reps,sets,weight_kg\n" +
		"Squat,weight,,2025-06-01,5,5,100\n" +
		"Deadlift,weight,,2025-06-02,3,3,140\n"

	if _, err := svc.Import(context.Background(), "api", strings.NewReader(csv)); err == nil {
		t.Fatal("Import succeeded, want insert error")
	}
	logs, err := svc.ImportLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("ImportLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != storage.ImportError {
		t.Fatalf("logs = %+v, want one error entry", logs)
	}
	if logs[0].ExercisesCreated != 2 || logs[0].RowsReceived != 2 {
		t.Errorf("log = %+v, want 2 exercises created from 2 rows", logs[0])
	}
	exercises, err := svc.ListExercises(context.Background())
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	if len(exercises) != 2 {
		t.Errorf("exercises = %d, want 2 kept after the failure", len(exercises))
	}
}

// TestImportNonFiniteWeight verifies an infinite weight in a native row is
// skipped, a legacy one is read as zero, and the stored log stays
// JSON-encodable.
func TestImportNonFiniteWeight(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	native := "exercise,type,date,complete_reps,sets,weight_kg\n" +
		"Squat,weight,2025-06-01,5,5,Inf\n" +
		"Squat,weight,2025-06-02,5,5,100\n"
	res, err := svc.Import(ctx, "api", strings.NewReader(native))
	if err != nil {
		t.Fatalf("Import native: %v", err)
	}
	if res.SessionsInserted != 1 || res.RowsSkipped != 1 {
		t.Errorf("native result = %+v, want 1 inserted and 1 skipped", res)
	}

	legacy := "Exercício,Carga Total,Repetições,Peso Usado,Data,Tempo Descanso,Repetições Falhadas,Séries,Descrição\n" +
		`"Remada",0,10,+Inf,"03/06/2025",60,0,3,""` + "\n"
	if _, err := svc.Import(ctx, "api", strings.NewReader(legacy)); err != nil {
		t.Fatalf("Import legacy: %v", err)
	}

	sessions, err := svc.ListSessions(ctx, progress.Range{}, uuid.Nil)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	for _, s := range sessions {
		if math.IsInf(s.Weight, 0) || math.IsInf(s.TotalLoad, 0) {
			t.Errorf("session %s stored weight %v total %v", s.ID, s.Weight, s.TotalLoad)
		}
	}
	if _, err := json.Marshal(sessions); err != nil {
		t.Errorf("json.Marshal(sessions): %v", err)
	}
}

// TestExportOldestFirst verifies the export order and the format switch.
func TestExportOldestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	exID := mustExercise(t, svc, ExerciseForm{Title: "Squat"})
	newer := logAt(t, svc, exID, 1, 5, 100)
	older := logAt(t, svc, exID, 5, 5, 90)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf, csvlog.FormatNative); err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[1], older.String()) || !strings.HasPrefix(lines[2], newer.String()) {
		t.Errorf("export not oldest first:\n%s", buf.String())
	}

	if _, err := ParseExportFormat("xml"); err == nil {
		t.Error("ParseExportFormat(xml) should fail")
	}
	if f, _ := ParseExportFormat(""); f != csvlog.FormatNative {
		t.Errorf("default format = %q, want native", f)
	}
}
