package csvlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// mismatchTolerance is how far a file's total load may drift from the
// recomputed value before the row is counted as a mismatch.
const mismatchTolerance = 0.01

// Store is the subset of storage the provider writes through.
type Store interface {
	GetExerciseByTitle(ctx context.Context, title string) (*models.ExerciseRow, error)
	InsertExercise(ctx context.Context, e *models.ExerciseRow) error
	InsertSessions(ctx context.Context, rows []models.SessionRow) (int64, error)
}

var _ Store = (*storage.DB)(nil)

// Provider imports CSV training logs.
type Provider struct {
	store Store
	loc   *time.Location
	log   *slog.Logger
}

// NewProvider creates a CSV ingest provider. Zone-less dates are read in loc.
func NewProvider(store Store, loc *time.Location, log *slog.Logger) *Provider {
	if loc == nil {
		loc = time.Local
	}
	return &Provider{store: store, loc: loc, log: log}
}

// Ingest parses a CSV log and stores its sessions. Total load is always
// recomputed from the stored exercise; unknown exercises are created.
//
// A storage error returns the partial result alongside the error. Exercises
// created before the failure are not rolled back and are counted in
// ExercisesCreated.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	parsed, err := Parse(r, p.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := &ingest.Result{Format: string(parsed.Format)}
	result.RowsReceived = len(parsed.Records) + len(parsed.Skipped)
	for _, rowErr := range parsed.Skipped {
		result.SkippedRows = append(result.SkippedRows, rowErr.Error())
	}

	exercises := make(map[string]*models.ExerciseRow)
	rows := make([]models.SessionRow, 0, len(parsed.Records))

	for _, rec := range parsed.Records {
		ex, created, err := p.resolveExercise(ctx, exercises, rec)
		if err != nil {
			var rowErr RowError
			if errors.As(err, &rowErr) {
				result.SkippedRows = append(result.SkippedRows, rowErr.Error())
				continue
			}
			result.RowsSkipped = len(result.SkippedRows)
			return result, err
		}
		if created {
			result.ExercisesCreated++
		}

		res := load.Compute(ex.LoadProfile(), rec.Input)
		if rec.FileLoad != nil && math.Abs(*rec.FileLoad-res.TotalLoad) > mismatchTolerance {
			result.LoadMismatches++
		}

		id := rec.SessionID
		if id == uuid.Nil {
			id = LegacySessionID(rec)
		}
		rows = append(rows, models.NewSessionRow(id, ex.ID, rec.Date, res))
	}
	result.RowsSkipped = len(result.SkippedRows)

	inserted, err := p.store.InsertSessions(ctx, rows)
	if err != nil {
		return result, fmt.Errorf("inserting sessions: %w", err)
	}
	result.SessionsInserted = inserted
	result.SessionsExisting = int64(len(rows)) - inserted

	if result.LoadMismatches > 0 {
		p.log.Warn("imported load differs from recomputed load",
			"rows", result.LoadMismatches, "format", result.Format)
	}
	return result, nil
}

// resolveExercise finds the exercise a row names, creating it on first
// sight. Lookups are cached per import by lowercased title.
func (p *Provider) resolveExercise(ctx context.Context, cache map[string]*models.ExerciseRow, rec Record) (*models.ExerciseRow, bool, error) {
	key := strings.ToLower(rec.Exercise)
	if ex, ok := cache[key]; ok {
		return ex, false, nil
	}

	ex, err := p.store.GetExerciseByTitle(ctx, rec.Exercise)
	if err == nil {
		cache[key] = ex
		return ex, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("looking up exercise %q: %w", rec.Exercise, err)
	}

	ex = &models.ExerciseRow{
		ID:          uuid.New(),
		Title:       rec.Exercise,
		Description: rec.Description,
		Type:        rec.Type,
	}
	if ex.Type == "" {
		ex.Type = load.TypeWeight
	}
	if ex.Type == load.TypeBodyweight {
		if rec.BodyweightPct == nil || *rec.BodyweightPct < 1 || *rec.BodyweightPct > 100 {
			return nil, false, RowError{Line: rec.Line, Err: fmt.Errorf("bodyweight exercise %q needs a percentage between 1 and 100", rec.Exercise)}
		}
		ex.BodyweightPercentage = rec.BodyweightPct
	}

	if err := p.store.InsertExercise(ctx, ex); err != nil {
		return nil, false, fmt.Errorf("creating exercise %q: %w", rec.Exercise, err)
	}
	p.log.Info("exercise created from import", "title", ex.Title, "type", ex.Type)
	cache[key] = ex
	return ex, true, nil
}
