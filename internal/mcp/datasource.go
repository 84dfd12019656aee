package mcp

import (
	"context"

	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/logbook"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *logbook.Service
// (local database) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExercises(ctx context.Context) ([]models.ExerciseRow, error)
	ListSessions(ctx context.Context, r progress.Range, exerciseID uuid.UUID) ([]models.SessionRow, error)
	Preview(ctx context.Context, form logbook.SessionForm) (load.SessionResult, error)
	Progress(ctx context.Context, r progress.Range, exerciseID uuid.UUID) ([]logbook.ExerciseProgress, error)
	Top(ctx context.Context, q logbook.TopQuery) ([]progress.RankedSession, error)
	Series(ctx context.Context, exerciseID uuid.UUID, period progress.Period, bucket progress.Bucket, maxPoints int) ([]progress.Point, error)
	Stats(ctx context.Context) (*logbook.Stats, error)
	ListPlans(ctx context.Context, day string) ([]models.PlanRow, error)
}

// Compile-time check: *logbook.Service satisfies DataSource.
var _ DataSource = (*logbook.Service)(nil)
