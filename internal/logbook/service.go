// Package logbook is the application layer of the training log: it validates
// forms, computes session loads and assembles progress views from storage.
package logbook

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/claude/liftlog/internal/ingest/csvlog"
	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// Store is the persistence the service needs. *storage.DB satisfies it.
type Store interface {
	ListExercises(ctx context.Context) ([]models.ExerciseRow, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*models.ExerciseRow, error)
	GetExerciseByTitle(ctx context.Context, title string) (*models.ExerciseRow, error)
	InsertExercise(ctx context.Context, e *models.ExerciseRow) error
	UpdateExercise(ctx context.Context, e *models.ExerciseRow) error
	DeleteExercise(ctx context.Context, id uuid.UUID) error

	InsertSession(ctx context.Context, r models.SessionRow) error
	InsertSessions(ctx context.Context, rows []models.SessionRow) (int64, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.SessionRow, error)
	UpdateSession(ctx context.Context, r models.SessionRow) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	QuerySessions(ctx context.Context, f storage.SessionFilter) ([]models.SessionRow, error)

	InsertPlan(ctx context.Context, p *models.PlanRow) error
	ListPlans(ctx context.Context, day string) ([]models.PlanRow, error)
	DeletePlan(ctx context.Context, id int64) error

	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)

	GetDataStats(ctx context.Context) (*storage.DataStats, error)
}

var _ Store = (*storage.DB)(nil)

// Options tunes the service. Zero values take defaults.
type Options struct {
	Records  progress.RecordCriteria
	TopCount int
	// Location defines calendar days for periods, streaks and CSV dates.
	Location *time.Location
	Now      func() time.Time
}

// Service implements the training log operations.
type Service struct {
	store    Store
	csv      *csvlog.Provider
	records  progress.RecordCriteria
	topCount int
	loc      *time.Location
	now      func() time.Time
	log      *slog.Logger
}

// New creates a Service.
func New(store Store, opts Options, log *slog.Logger) *Service {
	if opts.Records == (progress.RecordCriteria{}) {
		opts.Records = progress.DefaultRecordCriteria
	}
	if opts.TopCount <= 0 {
		opts.TopCount = 20
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:    store,
		csv:      csvlog.NewProvider(store, opts.Location, log),
		records:  opts.Records,
		topCount: opts.TopCount,
		loc:      opts.Location,
		now:      opts.Now,
		log:      log,
	}
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// Location is the zone calendar days are counted in.
func (s *Service) Location() *time.Location { return s.loc }

// Now returns the current time in the service location.
func (s *Service) Now() time.Time { return s.today() }

// --- Exercises ---

// ListExercises returns every exercise ordered by title.
func (s *Service) ListExercises(ctx context.Context) ([]models.ExerciseRow, error) {
	return s.store.ListExercises(ctx)
}

// GetExercise returns one exercise.
func (s *Service) GetExercise(ctx context.Context, id uuid.UUID) (*models.ExerciseRow, error) {
	return s.store.GetExercise(ctx, id)
}

// CreateExercise validates and stores a new exercise.
func (s *Service) CreateExercise(ctx context.Context, form ExerciseForm) (*models.ExerciseRow, error) {
	ex := &models.ExerciseRow{ID: uuid.New()}
	if err := form.apply(ex); err != nil {
		return nil, err
	}
	if err := s.store.InsertExercise(ctx, ex); err != nil {
		return nil, err
	}
	s.log.Info("exercise created", "id", ex.ID, "title", ex.Title, "type", ex.Type)
	return ex, nil
}

// UpdateExercise overwrites an exercise. When the change affects how load is
// computed, every session of the exercise is recomputed in full.
func (s *Service) UpdateExercise(ctx context.Context, id uuid.UUID, form ExerciseForm) (*models.ExerciseRow, error) {
	ex, err := s.store.GetExercise(ctx, id)
	if err != nil {
		return nil, err
	}
	before := ex.LoadProfile()
	if err := form.apply(ex); err != nil {
		return nil, err
	}
	if err := s.store.UpdateExercise(ctx, ex); err != nil {
		return nil, err
	}

	if !sameProfile(before, ex.LoadProfile()) {
		n, err := s.recomputeSessions(ctx, *ex)
		if err != nil {
			return nil, fmt.Errorf("recomputing sessions of %s: %w", ex.Title, err)
		}
		s.log.Info("sessions recomputed", "exercise", ex.Title, "count", n)
	}
	return ex, nil
}

func sameProfile(a, b load.Exercise) bool {
	if a.Type != b.Type {
		return false
	}
	if (a.BodyweightPercentage == nil) != (b.BodyweightPercentage == nil) {
		return false
	}
	return a.BodyweightPercentage == nil || *a.BodyweightPercentage == *b.BodyweightPercentage
}

func (s *Service) recomputeSessions(ctx context.Context, ex models.ExerciseRow) (int, error) {
	sessions, err := s.store.QuerySessions(ctx, storage.SessionFilter{ExerciseID: ex.ID})
	if err != nil {
		return 0, err
	}
	for _, row := range sessions {
		res := load.Compute(ex.LoadProfile(), row.Input())
		if err := s.store.UpdateSession(ctx, models.NewSessionRow(row.ID, ex.ID, row.Date, res)); err != nil {
			return 0, err
		}
	}
	return len(sessions), nil
}

// DeleteExercise removes an exercise that has no sessions.
func (s *Service) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteExercise(ctx, id); err != nil {
		return err
	}
	s.log.Info("exercise deleted", "id", id)
	return nil
}

// --- Sessions ---

// LogResult is a stored session plus whether the same exercise was already
// logged on that calendar day.
type LogResult struct {
	Session        models.SessionRow `json:"session"`
	DuplicateToday bool              `json:"duplicate_today"`
}

// Preview computes the session result the form would store, without
// validating or writing anything.
func (s *Service) Preview(ctx context.Context, form SessionForm) (load.SessionResult, error) {
	ex, err := s.store.GetExercise(ctx, form.ExerciseID)
	if err != nil {
		return load.SessionResult{}, err
	}
	return load.Compute(ex.LoadProfile(), form.Input()), nil
}

// LogSession validates the form, computes its load and stores it.
func (s *Service) LogSession(ctx context.Context, form SessionForm) (*LogResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	ex, err := s.exerciseForForm(ctx, form.ExerciseID)
	if err != nil {
		return nil, err
	}

	date := s.now()
	if form.Date != nil {
		date = *form.Date
	}

	sameDay, err := s.sessionsOnDay(ctx, ex.ID, date)
	if err != nil {
		return nil, err
	}

	res := load.Compute(ex.LoadProfile(), form.Input())
	row := models.NewSessionRow(uuid.New(), ex.ID, date, res)
	if err := s.store.InsertSession(ctx, row); err != nil {
		return nil, err
	}
	s.log.Info("session logged", "id", row.ID, "exercise", ex.Title, "total_load", row.TotalLoad)
	return &LogResult{Session: row, DuplicateToday: len(sameDay) > 0}, nil
}

// EditSession replaces a stored session with the form, recomputing its load
// from the full input. The original date is kept unless the form sets one.
func (s *Service) EditSession(ctx context.Context, id uuid.UUID, form SessionForm) (*models.SessionRow, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	ex, err := s.exerciseForForm(ctx, form.ExerciseID)
	if err != nil {
		return nil, err
	}

	date := existing.Date
	if form.Date != nil {
		date = *form.Date
	}
	row := models.NewSessionRow(id, ex.ID, date, load.Compute(ex.LoadProfile(), form.Input()))
	if err := s.store.UpdateSession(ctx, row); err != nil {
		return nil, err
	}
	s.log.Info("session edited", "id", id, "total_load", row.TotalLoad)
	return &row, nil
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.log.Info("session deleted", "id", id)
	return nil
}

// ListSessions returns sessions within r, newest first, optionally for one exercise.
func (s *Service) ListSessions(ctx context.Context, r progress.Range, exerciseID uuid.UUID) ([]models.SessionRow, error) {
	return s.store.QuerySessions(ctx, storage.SessionFilter{Start: r.Start, End: r.End, ExerciseID: exerciseID})
}

// exerciseForForm resolves the form's exercise, reporting a missing one as
// a field error rather than a missing resource.
func (s *Service) exerciseForForm(ctx context.Context, id uuid.UUID) (*models.ExerciseRow, error) {
	ex, err := s.store.GetExercise(ctx, id)
	if isNotFound(err) {
		return nil, invalid("exercise_id", "exercise %s does not exist", id)
	}
	return ex, err
}

func (s *Service) sessionsOnDay(ctx context.Context, exerciseID uuid.UUID, date time.Time) ([]models.SessionRow, error) {
	day, err := progress.DayRange(date.In(s.loc), date.In(s.loc))
	if err != nil {
		return nil, err
	}
	return s.store.QuerySessions(ctx, storage.SessionFilter{Start: day.Start, End: day.End, ExerciseID: exerciseID})
}

// --- Progress ---

// ExerciseProgress is the evolution of one exercise over a range.
type ExerciseProgress struct {
	ExerciseID uuid.UUID                 `json:"exercise_id"`
	Title      string                    `json:"title"`
	Evolution  *progress.EvolutionResult `json:"evolution"`
}

// Progress returns the evolution within r. With an exercise id it returns
// exactly that exercise, whose Evolution is nil when it has no sessions in
// range. Without one it returns every exercise that has sessions, by title.
func (s *Service) Progress(ctx context.Context, r progress.Range, exerciseID uuid.UUID) ([]ExerciseProgress, error) {
	sessions, err := s.ListSessions(ctx, r, exerciseID)
	if err != nil {
		return nil, err
	}

	if exerciseID != uuid.Nil {
		ex, err := s.store.GetExercise(ctx, exerciseID)
		if err != nil {
			return nil, err
		}
		return []ExerciseProgress{{ExerciseID: ex.ID, Title: ex.Title, Evolution: progress.Evolution(sessions)}}, nil
	}

	exercises, err := s.store.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	byExercise := make(map[uuid.UUID][]models.SessionRow)
	for _, row := range sessions {
		byExercise[row.ExerciseID] = append(byExercise[row.ExerciseID], row)
	}

	result := make([]ExerciseProgress, 0, len(byExercise))
	for _, ex := range exercises {
		rows, ok := byExercise[ex.ID]
		if !ok {
			continue
		}
		result = append(result, ExerciseProgress{ExerciseID: ex.ID, Title: ex.Title, Evolution: progress.Evolution(rows)})
	}
	slices.SortStableFunc(result, func(a, b ExerciseProgress) int { return cmp.Compare(a.Title, b.Title) })
	return result, nil
}

// TopQuery selects a ranking.
type TopQuery struct {
	ExerciseID  uuid.UUID
	Period      progress.Period
	Limit       int
	RecordsOnly bool
}

// Top ranks sessions by total load. Limit defaults to the configured top count.
func (s *Service) Top(ctx context.Context, q TopQuery) ([]progress.RankedSession, error) {
	sessions, err := s.ListSessions(ctx, q.Period.Range(s.today()), q.ExerciseID)
	if err != nil {
		return nil, err
	}
	if q.RecordsOnly {
		sessions = progress.FilterRecords(sessions, s.records)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.topCount
	}
	return progress.TopN(sessions, limit), nil
}

// Series returns the bucketed load of a period.
func (s *Service) Series(ctx context.Context, exerciseID uuid.UUID, period progress.Period, bucket progress.Bucket, maxPoints int) ([]progress.Point, error) {
	sessions, err := s.ListSessions(ctx, period.Range(s.today()), exerciseID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Date = sessions[i].Date.In(s.loc)
	}
	return progress.Series(sessions, bucket, maxPoints), nil
}

// Stats is the profile overview: computed summary plus storage counts.
type Stats struct {
	Summary progress.Summary   `json:"summary"`
	Data    *storage.DataStats `json:"data"`
}

// Stats summarizes the whole log.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	sessions, err := s.store.QuerySessions(ctx, storage.SessionFilter{})
	if err != nil {
		return nil, err
	}
	exercises, err := s.store.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.store.GetDataStats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Summary: progress.Summarize(sessions, exercises, s.today()), Data: data}, nil
}

// --- Plans ---

// CreatePlan validates and stores a plan entry.
func (s *Service) CreatePlan(ctx context.Context, form PlanForm) (*models.PlanRow, error) {
	row, err := form.row()
	if err != nil {
		return nil, err
	}
	if _, err := s.exerciseForForm(ctx, row.ExerciseID); err != nil {
		return nil, err
	}
	if err := s.store.InsertPlan(ctx, &row); err != nil {
		return nil, err
	}
	s.log.Info("plan created", "id", row.ID, "day", row.DayOfWeek)
	return &row, nil
}

// ListPlans returns the plan, optionally for one weekday.
func (s *Service) ListPlans(ctx context.Context, day string) ([]models.PlanRow, error) {
	if day != "" {
		canonical, ok := models.NormalizeWeekday(day)
		if !ok {
			return nil, invalid("day", "unknown weekday %q", day)
		}
		day = canonical
	}
	return s.store.ListPlans(ctx, day)
}

// DeletePlan removes a plan entry.
func (s *Service) DeletePlan(ctx context.Context, id int64) error {
	return s.store.DeletePlan(ctx, id)
}
