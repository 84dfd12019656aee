// Package logbooktest provides an in-memory store for tests of packages
// built on the logbook service.
package logbooktest

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of the logbook store. It mirrors the
// ordering and error behavior of storage.DB.
type Store struct {
	mu         sync.Mutex
	exercises  map[uuid.UUID]models.ExerciseRow
	sessions   map[uuid.UUID]models.SessionRow
	plans      map[int64]models.PlanRow
	importLogs []storage.ImportLog
	nextPlanID int64
	nextLogID  int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		exercises: make(map[uuid.UUID]models.ExerciseRow),
		sessions:  make(map[uuid.UUID]models.SessionRow),
		plans:     make(map[int64]models.PlanRow),
	}
}

func notFound(what string, id any) error {
	return fmt.Errorf("getting %s %v: %w", what, id, storage.ErrNotFound)
}

func (s *Store) ListExercises(_ context.Context) ([]models.ExerciseRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ExerciseRow, 0, len(s.exercises))
	for _, e := range s.exercises {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.ExerciseRow) int { return cmp.Compare(a.Title, b.Title) })
	return out, nil
}

func (s *Store) GetExercise(_ context.Context, id uuid.UUID) (*models.ExerciseRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exercises[id]
	if !ok {
		return nil, notFound("exercise", id)
	}
	return &e, nil
}

func (s *Store) GetExerciseByTitle(_ context.Context, title string) (*models.ExerciseRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.exercises {
		if strings.EqualFold(e.Title, title) {
			return &e, nil
		}
	}
	return nil, notFound("exercise", title)
}

func (s *Store) InsertExercise(_ context.Context, e *models.ExerciseRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.exercises {
		if other.Title == e.Title {
			return fmt.Errorf("inserting exercise: %w", storage.ErrDuplicate)
		}
	}
	now := time.Now()
	e.CreatedAt, e.UpdatedAt = now, now
	s.exercises[e.ID] = *e
	return nil
}

func (s *Store) UpdateExercise(_ context.Context, e *models.ExerciseRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.exercises[e.ID]
	if !ok {
		return notFound("exercise", e.ID)
	}
	for id, other := range s.exercises {
		if id != e.ID && other.Title == e.Title {
			return fmt.Errorf("updating exercise: %w", storage.ErrDuplicate)
		}
	}
	e.CreatedAt, e.UpdatedAt = old.CreatedAt, time.Now()
	s.exercises[e.ID] = *e
	return nil
}

func (s *Store) DeleteExercise(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exercises[id]; !ok {
		return notFound("exercise", id)
	}
	for _, r := range s.sessions {
		if r.ExerciseID == id {
			return fmt.Errorf("deleting exercise %s: %w", id, storage.ErrExerciseInUse)
		}
	}
	delete(s.exercises, id)
	for pid, p := range s.plans {
		if p.ExerciseID == id {
			delete(s.plans, pid)
		}
	}
	return nil
}

func (s *Store) InsertSession(_ context.Context, r models.SessionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[r.ID]; ok {
		return fmt.Errorf("inserting session: %w", storage.ErrDuplicate)
	}
	s.sessions[r.ID] = r
	return nil
}

func (s *Store) InsertSessions(_ context.Context, rows []models.SessionRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range rows {
		if _, ok := s.sessions[r.ID]; ok {
			continue
		}
		s.sessions[r.ID] = r
		n++
	}
	return n, nil
}

func (s *Store) GetSession(_ context.Context, id uuid.UUID) (*models.SessionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.sessions[id]
	if !ok {
		return nil, notFound("session", id)
	}
	return &r, nil
}

func (s *Store) UpdateSession(_ context.Context, r models.SessionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[r.ID]; !ok {
		return notFound("session", r.ID)
	}
	s.sessions[r.ID] = r
	return nil
}

func (s *Store) DeleteSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return notFound("session", id)
	}
	delete(s.sessions, id)
	return nil
}

// QuerySessions returns matches newest first, ties ordered by id.
func (s *Store) QuerySessions(_ context.Context, f storage.SessionFilter) ([]models.SessionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SessionRow, 0)
	for _, r := range s.sessions {
		if !f.Start.IsZero() && r.Date.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && r.Date.After(f.End) {
			continue
		}
		if f.ExerciseID != uuid.Nil && r.ExerciseID != f.ExerciseID {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.SessionRow) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (s *Store) InsertPlan(_ context.Context, p *models.PlanRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPlanID++
	p.ID = s.nextPlanID
	s.plans[p.ID] = *p
	return nil
}

func (s *Store) ListPlans(_ context.Context, day string) ([]models.PlanRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PlanRow, 0)
	for _, p := range s.plans {
		if day == "" || p.DayOfWeek == day {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.PlanRow) int {
		if c := cmp.Compare(slices.Index(models.Weekdays, a.DayOfWeek), slices.Index(models.Weekdays, b.DayOfWeek)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) DeletePlan(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return notFound("plan", id)
	}
	delete(s.plans, id)
	return nil
}

func (s *Store) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	log.ID = s.nextLogID
	log.CreatedAt = time.Now()
	s.importLogs = append(s.importLogs, log)
	return log.ID, nil
}

func (s *Store) QueryImportLogs(_ context.Context, limit int) ([]storage.ImportLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := append(make([]storage.ImportLog, 0, len(s.importLogs)), s.importLogs...)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetDataStats(_ context.Context) (*storage.DataStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &storage.DataStats{
		TotalExercises: int64(len(s.exercises)),
		TotalSessions:  int64(len(s.sessions)),
		TotalPlans:     int64(len(s.plans)),
	}
	byTitle := make(map[string]*storage.ExerciseLoadStat)
	for _, r := range s.sessions {
		d := r.Date
		if stats.EarliestSession == nil || d.Before(*stats.EarliestSession) {
			stats.EarliestSession = &d
		}
		if stats.LatestSession == nil || d.After(*stats.LatestSession) {
			stats.LatestSession = &d
		}
		title := s.exercises[r.ExerciseID].Title
		st, ok := byTitle[title]
		if !ok {
			st = &storage.ExerciseLoadStat{Title: title}
			byTitle[title] = st
		}
		st.Sessions++
		st.TotalLoad += r.TotalLoad
		st.BestLoad = max(st.BestLoad, r.TotalLoad)
	}
	for _, st := range byTitle {
		stats.SessionsByExercise = append(stats.SessionsByExercise, *st)
	}
	slices.SortFunc(stats.SessionsByExercise, func(a, b storage.ExerciseLoadStat) int {
		if c := cmp.Compare(b.Sessions, a.Sessions); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
	return stats, nil
}

// ImportLogCount reports how many import log entries were written.
func (s *Store) ImportLogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.importLogs)
}
