package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

const sessionColumns = `id, exercise_id, date, complete_reps, negative_reps, failed_reps, sets, weight, rest_time, total_load`

// sessionInsertBatch keeps one INSERT under the 65535 bind parameter limit.
const sessionInsertBatch = 1000

// SessionFilter narrows a session query. Zero values leave a bound open.
type SessionFilter struct {
	Start      time.Time
	End        time.Time
	ExerciseID uuid.UUID
}

// where renders the filter as a WHERE clause with positional args.
func (f SessionFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.Start.IsZero() {
		add("date >= $%d", f.Start)
	}
	if !f.End.IsZero() {
		add("date <= $%d", f.End)
	}
	if f.ExerciseID != uuid.Nil {
		add("exercise_id = $%d", f.ExerciseID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// InsertSession stores one session row.
func (db *DB) InsertSession(ctx context.Context, r models.SessionRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (`+sessionColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.ExerciseID, r.Date, r.CompleteReps, r.NegativeReps, r.FailedReps,
		r.Sets, r.Weight, r.RestTime, r.TotalLoad)
	if err != nil {
		return fmt.Errorf("inserting session: %w", classify(err))
	}
	return nil
}

// InsertSessions batch-inserts sessions, skipping ids that already exist.
// Returns count inserted.
func (db *DB) InsertSessions(ctx context.Context, rows []models.SessionRow) (int64, error) {
	var inserted int64
	for start := 0; start < len(rows); start += sessionInsertBatch {
		end := min(start+sessionInsertBatch, len(rows))
		query, args := buildSessionInsert(rows[start:end])

		tag, err := db.Pool.Exec(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("inserting sessions: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func buildSessionInsert(rows []models.SessionRow) (string, []any) {
	const cols = 10
	args := make([]any, 0, len(rows)*cols)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args, r.ID, r.ExerciseID, r.Date, r.CompleteReps, r.NegativeReps,
			r.FailedReps, r.Sets, r.Weight, r.RestTime, r.TotalLoad)
	}

	query := `INSERT INTO workout_sessions (` + sessionColumns + `) VALUES ` +
		strings.Join(valueStrings, ",") + " ON CONFLICT (id) DO NOTHING"
	return query, args
}

// GetSession returns one session or ErrNotFound.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionRow, error) {
	r, err := scanSession(db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return &r, nil
}

// UpdateSession overwrites every stored field of a session, total load included.
func (db *DB) UpdateSession(ctx context.Context, r models.SessionRow) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_sessions SET
		 exercise_id = $2, date = $3, complete_reps = $4, negative_reps = $5, failed_reps = $6,
		 sets = $7, weight = $8, rest_time = $9, total_load = $10
		 WHERE id = $1`,
		r.ID, r.ExerciseID, r.Date, r.CompleteReps, r.NegativeReps, r.FailedReps,
		r.Sets, r.Weight, r.RestTime, r.TotalLoad)
	if err != nil {
		return fmt.Errorf("updating session %s: %w", r.ID, classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating session %s: %w", r.ID, ErrNotFound)
	}
	return nil
}

// DeleteSession removes a session.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workout_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting session %s: %w", id, ErrNotFound)
	}
	return nil
}

// QuerySessions returns the sessions matching f, newest first. Sessions on
// the same instant are ordered by id.
func (db *DB) QuerySessions(ctx context.Context, f SessionFilter) ([]models.SessionRow, error) {
	where, args := f.where()
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions`+where+` ORDER BY date DESC, id ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	result := make([]models.SessionRow, 0)
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanSession(row rowScanner) (models.SessionRow, error) {
	var r models.SessionRow
	if err := row.Scan(&r.ID, &r.ExerciseID, &r.Date, &r.CompleteReps, &r.NegativeReps,
		&r.FailedReps, &r.Sets, &r.Weight, &r.RestTime, &r.TotalLoad); err != nil {
		return r, fmt.Errorf("scanning session: %w", classify(err))
	}
	return r, nil
}
