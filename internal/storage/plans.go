package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

// InsertPlan stores a plan entry and writes the generated id back into p.
func (db *DB) InsertPlan(ctx context.Context, p *models.PlanRow) error {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO workout_plans (exercise_id, day_of_week, min_reps, max_reps, sets, rest_time)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id`,
		p.ExerciseID, p.DayOfWeek, p.MinReps, p.MaxReps, p.Sets, p.RestTime,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", classify(err))
	}
	return nil
}

// ListPlans returns plan entries ordered by weekday then id. An empty day
// returns the whole week.
func (db *DB) ListPlans(ctx context.Context, day string) ([]models.PlanRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise_id, day_of_week, min_reps, max_reps, sets, rest_time
		 FROM workout_plans
		 WHERE $1 = '' OR day_of_week = $1
		 ORDER BY array_position(ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday'], day_of_week), id`,
		day)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	result := make([]models.PlanRow, 0)
	for rows.Next() {
		var p models.PlanRow
		if err := rows.Scan(&p.ID, &p.ExerciseID, &p.DayOfWeek, &p.MinReps, &p.MaxReps, &p.Sets, &p.RestTime); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// DeletePlan removes a plan entry.
func (db *DB) DeletePlan(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workout_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting plan %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting plan %d: %w", id, ErrNotFound)
	}
	return nil
}
