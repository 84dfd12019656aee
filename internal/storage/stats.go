package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored data.
type DataStats struct {
	TotalExercises     int64              `json:"total_exercises"`
	TotalSessions      int64              `json:"total_sessions"`
	TotalPlans         int64              `json:"total_plans"`
	EarliestSession    *time.Time         `json:"earliest_session"`
	LatestSession      *time.Time         `json:"latest_session"`
	SessionsByExercise []ExerciseLoadStat `json:"sessions_by_exercise"`
}

// ExerciseLoadStat holds summary stats for a single exercise.
type ExerciseLoadStat struct {
	Title     string  `json:"title"`
	Sessions  int64   `json:"sessions"`
	TotalLoad float64 `json:"total_load"`
	BestLoad  float64 `json:"best_load"`
}

// GetDataStats returns aggregate statistics for the stored log.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM exercises),
			(SELECT COUNT(*) FROM workout_sessions),
			(SELECT COUNT(*) FROM workout_plans),
			(SELECT MIN(date) FROM workout_sessions),
			(SELECT MAX(date) FROM workout_sessions)`,
	).Scan(&stats.TotalExercises, &stats.TotalSessions, &stats.TotalPlans,
		&stats.EarliestSession, &stats.LatestSession)
	if err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT e.title, COUNT(*), COALESCE(SUM(s.total_load), 0), COALESCE(MAX(s.total_load), 0)
		 FROM workout_sessions s
		 JOIN exercises e ON e.id = s.exercise_id
		 GROUP BY e.title
		 ORDER BY COUNT(*) DESC, e.title ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions by exercise: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseLoadStat
		if err := rows.Scan(&s.Title, &s.Sessions, &s.TotalLoad, &s.BestLoad); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.SessionsByExercise = append(stats.SessionsByExercise, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
