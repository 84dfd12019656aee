package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

const exerciseColumns = `id, title, description, type, bodyweight_pct, youtube_link, image_uri, created_at, updated_at`

// ListExercises returns every exercise ordered by title.
func (db *DB) ListExercises(ctx context.Context) ([]models.ExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := make([]models.ExerciseRow, 0)
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExercise returns one exercise or ErrNotFound.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (*models.ExerciseRow, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting exercise %s: %w", id, err)
	}
	return &e, nil
}

// GetExerciseByTitle looks an exercise up by its exact title, ignoring case.
func (db *DB) GetExerciseByTitle(ctx context.Context, title string) (*models.ExerciseRow, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE lower(title) = lower($1)`, title))
	if err != nil {
		return nil, fmt.Errorf("getting exercise %q: %w", title, err)
	}
	return &e, nil
}

// InsertExercise stores a new exercise. Timestamps are set by the database
// and written back into e.
func (db *DB) InsertExercise(ctx context.Context, e *models.ExerciseRow) error {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (id, title, description, type, bodyweight_pct, youtube_link, image_uri)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		e.ID, e.Title, e.Description, e.Type, e.BodyweightPercentage, e.YoutubeLink, e.ImageURI,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", classify(err))
	}
	return nil
}

// UpdateExercise overwrites the editable fields of an exercise.
func (db *DB) UpdateExercise(ctx context.Context, e *models.ExerciseRow) error {
	err := db.Pool.QueryRow(ctx,
		`UPDATE exercises SET
		 title = $2, description = $3, type = $4, bodyweight_pct = $5,
		 youtube_link = $6, image_uri = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		e.ID, e.Title, e.Description, e.Type, e.BodyweightPercentage, e.YoutubeLink, e.ImageURI,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating exercise %s: %w", e.ID, classify(err))
	}
	return nil
}

// DeleteExercise removes an exercise. It fails with ErrExerciseInUse while
// sessions still reference it, and with ErrNotFound if it does not exist.
func (db *DB) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if pgErr := pgError(err); pgErr != nil && pgErr.Code == codeForeignKeyViolation {
		return fmt.Errorf("deleting exercise %s: %w", id, ErrExerciseInUse)
	}
	if err != nil {
		return fmt.Errorf("deleting exercise %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting exercise %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanExercise(row rowScanner) (models.ExerciseRow, error) {
	var e models.ExerciseRow
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Type, &e.BodyweightPercentage,
		&e.YoutubeLink, &e.ImageURI, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, fmt.Errorf("scanning exercise: %w", classify(err))
	}
	return e, nil
}
