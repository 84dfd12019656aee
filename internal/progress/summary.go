package progress

import (
	"cmp"
	"slices"
	"time"

	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// Summary is the all-time overview of the training log.
type Summary struct {
	TotalSessions    int     `json:"total_sessions"`
	TotalLoad        float64 `json:"total_load"`
	AverageLoad      float64 `json:"average_load"`
	FavoriteExercise string  `json:"favorite_exercise,omitempty"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`

	PerExercise []ExerciseTotal `json:"per_exercise"`
}

// ExerciseTotal is the all-time volume of one exercise.
type ExerciseTotal struct {
	ExerciseID  uuid.UUID `json:"exercise_id"`
	Title       string    `json:"title"`
	Sessions    int       `json:"sessions"`
	TotalLoad   float64   `json:"total_load"`
	AverageLoad float64   `json:"average_load"`
}

// Summarize computes totals, the average load per session, per-exercise
// totals, the most logged exercise and training-day streaks. Calendar days
// are taken in now's location. A current streak survives until the end of
// the day after the last session.
func Summarize(sessions []models.SessionRow, exercises []models.ExerciseRow, now time.Time) Summary {
	sum := Summary{TotalSessions: len(sessions)}

	counts := make(map[uuid.UUID]int)
	loads := make(map[uuid.UUID]float64)
	days := make(map[int64]struct{})
	var total float64
	for _, s := range sessions {
		total += s.TotalLoad
		counts[s.ExerciseID]++
		loads[s.ExerciseID] += s.TotalLoad
		days[dayNumber(s.Date.In(now.Location()))] = struct{}{}
	}
	sum.TotalLoad = load.Round2(total)
	if len(sessions) > 0 {
		sum.AverageLoad = load.Round2(total / float64(len(sessions)))
	}
	sum.FavoriteExercise = favorite(counts, exercises)
	sum.PerExercise = perExercise(counts, loads, exercises)
	sum.CurrentStreak, sum.LongestStreak = streaks(days, dayNumber(now))
	return sum
}

func favorite(counts map[uuid.UUID]int, exercises []models.ExerciseRow) string {
	sorted := slices.Clone(exercises)
	slices.SortFunc(sorted, func(a, b models.ExerciseRow) int { return cmp.Compare(a.Title, b.Title) })

	var best string
	bestCount := 0
	for _, ex := range sorted {
		if n := counts[ex.ID]; n > bestCount {
			best, bestCount = ex.Title, n
		}
	}
	return best
}

// perExercise lists exercises with at least one session, heaviest total
// first, ties by title.
func perExercise(counts map[uuid.UUID]int, loads map[uuid.UUID]float64, exercises []models.ExerciseRow) []ExerciseTotal {
	out := make([]ExerciseTotal, 0, len(counts))
	for _, ex := range exercises {
		n := counts[ex.ID]
		if n == 0 {
			continue
		}
		out = append(out, ExerciseTotal{
			ExerciseID:  ex.ID,
			Title:       ex.Title,
			Sessions:    n,
			TotalLoad:   load.Round2(loads[ex.ID]),
			AverageLoad: load.Round2(loads[ex.ID] / float64(n)),
		})
	}
	slices.SortFunc(out, func(a, b ExerciseTotal) int {
		if c := cmp.Compare(b.TotalLoad, a.TotalLoad); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
	return out
}

func streaks(days map[int64]struct{}, today int64) (current, longest int) {
	sorted := make([]int64, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	slices.Sort(sorted)

	run := 0
	for i, d := range sorted {
		if i > 0 && d == sorted[i-1]+1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}

	if len(sorted) > 0 {
		last := sorted[len(sorted)-1]
		if last == today || last == today-1 {
			current = run
		}
	}
	return current, longest
}

// dayNumber counts calendar days since the Unix epoch, ignoring the clock
// and the zone offset so DST shifts never split or merge days.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
