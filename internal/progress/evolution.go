// Package progress aggregates computed sessions into evolution, ranking,
// series and summary views.
package progress

import (
	"slices"

	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/models"
)

// EvolutionResult compares the first and last session load of a range.
type EvolutionResult struct {
	Baseline float64 `json:"baseline"`
	Latest   float64 `json:"latest"`
	Percent  float64 `json:"percent"`
	Sessions int     `json:"sessions"`
}

// Evolution returns the relative change between the earliest and latest
// session by date. It returns nil when sessions is empty so callers can tell
// "no data" apart from a 0% change. The input slice is not modified.
func Evolution(sessions []models.SessionRow) *EvolutionResult {
	if len(sessions) == 0 {
		return nil
	}

	sorted := slices.Clone(sessions)
	slices.SortStableFunc(sorted, func(a, b models.SessionRow) int {
		return a.Date.Compare(b.Date)
	})

	baseline := sorted[0].TotalLoad
	latest := sorted[len(sorted)-1].TotalLoad

	return &EvolutionResult{
		Baseline: baseline,
		Latest:   latest,
		Percent:  percentChange(baseline, latest),
		Sessions: len(sorted),
	}
}

// percentChange guards a non-positive baseline: no movement is 0%, anything
// above zero counts as 100%.
func percentChange(baseline, latest float64) float64 {
	if baseline <= 0 {
		if latest <= 0 {
			return 0
		}
		return 100
	}
	return load.Round2((latest - baseline) / baseline * 100)
}
