package progress

import (
	"cmp"
	"slices"

	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/models"
)

// RankedSession is one entry of a top-N ranking.
type RankedSession struct {
	Rank    int               `json:"rank"`
	Session models.SessionRow `json:"session"`
	// ImprovementPct is how far this entry sits above the next one in the
	// truncated list. Nil for the last entry or when the next load is zero.
	ImprovementPct *float64 `json:"improvement_pct,omitempty"`
}

// TopN ranks sessions by total load, highest first, and keeps the first n.
// Equal loads keep their input order. n <= 0 keeps everything.
func TopN(sessions []models.SessionRow, n int) []RankedSession {
	sorted := slices.Clone(sessions)
	slices.SortStableFunc(sorted, func(a, b models.SessionRow) int {
		return cmp.Compare(b.TotalLoad, a.TotalLoad)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	ranked := make([]RankedSession, len(sorted))
	for i, s := range sorted {
		ranked[i] = RankedSession{Rank: i + 1, Session: s}
		if i+1 < len(sorted) {
			ranked[i].ImprovementPct = improvementOver(s.TotalLoad, sorted[i+1].TotalLoad)
		}
	}
	return ranked
}

func improvementOver(this, next float64) *float64 {
	if next <= 0 {
		return nil
	}
	pct := load.Round1((this - next) / next * 100)
	return &pct
}

// RecordCriteria bounds which sessions count as valid records. A zero field
// disables that bound.
type RecordCriteria struct {
	MaxSets    int
	MaxRestSec int
}

// DefaultRecordCriteria is four sets at most with no more than two minutes of rest.
var DefaultRecordCriteria = RecordCriteria{MaxSets: 4, MaxRestSec: 120}

// Eligible reports whether a session satisfies the criteria.
func (c RecordCriteria) Eligible(s models.SessionRow) bool {
	if c.MaxSets > 0 && s.Sets > c.MaxSets {
		return false
	}
	if c.MaxRestSec > 0 && s.RestTime > c.MaxRestSec {
		return false
	}
	return true
}

// FilterRecords returns the sessions that satisfy c, preserving order.
func FilterRecords(sessions []models.SessionRow, c RecordCriteria) []models.SessionRow {
	out := make([]models.SessionRow, 0, len(sessions))
	for _, s := range sessions {
		if c.Eligible(s) {
			out = append(out, s)
		}
	}
	return out
}
