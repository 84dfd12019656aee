// Package load computes the per-session training load used for ranking and progress.
package load

import "math"

// Exercise types.
const (
	TypeWeight     = "weight"
	TypeBodyweight = "bodyweight"
)

// Stimulus weights for partial repetitions, relative to one complete rep.
const (
	FailedRepWeight   = 0.6
	NegativeRepWeight = 0.7
)

// Exercise is the part of an exercise definition the calculator needs.
// BodyweightPercentage is only meaningful for TypeBodyweight.
type Exercise struct {
	Type                 string
	BodyweightPercentage *float64
}

// SessionInput is the raw form input of one logged session.
type SessionInput struct {
	CompleteReps int     `json:"complete_reps"`
	NegativeReps int     `json:"negative_reps"`
	FailedReps   int     `json:"failed_reps"`
	Sets         int     `json:"sets"`
	Weight       float64 `json:"weight"`
	RestTime     int     `json:"rest_time"`
}

// SessionResult is a clamped SessionInput with its derived total load.
type SessionResult struct {
	SessionInput
	TotalLoad float64 `json:"total_load"`
}

// EffectiveWeight returns the load attributed to a single repetition.
// Bodyweight exercises scale the weight by their percentage; a missing
// percentage contributes nothing.
func EffectiveWeight(ex Exercise, weight float64) float64 {
	weight = nonNegative(weight)
	if ex.Type == TypeBodyweight {
		var pct float64
		if ex.BodyweightPercentage != nil {
			pct = nonNegative(*ex.BodyweightPercentage)
		}
		return weight * (pct / 100)
	}
	return weight
}

// EffectiveReps blends complete, failed and negative repetitions into one score.
func EffectiveReps(in SessionInput) float64 {
	full := float64(max(0, in.CompleteReps))
	failed := float64(max(0, in.FailedReps)) * FailedRepWeight
	negative := float64(max(0, in.NegativeReps)) * NegativeRepWeight
	return full + failed + negative
}

// TotalLoad returns effective weight × effective reps × sets, rounded to 2 decimals.
// A session always counts as at least one set. A product that overflows
// float64 counts as zero.
func TotalLoad(ex Exercise, in SessionInput) float64 {
	sets := max(1, in.Sets)
	return nonNegative(Round2(EffectiveWeight(ex, in.Weight) * EffectiveReps(in) * float64(sets)))
}

// Compute clamps every field of in and returns it together with its total load.
func Compute(ex Exercise, in SessionInput) SessionResult {
	clamped := SessionInput{
		CompleteReps: max(0, in.CompleteReps),
		NegativeReps: max(0, in.NegativeReps),
		FailedReps:   max(0, in.FailedReps),
		Sets:         max(1, in.Sets),
		Weight:       nonNegative(in.Weight),
		RestTime:     max(0, in.RestTime),
	}
	return SessionResult{SessionInput: clamped, TotalLoad: TotalLoad(ex, clamped)}
}

// Round2 rounds half-up to 2 decimals.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// Round1 rounds half-up to 1 decimal.
func Round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

// nonNegative maps NaN, infinities and negatives to zero.
func nonNegative(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}
