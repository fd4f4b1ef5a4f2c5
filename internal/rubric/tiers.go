package rubric

import (
	"math"

	"github.com/modmark-app/modmark/internal/apperr"
)

// Grade labels, highest band first.
const (
	GradeHighDistinction = "High Distinction"
	GradeDistinction     = "Distinction"
	GradeCredit          = "Credit"
	GradePass            = "Pass"
	GradeFail            = "Fail"
)

// breakpoint is a tier's lower bound as a fraction of total points.
// MinTotalPoints is the smallest criterion worth the five bands can split:
// below it the half-mark gaps between bands collide and the bounds invert.
const MinTotalPoints = 5

var breakpoints = []struct {
	Grade    string
	Fraction float64
}{
	{GradeHighDistinction, 0.85},
	{GradeDistinction, 0.75},
	{GradeCredit, 0.65},
	{GradePass, 0.50},
	{GradeFail, 0},
}

// GenerateTiers produces the five standard bands for a criterion worth
// totalPoints. Lower bounds are the breakpoint fractions rounded to the
// nearest half mark; each band's upper bound sits half a mark under the band
// above, and the top band runs to totalPoints.
func GenerateTiers(totalPoints float64) ([]Tier, error) {
	if totalPoints < MinTotalPoints {
		return nil, apperr.Validation("max_marks must be at least %v, got %v", float64(MinTotalPoints), totalPoints)
	}
	tiers := make([]Tier, len(breakpoints))
	upper := totalPoints
	for i, bp := range breakpoints {
		lower := roundHalf(totalPoints * bp.Fraction)
		if bp.Fraction == 0 {
			lower = 0
		}
		tiers[i] = Tier{Grade: bp.Grade, LowerBound: lower, UpperBound: upper}
		upper = lower - 0.5
	}
	return tiers, nil
}

// RegenerateTiers rebuilds bands for a resized criterion, carrying tier
// descriptions over by grade label so resizing does not discard authored text.
func RegenerateTiers(old []Tier, totalPoints float64) ([]Tier, error) {
	tiers, err := GenerateTiers(totalPoints)
	if err != nil {
		return nil, err
	}
	byGrade := make(map[string]string, len(old))
	for _, t := range old {
		byGrade[t.Grade] = t.Description
	}
	for i := range tiers {
		tiers[i].Description = byGrade[tiers[i].Grade]
	}
	return tiers, nil
}

// TierFor returns the band containing score, if any.
func TierFor(tiers []Tier, score float64) (Tier, bool) {
	for _, t := range tiers {
		if score >= t.LowerBound && score <= t.UpperBound {
			return t, true
		}
	}
	return Tier{}, false
}

// roundHalf rounds to the nearest 0.5, halves away from zero.
func roundHalf(x float64) float64 {
	return math.Round(x*2) / 2
}
