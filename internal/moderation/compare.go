// Package moderation compares tutors' control paper scores against the
// standard marker's and classifies the deviation per criterion. It is a pure
// derivation over persisted marks; nothing here writes.
package moderation

import (
	"math"
	"sort"

	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/rubric"
)

type Classification string

const (
	ClassWithin       Classification = "within"
	ClassAtThreshold  Classification = "at_threshold"
	ClassOutside      Classification = "outside"
	ClassUndetermined Classification = "undetermined"
)

type MarkerScore struct {
	MarkerID       string         `json:"marker_id"`
	Score          int            `json:"score"`
	Deviation      float64        `json:"deviation"`
	Classification Classification `json:"classification"`
}

type CriterionComparison struct {
	CriterionID   string        `json:"criterion_id"`
	StandardScore *int          `json:"standard_score,omitempty"`
	Threshold     float64       `json:"threshold"`
	MarkerScores  []MarkerScore `json:"marker_scores"`
}

// Classify places one marker's score relative to the standard score given an
// absolute threshold in marks. A missing standard score is undetermined and
// must render distinctly from the three deviation classes.
func Classify(standard *int, score int, threshold float64) (Classification, float64) {
	if standard == nil {
		return ClassUndetermined, 0
	}
	d := math.Abs(float64(score - *standard))
	switch {
	case d < threshold:
		return ClassWithin, d
	case d == threshold:
		return ClassAtThreshold, d
	default:
		return ClassOutside, d
	}
}

// Compare classifies every non-standard marker's score on every criterion of
// one submission relative to the designated standard marker.
func Compare(criteria []rubric.Criterion, marks []marking.Mark, standardMarkerID string) []CriterionComparison {
	byCriterion := map[string][]marking.Mark{}
	for _, m := range marks {
		byCriterion[m.CriterionID] = append(byCriterion[m.CriterionID], m)
	}

	out := make([]CriterionComparison, 0, len(criteria))
	for _, crit := range criteria {
		cc := CriterionComparison{
			CriterionID:  crit.ID,
			Threshold:    crit.AbsoluteThreshold(),
			MarkerScores: []MarkerScore{},
		}
		var standard *int
		for _, m := range byCriterion[crit.ID] {
			if m.MarkerID == standardMarkerID {
				score := m.Score
				standard = &score
				break
			}
		}
		cc.StandardScore = standard
		for _, m := range byCriterion[crit.ID] {
			if m.MarkerID == standardMarkerID {
				continue
			}
			class, dev := Classify(standard, m.Score, cc.Threshold)
			cc.MarkerScores = append(cc.MarkerScores, MarkerScore{
				MarkerID:       m.MarkerID,
				Score:          m.Score,
				Deviation:      dev,
				Classification: class,
			})
		}
		sort.Slice(cc.MarkerScores, func(i, j int) bool {
			return cc.MarkerScores[i].MarkerID < cc.MarkerScores[j].MarkerID
		})
		out = append(out, cc)
	}
	return out
}
