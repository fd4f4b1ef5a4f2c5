package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/rubric"
)

var criteria = []rubric.Criterion{
	{ID: "r-structure", AssignmentID: "a-1", MaxMarks: 20, DeviationPct: 10}, // threshold 2
	{ID: "r-style", AssignmentID: "a-1", MaxMarks: 10, DeviationPct: 10},     // threshold 1
}

func TestAggregateZeroState(t *testing.T) {
	got := Aggregate(criteria, nil, nil, nil, "u-std")
	assert.Equal(t, Stats{}, got)
}

func TestAggregateNoMarksYet(t *testing.T) {
	subs := []marking.Submission{{ID: "s-1", AssignmentID: "a-1"}}
	got := Aggregate(criteria, subs, nil, []string{"u-std", "u-b"}, "u-std")
	assert.Equal(t, Stats{TotalSubmissions: 1, OpenFlags: 2}, got)
}

func TestAggregate(t *testing.T) {
	subs := []marking.Submission{{ID: "s-1", AssignmentID: "a-1"}}
	marks := []marking.Mark{
		{SubmissionID: "s-1", CriterionID: "r-structure", MarkerID: "u-std", Score: 14},
		{SubmissionID: "s-1", CriterionID: "r-style", MarkerID: "u-std", Score: 8},
		{SubmissionID: "s-1", CriterionID: "r-structure", MarkerID: "u-b", Score: 15}, // within (dev 1 < 2)
		{SubmissionID: "s-1", CriterionID: "r-style", MarkerID: "u-b", Score: 5},      // outside (dev 3 > 1)
	}
	got := Aggregate(criteria, subs, marks, []string{"u-std", "u-b", "u-c"}, "u-std")

	// mean score (14+8+15+5)/4 = 10.5 of 30 total -> 35.0%
	assert.Equal(t, Stats{
		TotalSubmissions: 1,
		AverageScorePct:  35.0,
		WithinDeviation:  1,
		OutsideDeviation: 1,
		OpenFlags:        1, // u-c has not marked anything
	}, got)
}

func TestAggregateAtThresholdCountsNeither(t *testing.T) {
	subs := []marking.Submission{{ID: "s-1", AssignmentID: "a-1"}}
	marks := []marking.Mark{
		{SubmissionID: "s-1", CriterionID: "r-structure", MarkerID: "u-std", Score: 14},
		{SubmissionID: "s-1", CriterionID: "r-structure", MarkerID: "u-b", Score: 16}, // dev 2 == threshold
	}
	got := Aggregate(criteria, subs, marks, []string{"u-std", "u-b"}, "u-std")
	assert.Zero(t, got.WithinDeviation)
	assert.Zero(t, got.OutsideDeviation)
}
