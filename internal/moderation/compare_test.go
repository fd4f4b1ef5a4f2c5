package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/rubric"
)

func TestClassify(t *testing.T) {
	std := 14
	cases := []struct {
		name      string
		standard  *int
		score     int
		threshold float64
		want      Classification
	}{
		{"inside band", &std, 15, 2, ClassWithin},
		{"exact match", &std, 14, 2, ClassWithin},
		{"on the line", &std, 16, 2, ClassAtThreshold},
		{"on the line below", &std, 12, 2, ClassAtThreshold},
		{"beyond", &std, 17, 2, ClassOutside},
		{"zero threshold still classifies equal as at_threshold", &std, 14, 0, ClassAtThreshold},
		{"no standard score", nil, 10, 2, ClassUndetermined},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := Classify(tc.standard, tc.score, tc.threshold)
			assert.Equal(t, tc.want, got)
		})
	}
}

// Every (standard, score, threshold) triple lands in exactly one class, and
// undetermined appears iff the standard score is absent.
func TestClassifyTotality(t *testing.T) {
	for _, hasStandard := range []bool{true, false} {
		for std := 0; std <= 10; std++ {
			for score := 0; score <= 10; score++ {
				for _, threshold := range []float64{0, 0.5, 1, 2.5, 10} {
					var sp *int
					if hasStandard {
						s := std
						sp = &s
					}
					got, _ := Classify(sp, score, threshold)
					switch got {
					case ClassWithin, ClassAtThreshold, ClassOutside:
						if !hasStandard {
							t.Fatalf("classified %v without a standard score", got)
						}
					case ClassUndetermined:
						if hasStandard {
							t.Fatalf("undetermined despite standard score %d", std)
						}
					default:
						t.Fatalf("unknown classification %q", got)
					}
				}
			}
		}
	}
}

func TestCompare(t *testing.T) {
	criteria := []rubric.Criterion{
		{ID: "r-structure", AssignmentID: "a-1", MaxMarks: 20, DeviationPct: 10}, // threshold 2 marks
		{ID: "r-style", AssignmentID: "a-1", MaxMarks: 10, DeviationPct: 10},     // threshold 1 mark
	}
	marks := []marking.Mark{
		{SubmissionID: "s-1", CriterionID: "r-structure", MarkerID: "u-std", Score: 14},
		{SubmissionID: "s-1", CriterionID: "r-structure", MarkerID: "u-b", Score: 15},
		{SubmissionID: "s-1", CriterionID: "r-structure", MarkerID: "u-c", Score: 18},
		// nobody scored r-style but a tutor
		{SubmissionID: "s-1", CriterionID: "r-style", MarkerID: "u-b", Score: 7},
	}

	out := Compare(criteria, marks, "u-std")
	if len(out) != 2 {
		t.Fatalf("want 2 criterion comparisons, got %d", len(out))
	}

	structure := out[0]
	assert.Equal(t, 2.0, structure.Threshold)
	if assert.NotNil(t, structure.StandardScore) {
		assert.Equal(t, 14, *structure.StandardScore)
	}
	assert.Equal(t, []MarkerScore{
		{MarkerID: "u-b", Score: 15, Deviation: 1, Classification: ClassWithin},
		{MarkerID: "u-c", Score: 18, Deviation: 4, Classification: ClassOutside},
	}, structure.MarkerScores)

	style := out[1]
	assert.Nil(t, style.StandardScore)
	assert.Equal(t, ClassUndetermined, style.MarkerScores[0].Classification)
}

func TestCompareExcludesStandardFromMarkerScores(t *testing.T) {
	criteria := []rubric.Criterion{{ID: "r-1", MaxMarks: 20, DeviationPct: 10}}
	marks := []marking.Mark{
		{CriterionID: "r-1", MarkerID: "u-std", Score: 10},
	}
	out := Compare(criteria, marks, "u-std")
	assert.Empty(t, out[0].MarkerScores)
}
