package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTiersTwentyPoints(t *testing.T) {
	tiers, err := GenerateTiers(20)
	if err != nil {
		t.Fatal(err)
	}

	want := []Tier{
		{Grade: GradeHighDistinction, LowerBound: 17, UpperBound: 20},
		{Grade: GradeDistinction, LowerBound: 15, UpperBound: 16.5},
		{Grade: GradeCredit, LowerBound: 13, UpperBound: 14.5},
		{Grade: GradePass, LowerBound: 10, UpperBound: 12.5},
		{Grade: GradeFail, LowerBound: 0, UpperBound: 9.5},
	}
	assert.Equal(t, want, tiers)
}

// The five bands must cover [0, total] contiguously with no overlap.
func TestGenerateTiersPartition(t *testing.T) {
	totals := []float64{5, 7.5, 10, 13, 20, 25, 33, 50, 100}
	for _, total := range totals {
		tiers, err := GenerateTiers(total)
		if err != nil {
			t.Fatalf("total=%v: %v", total, err)
		}
		if len(tiers) != 5 {
			t.Fatalf("total=%v: want 5 tiers, got %d", total, len(tiers))
		}
		if tiers[0].UpperBound != total {
			t.Errorf("total=%v: top band must reach total, got %v", total, tiers[0].UpperBound)
		}
		if tiers[len(tiers)-1].LowerBound != 0 {
			t.Errorf("total=%v: bottom band must start at 0, got %v", total, tiers[len(tiers)-1].LowerBound)
		}
		for i, tr := range tiers {
			if tr.LowerBound > tr.UpperBound {
				t.Errorf("total=%v: band %s inverted: [%v, %v]", total, tr.Grade, tr.LowerBound, tr.UpperBound)
			}
			if i > 0 && tiers[i-1].LowerBound-tr.UpperBound != 0.5 {
				t.Errorf("total=%v: gap between %s and %s: %v then %v",
					total, tiers[i-1].Grade, tr.Grade, tiers[i-1].LowerBound, tr.UpperBound)
			}
		}
	}
}

// Totals below MinTotalPoints cannot fit five half-mark-separated bands:
// a total of 4 collapses Distinction through Pass to zero-width, and a
// total of 3 inverts them outright. Such criteria are rejected up front.
func TestGenerateTiersRejectsTooSmall(t *testing.T) {
	for _, total := range []float64{-1, 0, 1, 4, 4.5} {
		if _, err := GenerateTiers(total); err == nil {
			t.Errorf("total=%v: want error", total)
		}
	}
	if _, err := GenerateTiers(MinTotalPoints); err != nil {
		t.Errorf("total=%v: want success, got %v", float64(MinTotalPoints), err)
	}
}

func TestRegenerateTiersKeepsDescriptions(t *testing.T) {
	old, err := GenerateTiers(20)
	if err != nil {
		t.Fatal(err)
	}
	old[1].Description = "sustained argument with minor lapses"

	regen, err := RegenerateTiers(old, 30)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "sustained argument with minor lapses", regen[1].Description)
	assert.Equal(t, 22.5, regen[1].LowerBound)
}

func TestTierFor(t *testing.T) {
	tiers, _ := GenerateTiers(20)
	tr, ok := TierFor(tiers, 15)
	if !ok || tr.Grade != GradeDistinction {
		t.Fatalf("score 15: want Distinction, got %v ok=%v", tr.Grade, ok)
	}
	if _, ok := TierFor(tiers, 21); ok {
		t.Fatal("score beyond total must not match a band")
	}
}
