package marking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/rubric"
)

type fakeCriteria map[string]rubric.Criterion

func (f fakeCriteria) GetCriterion(_ context.Context, id string) (rubric.Criterion, error) {
	c, ok := f[id]
	if !ok {
		return rubric.Criterion{}, apperr.NotFound("criterion not found")
	}
	return c, nil
}

func newTestService(t *testing.T) (*Service, Store) {
	t.Helper()
	store := NewInMemoryStore()
	criteria := fakeCriteria{
		"r-structure": {ID: "r-structure", AssignmentID: "a-1", Name: "Structure", MaxMarks: 20, DeviationPct: 10},
		"r-other":     {ID: "r-other", AssignmentID: "a-2", Name: "Other", MaxMarks: 10, DeviationPct: 10},
	}
	svc := NewService(store, criteria)
	if err := store.CreateSubmission(context.Background(), Submission{ID: "s-1", AssignmentID: "a-1", PaperIdent: "z5551234"}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateSubmission(context.Background(), Submission{ID: "s-foreign", AssignmentID: "a-2", PaperIdent: "z5559999"}); err != nil {
		t.Fatal(err)
	}
	return svc, store
}

func TestSubmitMark(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	m, err := svc.SubmitMark(ctx, "a-1", "s-1", "r-structure", "u-tutor", 15, "solid")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 15, m.Score)
	assert.Equal(t, "u-tutor", m.MarkerID)
}

func TestSubmitMarkResubmissionOverwrites(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	first, err := svc.SubmitMark(ctx, "a-1", "s-1", "r-structure", "u-tutor", 12, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.SubmitMark(ctx, "a-1", "s-1", "r-structure", "u-tutor", 17, "revised")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, first.ID, second.ID, "upsert must keep a single row")

	marks, err := store.ListMarksBySubmission(ctx, "s-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(marks) != 1 {
		t.Fatalf("want exactly one mark, got %d", len(marks))
	}
	assert.Equal(t, 17, marks[0].Score)
	assert.Equal(t, "revised", marks[0].Comment)
}

func TestSubmitMarkValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cases := []struct {
		name                    string
		assignID, subID, critID string
		score                   int
		wantKind                apperr.Kind
	}{
		{"score above max", "a-1", "s-1", "r-structure", 21, apperr.KindValidation},
		{"negative score", "a-1", "s-1", "r-structure", -1, apperr.KindValidation},
		{"unknown submission", "a-1", "s-404", "r-structure", 10, apperr.KindNotFound},
		{"unknown criterion", "a-1", "s-1", "r-404", 10, apperr.KindNotFound},
		{"cross-assignment criterion", "a-1", "s-1", "r-other", 5, apperr.KindNotFound},
		{"submission from another assignment", "a-1", "s-foreign", "r-other", 5, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitMark(ctx, tc.assignID, tc.subID, tc.critID, "u-tutor", tc.score, "")
			if apperr.KindOf(err) != tc.wantKind {
				t.Fatalf("want kind %v, got %v", tc.wantKind, err)
			}
		})
	}
}

func TestSubmitMarkForeignSubmissionLeavesNoRow(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	// a valid criterion/submission pair in a-2, reached through a-1
	_, err := svc.SubmitMark(ctx, "a-1", "s-foreign", "r-other", "u-tutor", 5, "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	marks, err := store.ListMarksBySubmission(ctx, "s-foreign")
	if err != nil {
		t.Fatal(err)
	}
	assert.Empty(t, marks)
}

func TestSetControlMarkUpserts(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	if _, err := svc.SetControlMark(ctx, "a-1", "s-1", "r-structure", 14, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetControlMark(ctx, "a-1", "s-1", "r-structure", 16, "moderated"); err != nil {
		t.Fatal(err)
	}
	cms, err := store.ListControlMarks(ctx, "a-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cms) != 1 {
		t.Fatalf("want one control mark, got %d", len(cms))
	}
	assert.Equal(t, 16, cms[0].Score)
}

func TestSetControlMarkForeignSubmission(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SetControlMark(ctx, "a-1", "s-foreign", "r-other", 5, "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
