package marking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/rubric"
)

// CriterionGetter resolves a rubric criterion by id. Satisfied by the
// assignment store.
type CriterionGetter interface {
	GetCriterion(ctx context.Context, id string) (rubric.Criterion, error)
}

type Service struct {
	store    Store
	criteria CriterionGetter
	now      func() time.Time
}

func NewService(store Store, criteria CriterionGetter) *Service {
	return &Service{store: store, criteria: criteria, now: time.Now}
}

// SubmitMark validates and persists one marker's score for a control paper
// criterion. The submission must belong to assignmentID — callers authorize
// against the assignment, so a submission from another assignment (and hence
// possibly another team) is not found here. Re-submission by the same marker
// overwrites the earlier score.
func (s *Service) SubmitMark(ctx context.Context, assignmentID, submissionID, criterionID, markerID string, score int, comment string) (Mark, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Mark{}, err
	}
	if sub.AssignmentID != assignmentID {
		return Mark{}, apperr.NotFound("submission not found in assignment")
	}
	crit, err := s.criteria.GetCriterion(ctx, criterionID)
	if err != nil {
		return Mark{}, err
	}
	if crit.AssignmentID != sub.AssignmentID {
		return Mark{}, apperr.NotFound("criterion does not belong to the submission's assignment")
	}
	if score < 0 || float64(score) > crit.MaxMarks {
		return Mark{}, apperr.Validation("score %d out of range [0, %v]", score, crit.MaxMarks)
	}
	return s.store.UpsertMark(ctx, Mark{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		CriterionID:  criterionID,
		MarkerID:     markerID,
		Score:        score,
		Comment:      comment,
		UpdatedAt:    s.now().Unix(),
	})
}

// SetControlMark records the official score for a submission criterion. The
// same assignment scoping as SubmitMark applies.
func (s *Service) SetControlMark(ctx context.Context, assignmentID, submissionID, criterionID string, score int, comment string) (ControlMark, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return ControlMark{}, err
	}
	if sub.AssignmentID != assignmentID {
		return ControlMark{}, apperr.NotFound("submission not found in assignment")
	}
	crit, err := s.criteria.GetCriterion(ctx, criterionID)
	if err != nil {
		return ControlMark{}, err
	}
	if crit.AssignmentID != sub.AssignmentID {
		return ControlMark{}, apperr.NotFound("criterion does not belong to the submission's assignment")
	}
	if score < 0 || float64(score) > crit.MaxMarks {
		return ControlMark{}, apperr.Validation("score %d out of range [0, %v]", score, crit.MaxMarks)
	}
	return s.store.SetControlMark(ctx, ControlMark{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		CriterionID:  criterionID,
		Score:        score,
		Comment:      comment,
		UpdatedAt:    s.now().Unix(),
	})
}
