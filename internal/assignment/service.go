package assignment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/moderation"
	"github.com/modmark-app/modmark/internal/report"
	"github.com/modmark-app/modmark/internal/rubric"
	"github.com/modmark-app/modmark/internal/team"
)

// CriterionInput is the authoring shape for one rubric row. Tiers are always
// derived, never supplied.
type CriterionInput struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	MaxMarks     float64 `json:"max_marks" validate:"gte=5"`
	DeviationPct float64 `json:"deviation_pct" validate:"gte=0,lte=100"`
}

type Service struct {
	store Store
	teams team.Store
	marks marking.Store
	now   func() time.Time
}

func NewService(store Store, teams team.Store, marks marking.Store) *Service {
	return &Service{store: store, teams: teams, marks: marks, now: time.Now}
}

// Create authors an assignment with its rubric. Criteria tiers are generated
// from max_marks; the whole write is one transaction in the SQL store.
func (s *Service) Create(ctx context.Context, teamID, createdBy, name string, dueDate *int64, inputs []CriterionInput) (Assignment, error) {
	if strings.TrimSpace(name) == "" {
		return Assignment{}, apperr.Validation("assignment name required")
	}
	if len(inputs) == 0 {
		return Assignment{}, apperr.Validation("at least one rubric criterion required")
	}
	a := Assignment{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		CreatedBy: createdBy,
		Name:      strings.TrimSpace(name),
		DueDate:   dueDate,
		CreatedAt: s.now().Unix(),
	}
	criteria := make([]rubric.Criterion, 0, len(inputs))
	for i, in := range inputs {
		tiers, err := rubric.GenerateTiers(in.MaxMarks)
		if err != nil {
			return Assignment{}, err
		}
		c := rubric.Criterion{
			ID:           uuid.NewString(),
			AssignmentID: a.ID,
			Name:         in.Name,
			Description:  in.Description,
			MaxMarks:     in.MaxMarks,
			DeviationPct: in.DeviationPct,
			Position:     i,
		}
		for t := range tiers {
			tiers[t].ID = uuid.NewString()
			tiers[t].CriterionID = c.ID
		}
		c.Tiers = tiers
		criteria = append(criteria, c)
	}
	if err := s.store.CreateAssignment(ctx, a, criteria); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// UpdateCriterion edits a rubric row. A max_marks change regenerates the
// bands wholesale, carrying descriptions over by grade label.
func (s *Service) UpdateCriterion(ctx context.Context, criterionID string, in CriterionInput) (rubric.Criterion, error) {
	c, err := s.store.GetCriterion(ctx, criterionID)
	if err != nil {
		return rubric.Criterion{}, err
	}
	if in.MaxMarks != c.MaxMarks {
		tiers, err := rubric.RegenerateTiers(c.Tiers, in.MaxMarks)
		if err != nil {
			return rubric.Criterion{}, err
		}
		for t := range tiers {
			tiers[t].ID = uuid.NewString()
			tiers[t].CriterionID = c.ID
		}
		c.Tiers = tiers
	}
	c.Name = in.Name
	c.Description = in.Description
	c.MaxMarks = in.MaxMarks
	c.DeviationPct = in.DeviationPct
	if err := s.store.ReplaceCriterion(ctx, c); err != nil {
		return rubric.Criterion{}, err
	}
	return c, nil
}

// Details assembles the assignment page payload.
func (s *Service) Details(ctx context.Context, assignmentID string) (Details, error) {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Details{}, err
	}
	criteria, err := s.store.ListCriteria(ctx, a.ID)
	if err != nil {
		return Details{}, err
	}
	markers, err := s.teams.ListMembers(ctx, a.TeamID)
	if err != nil {
		return Details{}, err
	}
	subs, err := s.marks.ListSubmissions(ctx, a.ID)
	if err != nil {
		return Details{}, err
	}
	marks, err := s.marks.ListMarksByAssignment(ctx, a.ID)
	if err != nil {
		return Details{}, err
	}
	controls, err := s.marks.ListControlMarks(ctx, a.ID)
	if err != nil {
		return Details{}, err
	}
	return Details{
		Assignment:   a,
		Criteria:     criteria,
		Markers:      markers,
		Submissions:  subs,
		Marks:        marks,
		ControlMarks: controls,
	}, nil
}

// CompareSubmission runs the deviation comparison for one control paper.
// The submission must belong to assignmentID, which callers have already
// authorized against; an empty standardMarkerID falls back to the
// assignment creator.
func (s *Service) CompareSubmission(ctx context.Context, assignmentID, submissionID, standardMarkerID string) ([]moderation.CriterionComparison, error) {
	sub, err := s.marks.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.AssignmentID != assignmentID {
		return nil, apperr.NotFound("submission not found in assignment")
	}
	a, err := s.store.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	if standardMarkerID == "" {
		standardMarkerID = a.CreatedBy
	}
	criteria, err := s.store.ListCriteria(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	marks, err := s.marks.ListMarksBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	return moderation.Compare(criteria, marks, standardMarkerID), nil
}

// Report aggregates assignment-level stats. The standard marker is the
// assignment creator.
func (s *Service) Report(ctx context.Context, assignmentID string) (report.Stats, error) {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return report.Stats{}, err
	}
	criteria, err := s.store.ListCriteria(ctx, a.ID)
	if err != nil {
		return report.Stats{}, err
	}
	subs, err := s.marks.ListSubmissions(ctx, a.ID)
	if err != nil {
		return report.Stats{}, err
	}
	marks, err := s.marks.ListMarksByAssignment(ctx, a.ID)
	if err != nil {
		return report.Stats{}, err
	}
	members, err := s.teams.ListMembers(ctx, a.TeamID)
	if err != nil {
		return report.Stats{}, err
	}
	markerIDs := make([]string, 0, len(members))
	for _, m := range members {
		markerIDs = append(markerIDs, m.UserID)
	}
	return report.Aggregate(criteria, subs, marks, markerIDs, a.CreatedBy), nil
}
