package assignment

import (
	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/rubric"
	"github.com/modmark-app/modmark/internal/team"
)

type Assignment struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	CreatedBy string `json:"created_by"`
	Name      string `json:"name"`
	DueDate   *int64 `json:"due_date,omitempty"` // unix seconds
	CreatedAt int64  `json:"created_at"`
}

// Details is everything the assignment page needs: the assignment, its
// rubric, the team's markers and the control paper marks recorded so far.
type Details struct {
	Assignment   Assignment            `json:"assignment"`
	Criteria     []rubric.Criterion    `json:"criteria"`
	Markers      []team.Membership     `json:"markers"`
	Submissions  []marking.Submission  `json:"submissions"`
	Marks        []marking.Mark        `json:"marks"`
	ControlMarks []marking.ControlMark `json:"control_marks"`
}
