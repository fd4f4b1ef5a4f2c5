package rubric

// Criterion is one weighted row of an assignment's rubric (the "rubrics"
// table). DeviationPct is the tolerated tutor-vs-standard difference as a
// percentage of MaxMarks; it is converted to an absolute mark value at
// comparison time.
type Criterion struct {
	ID           string  `json:"id"`
	AssignmentID string  `json:"assignment_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	MaxMarks     float64 `json:"max_marks"`
	DeviationPct float64 `json:"deviation_pct"`
	Position     int     `json:"position"`
	Tiers        []Tier  `json:"tiers,omitempty"`
}

// Tier is a named mark band within a criterion, e.g. Distinction 15–16.5 of 20.
type Tier struct {
	ID          string  `json:"id"`
	CriterionID string  `json:"criterion_id"`
	Grade       string  `json:"grade"`
	Description string  `json:"description,omitempty"`
	LowerBound  float64 `json:"lower_bound"`
	UpperBound  float64 `json:"upper_bound"`
}

// AbsoluteThreshold converts the criterion's percentage threshold into marks.
func (c Criterion) AbsoluteThreshold() float64 {
	return c.DeviationPct / 100 * c.MaxMarks
}
