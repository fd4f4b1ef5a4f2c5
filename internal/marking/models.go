package marking

// Submission is a scoreable control paper tied to an assignment. FileRef is
// an opaque reference to externally stored artefacts; upload itself is
// handled elsewhere.
type Submission struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	PaperIdent   string `json:"paper_ident"`
	FileRef      string `json:"file_ref,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

// Mark is one marker's integer score for a (submission, criterion) pair.
// At most one row exists per (submission, criterion, marker); re-submission
// overwrites.
type Mark struct {
	ID           string `json:"id"`
	SubmissionID string `json:"submission_id"`
	CriterionID  string `json:"criterion_id"`
	MarkerID     string `json:"marker_id"`
	Score        int    `json:"score"`
	Comment      string `json:"comment,omitempty"`
	UpdatedAt    int64  `json:"updated_at"`
}

// ControlMark is the official score for a (submission, criterion) pair,
// recorded outside the tutor marking workflow.
type ControlMark struct {
	ID           string `json:"id"`
	SubmissionID string `json:"submission_id"`
	CriterionID  string `json:"criterion_id"`
	Score        int    `json:"score"`
	Comment      string `json:"comment,omitempty"`
	UpdatedAt    int64  `json:"updated_at"`
}
