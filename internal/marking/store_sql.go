package marking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/modmark-app/modmark/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateSubmission(ctx context.Context, sub Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, assignment_id, paper_ident, file_ref, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		sub.ID, sub.AssignmentID, sub.PaperIdent, sub.FileRef, sub.CreatedAt)
	return err
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	var sub Submission
	err := s.db.QueryRowContext(ctx, `
		SELECT id, assignment_id, paper_ident, file_ref, created_at
		  FROM submissions WHERE id=$1`, id).
		Scan(&sub.ID, &sub.AssignmentID, &sub.PaperIdent, &sub.FileRef, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, apperr.NotFound("submission not found")
	}
	return sub, err
}

func (s *SQLStore) ListSubmissions(ctx context.Context, assignmentID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assignment_id, paper_ident, file_ref, created_at
		  FROM submissions WHERE assignment_id=$1 ORDER BY created_at`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Submission{}
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.AssignmentID, &sub.PaperIdent, &sub.FileRef, &sub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertMark(ctx context.Context, m Mark) (Mark, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO marks (id, submission_id, rubric_id, marker_id, score, comment, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (submission_id, rubric_id, marker_id)
		DO UPDATE SET score=EXCLUDED.score, comment=EXCLUDED.comment, updated_at=EXCLUDED.updated_at`,
		m.ID, m.SubmissionID, m.CriterionID, m.MarkerID, m.Score, m.Comment, m.UpdatedAt)
	if err != nil {
		return Mark{}, err
	}
	// report the surviving row's id, which the upsert may have kept
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM marks WHERE submission_id=$1 AND rubric_id=$2 AND marker_id=$3`,
		m.SubmissionID, m.CriterionID, m.MarkerID).Scan(&m.ID)
	return m, err
}

func (s *SQLStore) ListMarksBySubmission(ctx context.Context, submissionID string) ([]Mark, error) {
	return s.listMarks(ctx, `
		SELECT id, submission_id, rubric_id, marker_id, score, comment, updated_at
		  FROM marks WHERE submission_id=$1 ORDER BY updated_at`, submissionID)
}

func (s *SQLStore) ListMarksByAssignment(ctx context.Context, assignmentID string) ([]Mark, error) {
	return s.listMarks(ctx, `
		SELECT m.id, m.submission_id, m.rubric_id, m.marker_id, m.score, m.comment, m.updated_at
		  FROM marks m
		  JOIN submissions s ON s.id = m.submission_id
		 WHERE s.assignment_id=$1 ORDER BY m.updated_at`, assignmentID)
}

func (s *SQLStore) listMarks(ctx context.Context, query, arg string) ([]Mark, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Mark{}
	for rows.Next() {
		var m Mark
		if err := rows.Scan(&m.ID, &m.SubmissionID, &m.CriterionID, &m.MarkerID, &m.Score, &m.Comment, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetControlMark(ctx context.Context, cm ControlMark) (ControlMark, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO control_marks (id, submission_id, rubric_id, score, comment, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (submission_id, rubric_id)
		DO UPDATE SET score=EXCLUDED.score, comment=EXCLUDED.comment, updated_at=EXCLUDED.updated_at`,
		cm.ID, cm.SubmissionID, cm.CriterionID, cm.Score, cm.Comment, cm.UpdatedAt)
	if err != nil {
		return ControlMark{}, err
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM control_marks WHERE submission_id=$1 AND rubric_id=$2`,
		cm.SubmissionID, cm.CriterionID).Scan(&cm.ID)
	return cm, err
}

func (s *SQLStore) ListControlMarks(ctx context.Context, assignmentID string) ([]ControlMark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.submission_id, c.rubric_id, c.score, c.comment, c.updated_at
		  FROM control_marks c
		  JOIN submissions s ON s.id = c.submission_id
		 WHERE s.assignment_id=$1 ORDER BY c.updated_at`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ControlMark{}
	for rows.Next() {
		var cm ControlMark
		if err := rows.Scan(&cm.ID, &cm.SubmissionID, &cm.CriterionID, &cm.Score, &cm.Comment, &cm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}
