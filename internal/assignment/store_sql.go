package assignment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/rubric"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateAssignment(ctx context.Context, a Assignment, criteria []rubric.Criterion) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assignments (id, team_id, created_by, name, due_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.TeamID, a.CreatedBy, a.Name, a.DueDate, a.CreatedAt)
	if err != nil {
		return err
	}
	for _, c := range criteria {
		if err = insertCriterion(ctx, tx, c); err != nil {
			return err
		}
	}
	return nil
}

func insertCriterion(ctx context.Context, tx *sql.Tx, c rubric.Criterion) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO rubrics (id, assignment_id, name, description, max_marks, deviation_pct, position)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.AssignmentID, c.Name, c.Description, c.MaxMarks, c.DeviationPct, c.Position)
	if err != nil {
		return err
	}
	for _, t := range c.Tiers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rubric_tiers (id, rubric_id, grade, description, lower_bound, upper_bound)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			t.ID, c.ID, t.Grade, t.Description, t.LowerBound, t.UpperBound)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	var a Assignment
	var due sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, created_by, name, due_date, created_at
		  FROM assignments WHERE id=$1`, id).
		Scan(&a.ID, &a.TeamID, &a.CreatedBy, &a.Name, &due, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, apperr.NotFound("assignment not found")
	}
	if err != nil {
		return Assignment{}, err
	}
	if due.Valid {
		a.DueDate = &due.Int64
	}
	return a, nil
}

func (s *SQLStore) ListAssignments(ctx context.Context, teamID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, created_by, name, due_date, created_at
		  FROM assignments WHERE team_id=$1 ORDER BY created_at`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		var due sql.NullInt64
		if err := rows.Scan(&a.ID, &a.TeamID, &a.CreatedBy, &a.Name, &due, &a.CreatedAt); err != nil {
			return nil, err
		}
		if due.Valid {
			a.DueDate = &due.Int64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetCriterion(ctx context.Context, id string) (rubric.Criterion, error) {
	var c rubric.Criterion
	err := s.db.QueryRowContext(ctx, `
		SELECT id, assignment_id, name, description, max_marks, deviation_pct, position
		  FROM rubrics WHERE id=$1`, id).
		Scan(&c.ID, &c.AssignmentID, &c.Name, &c.Description, &c.MaxMarks, &c.DeviationPct, &c.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return rubric.Criterion{}, apperr.NotFound("criterion not found")
	}
	if err != nil {
		return rubric.Criterion{}, err
	}
	c.Tiers, err = s.listTiers(ctx, c.ID)
	return c, err
}

func (s *SQLStore) ListCriteria(ctx context.Context, assignmentID string) ([]rubric.Criterion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assignment_id, name, description, max_marks, deviation_pct, position
		  FROM rubrics WHERE assignment_id=$1 ORDER BY position, id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []rubric.Criterion{}
	for rows.Next() {
		var c rubric.Criterion
		if err := rows.Scan(&c.ID, &c.AssignmentID, &c.Name, &c.Description, &c.MaxMarks, &c.DeviationPct, &c.Position); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Tiers, err = s.listTiers(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) listTiers(ctx context.Context, criterionID string) ([]rubric.Tier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rubric_id, grade, description, lower_bound, upper_bound
		  FROM rubric_tiers WHERE rubric_id=$1 ORDER BY lower_bound DESC`, criterionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []rubric.Tier{}
	for rows.Next() {
		var t rubric.Tier
		if err := rows.Scan(&t.ID, &t.CriterionID, &t.Grade, &t.Description, &t.LowerBound, &t.UpperBound); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) ReplaceCriterion(ctx context.Context, c rubric.Criterion) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE rubrics SET name=$1, description=$2, max_marks=$3, deviation_pct=$4, position=$5
		 WHERE id=$6`,
		c.Name, c.Description, c.MaxMarks, c.DeviationPct, c.Position, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("criterion not found")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rubric_tiers WHERE rubric_id=$1`, c.ID); err != nil {
		return err
	}
	for _, t := range c.Tiers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rubric_tiers (id, rubric_id, grade, description, lower_bound, upper_bound)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			t.ID, c.ID, t.Grade, t.Description, t.LowerBound, t.UpperBound)
		if err != nil {
			return err
		}
	}
	return nil
}
