package team

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/rbac"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateTeam(ctx context.Context, t Team) (err error) {
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

	_, err = tx.ExecContext(ctx,
		`INSERT INTO teams (id, name, owner_id, created_at) VALUES ($1,$2,$3,$4)`,
		t.ID, t.Name, t.OwnerID, t.CreatedAt)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, role, created_at) VALUES ($1,$2,$3,$4)`,
		t.ID, t.OwnerID, rbac.RoleAdmin, t.CreatedAt)
	return err
}

func (s *SQLStore) GetTeam(ctx context.Context, id string) (Team, error) {
	var t Team
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at FROM teams WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.OwnerID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Team{}, apperr.NotFound("team not found")
	}
	return t, err
}

func (s *SQLStore) ListTeams(ctx context.Context, userID string) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.owner_id, t.created_at
		  FROM teams t
		  JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = $1
		 ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Team{}
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListMembers(ctx context.Context, teamID string) ([]Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.team_id, m.user_id, m.role, m.created_at, u.email, u.name
		  FROM team_members m
		  JOIN users u ON u.id = m.user_id
		 WHERE m.team_id = $1
		 ORDER BY m.created_at`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Membership{}
	for rows.Next() {
		var mb Membership
		if err := rows.Scan(&mb.TeamID, &mb.UserID, &mb.Role, &mb.CreatedAt, &mb.Email, &mb.Name); err != nil {
			return nil, err
		}
		out = append(out, mb)
	}
	return out, rows.Err()
}

func (s *SQLStore) MemberRole(ctx context.Context, teamID, userID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM team_members WHERE team_id=$1 AND user_id=$2`,
		teamID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return role, err
}

func (s *SQLStore) IsMemberEmail(ctx context.Context, teamID, email string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_members m
			  JOIN users u ON u.id = m.user_id
			 WHERE m.team_id=$1 AND LOWER(u.email)=LOWER($2))`,
		teamID, email).Scan(&ok)
	return ok, err
}

func (s *SQLStore) CreateInvite(ctx context.Context, inv Invite) error {
	member, err := s.IsMemberEmail(ctx, inv.TeamID, inv.InviteeEmail)
	if err != nil {
		return err
	}
	if member {
		return apperr.Conflict("%s is already a member", inv.InviteeEmail)
	}
	var pending bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_invites
			 WHERE team_id=$1 AND LOWER(invitee_email)=LOWER($2) AND status=$3)`,
		inv.TeamID, inv.InviteeEmail, InviteStatusPending).Scan(&pending)
	if err != nil {
		return err
	}
	if pending {
		return apperr.Conflict("a pending invite for %s already exists", inv.InviteeEmail)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO team_invites (token, team_id, inviter_id, invitee_email, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		inv.Token, inv.TeamID, inv.InviterID, inv.InviteeEmail, InviteStatusPending, inv.CreatedAt)
	return err
}

func (s *SQLStore) GetInvite(ctx context.Context, token string) (Invite, error) {
	var inv Invite
	var resolved sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT token, team_id, inviter_id, invitee_email, status, created_at, resolved_at
		  FROM team_invites WHERE token=$1`, token).
		Scan(&inv.Token, &inv.TeamID, &inv.InviterID, &inv.InviteeEmail, &inv.Status, &inv.CreatedAt, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return Invite{}, apperr.NotFound("invite not found")
	}
	if err != nil {
		return Invite{}, err
	}
	if resolved.Valid {
		inv.ResolvedAt = &resolved.Int64
	}
	return inv, nil
}

func (s *SQLStore) RespondInvite(ctx context.Context, token, userID, userEmail string, accept bool) (mb Membership, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Membership{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var inv Invite
	err = tx.QueryRowContext(ctx, `
		SELECT token, team_id, inviter_id, invitee_email, status
		  FROM team_invites WHERE token=$1`, token).
		Scan(&inv.Token, &inv.TeamID, &inv.InviterID, &inv.InviteeEmail, &inv.Status)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperr.NotFound("invite not found")
		return
	}
	if err != nil {
		return
	}
	if inv.Status != InviteStatusPending {
		err = apperr.Expired("invite already %s", inv.Status)
		return
	}
	if !strings.EqualFold(inv.InviteeEmail, userEmail) {
		err = apperr.Forbidden("invite was issued to a different email")
		return
	}

	now := time.Now().Unix()
	status := InviteStatusDenied
	if accept {
		status = InviteStatusAccepted
	}
	// guard on status so a concurrent respond loses cleanly
	res, err := tx.ExecContext(ctx,
		`UPDATE team_invites SET status=$1, resolved_at=$2 WHERE token=$3 AND status=$4`,
		status, now, token, InviteStatusPending)
	if err != nil {
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = apperr.Expired("invite already resolved")
		return
	}
	if !accept {
		return Membership{}, nil
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, role, created_at) VALUES ($1,$2,$3,$4)`,
		inv.TeamID, userID, rbac.RoleTutor, now)
	if err != nil {
		return
	}
	return Membership{TeamID: inv.TeamID, UserID: userID, Role: rbac.RoleTutor, CreatedAt: now}, nil
}
