package team

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/rbac"
)

type Store interface {
	// CreateTeam inserts the team and its owner's admin membership together.
	CreateTeam(ctx context.Context, t Team) error
	GetTeam(ctx context.Context, id string) (Team, error)
	ListTeams(ctx context.Context, userID string) ([]Team, error)
	ListMembers(ctx context.Context, teamID string) ([]Membership, error)
	// MemberRole returns "" when the user is not a member.
	MemberRole(ctx context.Context, teamID, userID string) (string, error)
	IsMemberEmail(ctx context.Context, teamID, email string) (bool, error)

	CreateInvite(ctx context.Context, inv Invite) error
	GetInvite(ctx context.Context, token string) (Invite, error)
	// RespondInvite transitions a pending invite and, on accept, inserts the
	// tutor membership in the same transaction. userEmail must match the
	// invitee email.
	RespondInvite(ctx context.Context, token, userID, userEmail string, accept bool) (Membership, error)
}

// ---- in-memory store (tests, single-node dev) ----

type MemoryStore struct {
	mu      sync.RWMutex
	teams   map[string]Team
	members map[string][]Membership // teamID -> members
	invites map[string]Invite       // token -> invite
	emails  map[string]string       // userID -> email, for membership checks
}

func NewInMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:   map[string]Team{},
		members: map[string][]Membership{},
		invites: map[string]Invite{},
		emails:  map[string]string{},
	}
}

// RegisterUserEmail teaches the memory store a user's email so that
// IsMemberEmail behaves like the SQL join.
func (m *MemoryStore) RegisterUserEmail(userID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails[userID] = strings.ToLower(email)
}

func (m *MemoryStore) CreateTeam(_ context.Context, t Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[t.ID]; ok {
		return apperr.Conflict("team %s already exists", t.ID)
	}
	m.teams[t.ID] = t
	m.members[t.ID] = append(m.members[t.ID], Membership{
		TeamID: t.ID, UserID: t.OwnerID, Role: rbac.RoleAdmin, CreatedAt: t.CreatedAt,
	})
	return nil
}

func (m *MemoryStore) GetTeam(_ context.Context, id string) (Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return Team{}, apperr.NotFound("team not found")
	}
	return t, nil
}

func (m *MemoryStore) ListTeams(_ context.Context, userID string) ([]Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Team{}
	for id, members := range m.members {
		for _, mb := range members {
			if mb.UserID == userID {
				out = append(out, m.teams[id])
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) ListMembers(_ context.Context, teamID string) ([]Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.teams[teamID]; !ok {
		return nil, apperr.NotFound("team not found")
	}
	out := make([]Membership, len(m.members[teamID]))
	copy(out, m.members[teamID])
	return out, nil
}

func (m *MemoryStore) MemberRole(_ context.Context, teamID, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mb := range m.members[teamID] {
		if mb.UserID == userID {
			return mb.Role, nil
		}
	}
	return "", nil
}

func (m *MemoryStore) IsMemberEmail(_ context.Context, teamID, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, mb := range m.members[teamID] {
		if m.emails[mb.UserID] == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateInvite(ctx context.Context, inv Invite) error {
	if member, err := m.IsMemberEmail(ctx, inv.TeamID, inv.InviteeEmail); err != nil {
		return err
	} else if member {
		return apperr.Conflict("%s is already a member", inv.InviteeEmail)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.invites {
		if existing.TeamID == inv.TeamID &&
			strings.EqualFold(existing.InviteeEmail, inv.InviteeEmail) &&
			existing.Status == InviteStatusPending {
			return apperr.Conflict("a pending invite for %s already exists", inv.InviteeEmail)
		}
	}
	m.invites[inv.Token] = inv
	return nil
}

func (m *MemoryStore) GetInvite(_ context.Context, token string) (Invite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invites[token]
	if !ok {
		return Invite{}, apperr.NotFound("invite not found")
	}
	return inv, nil
}

func (m *MemoryStore) RespondInvite(_ context.Context, token, userID, userEmail string, accept bool) (Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[token]
	if !ok {
		return Membership{}, apperr.NotFound("invite not found")
	}
	if inv.Status != InviteStatusPending {
		return Membership{}, apperr.Expired("invite already %s", inv.Status)
	}
	if !strings.EqualFold(inv.InviteeEmail, userEmail) {
		return Membership{}, apperr.Forbidden("invite was issued to a different email")
	}
	now := time.Now().Unix()
	inv.ResolvedAt = &now
	if !accept {
		inv.Status = InviteStatusDenied
		m.invites[token] = inv
		return Membership{}, nil
	}
	inv.Status = InviteStatusAccepted
	m.invites[token] = inv
	mb := Membership{TeamID: inv.TeamID, UserID: userID, Role: rbac.RoleTutor, CreatedAt: now}
	m.members[inv.TeamID] = append(m.members[inv.TeamID], mb)
	return mb, nil
}
