package team

import (
	"context"
	"testing"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/rbac"
)

func seedTeam(t *testing.T, s *MemoryStore) Team {
	t.Helper()
	tm := Team{ID: "t-1", Name: "COMP1511 markers", OwnerID: "u-admin", CreatedAt: 1}
	s.RegisterUserEmail("u-admin", "admin@uni.edu")
	if err := s.CreateTeam(context.Background(), tm); err != nil {
		t.Fatal(err)
	}
	return tm
}

func TestCreateTeamOwnerBecomesAdmin(t *testing.T) {
	s := NewInMemoryStore()
	tm := seedTeam(t, s)

	role, err := s.MemberRole(context.Background(), tm.ID, "u-admin")
	if err != nil {
		t.Fatal(err)
	}
	if role != rbac.RoleAdmin {
		t.Fatalf("owner role: want admin, got %q", role)
	}
}

func TestInviteAcceptCreatesTutorMembership(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tm := seedTeam(t, s)
	s.RegisterUserEmail("u-kim", "kim@uni.edu")

	inv := Invite{Token: "tok-1", TeamID: tm.ID, InviterID: "u-admin", InviteeEmail: "kim@uni.edu", Status: InviteStatusPending, CreatedAt: 2}
	if err := s.CreateInvite(ctx, inv); err != nil {
		t.Fatal(err)
	}

	mb, err := s.RespondInvite(ctx, "tok-1", "u-kim", "KIM@uni.edu", true)
	if err != nil {
		t.Fatal(err)
	}
	if mb.Role != rbac.RoleTutor {
		t.Fatalf("want tutor membership, got %q", mb.Role)
	}

	got, _ := s.GetInvite(ctx, "tok-1")
	if got.Status != InviteStatusAccepted || got.ResolvedAt == nil {
		t.Fatalf("invite not resolved: %+v", got)
	}
}

func TestInviteSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tm := seedTeam(t, s)
	s.RegisterUserEmail("u-kim", "kim@uni.edu")

	inv := Invite{Token: "tok-1", TeamID: tm.ID, InviterID: "u-admin", InviteeEmail: "kim@uni.edu", Status: InviteStatusPending, CreatedAt: 2}
	if err := s.CreateInvite(ctx, inv); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RespondInvite(ctx, "tok-1", "u-kim", "kim@uni.edu", true); err != nil {
		t.Fatal(err)
	}

	before, _ := s.ListMembers(ctx, tm.ID)
	for _, accept := range []bool{true, false} {
		_, err := s.RespondInvite(ctx, "tok-1", "u-kim", "kim@uni.edu", accept)
		if apperr.KindOf(err) != apperr.KindExpired {
			t.Fatalf("second respond (accept=%v): want expired, got %v", accept, err)
		}
	}
	after, _ := s.ListMembers(ctx, tm.ID)
	if len(after) != len(before) {
		t.Fatalf("membership changed by resolved invite: %d -> %d", len(before), len(after))
	}
}

func TestInviteEmailMismatchForbidden(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tm := seedTeam(t, s)

	inv := Invite{Token: "tok-2", TeamID: tm.ID, InviterID: "u-admin", InviteeEmail: "kim@uni.edu", Status: InviteStatusPending, CreatedAt: 2}
	if err := s.CreateInvite(ctx, inv); err != nil {
		t.Fatal(err)
	}
	_, err := s.RespondInvite(ctx, "tok-2", "u-mallory", "mallory@uni.edu", true)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("want forbidden, got %v", err)
	}
}

func TestInviteConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tm := seedTeam(t, s)

	// already a member
	err := s.CreateInvite(ctx, Invite{Token: "tok-3", TeamID: tm.ID, InviterID: "u-admin", InviteeEmail: "admin@uni.edu", Status: InviteStatusPending})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("inviting a member: want conflict, got %v", err)
	}

	// duplicate pending invite
	if err := s.CreateInvite(ctx, Invite{Token: "tok-4", TeamID: tm.ID, InviterID: "u-admin", InviteeEmail: "kim@uni.edu", Status: InviteStatusPending}); err != nil {
		t.Fatal(err)
	}
	err = s.CreateInvite(ctx, Invite{Token: "tok-5", TeamID: tm.ID, InviterID: "u-admin", InviteeEmail: "KIM@uni.edu", Status: InviteStatusPending})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("duplicate pending invite: want conflict, got %v", err)
	}
}

func TestDenyDoesNotCreateMembership(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tm := seedTeam(t, s)

	if err := s.CreateInvite(ctx, Invite{Token: "tok-6", TeamID: tm.ID, InviterID: "u-admin", InviteeEmail: "kim@uni.edu", Status: InviteStatusPending}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RespondInvite(ctx, "tok-6", "u-kim", "kim@uni.edu", false); err != nil {
		t.Fatal(err)
	}
	role, _ := s.MemberRole(ctx, tm.ID, "u-kim")
	if role != "" {
		t.Fatalf("denied invite must not create membership, got role %q", role)
	}
	inv, _ := s.GetInvite(ctx, "tok-6")
	if inv.Status != InviteStatusDenied {
		t.Fatalf("want denied, got %s", inv.Status)
	}
}
