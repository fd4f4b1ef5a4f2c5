package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/modmark-app/modmark/internal/auth"
	"github.com/modmark-app/modmark/internal/rbac"
	"github.com/modmark-app/modmark/internal/team"
)

// TeamRoleResolver resolves the caller's role within the team named by the
// {teamID} route parameter. Feeds rbac.AttachTeamRole.
func TeamRoleResolver(teams team.Store) rbac.RoleResolver {
	return func(r *http.Request) (string, error) {
		teamID := chi.URLParam(r, "teamID")
		sub := auth.SubjectFromContext(r.Context())
		if teamID == "" || sub == "" {
			return "", nil
		}
		return teams.MemberRole(r.Context(), teamID, sub)
	}
}

type createTeamReq struct {
	Name string `json:"name" validate:"required"`
}

// POST /create-team
func CreateTeamHandler(teams team.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTeamReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		t := team.Team{
			ID:        uuid.NewString(),
			Name:      strings.TrimSpace(req.Name),
			OwnerID:   auth.SubjectFromContext(r.Context()),
			CreatedAt: time.Now().Unix(),
		}
		if t.OwnerID == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if err := teams.CreateTeam(r.Context(), t); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// GET /teams — teams the caller belongs to
func ListTeamsHandler(teams team.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := teams.ListTeams(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /team/{teamID}/members
func ListMembersHandler(teams team.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")
		if _, err := teams.GetTeam(r.Context(), teamID); err != nil {
			writeError(w, err)
			return
		}
		members, err := teams.ListMembers(r.Context(), teamID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, members)
	}
}
