package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modmark-app/modmark/internal/assignment"
	"github.com/modmark-app/modmark/internal/auth"
	"github.com/modmark-app/modmark/internal/email"
	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/rbac"
	"github.com/modmark-app/modmark/internal/team"
)

type testEnv struct {
	router      http.Handler
	authSvc     *auth.AuthService
	teams       *team.MemoryStore
	assignments assignment.Store
	marks       marking.Store
	assignSvc   *assignment.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	teams := team.NewInMemoryStore()
	assignments := assignment.NewInMemoryStore()
	marks := marking.NewInMemoryStore()
	authSvc := auth.NewAuthService("test-secret", time.Hour)

	d := Deps{
		AuthSvc:     authSvc,
		Codes:       auth.NewMemoryCodeStore(10 * time.Minute),
		Mailer:      email.NewRecordingMailer(),
		Teams:       teams,
		Assignments: assignments,
		Marks:       marks,
		AssignSvc:   assignment.NewService(assignments, teams, marks),
		MarkSvc:     marking.NewService(marks, assignments),
		PublicURL:   "http://localhost:3000",
		CORSOrigins: []string{"http://localhost:3000"},
	}
	return &testEnv{
		router:      Routes(d),
		authSvc:     authSvc,
		teams:       teams,
		assignments: assignments,
		marks:       marks,
		assignSvc:   d.AssignSvc,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func seedTeam(t *testing.T, e *testEnv, ownerID string) team.Team {
	t.Helper()
	tm := team.Team{ID: "team-1", Name: "Markers", OwnerID: ownerID, CreatedAt: time.Now().Unix()}
	require.NoError(t, e.teams.CreateTeam(context.Background(), tm))
	return tm
}

func TestTutorCannotCreateAssignment(t *testing.T) {
	e := newTestEnv(t)
	tm := seedTeam(t, e, "admin-1")

	// tutor membership via accepted invite path is covered in the team
	// package; here the role is planted directly
	e.teams.RegisterUserEmail("tutor-1", "tutor@example.com")
	inv := team.Invite{Token: "tok-1", TeamID: tm.ID, InviterID: "admin-1",
		InviteeEmail: "tutor@example.com", Status: team.InviteStatusPending, CreatedAt: time.Now().Unix()}
	require.NoError(t, e.teams.CreateInvite(context.Background(), inv))
	_, err := e.teams.RespondInvite(context.Background(), "tok-1", "tutor-1", "tutor@example.com", true)
	require.NoError(t, err)

	role, err := e.teams.MemberRole(context.Background(), tm.ID, "tutor-1")
	require.NoError(t, err)
	require.Equal(t, rbac.RoleTutor, role)

	token, err := e.authSvc.IssueJWT("tutor-1", "tutor@example.com")
	require.NoError(t, err)

	body := `{"name":"Essay 1","criteria":[{"name":"Structure","max_marks":20,"deviation_pct":10}]}`
	rr := e.do(t, http.MethodPost, "/team/"+tm.ID+"/assignments", token, body)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminCreatesAssignment(t *testing.T) {
	e := newTestEnv(t)
	tm := seedTeam(t, e, "admin-1")

	token, err := e.authSvc.IssueJWT("admin-1", "admin@example.com")
	require.NoError(t, err)

	body := `{"name":"Essay 1","criteria":[{"name":"Structure","max_marks":20,"deviation_pct":10}]}`
	rr := e.do(t, http.MethodPost, "/team/"+tm.ID+"/assignments", token, body)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"team_id":"team-1"`)
}

func TestNonMemberForbidden(t *testing.T) {
	e := newTestEnv(t)
	tm := seedTeam(t, e, "admin-1")

	token, err := e.authSvc.IssueJWT("stranger-1", "stranger@example.com")
	require.NoError(t, err)

	rr := e.do(t, http.MethodGet, "/team/"+tm.ID+"/members", token, "")
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMissingTokenUnauthorized(t *testing.T) {
	e := newTestEnv(t)
	rr := e.do(t, http.MethodPost, "/create-team", "", `{"name":"Markers"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMarkRouteScopedToOwnAssignment(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, e.teams.CreateTeam(ctx, team.Team{ID: "team-a", Name: "A", OwnerID: "admin-a", CreatedAt: time.Now().Unix()}))
	require.NoError(t, e.teams.CreateTeam(ctx, team.Team{ID: "team-b", Name: "B", OwnerID: "admin-b", CreatedAt: time.Now().Unix()}))

	ours, err := e.assignSvc.Create(ctx, "team-a", "admin-a", "Essay A", nil,
		[]assignment.CriterionInput{{Name: "Structure", MaxMarks: 20, DeviationPct: 10}})
	require.NoError(t, err)
	theirs, err := e.assignSvc.Create(ctx, "team-b", "admin-b", "Essay B", nil,
		[]assignment.CriterionInput{{Name: "Structure", MaxMarks: 20, DeviationPct: 10}})
	require.NoError(t, err)

	theirCriteria, err := e.assignments.ListCriteria(ctx, theirs.ID)
	require.NoError(t, err)
	require.NoError(t, e.marks.CreateSubmission(ctx, marking.Submission{
		ID: "sub-b", AssignmentID: theirs.ID, PaperIdent: "z200", CreatedAt: time.Now().Unix()}))

	token, err := e.authSvc.IssueJWT("admin-a", "admin-a@example.com")
	require.NoError(t, err)

	// marking team B's submission through team A's assignment route
	body := `{"submission_id":"sub-b","marks":[{"criterion_id":"` + theirCriteria[0].ID + `","score":5}]}`
	rr := e.do(t, http.MethodPost, "/assignments/"+ours.ID+"/mark", token, body)
	require.Equal(t, http.StatusNotFound, rr.Code)

	persisted, err := e.marks.ListMarksBySubmission(ctx, "sub-b")
	require.NoError(t, err)
	require.Empty(t, persisted)

	rr = e.do(t, http.MethodPost, "/assignments/"+ours.ID+"/control-mark", token,
		`{"submission_id":"sub-b","criterion_id":"`+theirCriteria[0].ID+`","score":5}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodGet, "/assignments/"+ours.ID+"/compare?submission=sub-b", token, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInviteRespondWrongEmailForbidden(t *testing.T) {
	e := newTestEnv(t)
	tm := seedTeam(t, e, "admin-1")

	inv := team.Invite{Token: "tok-2", TeamID: tm.ID, InviterID: "admin-1",
		InviteeEmail: "right@example.com", Status: team.InviteStatusPending, CreatedAt: time.Now().Unix()}
	require.NoError(t, e.teams.CreateInvite(context.Background(), inv))

	token, err := e.authSvc.IssueJWT("other-1", "wrong@example.com")
	require.NoError(t, err)

	rr := e.do(t, http.MethodPost, "/team/invite/tok-2/respond", token, `{"action":"accept"}`)
	require.Equal(t, http.StatusForbidden, rr.Code)
}
