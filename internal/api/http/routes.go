package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modmark-app/modmark/internal/assignment"
	"github.com/modmark-app/modmark/internal/auth"
	"github.com/modmark-app/modmark/internal/email"
	"github.com/modmark-app/modmark/internal/eventlog"
	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/metrics"
	"github.com/modmark-app/modmark/internal/rbac"
	"github.com/modmark-app/modmark/internal/team"
)

// Deps carries everything the route table needs. main wires it once; tests
// wire it with memory stores.
type Deps struct {
	DB          *sql.DB
	AuthSvc     *auth.AuthService
	Codes       auth.CodeStore
	Mailer      email.Mailer
	Teams       team.Store
	Assignments assignment.Store
	Marks       marking.Store
	AssignSvc   *assignment.Service
	MarkSvc     *marking.Service
	Events      *eventlog.Repo
	PublicURL   string
	CORSOrigins []string
}

func Routes(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public: signup, login, password reset, invite detail
	r.Post("/send-code", SendCodeHandler(d.Codes, d.Mailer))
	r.Post("/verify-code", VerifyCodeHandler(d.DB, d.Codes, d.AuthSvc))
	r.Post("/login", LoginHandler(d.DB, d.AuthSvc))
	r.Post("/forgetpassword", ForgetPasswordHandler(d.DB, d.Codes))
	r.Get("/team/invite/{token}", GetInviteHandler(d.Teams))

	// Protected API (JWT → team role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.AuthSvc))

		pr.Post("/create-team", CreateTeamHandler(d.Teams))
		pr.Get("/teams", ListTeamsHandler(d.Teams))
		pr.Post("/team/invite/{token}/respond", RespondInviteHandler(d.Teams, d.Events))

		pr.Route("/team/{teamID}", func(tr chi.Router) {
			tr.Use(rbac.AttachTeamRole(TeamRoleResolver(d.Teams)))

			tr.With(rbac.Require("team:view")).
				Get("/members", ListMembersHandler(d.Teams))

			// Admin-only: invitations and authoring
			tr.With(rbac.Require("invite:create")).
				Post("/invite", CreateInvitesHandler(d.Teams, d.Mailer, d.PublicURL))
			tr.With(rbac.Require("assignment:create")).
				Post("/assignments", CreateAssignmentHandler(d.AssignSvc))
			tr.With(rbac.Require("assignment:edit")).
				Put("/assignments/{assignmentID}/criteria/{criterionID}", UpdateCriterionHandler(d.AssignSvc))
			tr.With(rbac.Require("submission:create")).
				Post("/assignments/{assignmentID}/submissions", CreateSubmissionHandler(d.Assignments, d.Marks))

			tr.With(rbac.Require("assignment:view")).
				Get("/assignments", ListAssignmentsHandler(d.Assignments))
			tr.With(rbac.Require("assignment:view")).
				Get("/assignments/{assignmentID}/details", AssignmentDetailsHandler(d.AssignSvc))
			tr.With(rbac.Require("report:view")).
				Get("/chart-data", ChartDataHandler(d.Events))
		})

		pr.Route("/assignments/{assignmentID}", func(ar chi.Router) {
			ar.Use(rbac.AttachTeamRole(AssignmentRoleResolver(d.Assignments, d.Teams)))

			ar.With(rbac.Require("mark:submit")).
				Post("/mark", SubmitMarksHandler(d.MarkSvc, d.Assignments, d.Events))
			ar.With(rbac.Require("control:set")).
				Post("/control-mark", SetControlMarkHandler(d.MarkSvc))
			ar.With(rbac.Require("report:view")).
				Get("/report", ReportHandler(d.AssignSvc))
			ar.With(rbac.Require("report:view")).
				Get("/compare", CompareHandler(d.AssignSvc))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(r.Context()); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
