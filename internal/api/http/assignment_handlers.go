package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/assignment"
	"github.com/modmark-app/modmark/internal/auth"
	"github.com/modmark-app/modmark/internal/eventlog"
)

type createAssignmentReq struct {
	Name     string                      `json:"name" validate:"required"`
	DueDate  *int64                      `json:"due_date"` // unix seconds
	Criteria []assignment.CriterionInput `json:"criteria" validate:"required,min=1,dive"`
}

// POST /team/{teamID}/assignments
func CreateAssignmentHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAssignmentReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		a, err := svc.Create(r.Context(), chi.URLParam(r, "teamID"),
			auth.SubjectFromContext(r.Context()), req.Name, req.DueDate, req.Criteria)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /team/{teamID}/assignments
func ListAssignmentsHandler(store assignment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListAssignments(r.Context(), chi.URLParam(r, "teamID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /team/{teamID}/assignments/{assignmentID}/details
func AssignmentDetailsHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Details(r.Context(), chi.URLParam(r, "assignmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if d.Assignment.TeamID != chi.URLParam(r, "teamID") {
			writeError(w, apperr.NotFound("assignment not found"))
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// PUT /team/{teamID}/assignments/{assignmentID}/criteria/{criterionID}
func UpdateCriterionHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignment.CriterionInput
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		c, err := svc.UpdateCriterion(r.Context(), chi.URLParam(r, "criterionID"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// GET /team/{teamID}/chart-data?days=30 — daily mark submission counts.
func ChartDataHandler(events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 30
		if q := r.URL.Query().Get("days"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n <= 0 || n > 365 {
				writeError(w, apperr.Validation("days must be in 1..365"))
				return
			}
			days = n
		}
		since := time.Now().AddDate(0, 0, -days).Unix()
		counts, err := events.DailyCounts(r.Context(), eventlog.TypeMarkSubmitted,
			chi.URLParam(r, "teamID"), since)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}
