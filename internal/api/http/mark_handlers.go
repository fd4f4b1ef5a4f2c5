package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/assignment"
	"github.com/modmark-app/modmark/internal/auth"
	"github.com/modmark-app/modmark/internal/eventlog"
	"github.com/modmark-app/modmark/internal/marking"
	"github.com/modmark-app/modmark/internal/metrics"
	"github.com/modmark-app/modmark/internal/rbac"
	"github.com/modmark-app/modmark/internal/team"
)

// AssignmentRoleResolver resolves the caller's role within the team that
// owns the assignment named by the {assignmentID} route parameter.
func AssignmentRoleResolver(assignments assignment.Store, teams team.Store) rbac.RoleResolver {
	return func(r *http.Request) (string, error) {
		sub := auth.SubjectFromContext(r.Context())
		if sub == "" {
			return "", nil
		}
		a, err := assignments.GetAssignment(r.Context(), chi.URLParam(r, "assignmentID"))
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return "", nil
			}
			return "", err
		}
		return teams.MemberRole(r.Context(), a.TeamID, sub)
	}
}

type createSubmissionReq struct {
	PaperIdent string `json:"paper_ident" validate:"required"`
	FileRef    string `json:"file_ref"`
}

// POST /team/{teamID}/assignments/{assignmentID}/submissions — register a
// control paper. The file itself is stored elsewhere; FileRef is opaque.
func CreateSubmissionHandler(assignments assignment.Store, marks marking.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSubmissionReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		a, err := assignments.GetAssignment(r.Context(), chi.URLParam(r, "assignmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if a.TeamID != chi.URLParam(r, "teamID") {
			writeError(w, apperr.NotFound("assignment not found"))
			return
		}
		sub := marking.Submission{
			ID:           uuid.NewString(),
			AssignmentID: a.ID,
			PaperIdent:   strings.TrimSpace(req.PaperIdent),
			FileRef:      req.FileRef,
			CreatedAt:    time.Now().Unix(),
		}
		if err := marks.CreateSubmission(r.Context(), sub); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}

type markItem struct {
	CriterionID string `json:"criterion_id" validate:"required"`
	Score       int    `json:"score"`
	Comment     string `json:"comment"`
}

type submitMarksReq struct {
	SubmissionID string     `json:"submission_id" validate:"required"`
	Marks        []markItem `json:"marks" validate:"required,min=1,dive"`
}

// POST /assignments/{assignmentID}/mark — a marker's scores for one control
// paper. Each row upserts on (submission, criterion, marker), so retrying
// after a mid-batch failure is safe.
func SubmitMarksHandler(svc *marking.Service, assignments assignment.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID := chi.URLParam(r, "assignmentID")
		var req submitMarksReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		markerID := auth.SubjectFromContext(r.Context())

		saved := make([]marking.Mark, 0, len(req.Marks))
		for _, item := range req.Marks {
			m, err := svc.SubmitMark(r.Context(), assignmentID, req.SubmissionID, item.CriterionID, markerID, item.Score, item.Comment)
			if err != nil {
				writeError(w, err)
				return
			}
			saved = append(saved, m)
		}

		metrics.MarksSubmittedTotal.Add(float64(len(saved)))
		a, err := assignments.GetAssignment(r.Context(), assignmentID)
		if err == nil {
			data, _ := json.Marshal(map[string]any{
				"assignment_id": assignmentID,
				"submission_id": req.SubmissionID,
				"marker_id":     markerID,
				"count":         len(saved),
			})
			if err := events.Append(r.Context(), eventlog.Event{
				Type:     eventlog.TypeMarkSubmitted,
				Key:      a.TeamID,
				DataJSON: string(data),
			}); err != nil {
				writeError(w, apperr.Upstream(err, "recording mark event"))
				return
			}
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

type controlMarkReq struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	CriterionID  string `json:"criterion_id" validate:"required"`
	Score        int    `json:"score"`
	Comment      string `json:"comment"`
}

// POST /assignments/{assignmentID}/control-mark — the official score for a
// (submission, criterion) pair, outside the tutor workflow.
func SetControlMarkHandler(svc *marking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req controlMarkReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		cm, err := svc.SetControlMark(r.Context(), chi.URLParam(r, "assignmentID"), req.SubmissionID, req.CriterionID, req.Score, req.Comment)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cm)
	}
}

// GET /assignments/{assignmentID}/report
func ReportHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Report(r.Context(), chi.URLParam(r, "assignmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// GET /assignments/{assignmentID}/compare?submission=<id>&standard=<markerID>
// Standard defaults to the assignment creator when the query is empty.
func CompareHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionID := r.URL.Query().Get("submission")
		if submissionID == "" {
			writeError(w, apperr.Validation("submission query parameter required"))
			return
		}
		out, err := svc.CompareSubmission(r.Context(), chi.URLParam(r, "assignmentID"), submissionID, r.URL.Query().Get("standard"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
