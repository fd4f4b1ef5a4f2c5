package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/auth"
	"github.com/modmark-app/modmark/internal/email"
	"github.com/modmark-app/modmark/internal/eventlog"
	"github.com/modmark-app/modmark/internal/metrics"
	"github.com/modmark-app/modmark/internal/team"
)

type createInvitesReq struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,email"`
}

type inviteResult struct {
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// POST /team/{teamID}/invite — creates invites and sends one email each.
// Partial failure is reported per address: an invite row that committed but
// whose email bounced comes back with sent=false, never as a silent success.
func CreateInvitesHandler(teams team.Store, mailer email.Mailer, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")
		var req createInvitesReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		t, err := teams.GetTeam(r.Context(), teamID)
		if err != nil {
			writeError(w, err)
			return
		}
		inviterID := auth.SubjectFromContext(r.Context())
		inviterEmail := auth.EmailFromContext(r.Context())

		results := make([]inviteResult, 0, len(req.Emails))
		anyFailed := false
		for _, addr := range req.Emails {
			addr = strings.ToLower(strings.TrimSpace(addr))
			res := inviteResult{Email: addr}
			inv := team.Invite{
				Token:        uuid.NewString(),
				TeamID:       teamID,
				InviterID:    inviterID,
				InviteeEmail: addr,
				Status:       team.InviteStatusPending,
				CreatedAt:    time.Now().Unix(),
			}
			if err := teams.CreateInvite(r.Context(), inv); err != nil {
				res.Error = err.Error()
				anyFailed = true
				results = append(results, res)
				continue
			}
			res.Token = inv.Token
			link := publicURL + "/team/invite/" + inv.Token
			if err := mailer.Send(r.Context(), email.InviteMessage(addr, t.Name, inviterEmail, link)); err != nil {
				metrics.EmailSendsTotal.WithLabelValues("invite", "error").Inc()
				res.Error = "invite created but email not delivered"
				anyFailed = true
			} else {
				metrics.EmailSendsTotal.WithLabelValues("invite", "ok").Inc()
				res.Sent = true
			}
			results = append(results, res)
		}

		status := http.StatusCreated
		if anyFailed {
			status = http.StatusMultiStatus
		}
		writeJSON(w, status, results)
	}
}

// GET /team/invite/{token} — invite detail for the respond page. The token
// is the capability; no auth required to view.
func GetInviteHandler(teams team.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := teams.GetInvite(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, err)
			return
		}
		t, err := teams.GetTeam(r.Context(), inv.TeamID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invite": inv, "team_name": t.Name})
	}
}

type respondInviteReq struct {
	Action string `json:"action" validate:"required,oneof=accept deny"`
}

// POST /team/invite/{token}/respond
func RespondInviteHandler(teams team.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		var req respondInviteReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		sub := auth.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		inv, err := teams.GetInvite(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		accept := req.Action == "accept"
		mb, err := teams.RespondInvite(r.Context(), token, sub, auth.EmailFromContext(r.Context()), accept)
		if err != nil {
			writeError(w, err)
			return
		}

		outcome := team.InviteStatusDenied
		if accept {
			outcome = team.InviteStatusAccepted
		}
		metrics.InvitesResolvedTotal.WithLabelValues(outcome).Inc()
		data, _ := json.Marshal(map[string]string{"token": token, "outcome": outcome, "user_id": sub})
		if err := events.Append(r.Context(), eventlog.Event{
			Type:     eventlog.TypeInviteResolved,
			Key:      inv.TeamID,
			DataJSON: string(data),
		}); err != nil {
			writeError(w, apperr.Upstream(err, "recording invite event"))
			return
		}

		if accept {
			writeJSON(w, http.StatusOK, mb)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": team.InviteStatusDenied})
	}
}
