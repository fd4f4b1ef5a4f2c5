package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/modmark-app/modmark/internal/apperr"
	"github.com/modmark-app/modmark/internal/auth"
	"github.com/modmark-app/modmark/internal/email"
	"github.com/modmark-app/modmark/internal/metrics"
)

var validate = validator.New()

// decodeValid decodes a JSON body and runs struct-tag validation on it.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("bad json: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.Validation("%v", err)
	}
	return nil
}

type sendCodeReq struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /send-code
func SendCodeHandler(codes auth.CodeStore, mailer email.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendCodeReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		addr := strings.ToLower(strings.TrimSpace(req.Email))
		code, err := auth.GenerateCode()
		if err != nil {
			writeError(w, err)
			return
		}
		if err := codes.Put(r.Context(), addr, code); err != nil {
			writeError(w, err)
			return
		}
		if err := mailer.Send(r.Context(), email.VerificationMessage(addr, code)); err != nil {
			metrics.EmailSendsTotal.WithLabelValues("verification", "error").Inc()
			// the code is stored; the caller must know delivery failed
			writeError(w, err)
			return
		}
		metrics.EmailSendsTotal.WithLabelValues("verification", "ok").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	}
}

type verifyCodeReq struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=8"`
}

// POST /verify-code — consumes the code and creates the user.
func VerifyCodeHandler(db *sql.DB, codes auth.CodeStore, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyCodeReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		addr := strings.ToLower(strings.TrimSpace(req.Email))

		// check for an existing account before touching the code, so a
		// duplicate signup does not burn a still-valid code
		var exists int
		err := db.QueryRowContext(r.Context(), `SELECT 1 FROM users WHERE email=$1`, addr).Scan(&exists)
		if err == nil {
			writeError(w, apperr.Conflict("email already registered"))
			return
		}
		if !errors.Is(err, sql.ErrNoRows) {
			writeError(w, err)
			return
		}

		if err := codes.Consume(r.Context(), addr, req.Code); err != nil {
			writeError(w, err)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		id := uuid.NewString()
		_, err = db.ExecContext(r.Context(),
			`INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1,$2,$3,$4,$5)`,
			id, addr, strings.TrimSpace(req.Name), hash, time.Now().Unix())
		if err != nil {
			writeError(w, err)
			return
		}

		token, err := authSvc.IssueJWT(id, addr)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id, "email": addr, "token": token})
	}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /login
func LoginHandler(db *sql.DB, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		addr := strings.ToLower(strings.TrimSpace(req.Email))

		var id, hash string
		err := db.QueryRowContext(r.Context(),
			`SELECT id, password_hash FROM users WHERE email=$1`, addr).Scan(&id, &hash)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !auth.CheckPassword(hash, req.Password)) {
			http.Error(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		token, err := authSvc.IssueJWT(id, addr)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "email": addr, "token": token})
	}
}

type forgetPasswordReq struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// POST /forgetpassword — resets the password after code verification.
func ForgetPasswordHandler(db *sql.DB, codes auth.CodeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgetPasswordReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, err)
			return
		}
		addr := strings.ToLower(strings.TrimSpace(req.Email))
		if err := codes.Consume(r.Context(), addr, req.Code); err != nil {
			writeError(w, err)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		res, err := db.ExecContext(r.Context(),
			`UPDATE users SET password_hash=$1 WHERE email=$2`, hash, addr)
		if err != nil {
			writeError(w, err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			writeError(w, apperr.NotFound("no account for %s", addr))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
	}
}
