package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/modmark-app/modmark/internal/apperr"
)

// writeError maps the domain error taxonomy to HTTP status codes. Errors
// without a kind are logged and surfaced as a generic 500 so internal detail
// does not leak.
func writeError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case apperr.KindNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case apperr.KindConflict:
		http.Error(w, err.Error(), http.StatusConflict)
	case apperr.KindForbidden:
		http.Error(w, err.Error(), http.StatusForbidden)
	case apperr.KindExpired:
		http.Error(w, err.Error(), http.StatusGone)
	case apperr.KindUpstream:
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		log.Printf("internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
