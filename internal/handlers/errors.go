package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/diewo77/shop-api/internal/auth"
	"github.com/diewo77/shop-api/internal/db"
	"github.com/diewo77/shop-api/internal/gate"
	"github.com/diewo77/shop-api/internal/httpx"
	"github.com/diewo77/shop-api/internal/services"
	"github.com/diewo77/shop-api/internal/validation"
)

// writeError maps service and store errors to a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *validation.Error
		cerr *db.ConstraintViolationError
	)
	switch {
	case errors.Is(err, httpx.ErrBadRequest):
		httpx.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, gate.ErrUnauthorized):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Violations)
	case errors.As(err, &cerr):
		details := map[string]string{"kind": string(cerr.Kind)}
		if cerr.Constraint != "" {
			details["constraint"] = cerr.Constraint
		}
		httpx.JSONError(w, http.StatusConflict, "constraint_violation", details)
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// currentUser returns the session's user id; routes are mounted behind
// RequireAuth so a missing id is a wiring bug and answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	}
	return uid, ok
}
