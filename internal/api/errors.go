package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/linkshelf/linkshelf/internal/service"
)

type errorBody struct {
	Error  string               `json:"error"`
	Code   string               `json:"code"`
	Errors []service.FieldError `json:"errors,omitempty"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service error to its status code. Anything it does
// not recognise is logged in full and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:  "validation failed",
			Code:   "VALIDATION_FAILED",
			Errors: verr.Fields,
		})
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "FORBIDDEN")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found", "USER_NOT_FOUND")
	case errors.Is(err, service.ErrLinkNotFound):
		writeError(w, http.StatusNotFound, "link not found", "LINK_NOT_FOUND")
	case errors.Is(err, service.ErrUserExists):
		writeError(w, http.StatusConflict, "user already exists", "USER_EXISTS")
	case errors.Is(err, service.ErrDuplicateURL):
		writeError(w, http.StatusConflict, "a link with this url already exists", "DUPLICATE_URL")
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}

// decodeBody reads a JSON request body into v, replying 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}
