package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/linkshelf/linkshelf/internal/service"
)

// usersAPIHandler provides REST handlers for the caller's own profile.
type usersAPIHandler struct {
	users *service.UserService
	log   logrus.FieldLogger
}

func registerUserRoutes(r chi.Router, users *service.UserService, log logrus.FieldLogger) {
	h := &usersAPIHandler{users: users, log: log}
	r.Post("/users", h.Create)
	r.Get("/users/{id}", h.Get)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
}

// Create registers the caller's profile; the body id must equal the caller's subject.
// POST /api/v1/users
func (h *usersAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := h.users.Create(r.Context(), service.UserInput{ID: req.ID, Email: req.Email, Username: req.Username}, caller)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// GET /api/v1/users/{id}
func (h *usersAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// PUT /api/v1/users/{id}
func (h *usersAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), service.UserPatch{Email: req.Email, Username: req.Username}, caller)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// DELETE /api/v1/users/{id}
func (h *usersAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id"), caller); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
