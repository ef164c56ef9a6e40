package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/linkshelf/linkshelf/internal/auth"
	"github.com/linkshelf/linkshelf/internal/service"
)

// linksAPIHandler provides REST handlers for an owner's links.
type linksAPIHandler struct {
	links *service.LinkService
	log   logrus.FieldLogger
}

// registerLinkRoutes registers owner-scoped link routes on r.
func registerLinkRoutes(r chi.Router, links *service.LinkService, log logrus.FieldLogger) {
	h := &linksAPIHandler{links: links, log: log}
	r.Get("/{owner}/links", h.List)
	r.Post("/{owner}/links", h.Create)
	r.Get("/{owner}/links/{link_id}", h.Get)
	r.Put("/{owner}/links/{link_id}", h.Update)
	r.Delete("/{owner}/links/{link_id}", h.Delete)
}

// callerFrom returns the verified identity or writes a 401.
func callerFrom(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
	}
	return id, ok
}

// List returns the owner's links.
// GET /api/v1/{owner}/links?offset=&limit=
func (h *linksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	links, err := h.links.List(r.Context(), chi.URLParam(r, "owner"), caller, parsePage(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	resp := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, toLinkResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a link for the owner.
// POST /api/v1/{owner}/links
func (h *linksAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req CreateLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	l, err := h.links.Create(r.Context(), chi.URLParam(r, "owner"), caller, req.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLinkResponse(l))
}

// Get returns a single link.
// GET /api/v1/{owner}/links/{link_id}
func (h *linksAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	l, err := h.links.Get(r.Context(), chi.URLParam(r, "owner"), caller, chi.URLParam(r, "link_id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toLinkResponse(l))
}

// Update applies a partial update.
// PUT /api/v1/{owner}/links/{link_id}
func (h *linksAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req UpdateLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	l, err := h.links.Update(r.Context(), chi.URLParam(r, "owner"), caller, chi.URLParam(r, "link_id"), req.patch())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toLinkResponse(l))
}

// Delete removes a link.
// DELETE /api/v1/{owner}/links/{link_id}
func (h *linksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if err := h.links.Delete(r.Context(), chi.URLParam(r, "owner"), caller, chi.URLParam(r, "link_id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
