package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/linkshelf/linkshelf/internal/auth"
	"github.com/linkshelf/linkshelf/internal/service"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	BearerAuth *auth.BearerMiddleware
	Links      *service.LinkService
	Users      *service.UserService
	Log        logrus.FieldLogger
}

// NewAPIRouter creates a chi sub-router for /api/v1.
// All routes require Bearer authentication and return application/json.
func NewAPIRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	log := deps.Log.WithField("component", "api")

	r.Use(jsonContentType)
	r.Use(deps.BearerAuth.Authenticate)

	// chi prefers the static /users segment, so an owner literally named
	// "users" is not addressable.
	registerUserRoutes(r, deps.Users, log)
	registerLinkRoutes(r, deps.Links, log)

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
