package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/linkshelf/linkshelf/internal/metrics"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// IdentityFromContext returns the verified caller stored by BearerMiddleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// BearerMiddleware authenticates API requests via Bearer credential.
type BearerMiddleware struct {
	verifier Verifier
	log      logrus.FieldLogger
}

// NewBearerMiddleware creates a new BearerMiddleware.
func NewBearerMiddleware(v Verifier, log logrus.FieldLogger) *BearerMiddleware {
	return &BearerMiddleware{verifier: v, log: log.WithField("component", "bearer_auth")}
}

// Authenticate is an http.Handler middleware that extracts and verifies a Bearer credential.
// WHEN valid: injects the caller's Identity into the request context.
// WHEN missing/expired/invalid: returns 401 with a JSON {error, code} body.
func (m *BearerMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		scheme, credential, ok := strings.Cut(authHeader, " ")
		credential = strings.TrimSpace(credential)
		if !ok || !strings.EqualFold(scheme, "Bearer") || credential == "" {
			metrics.CredentialVerificationsTotal.WithLabelValues("missing").Inc()
			writeUnauthorized(w, "missing bearer credential", "UNAUTHORIZED")
			return
		}

		id, err := m.verifier.Verify(r.Context(), credential)
		switch {
		case err == nil:
			metrics.CredentialVerificationsTotal.WithLabelValues("ok").Inc()
		case errors.Is(err, ErrExpiredCredential):
			metrics.CredentialVerificationsTotal.WithLabelValues("expired").Inc()
			writeUnauthorized(w, "credential expired", "CREDENTIAL_EXPIRED")
			return
		case errors.Is(err, ErrInvalidCredential):
			metrics.CredentialVerificationsTotal.WithLabelValues("invalid").Inc()
			writeUnauthorized(w, "invalid credential", "CREDENTIAL_INVALID")
			return
		default:
			metrics.CredentialVerificationsTotal.WithLabelValues("error").Inc()
			m.log.WithError(err).WithField("path", r.URL.Path).Error("unexpected credential verification failure")
			writeUnauthorized(w, "could not verify credential", "UNAUTHORIZED")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// writeUnauthorized writes a 401 JSON response with a Bearer challenge.
func writeUnauthorized(w http.ResponseWriter, message, code string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
