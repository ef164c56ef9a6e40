package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linkshelf/linkshelf/internal/api"
	"github.com/linkshelf/linkshelf/internal/auth"
	"github.com/linkshelf/linkshelf/internal/service"
	"github.com/linkshelf/linkshelf/internal/store"
	"github.com/linkshelf/linkshelf/internal/store/sqlstore"
	"github.com/linkshelf/linkshelf/internal/testutil"
)

// tokenVerifier is a test double that maps fixed tokens to identities.
type tokenVerifier map[string]auth.Identity

func (v tokenVerifier) Verify(_ context.Context, credential string) (auth.Identity, error) {
	switch credential {
	case "expired":
		return auth.Identity{}, auth.ErrExpiredCredential
	}
	id, ok := v[credential]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidCredential
	}
	return id, nil
}

// testEnv holds the router and stores needed for API integration tests.
type testEnv struct {
	Router    http.Handler
	LinkStore store.LinkStore
	UserStore store.UserStore
}

// newTestEnv wires the full API router over an in-memory SQLite database.
// Tokens "tok-u1" and "tok-u2" authenticate as u1 and u2.
func newTestEnv(t *testing.T, opts service.LinkOptions) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewLogger(t)

	ls := sqlstore.NewLinkStore(db)
	us := sqlstore.NewUserStore(db)
	verifier := tokenVerifier{
		"tok-u1": {Subject: "u1", Email: "u1@example.com"},
		"tok-u2": {Subject: "u2", Email: "u2@example.com"},
	}

	router := api.NewAPIRouter(api.Deps{
		BearerAuth: auth.NewBearerMiddleware(verifier, log),
		Links:      service.NewLinkService(ls, us, opts, log),
		Users:      service.NewUserService(us, log),
		Log:        log,
	})
	return &testEnv{Router: router, LinkStore: ls, UserStore: us}
}

// do issues a request against the router with an optional bearer token and JSON body.
func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

// seedUser creates a user record directly in the store.
func seedUser(t *testing.T, env *testEnv, id string) {
	t.Helper()
	_, err := env.UserStore.Create(context.Background(), &store.User{ID: id, Email: id + "@example.com", Username: "user-" + id})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}
