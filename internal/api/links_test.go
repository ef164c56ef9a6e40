package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/linkshelf/linkshelf/internal/api"
	"github.com/linkshelf/linkshelf/internal/auth"
	"github.com/linkshelf/linkshelf/internal/service"
	"github.com/linkshelf/linkshelf/internal/store"
	"github.com/linkshelf/linkshelf/internal/store/sqlstore"
	"github.com/linkshelf/linkshelf/internal/testutil"
)

type linkResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

var exampleLink = map[string]any{
	"url":         "http://example.com",
	"title":       "Example",
	"description": "An example link",
}

func TestLinkScenario(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})
	seedUser(t, env, "u1")

	rec := env.do(t, "POST", "/u1/links", "tok-u1", exampleLink)
	wantStatus(t, rec, http.StatusCreated)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var created linkResponse
	decode(t, rec, &created)
	if created.ID == "" {
		t.Fatal("expected non-empty id")
	}
	if created.UserID != "u1" || created.URL != "http://example.com" || created.Tags == nil {
		t.Errorf("created = %+v", created)
	}

	rec = env.do(t, "GET", "/u1/links", "tok-u1", nil)
	wantStatus(t, rec, http.StatusOK)
	var listed []linkResponse
	decode(t, rec, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed = %+v, want exactly [%s]", listed, created.ID)
	}

	rec = env.do(t, "GET", "/u1/links/"+created.ID, "tok-u1", nil)
	wantStatus(t, rec, http.StatusOK)
	var got linkResponse
	decode(t, rec, &got)
	if got.Title != "Example" || got.Description != "An example link" || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("got = %+v", got)
	}

	rec = env.do(t, "DELETE", "/u1/links/"+created.ID, "tok-u1", nil)
	wantStatus(t, rec, http.StatusNoContent)

	rec = env.do(t, "GET", "/u1/links/"+created.ID, "tok-u1", nil)
	wantStatus(t, rec, http.StatusNotFound)
	var e errorResponse
	decode(t, rec, &e)
	if e.Code != "LINK_NOT_FOUND" {
		t.Errorf("code = %q, want LINK_NOT_FOUND", e.Code)
	}
}

func TestLinks_ForeignCallerForbidden(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})
	seedUser(t, env, "u1")
	seedUser(t, env, "u2")

	rec := env.do(t, "POST", "/u1/links", "tok-u1", exampleLink)
	wantStatus(t, rec, http.StatusCreated)
	var created linkResponse
	decode(t, rec, &created)

	tests := []struct {
		method, path string
		body         any
	}{
		{"GET", "/u1/links", nil},
		{"POST", "/u1/links", exampleLink},
		{"GET", "/u1/links/" + created.ID, nil},
		{"PUT", "/u1/links/" + created.ID, map[string]any{"title": "Hijacked"}},
		{"DELETE", "/u1/links/" + created.ID, nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, "tok-u2", tt.body)
			wantStatus(t, rec, http.StatusForbidden)
			var e errorResponse
			decode(t, rec, &e)
			if e.Code != "FORBIDDEN" {
				t.Errorf("code = %q, want FORBIDDEN", e.Code)
			}
		})
	}
}

func TestLinks_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})

	rec := env.do(t, "GET", "/u1/links", "", nil)
	wantStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(t, "GET", "/u1/links", "expired", nil)
	wantStatus(t, rec, http.StatusUnauthorized)
	var e errorResponse
	decode(t, rec, &e)
	if e.Code != "CREDENTIAL_EXPIRED" {
		t.Errorf("code = %q, want CREDENTIAL_EXPIRED", e.Code)
	}

	rec = env.do(t, "GET", "/u1/links", "forged", nil)
	wantStatus(t, rec, http.StatusUnauthorized)
}

func TestLinks_UnknownOwner(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})

	rec := env.do(t, "GET", "/u1/links", "tok-u1", nil)
	wantStatus(t, rec, http.StatusNotFound)
	var e errorResponse
	decode(t, rec, &e)
	if e.Code != "USER_NOT_FOUND" {
		t.Errorf("code = %q, want USER_NOT_FOUND", e.Code)
	}

	rec = env.do(t, "POST", "/u1/links", "tok-u1", exampleLink)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestLinks_CreateValidation(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})
	seedUser(t, env, "u1")

	rec := env.do(t, "POST", "/u1/links", "tok-u1", map[string]any{"url": "example", "title": "ab", "description": "An example link"})
	wantStatus(t, rec, http.StatusUnprocessableEntity)
	var e errorResponse
	decode(t, rec, &e)
	if e.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", e.Code)
	}
	fields := map[string]bool{}
	for _, fe := range e.Errors {
		fields[fe.Field] = true
		if fe.Message == "" {
			t.Errorf("empty message for field %s", fe.Field)
		}
	}
	if len(fields) != 2 || !fields["url"] || !fields["title"] {
		t.Errorf("fields = %v, want url and title", fields)
	}

	rec = env.do(t, "POST", "/u1/links", "tok-u1", `{"url":`)
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestLinks_List(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})
	seedUser(t, env, "u1")
	seedUser(t, env, "u2")

	for i := 0; i < 3; i++ {
		body := map[string]any{"url": fmt.Sprintf("http://example.com/%d", i), "title": "Example", "description": "An example link"}
		wantStatus(t, env.do(t, "POST", "/u1/links", "tok-u1", body), http.StatusCreated)
	}
	wantStatus(t, env.do(t, "POST", "/u2/links", "tok-u2", exampleLink), http.StatusCreated)

	rec := env.do(t, "GET", "/u1/links", "tok-u1", nil)
	wantStatus(t, rec, http.StatusOK)
	var all []linkResponse
	decode(t, rec, &all)
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for _, l := range all {
		if l.UserID != "u1" {
			t.Errorf("foreign link %s listed", l.ID)
		}
	}

	rec = env.do(t, "GET", "/u1/links?offset=1&limit=1", "tok-u1", nil)
	wantStatus(t, rec, http.StatusOK)
	var page []linkResponse
	decode(t, rec, &page)
	if len(page) != 1 || page[0].ID != all[1].ID {
		t.Errorf("page = %+v, want [%s]", page, all[1].ID)
	}
}

func TestLinks_EmptyListIsArray(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})
	seedUser(t, env, "u1")

	rec := env.do(t, "GET", "/u1/links", "tok-u1", nil)
	wantStatus(t, rec, http.StatusOK)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestLinks_Update(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})
	seedUser(t, env, "u1")

	rec := env.do(t, "POST", "/u1/links", "tok-u1", map[string]any{
		"url": "http://example.com", "title": "Example", "description": "An example link", "tags": []string{"a"},
	})
	wantStatus(t, rec, http.StatusCreated)
	var created linkResponse
	decode(t, rec, &created)

	rec = env.do(t, "PUT", "/u1/links/"+created.ID, "tok-u1", map[string]any{"description": "Updated description"})
	wantStatus(t, rec, http.StatusOK)
	var updated linkResponse
	decode(t, rec, &updated)
	if updated.Description != "Updated description" {
		t.Errorf("description = %q", updated.Description)
	}
	if updated.Title != "Example" || updated.URL != "http://example.com" || len(updated.Tags) != 1 || updated.Tags[0] != "a" {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	rec = env.do(t, "PUT", "/u1/links/"+created.ID, "tok-u1", map[string]any{})
	wantStatus(t, rec, http.StatusOK)
	var same linkResponse
	decode(t, rec, &same)
	if same.Description != "Updated description" || !same.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("empty patch changed link: %+v", same)
	}

	rec = env.do(t, "PUT", "/u1/links/"+created.ID, "tok-u1", map[string]any{"url": "ftp//broken"})
	wantStatus(t, rec, http.StatusUnprocessableEntity)

	rec = env.do(t, "PUT", "/u1/links/missing", "tok-u1", map[string]any{"title": "Whatever"})
	wantStatus(t, rec, http.StatusNotFound)
}

func TestLinks_DeleteMissing(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{})
	seedUser(t, env, "u1")

	rec := env.do(t, "DELETE", "/u1/links/does-not-exist", "tok-u1", nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestLinks_DuplicateURLPolicy(t *testing.T) {
	env := newTestEnv(t, service.LinkOptions{URLUniqueness: service.URLUniqueOwner})
	seedUser(t, env, "u1")
	seedUser(t, env, "u2")

	wantStatus(t, env.do(t, "POST", "/u1/links", "tok-u1", exampleLink), http.StatusCreated)

	rec := env.do(t, "POST", "/u1/links", "tok-u1", exampleLink)
	wantStatus(t, rec, http.StatusConflict)
	var e errorResponse
	decode(t, rec, &e)
	if e.Code != "DUPLICATE_URL" {
		t.Errorf("code = %q, want DUPLICATE_URL", e.Code)
	}

	// Per-owner scope: another owner may store the same url.
	wantStatus(t, env.do(t, "POST", "/u2/links", "tok-u2", exampleLink), http.StatusCreated)
}

// brokenLinkStore fails every call to exercise the 500 path.
type brokenLinkStore struct{ store.LinkStore }

func (brokenLinkStore) ListByOwner(context.Context, string, store.Page) ([]*store.Link, error) {
	return nil, errors.New("disk on fire: /var/lib/secret")
}

func TestLinks_InternalErrorIsGeneric(t *testing.T) {
	db := testutil.NewTestDB(t)
	log := testutil.NewLogger(t)
	us := sqlstore.NewUserStore(db)
	if _, err := us.Create(context.Background(), &store.User{ID: "u1", Email: "u1@example.com", Username: "alice"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	router := api.NewAPIRouter(api.Deps{
		BearerAuth: auth.NewBearerMiddleware(tokenVerifier{"tok-u1": {Subject: "u1"}}, log),
		Links:      service.NewLinkService(brokenLinkStore{}, us, service.LinkOptions{}, log),
		Users:      service.NewUserService(us, log),
		Log:        log,
	})
	env := &testEnv{Router: router}

	rec := env.do(t, "GET", "/u1/links", "tok-u1", nil)
	wantStatus(t, rec, http.StatusInternalServerError)
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
	var e errorResponse
	decode(t, rec, &e)
	if e.Error != "internal error" || e.Code != "INTERNAL_ERROR" {
		t.Errorf("body = %+v", e)
	}
}
