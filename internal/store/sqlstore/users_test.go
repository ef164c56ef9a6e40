package sqlstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/linkshelf/linkshelf/internal/store"
	"github.com/linkshelf/linkshelf/internal/store/sqlstore"
	"github.com/linkshelf/linkshelf/internal/testutil"
)

func newUserStore(t *testing.T) *sqlstore.UserStore {
	t.Helper()
	return sqlstore.NewUserStore(testutil.NewTestDB(t))
}

func TestUserStore_CreateAndGet(t *testing.T) {
	us := newUserStore(t)
	ctx := context.Background()

	u, err := us.Create(ctx, &store.User{ID: "u1", Email: "u1@example.com", Username: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("id = %q, want %q", u.ID, "u1")
	}

	got, err := us.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "u1@example.com" || got.Username != "alice" {
		t.Errorf("got %+v", got)
	}
}

func TestUserStore_CreateDuplicate(t *testing.T) {
	us := newUserStore(t)
	ctx := context.Background()

	if _, err := us.Create(ctx, &store.User{ID: "u1", Email: "a@example.com", Username: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := us.Create(ctx, &store.User{ID: "u1", Email: "b@example.com", Username: "bob"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The first record must survive.
	got, err := us.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q, want %q", got.Username, "alice")
	}
}

func TestUserStore_GetMissing(t *testing.T) {
	us := newUserStore(t)
	_, err := us.GetByID(context.Background(), "nobody")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserStore_Update(t *testing.T) {
	us := newUserStore(t)
	ctx := context.Background()

	if _, err := us.Create(ctx, &store.User{ID: "u1", Email: "a@example.com", Username: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := us.Update(ctx, &store.User{ID: "u1", Email: "new@example.com", Username: "alice2"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Email != "new@example.com" || got.Username != "alice2" {
		t.Errorf("got %+v", got)
	}

	_, err = us.Update(ctx, &store.User{ID: "ghost", Email: "x@example.com", Username: "ghost"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}
}

func TestUserStore_DeleteKeepsLinks(t *testing.T) {
	conn := testutil.NewTestDB(t)
	us := sqlstore.NewUserStore(conn)
	ls := sqlstore.NewLinkStore(conn)
	ctx := context.Background()

	if _, err := us.Create(ctx, &store.User{ID: "u1", Email: "a@example.com", Username: "alice"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	l, err := ls.Create(ctx, &store.Link{UserID: "u1", URL: "http://example.com", Title: "Example", Description: "An example link"})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	if err := us.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := us.GetByID(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete: expected ErrNotFound, got %v", err)
	}
	if _, err := ls.GetByID(ctx, l.ID); err != nil {
		t.Errorf("link should survive user deletion: %v", err)
	}
	if err := us.Delete(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}
