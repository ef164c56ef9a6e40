// Package store defines the persisted entities and the persistence contracts
// shared by the relational (sqlstore) and document (docstore) backends.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when creating an entity whose id is already taken.
	ErrConflict = errors.New("already exists")
)

// User is a registered account. ID is issued by the identity provider.
type User struct {
	ID       string `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	Username string `db:"username" json:"username"`
}

// Link is a bookmarked URL owned by exactly one user.
// UserID and CreatedAt never change after creation.
type Link struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	URL         string    `db:"url" json:"url"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Tags        []string  `db:"-" json:"tags"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Page is an offset/limit window over a listing. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// Window applies p to a slice length n and returns the [start, end) bounds.
func (p Page) Window(n int) (start, end int) {
	start = p.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}

// LinkStore exposes all link persistence operations.
type LinkStore interface {
	// Create assigns ID and CreatedAt, persists l and returns the stored link.
	Create(ctx context.Context, l *Link) (*Link, error)
	GetByID(ctx context.Context, id string) (*Link, error)
	// ListByOwner returns links with UserID == ownerID ordered by creation time.
	ListByOwner(ctx context.Context, ownerID string, page Page) ([]*Link, error)
	// ListByURL returns every link, of any owner, whose URL equals url exactly.
	ListByURL(ctx context.Context, url string) ([]*Link, error)
	// Update overwrites url, title, description and tags of an existing link.
	Update(ctx context.Context, l *Link) (*Link, error)
	Delete(ctx context.Context, id string) error
}

// UserStore exposes all user persistence operations.
type UserStore interface {
	// Create persists u, returning ErrConflict if u.ID already exists.
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// Update overwrites email and username of an existing user.
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, id string) error
}
