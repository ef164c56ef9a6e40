package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/linkshelf/linkshelf/internal/store"
)

const userColumns = `id, email, username`

// UserStore is the sqlx-backed implementation of store.UserStore.
type UserStore struct {
	db *sqlx.DB
}

var _ store.UserStore = (*UserStore)(nil)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts u keyed by its externally issued id.
// Returns store.ErrConflict if a user with that id already exists.
func (s *UserStore) Create(ctx context.Context, u *store.User) (*store.User, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (id, email, username, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`), u.ID, u.Email, u.Username, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, store.ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &store.User{ID: u.ID, Email: u.Email, Username: u.Username}, nil
}

// GetByID returns the user with id, or store.ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id string) (*store.User, error) {
	var u store.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update overwrites email and username.
func (s *UserStore) Update(ctx context.Context, u *store.User) (*store.User, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users SET email = ?, username = ?, updated_at = ? WHERE id = ?
	`), u.Email, u.Username, time.Now().UTC(), u.ID)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports zero affected rows when nothing changed, so confirm
		// the row is really gone before reporting it.
		if _, err := s.GetByID(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return s.GetByID(ctx, u.ID)
}

// Delete removes the user row. Links owned by the user are left in place.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
