package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linkshelf/linkshelf/internal/store"
)

const linkColumns = `id, user_id, url, title, description, created_at`

// LinkStore is the sqlx-backed implementation of store.LinkStore.
// Tags live in link_tags and are written in the same transaction as the link row.
type LinkStore struct {
	db *sqlx.DB
}

var _ store.LinkStore = (*LinkStore)(nil)

func NewLinkStore(db *sqlx.DB) *LinkStore {
	return &LinkStore{db: db}
}

// Create inserts a new link with a generated UUID and the current time.
func (s *LinkStore) Create(ctx context.Context, l *store.Link) (*store.Link, error) {
	created := &store.Link{
		ID:          uuid.New().String(),
		UserID:      l.UserID,
		URL:         l.URL,
		Title:       l.Title,
		Description: l.Description,
		Tags:        normalizeTags(l.Tags),
		// Microsecond precision is the finest MySQL and PostgreSQL both keep.
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO links (id, user_id, url, title, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), created.ID, created.UserID, created.URL, created.Title, created.Description, created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert link: %w", err)
	}
	if err := insertTags(ctx, tx, created.ID, created.Tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID returns the link with id and its tags, or store.ErrNotFound.
func (s *LinkStore) GetByID(ctx context.Context, id string) (*store.Link, error) {
	var l store.Link
	err := s.db.GetContext(ctx, &l, s.db.Rebind(`SELECT `+linkColumns+` FROM links WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(ctx, []*store.Link{&l}); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByOwner returns the owner's links, oldest first.
func (s *LinkStore) ListByOwner(ctx context.Context, ownerID string, page store.Page) ([]*store.Link, error) {
	q := `SELECT ` + linkColumns + ` FROM links WHERE user_id = ? ORDER BY created_at ASC, id ASC`
	args := []any{ownerID}
	if page.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, page.Limit, max(page.Offset, 0))
	}

	var links []*store.Link
	if err := s.db.SelectContext(ctx, &links, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	if page.Limit == 0 {
		// SQLite and MySQL reject OFFSET without LIMIT.
		start, end := page.Window(len(links))
		links = links[start:end]
	}
	if err := s.loadTags(ctx, links); err != nil {
		return nil, err
	}
	return links, nil
}

// ListByURL returns every link whose url matches exactly, regardless of owner.
func (s *LinkStore) ListByURL(ctx context.Context, url string) ([]*store.Link, error) {
	var links []*store.Link
	err := s.db.SelectContext(ctx, &links, s.db.Rebind(`
		SELECT `+linkColumns+` FROM links WHERE url = ? ORDER BY created_at ASC, id ASC
	`), url)
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(ctx, links); err != nil {
		return nil, err
	}
	return links, nil
}

// Update overwrites url, title, description and tags. user_id and created_at
// are taken from the stored row, never from l.
func (s *LinkStore) Update(ctx context.Context, l *store.Link) (*store.Link, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var existing store.Link
	err = tx.GetContext(ctx, &existing, tx.Rebind(`SELECT `+linkColumns+` FROM links WHERE id = ?`), l.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE links SET url = ?, title = ?, description = ? WHERE id = ?
	`), l.URL, l.Title, l.Description, l.ID)
	if err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	tags := normalizeTags(l.Tags)
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM link_tags WHERE link_id = ?`), l.ID); err != nil {
		return nil, err
	}
	if err := insertTags(ctx, tx, l.ID, tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	existing.URL = l.URL
	existing.Title = l.Title
	existing.Description = l.Description
	existing.Tags = tags
	return &existing, nil
}

// Delete removes the link and its tags.
func (s *LinkStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM link_tags WHERE link_id = ?`), id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM links WHERE id = ?`), id)
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
	return tx.Commit()
}

func insertTags(ctx context.Context, tx *sqlx.Tx, linkID string, tags []string) error {
	for i, name := range tags {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO link_tags (link_id, position, name) VALUES (?, ?, ?)
		`), linkID, i, name)
		if err != nil {
			return fmt.Errorf("insert tag %q: %w", name, err)
		}
	}
	return nil
}

type tagRow struct {
	LinkID string `db:"link_id"`
	Name   string `db:"name"`
}

// loadTags fills Tags on every link with a single IN query.
func (s *LinkStore) loadTags(ctx context.Context, links []*store.Link) error {
	if len(links) == 0 {
		return nil
	}
	ids := make([]string, len(links))
	byID := make(map[string]*store.Link, len(links))
	for i, l := range links {
		ids[i] = l.ID
		l.Tags = []string{}
		byID[l.ID] = l
	}

	q, args, err := sqlx.In(`
		SELECT link_id, name FROM link_tags WHERE link_id IN (?) ORDER BY link_id, position
	`, ids)
	if err != nil {
		return err
	}
	var rows []tagRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	for _, r := range rows {
		if l, ok := byID[r.LinkID]; ok {
			l.Tags = append(l.Tags, r.Name)
		}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
