package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/linkshelf/linkshelf/internal/store"
)

// LinkStore implements store.LinkStore over the link collection.
type LinkStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

var _ store.LinkStore = (*LinkStore)(nil)

// Create writes the link document and both index entries in one transaction.
func (s *LinkStore) Create(ctx context.Context, l *store.Link) (*store.Link, error) {
	created := &store.Link{
		ID:          uuid.New().String(),
		UserID:      l.UserID,
		URL:         l.URL,
		Title:       l.Title,
		Description: l.Description,
		Tags:        copyTags(l.Tags),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	err := update(s.db, func(txn *badger.Txn) error {
		if err := putLink(txn, created); err != nil {
			return err
		}
		id := []byte(created.ID)
		if err := txn.Set(ownerKey(created.UserID, created.CreatedAt.UnixNano(), created.ID), id); err != nil {
			return err
		}
		return txn.Set(urlKey(created.URL, created.ID), id)
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", created.UserID).Error("Failed to save link")
		return nil, fmt.Errorf("save link: %w", err)
	}
	return created, nil
}

// GetByID returns the link document with id, or store.ErrNotFound.
func (s *LinkStore) GetByID(ctx context.Context, id string) (*store.Link, error) {
	var l *store.Link
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		l, err = getLink(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListByOwner scans the owner index, which is ordered by creation time.
func (s *LinkStore) ListByOwner(ctx context.Context, ownerID string, page store.Page) ([]*store.Link, error) {
	links := []*store.Link{}
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := scanIDs(txn, ownerPrefix(ownerID))
		if err != nil {
			return err
		}
		start, end := page.Window(len(ids))
		for _, id := range ids[start:end] {
			l, err := getLink(txn, id)
			if err != nil {
				return fmt.Errorf("resolve owner index entry %s: %w", id, err)
			}
			links = append(links, l)
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", ownerID).Error("Failed to list links")
		return nil, err
	}
	return links, nil
}

// ListByURL returns every link whose url matches exactly.
func (s *LinkStore) ListByURL(ctx context.Context, url string) ([]*store.Link, error) {
	links := []*store.Link{}
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := scanIDs(txn, urlPrefix(url))
		if err != nil {
			return err
		}
		for _, id := range ids {
			l, err := getLink(txn, id)
			if err != nil {
				return fmt.Errorf("resolve url index entry %s: %w", id, err)
			}
			links = append(links, l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

// Update overwrites the mutable fields of an existing link, moving its url
// index entry when the url changes. UserID and CreatedAt come from the stored document.
func (s *LinkStore) Update(ctx context.Context, l *store.Link) (*store.Link, error) {
	var updated *store.Link
	err := update(s.db, func(txn *badger.Txn) error {
		existing, err := getLink(txn, l.ID)
		if err != nil {
			return err
		}
		if existing.URL != l.URL {
			if err := txn.Delete(urlKey(existing.URL, existing.ID)); err != nil {
				return err
			}
			if err := txn.Set(urlKey(l.URL, existing.ID), []byte(existing.ID)); err != nil {
				return err
			}
		}
		existing.URL = l.URL
		existing.Title = l.Title
		existing.Description = l.Description
		existing.Tags = copyTags(l.Tags)
		updated = existing
		return putLink(txn, existing)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the link document and its index entries.
func (s *LinkStore) Delete(ctx context.Context, id string) error {
	return update(s.db, func(txn *badger.Txn) error {
		existing, err := getLink(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(ownerKey(existing.UserID, existing.CreatedAt.UnixNano(), id)); err != nil {
			return err
		}
		if err := txn.Delete(urlKey(existing.URL, id)); err != nil {
			return err
		}
		return txn.Delete(linkKey(id))
	})
}

func getLink(txn *badger.Txn, id string) (*store.Link, error) {
	item, err := txn.Get(linkKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var l store.Link
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &l)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal link %s: %w", id, err)
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return &l, nil
}

func putLink(txn *badger.Txn, l *store.Link) error {
	b, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal link: %w", err)
	}
	return txn.Set(linkKey(l.ID), b)
}

// scanIDs collects the link ids stored under an index prefix, in key order.
func scanIDs(txn *badger.Txn, prefix []byte) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		ids = append(ids, string(val))
	}
	return ids, nil
}

func copyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
