package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/linkshelf/linkshelf/internal/store"
)

// UserStore implements store.UserStore over the user collection.
type UserStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

var _ store.UserStore = (*UserStore)(nil)

// Create stores u under its id and fails with store.ErrConflict instead of
// overwriting an existing document.
func (s *UserStore) Create(ctx context.Context, u *store.User) (*store.User, error) {
	created := &store.User{ID: u.ID, Email: u.Email, Username: u.Username}
	err := update(s.db, func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(u.ID))
		if err == nil {
			return store.ErrConflict
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return putUser(txn, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*store.User, error) {
	var u *store.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) Update(ctx context.Context, u *store.User) (*store.User, error) {
	var updated *store.User
	err := update(s.db, func(txn *badger.Txn) error {
		existing, err := getUser(txn, u.ID)
		if err != nil {
			return err
		}
		existing.Email = u.Email
		existing.Username = u.Username
		updated = existing
		return putUser(txn, existing)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the user document. Owned links are not touched.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	return update(s.db, func(txn *badger.Txn) error {
		if _, err := getUser(txn, id); err != nil {
			return err
		}
		return txn.Delete(userKey(id))
	})
}

func getUser(txn *badger.Txn, id string) (*store.User, error) {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var u store.User
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &u) }); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", id, err)
	}
	return &u, nil
}

func putUser(txn *badger.Txn, u *store.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return txn.Set(userKey(u.ID), b)
}
