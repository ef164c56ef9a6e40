package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/linkshelf/linkshelf/internal/auth"
	"github.com/linkshelf/linkshelf/internal/metrics"
	"github.com/linkshelf/linkshelf/internal/store"
)

// UserService provides self-only user profile operations.
type UserService struct {
	users store.UserStore
	log   logrus.FieldLogger
}

// NewUserService returns a UserService over users.
func NewUserService(users store.UserStore, log logrus.FieldLogger) *UserService {
	return &UserService{users: users, log: log.WithField("component", "user_service")}
}

// Get returns the caller's own user record.
func (s *UserService) Get(ctx context.Context, id string, caller auth.Identity) (*store.User, error) {
	log := s.log.WithFields(logrus.Fields{"op": "get", "user_id": id, "caller": caller.Subject})
	log.Info("fetching user")

	if err := authorize(log, id, caller); err != nil {
		return nil, err
	}
	u, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info("user fetched")
	return u, nil
}

// Create registers the caller's own profile. An existing id is never overwritten.
func (s *UserService) Create(ctx context.Context, in UserInput, caller auth.Identity) (*store.User, error) {
	log := s.log.WithFields(logrus.Fields{"op": "create", "user_id": in.ID, "caller": caller.Subject})
	log.Info("creating user")

	if err := in.validate(); err != nil {
		log.WithError(err).Info("user payload rejected")
		return nil, err
	}
	if err := authorize(log, in.ID, caller); err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, &store.User{ID: in.ID, Email: in.Email, Username: in.Username})
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.MutationsTotal.WithLabelValues("user", "create").Inc()
	log.Info("user created")
	return u, nil
}

// Update applies the fields present in p.
func (s *UserService) Update(ctx context.Context, id string, p UserPatch, caller auth.Identity) (*store.User, error) {
	log := s.log.WithFields(logrus.Fields{"op": "update", "user_id": id, "caller": caller.Subject})
	log.Info("updating user")

	if err := p.validate(); err != nil {
		log.WithError(err).Info("user patch rejected")
		return nil, err
	}
	if err := authorize(log, id, caller); err != nil {
		return nil, err
	}
	u, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Email == nil && p.Username == nil {
		return u, nil
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}

	updated, err := s.users.Update(ctx, u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	metrics.MutationsTotal.WithLabelValues("user", "update").Inc()
	log.Info("user updated")
	return updated, nil
}

// Delete removes the caller's profile. Links the user owns are kept.
func (s *UserService) Delete(ctx context.Context, id string, caller auth.Identity) error {
	log := s.log.WithFields(logrus.Fields{"op": "delete", "user_id": id, "caller": caller.Subject})
	log.Info("deleting user")

	if err := authorize(log, id, caller); err != nil {
		return err
	}
	err := s.users.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	metrics.MutationsTotal.WithLabelValues("user", "delete").Inc()
	log.Info("user deleted")
	return nil
}

func (s *UserService) get(ctx context.Context, id string) (*store.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
