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

// URLUniqueness selects how duplicate link urls are treated.
type URLUniqueness string

const (
	// URLUniqueNone allows any number of links with the same url.
	URLUniqueNone URLUniqueness = "none"
	// URLUniqueOwner rejects a second link with the same url for one owner.
	URLUniqueOwner URLUniqueness = "owner"
	// URLUniqueGlobal rejects a url already stored by anyone.
	URLUniqueGlobal URLUniqueness = "global"
)

// ParseURLUniqueness validates a configured policy name. Empty means none.
func ParseURLUniqueness(s string) (URLUniqueness, error) {
	switch u := URLUniqueness(s); u {
	case "":
		return URLUniqueNone, nil
	case URLUniqueNone, URLUniqueOwner, URLUniqueGlobal:
		return u, nil
	default:
		return "", fmt.Errorf("unknown url uniqueness policy %q: must be none, owner, or global", s)
	}
}

// LinkOptions tunes LinkService behaviour.
type LinkOptions struct {
	URLUniqueness URLUniqueness
}

// LinkService provides owner-scoped link operations.
type LinkService struct {
	links store.LinkStore
	users store.UserStore
	opts  LinkOptions
	log   logrus.FieldLogger
}

// NewLinkService returns a LinkService. users is consulted for owner existence.
func NewLinkService(links store.LinkStore, users store.UserStore, opts LinkOptions, log logrus.FieldLogger) *LinkService {
	if opts.URLUniqueness == "" {
		opts.URLUniqueness = URLUniqueNone
	}
	return &LinkService{
		links: links,
		users: users,
		opts:  opts,
		log:   log.WithField("component", "link_service"),
	}
}

// List returns every link owned by owner.
func (s *LinkService) List(ctx context.Context, owner string, caller auth.Identity, page store.Page) ([]*store.Link, error) {
	log := s.log.WithFields(logrus.Fields{"op": "list", "owner": owner, "caller": caller.Subject})
	log.Info("listing links")

	if err := authorize(log, owner, caller); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, owner); err != nil {
		return nil, err
	}

	links, err := s.links.ListByOwner(ctx, owner, page)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	log.WithField("count", len(links)).Info("links listed")
	return links, nil
}

// Get returns one link, which must belong to owner.
func (s *LinkService) Get(ctx context.Context, owner string, caller auth.Identity, id string) (*store.Link, error) {
	log := s.log.WithFields(logrus.Fields{"op": "get", "owner": owner, "caller": caller.Subject, "link_id": id})
	log.Info("fetching link")

	if err := authorize(log, owner, caller); err != nil {
		return nil, err
	}
	l, err := s.ownedLink(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	log.Info("link fetched")
	return l, nil
}

// Create validates in and stores it as a new link of owner.
func (s *LinkService) Create(ctx context.Context, owner string, caller auth.Identity, in LinkInput) (*store.Link, error) {
	log := s.log.WithFields(logrus.Fields{"op": "create", "owner": owner, "caller": caller.Subject})
	log.Info("creating link")

	if err := in.validate(); err != nil {
		log.WithError(err).Info("link payload rejected")
		return nil, err
	}
	if err := authorize(log, owner, caller); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, owner); err != nil {
		return nil, err
	}
	if err := s.checkURL(ctx, owner, "", in.URL); err != nil {
		return nil, err
	}

	l, err := s.links.Create(ctx, &store.Link{
		UserID:      owner,
		URL:         in.URL,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}
	metrics.MutationsTotal.WithLabelValues("link", "create").Inc()
	log.WithField("link_id", l.ID).Info("link created")
	return l, nil
}

// Update applies the fields present in p to one of owner's links.
// An empty patch returns the stored link untouched.
func (s *LinkService) Update(ctx context.Context, owner string, caller auth.Identity, id string, p LinkPatch) (*store.Link, error) {
	log := s.log.WithFields(logrus.Fields{"op": "update", "owner": owner, "caller": caller.Subject, "link_id": id})
	log.Info("updating link")

	if err := p.validate(); err != nil {
		log.WithError(err).Info("link patch rejected")
		return nil, err
	}
	if err := authorize(log, owner, caller); err != nil {
		return nil, err
	}
	l, err := s.ownedLink(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		log.Info("empty patch, link unchanged")
		return l, nil
	}

	if p.URL != nil && *p.URL != l.URL {
		if err := s.checkURL(ctx, owner, l.ID, *p.URL); err != nil {
			return nil, err
		}
		l.URL = *p.URL
	}
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Tags != nil {
		l.Tags = *p.Tags
	}

	updated, err := s.links.Update(ctx, l)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	metrics.MutationsTotal.WithLabelValues("link", "update").Inc()
	log.Info("link updated")
	return updated, nil
}

// Delete removes one of owner's links.
func (s *LinkService) Delete(ctx context.Context, owner string, caller auth.Identity, id string) error {
	log := s.log.WithFields(logrus.Fields{"op": "delete", "owner": owner, "caller": caller.Subject, "link_id": id})
	log.Info("deleting link")

	if err := authorize(log, owner, caller); err != nil {
		return err
	}
	if _, err := s.ownedLink(ctx, owner, id); err != nil {
		return err
	}
	err := s.links.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrLinkNotFound
	}
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	metrics.MutationsTotal.WithLabelValues("link", "delete").Inc()
	log.Info("link deleted")
	return nil
}

func (s *LinkService) requireUser(ctx context.Context, id string) error {
	_, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	return nil
}

// ownedLink loads a link and hides links of other owners behind ErrLinkNotFound.
func (s *LinkService) ownedLink(ctx context.Context, owner, id string) (*store.Link, error) {
	l, err := s.links.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if l.UserID != owner {
		return nil, ErrLinkNotFound
	}
	return l, nil
}

// checkURL enforces the configured uniqueness policy. selfID is skipped so a
// link never collides with itself.
func (s *LinkService) checkURL(ctx context.Context, owner, selfID, url string) error {
	if s.opts.URLUniqueness == URLUniqueNone {
		return nil
	}
	existing, err := s.links.ListByURL(ctx, url)
	if err != nil {
		return fmt.Errorf("list links by url: %w", err)
	}
	for _, l := range existing {
		if l.ID == selfID {
			continue
		}
		if s.opts.URLUniqueness == URLUniqueGlobal || l.UserID == owner {
			return ErrDuplicateURL
		}
	}
	return nil
}

// authorize is the single ownership rule: the caller may only act as itself.
func authorize(log logrus.FieldLogger, owner string, caller auth.Identity) error {
	if caller.Subject == "" || caller.Subject != owner {
		log.Warn("caller does not own resource")
		return ErrForbidden
	}
	return nil
}
