// Package docstore implements the store interfaces as JSON documents in BadgerDB.
//
// Key layout:
//
//	user:{id}                              -> User JSON
//	link:{id}                              -> Link JSON
//	owner\x00{owner}\x00{created}\x00{id}  -> link id
//	url\x00{url}\x00{id}                   -> link id
//
// {created} is the creation time in zero-padded Unix nanoseconds, so a prefix
// scan over an owner's index returns links oldest first.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// DB owns the Badger handle shared by the link and user stores.
type DB struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// Open opens (or creates) a Badger database at path.
func Open(path string, logger logrus.FieldLogger) (*DB, error) {
	return open(badger.DefaultOptions(path), logger)
}

// OpenInMemory opens a Badger database that never touches disk.
func OpenInMemory(logger logrus.FieldLogger) (*DB, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger logrus.FieldLogger) (*DB, error) {
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("open badger db at %q: %w", opts.Dir, err)
	}
	logger.WithFields(logrus.Fields{"path": opts.Dir, "in_memory": opts.InMemory}).Info("BadgerDB opened")

	return &DB{db: db, log: logger.WithField("component", "docstore")}, nil
}

// Links returns a LinkStore backed by d.
func (d *DB) Links() *LinkStore {
	return &LinkStore{db: d.db, log: d.log.WithField("collection", "link")}
}

// Users returns a UserStore backed by d.
func (d *DB) Users() *UserStore {
	return &UserStore{db: d.db, log: d.log.WithField("collection", "user")}
}

// Close closes the Badger database.
func (d *DB) Close() error {
	d.log.Info("Closing BadgerDB")
	if err := d.db.Close(); err != nil {
		d.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	return nil
}

// RunGC reclaims value-log space every interval until ctx is cancelled.
func (d *DB) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := d.db.RunValueLogGC(0.7)
			switch {
			case err == nil:
				d.log.Debug("BadgerDB GC completed")
			case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
				d.log.Debug("BadgerDB GC: nothing to rewrite")
			default:
				d.log.WithError(err).Error("BadgerDB GC failed")
			}
		case <-ctx.Done():
			d.log.Debug("Stopping BadgerDB GC")
			return
		}
	}
}

// maxTxnAttempts bounds how often update reruns a conflicting transaction.
const maxTxnAttempts = 100

// update runs fn in a read-write transaction and reruns it while a concurrent
// transaction commits first, so the last committer wins. fn must be safe to
// run more than once.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		if err = db.Update(fn); !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("transaction still conflicting after %d attempts: %w", maxTxnAttempts, err)
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
