// Package flags is a small ordered key/value side-store for per-viewer
// boolean flags such as bookmark pins. Presence of a key means the flag is
// set; clearing deletes the key.
package flags

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// Config selects where the store lives. An empty Path opens an in-memory
// store.
type Config struct {
	Path       string
	SyncWrites bool
	Logger     logger.Logger
}

// Store is a Badger-backed flag set.
type Store struct {
	db *badger.DB
}

type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(f string, args ...interface{})   { l.log.Errorf(f, args...) }
func (l *badgerLogger) Warningf(f string, args ...interface{}) { l.log.Warnf(f, args...) }
func (l *badgerLogger) Infof(f string, args ...interface{})    { l.log.Debugf(f, args...) }
func (l *badgerLogger) Debugf(f string, args ...interface{})   { l.log.Debugf(f, args...) }

// Open opens (or creates) the store.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create flag store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{log: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open flag store: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a throwaway store.
func OpenInMemory() (*Store, error) {
	return Open(Config{})
}

// Has reports whether key is set. A missing key is not an error.
func (s *Store) Has(_ context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("get flag %q: %w", key, err)
	}
}

// Set marks key.
func (s *Store) Set(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte{1})
	})
	if err != nil {
		return fmt.Errorf("set flag %q: %w", key, err)
	}
	return nil
}

// Clear removes key. Clearing an unset key is a no-op.
func (s *Store) Clear(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("clear flag %q: %w", key, err)
	}
	return nil
}

// Keys streams every set key starting with prefix, in key order. The
// prefix is included in the yielded keys.
func (s *Store) Keys(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = []byte(prefix)
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if !yield(string(it.Item().KeyCopy(nil)), nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", fmt.Errorf("list flags: %w", err))
		}
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
