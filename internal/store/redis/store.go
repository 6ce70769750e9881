package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/redis/go-redis/v9"
)

const (
	// scanPage is the LIMIT used for each ZRANGEBYLEX round trip
	scanPage = 256
	// maxTxRetries bounds optimistic retries when a watched key changes
	maxTxRetries = 8
)

// Store is a docdb.Engine backed by Redis. Documents are plain strings,
// indexes are score-0 sorted sets walked with ZRANGEBYLEX.
type Store struct {
	client *redis.Client
}

var _ docdb.Engine = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get retrieves a document by key
func (s *Store) Get(ctx context.Context, coll, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, DocKey(coll, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get document: %w", err)
	}
	return data, true, nil
}

// Put stores a document and swaps its index entries in one MULTI/EXEC.
// The entries hash is watched so a concurrent write to the same key
// retries instead of leaving stale members behind.
func (s *Store) Put(ctx context.Context, coll, key string, doc []byte, entries map[string][]string) error {
	fields := make(map[string]any, len(entries))
	for index, keys := range entries {
		raw, err := encodeEntries(keys)
		if err != nil {
			return err
		}
		fields[index] = raw
	}

	ek := EntriesKey(coll, key)
	return s.withWatch(ctx, ek, func(tx *redis.Tx) error {
		old, err := loadEntries(ctx, tx, ek)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			removeMembers(ctx, pipe, coll, key, old)
			pipe.Del(ctx, ek)
			pipe.Set(ctx, DocKey(coll, key), doc, 0)
			for index, keys := range entries {
				members := make([]redis.Z, 0, len(keys))
				for _, k := range keys {
					members = append(members, redis.Z{Score: 0, Member: docdb.Member(k, key)})
				}
				if len(members) > 0 {
					pipe.ZAdd(ctx, IndexKey(coll, index), members...)
				}
			}
			if len(fields) > 0 {
				pipe.HSet(ctx, ek, fields)
			}
			return nil
		})
		return err
	})
}

// Delete removes a document and its index entries
func (s *Store) Delete(ctx context.Context, coll, key string) error {
	ek := EntriesKey(coll, key)
	return s.withWatch(ctx, ek, func(tx *redis.Tx) error {
		old, err := loadEntries(ctx, tx, ek)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			removeMembers(ctx, pipe, coll, key, old)
			pipe.Del(ctx, ek, DocKey(coll, key))
			return nil
		})
		return err
	})
}

// Scan pages through an index with ZRANGEBYLEX / ZREVRANGEBYLEX, resuming
// each page strictly after the last member seen.
func (s *Store) Scan(ctx context.Context, coll, index string, r docdb.Range, reverse bool) iter.Seq2[docdb.Entry, error] {
	lo, hi := r.Bounds()
	min, max := "-", "+"
	if lo != "" {
		min = "[" + lo
	}
	if hi != "" {
		max = "(" + hi
	}
	zkey := IndexKey(coll, index)

	return func(yield func(docdb.Entry, error) bool) {
		for {
			by := &redis.ZRangeBy{Min: min, Max: max, Count: scanPage}
			var page []string
			var err error
			if reverse {
				page, err = s.client.ZRevRangeByLex(ctx, zkey, by).Result()
			} else {
				page, err = s.client.ZRangeByLex(ctx, zkey, by).Result()
			}
			if err != nil {
				yield(docdb.Entry{}, fmt.Errorf("failed to scan index: %w", err))
				return
			}
			for _, m := range page {
				if !yield(docdb.SplitMember(m), nil) {
					return
				}
			}
			if len(page) < scanPage {
				return
			}
			last := "(" + page[len(page)-1]
			if reverse {
				max = last
			} else {
				min = last
			}
		}
	}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) withWatch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to write document: %s changed %d times", key, maxTxRetries)
}

func loadEntries(ctx context.Context, tx *redis.Tx, ek string) (map[string][]string, error) {
	raw, err := tx.HGetAll(ctx, ek).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	out := make(map[string][]string, len(raw))
	for index, v := range raw {
		keys, err := decodeEntries(v)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal entries for %s: %w", index, err)
		}
		out[index] = keys
	}
	return out, nil
}

// encodeEntries stores each encoded tuple as a JSON byte string (base64),
// so keys that are not valid UTF-8 come back byte for byte.
func encodeEntries(keys []string) ([]byte, error) {
	bs := make([][]byte, len(keys))
	for i, k := range keys {
		bs[i] = []byte(k)
	}
	raw, err := json.Marshal(bs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entries: %w", err)
	}
	return raw, nil
}

func decodeEntries(v string) ([]string, error) {
	var bs [][]byte
	if err := json.Unmarshal([]byte(v), &bs); err != nil {
		return nil, err
	}
	keys := make([]string, len(bs))
	for i, b := range bs {
		keys[i] = string(b)
	}
	return keys, nil
}

func removeMembers(ctx context.Context, pipe redis.Pipeliner, coll, key string, entries map[string][]string) {
	for index, keys := range entries {
		members := make([]any, 0, len(keys))
		for _, k := range keys {
			members = append(members, docdb.Member(k, key))
		}
		if len(members) > 0 {
			pipe.ZRem(ctx, IndexKey(coll, index), members...)
		}
	}
}
