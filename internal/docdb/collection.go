package docdb

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// OriginIndex exists on every collection and maps the record's vault URL to
// the record.
const OriginIndex = ":origin"

// DB binds collections to an engine and an optional mirror.
type DB struct {
	engine Engine
	mirror Mirror
	log    logger.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithMirror writes every stored record back through m.
func WithMirror(m Mirror) Option { return func(db *DB) { db.mirror = m } }

// WithLogger sets the logger used for skipped records.
func WithLogger(l logger.Logger) Option { return func(db *DB) { db.log = l } }

// New returns a DB over engine.
func New(engine Engine, opts ...Option) *DB {
	db := &DB{engine: engine, log: logger.NewNop()}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Engine returns the engine the DB writes to.
func (db *DB) Engine() Engine { return db.engine }

// Close closes the engine.
func (db *DB) Close() error { return db.engine.Close() }

// IndexSpec describes one secondary index. Keys returns the tuples the
// record is indexed under; Multi marks indexes that can return several
// tuples per record (e.g. one per tag).
type IndexSpec[T any] struct {
	Name  string
	Multi bool
	Keys  func(origin string, v *T) []Tuple
}

// Spec defines a collection.
type Spec[T any] struct {
	Name string
	// FilePattern matches the in-vault path of every record, e.g.
	// "/bookmarks/*.json".
	FilePattern string
	Indexes     []IndexSpec[T]
	// Preprocess runs on every read and before every write.
	Preprocess func(v *T)
	// Serialize returns the shape written to the vault file. Defaults to v.
	Serialize func(v *T) any
}

// Collection is a typed view over one engine collection.
type Collection[T any] struct {
	db      *DB
	spec    Spec[T]
	indexes map[string]IndexSpec[T]
}

// Define registers a collection on db.
func Define[T any](db *DB, spec Spec[T]) (*Collection[T], error) {
	if spec.Name == "" || spec.FilePattern == "" {
		return nil, fmt.Errorf("collection needs a name and a file pattern")
	}
	c := &Collection[T]{db: db, spec: spec, indexes: make(map[string]IndexSpec[T], len(spec.Indexes)+1)}
	c.indexes[OriginIndex] = IndexSpec[T]{
		Name: OriginIndex,
		Keys: func(origin string, _ *T) []Tuple { return []Tuple{{origin}} },
	}
	for _, idx := range spec.Indexes {
		if _, dup := c.indexes[idx.Name]; dup {
			return nil, fmt.Errorf("collection %s: duplicate index %q", spec.Name, idx.Name)
		}
		c.indexes[idx.Name] = idx
	}
	return c, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.spec.Name }

// Split returns the origin and in-vault path of key.
func (c *Collection[T]) Split(key string) (origin, file string, err error) {
	origin, file, err = splitKey(c.spec.FilePattern, key)
	if err != nil {
		return "", "", domain.Invalid("key", err.Error())
	}
	return origin, file, nil
}

// Get loads one record. A missing record is (nil, nil).
func (c *Collection[T]) Get(ctx context.Context, key string) (*Record[T], error) {
	origin, file, err := c.Split(key)
	if err != nil {
		return nil, err
	}
	doc, ok, err := c.db.engine.Get(ctx, c.spec.Name, key)
	if err != nil {
		return nil, domain.Collaborator("get "+c.spec.Name, err)
	}
	if !ok {
		return nil, nil
	}
	return c.decode(key, origin, file, doc)
}

func (c *Collection[T]) decode(key, origin, file string, doc []byte) (*Record[T], error) {
	rec := &Record[T]{Key: key, Origin: origin, Path: file}
	if err := json.Unmarshal(doc, &rec.Value); err != nil {
		return nil, domain.Collaborator("decode "+key, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if c.spec.Preprocess != nil {
		c.spec.Preprocess(&rec.Value)
	}
	return rec, nil
}

// Put stores v at key, replacing any previous record and its index entries.
func (c *Collection[T]) Put(ctx context.Context, key string, v *T) (*Record[T], error) {
	origin, file, err := c.Split(key)
	if err != nil {
		return nil, err
	}
	if c.spec.Preprocess != nil {
		c.spec.Preprocess(v)
	}
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}

	if c.db.mirror != nil {
		var out any = v
		if c.spec.Serialize != nil {
			out = c.spec.Serialize(v)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", key, err)
		}
		if err := c.db.mirror.WriteRecord(ctx, origin, file, data); err != nil {
			return nil, domain.Collaborator("write "+key, err)
		}
	}

	if err := c.db.engine.Put(ctx, c.spec.Name, key, doc, c.entries(origin, v)); err != nil {
		return nil, domain.Collaborator("put "+c.spec.Name, err)
	}
	return &Record[T]{Key: key, Origin: origin, Path: file, Value: *v}, nil
}

// Ingest indexes a document read from its vault. Nothing is mirrored back.
func (c *Collection[T]) Ingest(ctx context.Context, key string, data []byte) error {
	origin, file, err := c.Split(key)
	if err != nil {
		return err
	}
	rec, err := c.decode(key, origin, file, data)
	if err != nil {
		return err
	}
	doc, err := json.Marshal(&rec.Value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.db.engine.Put(ctx, c.spec.Name, key, doc, c.entries(origin, &rec.Value)); err != nil {
		return domain.Collaborator("put "+c.spec.Name, err)
	}
	return nil
}

// Matches reports whether an in-vault path belongs to this collection.
func (c *Collection[T]) Matches(file string) bool {
	ok, _ := path.Match(c.spec.FilePattern, file)
	return ok
}

// Dir returns the in-vault directory holding the collection's files.
func (c *Collection[T]) Dir() string {
	return path.Dir(c.spec.FilePattern)
}

// Upsert loads the record at key (or a zero value), applies patch and
// stores the result.
func (c *Collection[T]) Upsert(ctx context.Context, key string, patch func(v *T)) (*Record[T], error) {
	var v T
	existing, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		v = existing.Value
	}
	patch(&v)
	return c.Put(ctx, key, &v)
}

// Delete removes the record at key. Deleting a missing record is a no-op.
func (c *Collection[T]) Delete(ctx context.Context, key string) error {
	origin, file, err := c.Split(key)
	if err != nil {
		return err
	}
	if c.db.mirror != nil {
		if err := c.db.mirror.RemoveRecord(ctx, origin, file); err != nil {
			return domain.Collaborator("remove "+key, err)
		}
	}
	if err := c.db.engine.Delete(ctx, c.spec.Name, key); err != nil {
		return domain.Collaborator("delete "+c.spec.Name, err)
	}
	return nil
}

func (c *Collection[T]) entries(origin string, v *T) map[string][]string {
	out := make(map[string][]string, len(c.indexes))
	for name, idx := range c.indexes {
		tuples := idx.Keys(origin, v)
		if len(tuples) == 0 {
			continue
		}
		seen := make(map[string]struct{}, len(tuples))
		encoded := make([]string, 0, len(tuples))
		for _, t := range tuples {
			e := t.Encode()
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			encoded = append(encoded, e)
		}
		out[name] = encoded
	}
	return out
}

// Query starts a query that walks the whole collection in origin order.
func (c *Collection[T]) Query() *Query[T] {
	return &Query[T]{c: c, index: OriginIndex, ranges: []Range{{}}}
}

// Where starts a query on index.
func (c *Collection[T]) Where(index string) *Clause[T] {
	return c.Query().Where(index)
}

// OrderBy starts a query that walks every record in index order.
func (c *Collection[T]) OrderBy(index string) *Query[T] {
	return c.Query().OrderBy(index)
}
