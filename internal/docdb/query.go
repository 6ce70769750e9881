package docdb

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

// Query is a lazy, ordered view over one index of a collection. Builder
// methods mutate and return the receiver. The pipeline is fixed: index walk
// in the chosen direction, then filters, then offset, then limit.
type Query[T any] struct {
	c       *Collection[T]
	index   string
	ranges  []Range
	filters []func(*Record[T]) bool
	offset  int
	limit   int
	reverse bool
	err     error
}

// Clause selects the match on one index.
type Clause[T any] struct {
	q     *Query[T]
	index string
}

// Where selects the index to walk.
func (q *Query[T]) Where(index string) *Clause[T] {
	return &Clause[T]{q: q, index: index}
}

// OrderBy walks every entry of index.
func (q *Query[T]) OrderBy(index string) *Query[T] {
	return q.use(index, []Range{{}})
}

// Equals matches the exact tuple formed by parts.
func (w *Clause[T]) Equals(parts ...any) *Query[T] {
	k := Tuple(parts).Encode()
	return w.q.use(w.index, []Range{{Lo: k, Hi: k, HiInclusive: true}})
}

// AnyOf matches any of the given tuples.
func (w *Clause[T]) AnyOf(vals ...Tuple) *Query[T] {
	ranges := make([]Range, 0, len(vals))
	for _, v := range vals {
		k := v.Encode()
		ranges = append(ranges, Range{Lo: k, Hi: k, HiInclusive: true})
	}
	return w.q.use(w.index, ranges)
}

// Between matches lo <= key < hi.
func (w *Clause[T]) Between(lo, hi Tuple) *Query[T] {
	return w.q.use(w.index, []Range{{Lo: lo.Encode(), Hi: hi.Encode()}})
}

// AnyRange matches the union of ranges.
func (w *Clause[T]) AnyRange(ranges ...Range) *Query[T] {
	return w.q.use(w.index, ranges)
}

// Span builds a Between-style range for AnyRange.
func Span(lo, hi Tuple) Range {
	return Range{Lo: lo.Encode(), Hi: hi.Encode()}
}

func (q *Query[T]) use(index string, ranges []Range) *Query[T] {
	if _, ok := q.c.indexes[index]; !ok {
		q.err = fmt.Errorf("collection %s has no index %q", q.c.spec.Name, index)
		return q
	}
	sorted := append([]Range(nil), ranges...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })
	q.index = index
	q.ranges = sorted
	return q
}

// Filter drops records for which keep returns false. Order is preserved.
func (q *Query[T]) Filter(keep func(*Record[T]) bool) *Query[T] {
	q.filters = append(q.filters, keep)
	return q
}

// Offset skips the first n matches.
func (q *Query[T]) Offset(n int) *Query[T] {
	if n > 0 {
		q.offset = n
	}
	return q
}

// Limit caps the number of matches. Zero means no limit.
func (q *Query[T]) Limit(n int) *Query[T] {
	if n > 0 {
		q.limit = n
	}
	return q
}

// Reverse flips the walk direction. Offset and limit count from the start
// of the reversed sequence.
func (q *Query[T]) Reverse() *Query[T] {
	q.reverse = !q.reverse
	return q
}

// hit is one walked entry, with its record loaded when needed.
type hit[T any] struct {
	entry  Entry
	record *Record[T]
}

// walk yields matching entries after filters, offset and limit. Records are
// loaded only when load is set or filters need them.
func (q *Query[T]) walk(ctx context.Context, load, dedupe bool) iter.Seq2[hit[T], error] {
	return func(yield func(hit[T], error) bool) {
		if q.err != nil {
			yield(hit[T]{}, q.err)
			return
		}
		load = load || len(q.filters) > 0
		dedupe = dedupe && (q.c.indexes[q.index].Multi || len(q.ranges) > 1)
		var seen map[string]struct{}
		if dedupe {
			seen = make(map[string]struct{})
		}

		skipped, emitted := 0, 0
		for i := range q.ranges {
			r := q.ranges[i]
			if q.reverse {
				r = q.ranges[len(q.ranges)-1-i]
			}
			for e, err := range q.c.db.engine.Scan(ctx, q.c.spec.Name, q.index, r, q.reverse) {
				if err != nil {
					yield(hit[T]{}, domain.Collaborator("scan "+q.c.spec.Name+"."+q.index, err))
					return
				}
				if err := ctx.Err(); err != nil {
					yield(hit[T]{}, err)
					return
				}
				if dedupe {
					if _, dup := seen[e.Key]; dup {
						continue
					}
				}
				h := hit[T]{entry: e}
				if load {
					rec, err := q.c.Get(ctx, e.Key)
					if err != nil {
						yield(hit[T]{}, err)
						return
					}
					if rec == nil {
						// removed between the index read and the load
						continue
					}
					if !q.keep(rec) {
						continue
					}
					h.record = rec
				}
				if dedupe {
					seen[e.Key] = struct{}{}
				}
				if skipped < q.offset {
					skipped++
					continue
				}
				if !yield(h, nil) {
					return
				}
				emitted++
				if q.limit > 0 && emitted >= q.limit {
					return
				}
			}
		}
	}
}

func (q *Query[T]) keep(rec *Record[T]) bool {
	for _, f := range q.filters {
		if !f(rec) {
			return false
		}
	}
	return true
}

// All streams the matching records.
func (q *Query[T]) All(ctx context.Context) iter.Seq2[*Record[T], error] {
	return func(yield func(*Record[T], error) bool) {
		for h, err := range q.walk(ctx, true, true) {
			if !yield(h.record, err) || err != nil {
				return
			}
		}
	}
}

// ToArray materializes the matching records.
func (q *Query[T]) ToArray(ctx context.Context) ([]*Record[T], error) {
	out := []*Record[T]{}
	for rec, err := range q.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Each calls fn for every matching record in order.
func (q *Query[T]) Each(ctx context.Context, fn func(*Record[T]) error) error {
	for rec, err := range q.All(ctx) {
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// First returns the first match or nil.
func (q *Query[T]) First(ctx context.Context) (*Record[T], error) {
	q.Limit(1)
	for rec, err := range q.All(ctx) {
		return rec, err
	}
	return nil, nil
}

// Count returns the number of matching records. Records reachable through
// several index entries are counted once.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	n := 0
	for _, err := range q.walk(ctx, false, true) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// Keys returns every index tuple walked, one per entry. A record indexed
// under several tuples contributes each of them.
func (q *Query[T]) Keys(ctx context.Context) ([]Tuple, error) {
	out := []Tuple{}
	for h, err := range q.walk(ctx, false, false) {
		if err != nil {
			return nil, err
		}
		t, err := DecodeTuple(h.entry.Index)
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s key: %w", q.c.spec.Name, q.index, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// UniqueKeys returns the distinct index tuples walked, in walk order.
func (q *Query[T]) UniqueKeys(ctx context.Context) ([]Tuple, error) {
	keys, err := q.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Tuple, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		e := k.Encode()
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

// Update applies fn to every matching record and stores the result. It
// returns the number of records written.
func (q *Query[T]) Update(ctx context.Context, fn func(*T)) (int, error) {
	recs, err := q.ToArray(ctx)
	if err != nil {
		return 0, err
	}
	for i, rec := range recs {
		v := rec.Value
		fn(&v)
		if _, err := q.c.Put(ctx, rec.Key, &v); err != nil {
			return i, err
		}
	}
	return len(recs), nil
}

// Delete removes every matching record and returns how many were removed.
func (q *Query[T]) Delete(ctx context.Context) (int, error) {
	var keys []string
	for h, err := range q.walk(ctx, false, true) {
		if err != nil {
			return 0, err
		}
		keys = append(keys, h.entry.Key)
	}
	for i, k := range keys {
		if err := q.c.Delete(ctx, k); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}
