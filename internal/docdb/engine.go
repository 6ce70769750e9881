package docdb

import (
	"context"
	"iter"
	"strings"
)

// Entry is one index entry: an encoded tuple pointing at a record key.
type Entry struct {
	Index string
	Key   string
}

// Range bounds an index walk over encoded tuples. Lo is inclusive; Hi is
// exclusive unless HiInclusive is set. Empty bounds are open.
type Range struct {
	Lo, Hi      string
	HiInclusive bool
}

// Engine is the raw storage port behind every collection.
type Engine interface {
	// Get returns the stored document for key, or ok=false when absent.
	Get(ctx context.Context, coll, key string) ([]byte, bool, error)
	// Put atomically replaces the document at key together with all of its
	// index entries. entries maps index name to encoded tuples.
	Put(ctx context.Context, coll, key string, doc []byte, entries map[string][]string) error
	// Delete removes the document and every index entry pointing at it.
	Delete(ctx context.Context, coll, key string) error
	// Scan walks one index within r. Entries come in tuple order with ties
	// broken by record key, both reversed when reverse is set.
	Scan(ctx context.Context, coll, index string, r Range, reverse bool) iter.Seq2[Entry, error]
	Close() error
}

// Member encodes an entry as a single sortable string. Tuple encodings end
// in a terminator byte and never contain two in a row, so a second
// terminator unambiguously separates the record key.
func Member(index, key string) string {
	return index + string(term) + key
}

// SplitMember reverses Member.
func SplitMember(m string) Entry {
	i := strings.Index(m, string([]byte{term, term}))
	if i < 0 {
		return Entry{Key: m}
	}
	return Entry{Index: m[:i+1], Key: m[i+2:]}
}

// Bounds converts r into member-space bounds: every member inside r
// satisfies lo <= member < hi. An empty hi means unbounded.
func (r Range) Bounds() (lo, hi string) {
	lo = r.Lo
	switch {
	case r.Hi == "":
		hi = ""
	case r.HiInclusive:
		// members of Hi itself continue with a terminator; extensions of
		// Hi continue with a type tag, which is always greater.
		hi = r.Hi + string(escape)
	default:
		hi = r.Hi
	}
	return lo, hi
}
