package social

import (
	"slices"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

// querySpec describes which optional indexes a collection offers to the
// query builder.
type querySpec[T any] struct {
	coll *docdb.Collection[T]
	// tags returns the record's tags; nil when the collection has no tag
	// index.
	tags func(*T) []string
	// byVault enables the publication url index.
	byVault bool
}

// build turns opts into an index walk. The first matching rule picks the
// index:
//
//  1. tags: equality on the first tag, remaining tags and authors become
//     post-filters;
//  2. authors: one range per author on (origin, createdAt);
//  3. vault (publications): equality on url;
//  4. after/before: range on createdAt;
//  5. otherwise: the whole collection in createdAt order.
//
// Offset, limit and reverse are then applied as view transforms.
func (qs querySpec[T]) build(opts ListOptions) (*docdb.Query[T], error) {
	authors, err := domain.VaultURLs(opts.Author)
	if err != nil {
		return nil, err
	}
	tags := domain.Tags(opts.Tag)
	if qs.tags == nil {
		tags = nil
	}
	if err := checkWindow(opts); err != nil {
		return nil, err
	}

	var q *docdb.Query[T]
	switch {
	case len(tags) > 0:
		q = qs.coll.Where(idxTags).Equals(tags[0])
		if rest := tags[1:]; len(rest) > 0 {
			q.Filter(func(r *docdb.Record[T]) bool { return hasAll(qs.tags(&r.Value), rest) })
		}
		if len(authors) > 0 {
			q.Filter(originIn[T](authors))
		}

	case len(authors) > 0:
		ranges := make([]docdb.Range, 0, len(authors))
		for _, a := range dedupe(authors) {
			ranges = append(ranges, docdb.Span(docdb.T(a, opts.After), docdb.T(a, upper(opts.Before))))
		}
		q = qs.coll.Where(idxOriginCreatedAt).AnyRange(ranges...)

	case qs.byVault && opts.Vault != nil:
		u, err := domain.VaultURL(opts.Vault)
		if err != nil {
			return nil, err
		}
		q = qs.coll.Where(idxURL).Equals(u)

	case opts.After > 0 || opts.Before > 0:
		q = qs.coll.Where(idxCreatedAt).Between(docdb.T(opts.After), docdb.T(upper(opts.Before)))

	default:
		q = qs.coll.OrderBy(idxCreatedAt)
	}

	return window(q, opts), nil
}

func checkWindow(opts ListOptions) error {
	if opts.After < 0 || opts.Before < 0 {
		return domain.Invalid("after", "time bounds must not be negative")
	}
	if opts.Offset < 0 || opts.Limit < 0 {
		return domain.Invalid("offset", "offset and limit must not be negative")
	}
	return nil
}

// window applies the view transforms of opts. Offset and limit count from
// the start of the walk in its final direction.
func window[T any](q *docdb.Query[T], opts ListOptions) *docdb.Query[T] {
	if opts.Reverse {
		q.Reverse()
	}
	return q.Offset(opts.Offset).Limit(opts.Limit)
}

// upper maps an unset Before to +Inf.
func upper(before int64) any {
	if before <= 0 {
		return docdb.Inf
	}
	return before
}

func hasAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func originIn[T any](origins []string) func(*docdb.Record[T]) bool {
	if len(origins) == 1 {
		only := origins[0]
		return func(r *docdb.Record[T]) bool { return r.Origin == only }
	}
	set := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		set[o] = struct{}{}
	}
	return func(r *docdb.Record[T]) bool {
		_, ok := set[r.Origin]
		return ok
	}
}

func dedupe(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
