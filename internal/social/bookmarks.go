package social

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

func (s *Service) bookmarkQueries() querySpec[domain.Bookmark] {
	return querySpec[domain.Bookmark]{
		coll: s.c.bookmarks,
		tags: func(b *domain.Bookmark) []string { return b.Tags },
	}
}

func bookmarkKey(vault, href string) string {
	return vault + "/" + bookmarksDir + "/" + domain.Slug(href) + ".json"
}

// Bookmark saves href into vault. A vault holds one bookmark per href:
// writing the same href again merges the provided fields into the stored
// record and keeps its original createdAt.
func (s *Service) Bookmark(ctx context.Context, vault domain.Ref, in domain.BookmarkInput) (*BookmarkRecord, error) {
	in.Href = strings.TrimSpace(in.Href)
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	u, _, err := s.writable(vault)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	rec, err := s.c.bookmarks.Upsert(ctx, bookmarkKey(u, in.Href), func(b *domain.Bookmark) {
		b.Apply(in)
		if b.CreatedAt == 0 {
			b.CreatedAt = now
		}
	})
	if err != nil {
		return nil, err
	}
	writesTotal.WithLabelValues("bookmarks", "upsert").Inc()
	return rec, nil
}

// Unbookmark deletes the bookmark of href in vault and clears its pin.
func (s *Service) Unbookmark(ctx context.Context, vault domain.Ref, href string) error {
	href = strings.TrimSpace(href)
	if href == "" {
		return domain.Invalid("href", "is required")
	}
	u, _, err := s.writable(vault)
	if err != nil {
		return err
	}
	if _, err := s.c.bookmarks.Where(idxOriginHref).Equals(u, href).Delete(ctx); err != nil {
		return err
	}
	writesTotal.WithLabelValues("bookmarks", "delete").Inc()
	return s.SetBookmarkPinned(ctx, href, false)
}

func (s *Service) findBookmark(ctx context.Context, vault domain.Ref, href string) (*BookmarkRecord, error) {
	u, err := domain.VaultURL(vault)
	if err != nil {
		return nil, err
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, domain.Invalid("href", "is required")
	}
	return s.c.bookmarks.Where(idxOriginHref).Equals(u, href).First(ctx)
}

// IsBookmarked reports whether vault has a bookmark for href.
func (s *Service) IsBookmarked(ctx context.Context, vault domain.Ref, href string) (bool, error) {
	rec, err := s.findBookmark(ctx, vault, href)
	return rec != nil, err
}

// GetBookmark returns the bookmark of href in vault with its pin flag and
// author, or nil.
func (s *Service) GetBookmark(ctx context.Context, vault domain.Ref, href string) (*BookmarkView, error) {
	rec, err := s.findBookmark(ctx, vault, href)
	if err != nil || rec == nil {
		return nil, err
	}

	v := &BookmarkView{BookmarkRecord: *rec}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		v.Pinned, err = s.isPinned(gctx, rec.Value.Href)
		return err
	})
	g.Go(func() (err error) {
		v.Author, err = s.c.profiles.Get(gctx, rec.Origin+profileFile)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

// ListBookmarks returns one page of bookmarks with their pin flags and, if
// requested, their authors.
func (s *Service) ListBookmarks(ctx context.Context, opts ListOptions) ([]*BookmarkView, error) {
	defer observeList("bookmarks", time.Now())

	q, err := s.bookmarkQueries().build(opts)
	if err != nil {
		return nil, err
	}
	recs, err := q.ToArray(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*BookmarkView, len(recs))
	j := s.newJoiner(ctx)
	for i, r := range recs {
		v := &BookmarkView{BookmarkRecord: *r}
		out[i] = v
		j.pinned(r.Key, r.Value.Href, func(p bool) { v.Pinned = p })
		if opts.FetchAuthor {
			j.author(r.Key, r.Origin, func(p *ProfileRecord) { v.Author = p })
		}
	}
	if err := j.wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountBookmarks counts the bookmarks matching opts. Offset and limit are
// ignored.
func (s *Service) CountBookmarks(ctx context.Context, opts ListOptions) (int, error) {
	opts.Offset, opts.Limit = 0, 0
	q, err := s.bookmarkQueries().build(opts)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// ListBookmarkTags returns every tag in use, in tag order. Tags of every
// indexed vault count, whether or not it is still registered.
func (s *Service) ListBookmarkTags(ctx context.Context) ([]string, error) {
	keys, err := s.c.bookmarks.OrderBy(idxTags).UniqueKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if tag, ok := k[0].(string); ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

// CountBookmarkTags returns how many bookmarks carry each tag.
func (s *Service) CountBookmarkTags(ctx context.Context) (map[string]int, error) {
	keys, err := s.c.bookmarks.OrderBy(idxTags).Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, k := range keys {
		if tag, ok := k[0].(string); ok {
			out[tag]++
		}
	}
	return out, nil
}
