package social

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// pinPrefix namespaces pin flags in the flag store. Pins are keyed by href
// alone: they belong to the viewer, not to a vault.
const pinPrefix = "pins/"

func (s *Service) isPinned(ctx context.Context, href string) (bool, error) {
	ok, err := s.flags.Has(ctx, pinPrefix+href)
	if err != nil {
		return false, domain.Collaborator("read pin", err)
	}
	return ok, nil
}

// IsBookmarkPinned reports whether href is pinned. A missing flag is false.
func (s *Service) IsBookmarkPinned(ctx context.Context, href string) (bool, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return false, domain.Invalid("href", "is required")
	}
	return s.isPinned(ctx, href)
}

// SetBookmarkPinned sets or clears the pin of href. Unpinning deletes the
// flag; repeating either call is a no-op.
func (s *Service) SetBookmarkPinned(ctx context.Context, href string, pinned bool) error {
	href = strings.TrimSpace(href)
	if href == "" {
		return domain.Invalid("href", "is required")
	}
	var err error
	if pinned {
		err = s.flags.Set(ctx, pinPrefix+href)
	} else {
		err = s.flags.Clear(ctx, pinPrefix+href)
	}
	if err != nil {
		return domain.Collaborator("write pin", err)
	}
	return nil
}

// ListPinnedBookmarks resolves every pin to the bookmark vault holds for
// it, in pin key order. Pins without a bookmark in vault are skipped, as
// are lookups that fail.
func (s *Service) ListPinnedBookmarks(ctx context.Context, vault domain.Ref) ([]*BookmarkView, error) {
	u, err := domain.VaultURL(vault)
	if err != nil {
		return nil, err
	}

	var hrefs []string
	for key, err := range s.flags.Keys(ctx, pinPrefix) {
		if err != nil {
			return nil, domain.Collaborator("list pins", err)
		}
		hrefs = append(hrefs, strings.TrimPrefix(key, pinPrefix))
	}

	found := make([]*BookmarkView, len(hrefs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, href := range hrefs {
		g.Go(func() error {
			v, err := s.GetBookmark(gctx, domain.URL(u), href)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn("skipping pinned bookmark",
					logger.String("vault", u),
					logger.String("href", href),
					logger.Error(err))
				return nil
			}
			found[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*BookmarkView, 0, len(found))
	for _, v := range found {
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}
