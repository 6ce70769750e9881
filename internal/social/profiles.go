package social

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
	"github.com/MrSnakeDoc/vaultsocial/internal/sources"
)

// GetProfile returns the profile of vault, or nil when it has none.
func (s *Service) GetProfile(ctx context.Context, vault domain.Ref) (*ProfileRecord, error) {
	u, err := domain.VaultURL(vault)
	if err != nil {
		return nil, err
	}
	return s.c.profiles.Get(ctx, u+profileFile)
}

// SetProfile merges in into the profile of vault, creating it if needed.
// Setting a name also retitles the vault.
func (s *Service) SetProfile(ctx context.Context, vault domain.Ref, in domain.ProfileInput) (*ProfileRecord, error) {
	u, src, err := s.writable(vault)
	if err != nil {
		return nil, err
	}
	rec, err := s.c.profiles.Upsert(ctx, u+profileFile, func(p *domain.Profile) { p.Apply(in) })
	if err != nil {
		return nil, err
	}
	writesTotal.WithLabelValues("profiles", "upsert").Inc()

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			name = "anonymous"
		}
		title := "User: " + name
		if err := src.Configure(ctx, sources.Meta{Title: &title}); err != nil {
			return rec, domain.Collaborator("configure "+u, err)
		}
	}
	return rec, nil
}

// SetAvatar stores image data as avatar.<ext> in vault and points the
// profile at it.
func (s *Service) SetAvatar(ctx context.Context, vault domain.Ref, data []byte, ext string) (*ProfileRecord, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" || strings.ContainsAny(ext, `/\.`) {
		return nil, domain.Invalid("extension", "must be a plain file extension")
	}
	if len(data) == 0 {
		return nil, domain.Invalid("avatar", "image data is empty")
	}
	u, src, err := s.writable(vault)
	if err != nil {
		return nil, err
	}

	file := "avatar." + ext
	if err := src.WriteFile(ctx, "/"+file, data); err != nil {
		return nil, domain.Collaborator("write "+u+"/"+file, err)
	}
	rec, err := s.c.profiles.Upsert(ctx, u+profileFile, func(p *domain.Profile) { p.Avatar = file })
	if err != nil {
		return nil, err
	}
	writesTotal.WithLabelValues("profiles", "avatar").Inc()
	return rec, nil
}

// Follow adds target to the follow list of vault and registers it for
// indexing. Following twice is a no-op. The vault needs a profile.
func (s *Service) Follow(ctx context.Context, vault, target domain.Ref, name string) error {
	targetURL, err := domain.VaultURL(target)
	if err != nil {
		return err
	}
	u, _, err := s.writable(vault)
	if err != nil {
		return err
	}

	n, err := s.c.profiles.Where(idxOrigin).Equals(u).Update(ctx, func(p *domain.Profile) {
		p.AddFollow(targetURL, strings.TrimSpace(name))
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Precondition("cannot follow from %s: no profile exists, set one first", u)
	}
	writesTotal.WithLabelValues("profiles", "follow").Inc()

	if _, err := s.AddSource(ctx, target); err != nil {
		return err
	}
	return nil
}

// Unfollow removes target from the follow list of vault and deregisters it.
func (s *Service) Unfollow(ctx context.Context, vault, target domain.Ref) error {
	targetURL, err := domain.VaultURL(target)
	if err != nil {
		return err
	}
	u, _, err := s.writable(vault)
	if err != nil {
		return err
	}

	n, err := s.c.profiles.Where(idxOrigin).Equals(u).Update(ctx, func(p *domain.Profile) {
		p.RemoveFollow(targetURL)
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Precondition("cannot unfollow from %s: no profile exists, set one first", u)
	}
	writesTotal.WithLabelValues("profiles", "unfollow").Inc()

	if _, err := s.RemoveSource(ctx, target); err != nil {
		return err
	}
	return nil
}

func (s *Service) followersQuery(vault domain.Ref) (*docdb.Query[domain.Profile], error) {
	u, err := domain.VaultURL(vault)
	if err != nil {
		return nil, err
	}
	return s.c.profiles.Where(idxFollowURLs).Equals(u), nil
}

// ListFollowers returns the profiles that follow vault, ordered by origin.
func (s *Service) ListFollowers(ctx context.Context, vault domain.Ref) ([]*ProfileRecord, error) {
	q, err := s.followersQuery(vault)
	if err != nil {
		return nil, err
	}
	return q.ToArray(ctx)
}

// CountFollowers counts the profiles that follow vault.
func (s *Service) CountFollowers(ctx context.Context, vault domain.Ref) (int, error) {
	q, err := s.followersQuery(vault)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// IsFollowing reports whether a follows b. A vault without a profile
// follows nobody.
func (s *Service) IsFollowing(ctx context.Context, a, b domain.Ref) (bool, error) {
	bURL, err := domain.VaultURL(b)
	if err != nil {
		return false, err
	}
	p, err := s.GetProfile(ctx, a)
	if err != nil || p == nil {
		return false, err
	}
	return p.Value.IsFollowing(bURL), nil
}

// IsFriendsWith reports whether a and b follow each other.
func (s *Service) IsFriendsWith(ctx context.Context, a, b domain.Ref) (bool, error) {
	var ab, ba bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ab, err = s.IsFollowing(gctx, a, b)
		return err
	})
	g.Go(func() (err error) {
		ba, err = s.IsFollowing(gctx, b, a)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}
	return ab && ba, nil
}

// ListFriends returns the followers of vault that vault follows back, in
// follower order.
func (s *Service) ListFriends(ctx context.Context, vault domain.Ref) ([]*ProfileRecord, error) {
	followers, err := s.ListFollowers(ctx, vault)
	if err != nil {
		return nil, err
	}

	friend := make([]bool, len(followers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, f := range followers {
		g.Go(func() (err error) {
			friend[i], err = s.IsFollowing(gctx, vault, domain.URL(f.Origin))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*ProfileRecord, 0, len(followers))
	for i, f := range followers {
		if friend[i] {
			out = append(out, f)
		}
	}
	return out, nil
}

// CountFriends counts ListFriends.
func (s *Service) CountFriends(ctx context.Context, vault domain.Ref) (int, error) {
	friends, err := s.ListFriends(ctx, vault)
	if err != nil {
		return 0, err
	}
	return len(friends), nil
}

// PruneUnfollowedVaults runs PruneUnfollowedVaultsOf for the session user.
func (s *Service) PruneUnfollowedVaults(ctx context.Context) (int, error) {
	if s.user == "" {
		return 0, nil
	}
	return s.PruneUnfollowedVaultsOf(ctx, domain.URL(s.user))
}

// PruneUnfollowedVaultsOf deregisters every followed vault that user no
// longer follows and purges its records from the index. Session-owned
// vaults are kept. It returns the number of vaults pruned.
func (s *Service) PruneUnfollowedVaultsOf(ctx context.Context, user domain.Ref) (int, error) {
	userURL, err := domain.VaultURL(user)
	if err != nil {
		return 0, err
	}
	p, err := s.c.profiles.Get(ctx, userURL+profileFile)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, domain.Precondition("cannot prune for %s: no profile exists", userURL)
	}

	pruned := 0
	for _, src := range s.reg.List() {
		u := src.URL()
		if s.reg.Owned(u) || p.Value.IsFollowing(u) {
			continue
		}
		removed, err := s.RemoveSource(ctx, domain.URL(u))
		if err != nil {
			return pruned, err
		}
		if !removed {
			continue
		}
		n, err := s.purge(ctx, u)
		if err != nil {
			return pruned, err
		}
		s.log.Info("pruned unfollowed vault", logger.String("vault", u), logger.Int("records", n))
		pruned++
	}
	return pruned, nil
}

// purge drops every indexed record of origin.
func (s *Service) purge(ctx context.Context, origin string) (int, error) {
	total := 0
	for _, del := range []func() (int, error){
		func() (int, error) { return s.c.profiles.Where(idxOrigin).Equals(origin).Delete(ctx) },
		func() (int, error) { return s.c.bookmarks.Where(idxOrigin).Equals(origin).Delete(ctx) },
		func() (int, error) { return s.c.posts.Where(idxOrigin).Equals(origin).Delete(ctx) },
		func() (int, error) { return s.c.vaults.Where(idxOrigin).Equals(origin).Delete(ctx) },
		func() (int, error) { return s.c.votes.Where(idxOrigin).Equals(origin).Delete(ctx) },
	} {
		n, err := del()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
