// Package social is the query and aggregation layer over vault records:
// profiles and the follow graph, bookmarks with pins and tags, threaded
// posts, vault publications and votes.
package social

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path"
	"time"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
	"github.com/MrSnakeDoc/vaultsocial/internal/scheduler"
	"github.com/MrSnakeDoc/vaultsocial/internal/sources"
)

// DefaultFanOut bounds concurrent enrichment fetches per page.
const DefaultFanOut = 16

// FlagStore is the ordered key/value side-store holding pin flags.
type FlagStore interface {
	Has(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string) error
	Clear(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) iter.Seq2[string, error]
}

// Options configures Open.
type Options struct {
	Engine   docdb.Engine
	Flags    FlagStore
	Registry *sources.Registry
	// User is the viewer's own vault. It is registered as session-owned,
	// prepared, and its follows are indexed in the background.
	User   sources.Source
	Logger logger.Logger
	// Now is the clock used for createdAt. Defaults to time.Now.
	Now    func() time.Time
	FanOut int
}

// Service is an open session.
type Service struct {
	c      *collections
	flags  FlagStore
	reg    *sources.Registry
	user   string
	log    logger.Logger
	now    func() time.Time
	fanOut int

	follows *scheduler.Background
}

// Open defines the collections over opts.Engine and starts the session.
func Open(ctx context.Context, opts Options) (*Service, error) {
	if opts.Engine == nil {
		return nil, errors.New("social: engine is required")
	}
	if opts.Flags == nil {
		return nil, errors.New("social: flag store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = sources.NewRegistry(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FanOut <= 0 {
		opts.FanOut = DefaultFanOut
	}

	db := docdb.New(opts.Engine, docdb.WithMirror(opts.Registry), docdb.WithLogger(opts.Logger))
	c, err := defineCollections(db)
	if err != nil {
		return nil, fmt.Errorf("define collections: %w", err)
	}

	s := &Service{
		c:      c,
		flags:  opts.Flags,
		reg:    opts.Registry,
		log:    opts.Logger,
		now:    opts.Now,
		fanOut: opts.FanOut,
	}

	if opts.User != nil {
		s.user = opts.User.URL()
		s.reg.Own(opts.User)
		if err := s.PrepareVault(ctx, domain.Source(opts.User)); err != nil {
			return nil, err
		}
		s.follows = scheduler.NewBackground("index-follows", s.SyncFollows, s.log)
		s.follows.Start(ctx)
	}
	registeredVaults.Set(float64(s.reg.Len()))
	return s, nil
}

// Close stops background work. The engine and flag store belong to the
// caller.
func (s *Service) Close() error {
	if s.follows != nil {
		s.follows.Stop()
	}
	return nil
}

// User returns the viewer's vault URL, or "" without one.
func (s *Service) User() string { return s.user }

// FollowIndexing exposes the background follow indexer, nil without a user.
func (s *Service) FollowIndexing() *scheduler.Background { return s.follows }

func (s *Service) timestamp() int64 { return s.now().UnixMilli() }

// PrepareVault creates the record directories in a writable vault.
func (s *Service) PrepareVault(ctx context.Context, vault domain.Ref) error {
	_, src, err := s.writable(vault)
	if err != nil {
		return err
	}
	for _, dir := range []string{bookmarksDir, postsDir, vaultsDir, votesDir} {
		if err := src.Mkdir(ctx, dir); err != nil {
			return domain.Collaborator("mkdir "+dir, err)
		}
	}
	return nil
}

// AddSource registers a vault for indexing.
func (s *Service) AddSource(_ context.Context, ref domain.Ref) (sources.Source, error) {
	src, err := s.reg.Add(ref)
	if err != nil {
		return nil, err
	}
	registeredVaults.Set(float64(s.reg.Len()))
	return src, nil
}

// RemoveSource deregisters a followed vault. Session-owned vaults stay.
// Records already indexed are kept until PruneUnfollowedVaults purges them.
func (s *Service) RemoveSource(_ context.Context, ref domain.Ref) (bool, error) {
	removed, err := s.reg.Remove(ref)
	if err != nil {
		return false, err
	}
	registeredVaults.Set(float64(s.reg.Len()))
	return removed, nil
}

// ListSources returns every registered vault ordered by URL.
func (s *Service) ListSources() []sources.Source { return s.reg.List() }

// writable resolves vault to a registered vault this process can write.
func (s *Service) writable(vault domain.Ref) (string, sources.Source, error) {
	u, err := domain.VaultURL(vault)
	if err != nil {
		return "", nil, err
	}
	src, ok := s.reg.Get(u)
	if !ok || !src.Writable() {
		return "", nil, domain.Precondition("vault %s is not writable here", u)
	}
	return u, src, nil
}

// SyncFollows registers every vault the user follows. A bad follow entry
// is logged and skipped.
func (s *Service) SyncFollows(ctx context.Context) (int, error) {
	if s.user == "" {
		return 0, nil
	}
	p, err := s.c.profiles.Get(ctx, s.user+profileFile)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}
	n := 0
	for _, u := range p.Value.FollowURLs {
		if _, err := s.AddSource(ctx, domain.URL(u)); err != nil {
			s.log.Warn("skipping followed vault", logger.String("vault", u), logger.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

// ReindexVaults loads every record file of the session-owned vaults into the
// index. Files that fail to parse are logged and skipped.
func (s *Service) ReindexVaults(ctx context.Context) (int, error) {
	total := 0
	for _, src := range s.reg.List() {
		if !s.reg.Owned(src.URL()) {
			continue
		}
		n, err := s.reindex(ctx, src)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type ingester interface {
	Dir() string
	Matches(file string) bool
	Ingest(ctx context.Context, key string, data []byte) error
}

func (s *Service) reindex(ctx context.Context, src sources.Source) (int, error) {
	n := 0
	for _, c := range []ingester{s.c.profiles, s.c.bookmarks, s.c.posts, s.c.vaults, s.c.votes} {
		names, err := src.ReadDir(ctx, c.Dir())
		if err != nil {
			return n, domain.Collaborator("list "+src.URL()+c.Dir(), err)
		}
		for _, name := range names {
			file := path.Join(c.Dir(), name)
			if !c.Matches(file) {
				continue
			}
			data, err := src.ReadFile(ctx, file)
			if err != nil {
				return n, domain.Collaborator("read "+src.URL()+file, err)
			}
			if err := c.Ingest(ctx, src.URL()+file, data); err != nil {
				if !errors.Is(err, docdb.ErrMalformed) {
					return n, err
				}
				s.log.Warn("skipping unreadable record",
					logger.String("vault", src.URL()),
					logger.String("file", file),
					logger.Error(err))
				continue
			}
			n++
		}
	}
	return n, nil
}
