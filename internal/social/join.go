package social

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// joiner fans out the enrichments of one page. A failed fetch leaves its
// field empty and is logged and counted; only cancellation fails the page.
// Profiles are fetched once per origin for the lifetime of the joiner.
type joiner struct {
	s   *Service
	g   *errgroup.Group
	ctx context.Context

	sf       singleflight.Group
	mu       sync.Mutex
	profiles map[string]profileResult
}

type profileResult struct {
	p   *ProfileRecord
	err error
}

func (s *Service) newJoiner(ctx context.Context) *joiner {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	return &joiner{
		s:        s,
		g:        g,
		ctx:      gctx,
		profiles: make(map[string]profileResult),
	}
}

// run schedules fn. kind and key only label failures.
func (j *joiner) run(kind, key string, fn func(ctx context.Context) error) {
	j.g.Go(func() error {
		if err := j.ctx.Err(); err != nil {
			return err
		}
		err := fn(j.ctx)
		if err == nil {
			return nil
		}
		if ctxErr := j.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		joinFailures.WithLabelValues(kind).Inc()
		j.s.log.Warn("enrichment failed",
			logger.String("kind", kind),
			logger.String("record", key),
			logger.Error(err))
		return nil
	})
}

// author resolves origin's profile and hands it to set. A vault without a
// profile yields nil, which is not a failure.
func (j *joiner) author(key, origin string, set func(*ProfileRecord)) {
	j.run("author", key, func(ctx context.Context) error {
		p, err := j.profile(ctx, origin)
		if err != nil {
			return err
		}
		set(p)
		return nil
	})
}

func (j *joiner) profile(ctx context.Context, origin string) (*ProfileRecord, error) {
	if r, ok := j.cached(origin); ok {
		return r.p, r.err
	}
	v, _, _ := j.sf.Do(origin, func() (any, error) {
		if r, ok := j.cached(origin); ok {
			return r, nil
		}
		p, err := j.s.c.profiles.Get(ctx, origin+profileFile)
		r := profileResult{p: p, err: err}
		j.mu.Lock()
		j.profiles[origin] = r
		j.mu.Unlock()
		return r, nil
	})
	r := v.(profileResult)
	return r.p, r.err
}

func (j *joiner) cached(origin string) (profileResult, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	r, ok := j.profiles[origin]
	return r, ok
}

// votes tallies the votes on subject.
func (j *joiner) votes(subject string, set func(*domain.VoteTally)) {
	j.run("votes", subject, func(ctx context.Context) error {
		t, err := j.s.tally(ctx, subject, j.s.user)
		if err != nil {
			return err
		}
		set(t)
		return nil
	})
}

// pinned reads the pin flag of href.
func (j *joiner) pinned(key, href string, set func(bool)) {
	j.run("pin", key, func(ctx context.Context) error {
		p, err := j.s.isPinned(ctx, href)
		if err != nil {
			return err
		}
		set(p)
		return nil
	})
}

// wait joins every scheduled fetch.
func (j *joiner) wait() error {
	return j.g.Wait()
}
