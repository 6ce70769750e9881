package social

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

// Post creates a post in vault under a fresh time-ordered id. A reply
// without an explicit root belongs to its parent's thread.
func (s *Service) Post(ctx context.Context, vault domain.Ref, in domain.PostInput) (*PostRecord, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.Invalid("text", "is required")
	}
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	var p domain.Post
	p.Text = in.Text
	if in.ThreadParent != nil {
		parent, err := domain.RecordURL(in.ThreadParent)
		if err != nil {
			return nil, err
		}
		p.ThreadParent = parent
	}
	p.ThreadRoot = p.ThreadParent
	if in.ThreadRoot != nil {
		root, err := domain.RecordURL(in.ThreadRoot)
		if err != nil {
			return nil, err
		}
		p.ThreadRoot = root
	}

	u, _, err := s.writable(vault)
	if err != nil {
		return nil, err
	}
	id, err := newRecordID()
	if err != nil {
		return nil, err
	}
	p.CreatedAt = s.timestamp()

	rec, err := s.c.posts.Put(ctx, u+"/"+postsDir+"/"+id+".json", &p)
	if err != nil {
		return nil, err
	}
	writesTotal.WithLabelValues("posts", "put").Inc()
	return rec, nil
}

func (s *Service) postsQuery(opts ListOptions) (*docdb.Query[domain.Post], error) {
	q, err := querySpec[domain.Post]{coll: s.c.posts}.build(opts)
	if err != nil {
		return nil, err
	}
	if opts.RootPostsOnly {
		q.Filter(func(r *PostRecord) bool { return r.Value.IsRoot() })
	}
	return q, nil
}

// ListPosts returns one page of posts with the requested enrichments.
func (s *Service) ListPosts(ctx context.Context, opts ListOptions) ([]*PostView, error) {
	defer observeList("posts", time.Now())

	q, err := s.postsQuery(opts)
	if err != nil {
		return nil, err
	}
	recs, err := q.ToArray(ctx)
	if err != nil {
		return nil, err
	}
	return s.postViews(ctx, recs, opts)
}

// CountPosts counts the posts matching opts. Offset and limit are ignored.
func (s *Service) CountPosts(ctx context.Context, opts ListOptions) (int, error) {
	opts.Offset, opts.Limit = 0, 0
	q, err := s.postsQuery(opts)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// GetPost returns one post with its author, vote tally and replies, or nil.
func (s *Service) GetPost(ctx context.Context, record domain.Ref) (*PostView, error) {
	u, err := domain.RecordURL(record)
	if err != nil {
		return nil, err
	}
	rec, err := s.c.posts.Get(ctx, u)
	if err != nil || rec == nil {
		return nil, err
	}

	v := &PostView{PostRecord: *rec}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		v.Author, err = s.c.profiles.Get(gctx, rec.Origin+profileFile)
		return err
	})
	g.Go(func() (err error) {
		v.Votes, err = s.tally(gctx, rec.Key, s.user)
		return err
	})
	g.Go(func() (err error) {
		v.Replies, err = s.listReplies(gctx, rec.Key)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

// listReplies returns every post whose thread root is root, oldest first,
// with authors and tallies. Replies of replies are not expanded.
func (s *Service) listReplies(ctx context.Context, root string) ([]*PostView, error) {
	recs, err := s.c.posts.Where(idxThreadRoot).
		Between(docdb.T(root), docdb.T(root, docdb.Inf)).
		ToArray(ctx)
	if err != nil {
		return nil, err
	}
	return s.postViews(ctx, recs, ListOptions{FetchAuthor: true, CountVotes: true})
}

func (s *Service) postViews(ctx context.Context, recs []*PostRecord, opts ListOptions) ([]*PostView, error) {
	out := make([]*PostView, len(recs))
	j := s.newJoiner(ctx)
	for i, r := range recs {
		v := &PostView{PostRecord: *r}
		out[i] = v
		if opts.FetchAuthor {
			j.author(r.Key, r.Origin, func(p *ProfileRecord) { v.Author = p })
		}
		if opts.CountVotes {
			j.votes(r.Key, func(t *domain.VoteTally) { v.Votes = t })
		}
		if opts.FetchReplies {
			j.run("replies", r.Key, func(ctx context.Context) error {
				replies, err := s.listReplies(ctx, r.Key)
				if err != nil {
					return err
				}
				v.Replies = replies
				return nil
			})
		}
	}
	if err := j.wait(); err != nil {
		return nil, err
	}
	return out, nil
}
