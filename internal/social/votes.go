package social

import (
	"context"
	"strings"
	"time"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

// Vote records vault's vote on a subject URL. Any magnitude is clamped to
// -1, 0 or 1, and a later vote on the same subject replaces the earlier one.
func (s *Service) Vote(ctx context.Context, vault domain.Ref, in domain.VoteInput) (*VoteRecord, error) {
	in.SubjectType = strings.TrimSpace(in.SubjectType)
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	subject, err := domain.SubjectURL(in.Subject)
	if err != nil {
		return nil, err
	}
	u, _, err := s.writable(vault)
	if err != nil {
		return nil, err
	}

	v := domain.Vote{
		Subject:     subject,
		SubjectType: in.SubjectType,
		Vote:        domain.VoteValue(in.Vote),
		CreatedAt:   s.timestamp(),
	}
	rec, err := s.c.votes.Put(ctx, u+"/"+votesDir+"/"+domain.Slug(subject)+".json", &v)
	if err != nil {
		return nil, err
	}
	writesTotal.WithLabelValues("votes", "put").Inc()
	return rec, nil
}

func (s *Service) votesForQuery(subject domain.Ref) (*docdb.Query[domain.Vote], error) {
	u, err := domain.SubjectURL(subject)
	if err != nil {
		return nil, err
	}
	return s.c.votes.Where(idxSubject).Equals(u), nil
}

// ListVotesFor returns every vote cast on subject, ordered by voter.
func (s *Service) ListVotesFor(ctx context.Context, subject domain.Ref) ([]*VoteRecord, error) {
	q, err := s.votesForQuery(subject)
	if err != nil {
		return nil, err
	}
	return q.ToArray(ctx)
}

// ListVotesBySubjectType returns the votes on subjects of one type in
// createdAt order, with authors on request.
func (s *Service) ListVotesBySubjectType(ctx context.Context, subjectType string, opts ListOptions) ([]*VoteView, error) {
	defer observeList("votes", time.Now())

	subjectType = strings.TrimSpace(subjectType)
	if subjectType == "" {
		return nil, domain.Invalid("subjectType", "is required")
	}
	if err := checkWindow(opts); err != nil {
		return nil, err
	}
	q := s.c.votes.Where(idxSubjectTypeCreate).
		Between(docdb.T(subjectType, opts.After), docdb.T(subjectType, upper(opts.Before)))
	recs, err := window(q, opts).ToArray(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*VoteView, len(recs))
	j := s.newJoiner(ctx)
	for i, r := range recs {
		v := &VoteView{VoteRecord: *r}
		out[i] = v
		if opts.FetchAuthor {
			j.author(r.Key, r.Origin, func(p *ProfileRecord) { v.Author = p })
		}
	}
	if err := j.wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListVotesByAuthor returns the votes cast by author in createdAt order.
func (s *Service) ListVotesByAuthor(ctx context.Context, author domain.Ref, opts ListOptions) ([]*VoteRecord, error) {
	u, err := domain.VaultURL(author)
	if err != nil {
		return nil, err
	}
	if err := checkWindow(opts); err != nil {
		return nil, err
	}
	q := s.c.votes.Where(idxOriginCreatedAt).
		Between(docdb.T(u, opts.After), docdb.T(u, upper(opts.Before)))
	return window(q, opts).ToArray(ctx)
}

// CountVotesFor tallies the votes on subject from the session user's point
// of view.
func (s *Service) CountVotesFor(ctx context.Context, subject domain.Ref) (*domain.VoteTally, error) {
	u, err := domain.SubjectURL(subject)
	if err != nil {
		return nil, err
	}
	return s.tally(ctx, u, s.user)
}

// CountVotesForViewer tallies the votes on subject, reporting viewer's own
// vote. A nil viewer reports none.
func (s *Service) CountVotesForViewer(ctx context.Context, subject, viewer domain.Ref) (*domain.VoteTally, error) {
	u, err := domain.SubjectURL(subject)
	if err != nil {
		return nil, err
	}
	var who string
	if viewer != nil {
		if who, err = domain.VaultURL(viewer); err != nil {
			return nil, err
		}
	}
	return s.tally(ctx, u, who)
}

// tally streams the votes on subject through the subject index in one pass.
// Record keys are accepted as subjects and normalized like written votes.
func (s *Service) tally(ctx context.Context, subject, viewer string) (*domain.VoteTally, error) {
	u, err := domain.NormalizeURL(subject)
	if err != nil {
		return nil, err
	}
	t := domain.NewVoteTally()
	err = s.c.votes.Where(idxSubject).Equals(u).Each(ctx, func(r *VoteRecord) error {
		t.Add(r.Origin, r.Value.Vote, viewer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
