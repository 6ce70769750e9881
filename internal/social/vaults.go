package social

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

func (s *Service) publicationQueries() querySpec[domain.VaultPublication] {
	return querySpec[domain.VaultPublication]{coll: s.c.vaults, byVault: true}
}

// PublishVault records in vault an announcement of in.Vault. When the
// announced vault is given as a handle that can describe itself, its info
// fills the fields left empty.
func (s *Service) PublishVault(ctx context.Context, vault domain.Ref, in domain.PublicationInput) (*PublicationRecord, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	target, err := domain.VaultURL(in.Vault)
	if err != nil {
		return nil, err
	}
	u, _, err := s.writable(vault)
	if err != nil {
		return nil, err
	}

	pub := domain.VaultPublication{
		URL:         target,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		CreatedAt:   in.CreatedAt,
	}
	if sr, ok := in.Vault.(domain.SourceRef); ok {
		if ip, ok := sr.Handle.(domain.InfoProvider); ok {
			info, err := ip.Info(ctx)
			if err != nil {
				return nil, domain.Collaborator("describe "+target, err)
			}
			if pub.Title == "" {
				pub.Title = info.Title
			}
			if pub.Description == "" {
				pub.Description = info.Description
			}
			if len(pub.Type) == 0 {
				pub.Type = info.Type
			}
		}
	}
	if pub.CreatedAt == 0 {
		pub.CreatedAt = s.timestamp()
	}

	id, err := newRecordID()
	if err != nil {
		return nil, err
	}
	rec, err := s.c.vaults.Put(ctx, u+"/"+vaultsDir+"/"+id+".json", &pub)
	if err != nil {
		return nil, err
	}
	writesTotal.WithLabelValues("vaults", "put").Inc()
	return rec, nil
}

// UnpublishVault deletes every announcement of target made by vault and
// returns how many were removed.
func (s *Service) UnpublishVault(ctx context.Context, vault, target domain.Ref) (int, error) {
	t, err := domain.VaultURL(target)
	if err != nil {
		return 0, err
	}
	u, _, err := s.writable(vault)
	if err != nil {
		return 0, err
	}
	n, err := s.c.vaults.Where(idxURL).Equals(t).
		Filter(originIn[domain.VaultPublication]([]string{u})).
		Delete(ctx)
	if err != nil {
		return n, err
	}
	writesTotal.WithLabelValues("vaults", "delete").Add(float64(n))
	return n, nil
}

// ListPublishedVaults returns one page of publications.
func (s *Service) ListPublishedVaults(ctx context.Context, opts ListOptions) ([]*PublicationView, error) {
	defer observeList("vaults", time.Now())

	q, err := s.publicationQueries().build(opts)
	if err != nil {
		return nil, err
	}
	recs, err := q.ToArray(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*PublicationView, len(recs))
	j := s.newJoiner(ctx)
	for i, r := range recs {
		v := &PublicationView{PublicationRecord: *r}
		out[i] = v
		if opts.FetchAuthor {
			j.author(r.Key, r.Origin, func(p *ProfileRecord) { v.Author = p })
		}
		if opts.CountVotes {
			j.votes(r.Key, func(t *domain.VoteTally) { v.Votes = t })
		}
	}
	if err := j.wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountPublishedVaults counts the publications matching opts. Offset and
// limit are ignored.
func (s *Service) CountPublishedVaults(ctx context.Context, opts ListOptions) (int, error) {
	opts.Offset, opts.Limit = 0, 0
	q, err := s.publicationQueries().build(opts)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// GetPublishedVault returns one publication with author and tally, or nil.
func (s *Service) GetPublishedVault(ctx context.Context, record domain.Ref) (*PublicationView, error) {
	u, err := domain.RecordURL(record)
	if err != nil {
		return nil, err
	}
	rec, err := s.c.vaults.Get(ctx, u)
	if err != nil || rec == nil {
		return nil, err
	}

	v := &PublicationView{PublicationRecord: *rec}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		v.Author, err = s.c.profiles.Get(gctx, rec.Origin+profileFile)
		return err
	})
	g.Go(func() (err error) {
		v.Votes, err = s.tally(gctx, rec.Key, s.user)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}
