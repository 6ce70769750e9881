package social

import (
	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

// Index names.
const (
	idxOrigin            = docdb.OriginIndex
	idxFollowURLs        = "*followUrls"
	idxOriginHref        = ":origin+href"
	idxTags              = "*tags"
	idxCreatedAt         = "createdAt"
	idxOriginCreatedAt   = ":origin+createdAt"
	idxThreadRoot        = "threadRoot+createdAt"
	idxURL               = "url"
	idxSubject           = "subject"
	idxSubjectTypeCreate = "subjectType+createdAt"
)

// Vault layout.
const (
	profileFile  = "/profile.json"
	bookmarksDir = "bookmarks"
	postsDir     = "posts"
	vaultsDir    = "vaults"
	votesDir     = "votes"
)

type (
	ProfileRecord     = docdb.Record[domain.Profile]
	BookmarkRecord    = docdb.Record[domain.Bookmark]
	PostRecord        = docdb.Record[domain.Post]
	PublicationRecord = docdb.Record[domain.VaultPublication]
	VoteRecord        = docdb.Record[domain.Vote]
)

type collections struct {
	profiles  *docdb.Collection[domain.Profile]
	bookmarks *docdb.Collection[domain.Bookmark]
	posts     *docdb.Collection[domain.Post]
	vaults    *docdb.Collection[domain.VaultPublication]
	votes     *docdb.Collection[domain.Vote]
}

func createdAt(ts int64) []docdb.Tuple { return []docdb.Tuple{docdb.T(ts)} }

func originCreatedAt(origin string, ts int64) []docdb.Tuple {
	return []docdb.Tuple{docdb.T(origin, ts)}
}

func defineCollections(db *docdb.DB) (*collections, error) {
	var (
		c   collections
		err error
	)

	c.profiles, err = docdb.Define(db, docdb.Spec[domain.Profile]{
		Name:        "profiles",
		FilePattern: profileFile,
		Indexes: []docdb.IndexSpec[domain.Profile]{
			{Name: idxFollowURLs, Multi: true, Keys: func(_ string, p *domain.Profile) []docdb.Tuple {
				out := make([]docdb.Tuple, 0, len(p.FollowURLs))
				for _, u := range p.FollowURLs {
					out = append(out, docdb.T(u))
				}
				return out
			}},
		},
		Preprocess: (*domain.Profile).Normalize,
		Serialize: func(p *domain.Profile) any {
			return struct {
				Name    string          `json:"name,omitempty"`
				Bio     string          `json:"bio,omitempty"`
				Avatar  string          `json:"avatar,omitempty"`
				Follows []domain.Follow `json:"follows"`
			}{p.Name, p.Bio, p.Avatar, p.Follows}
		},
	})
	if err != nil {
		return nil, err
	}

	c.bookmarks, err = docdb.Define(db, docdb.Spec[domain.Bookmark]{
		Name:        "bookmarks",
		FilePattern: "/" + bookmarksDir + "/*.json",
		Indexes: []docdb.IndexSpec[domain.Bookmark]{
			{Name: idxOriginHref, Keys: func(origin string, b *domain.Bookmark) []docdb.Tuple {
				return []docdb.Tuple{docdb.T(origin, b.Href)}
			}},
			{Name: idxTags, Multi: true, Keys: func(_ string, b *domain.Bookmark) []docdb.Tuple {
				out := make([]docdb.Tuple, 0, len(b.Tags))
				for _, t := range b.Tags {
					out = append(out, docdb.T(t))
				}
				return out
			}},
			{Name: idxCreatedAt, Keys: func(_ string, b *domain.Bookmark) []docdb.Tuple {
				return createdAt(b.CreatedAt)
			}},
			{Name: idxOriginCreatedAt, Keys: func(origin string, b *domain.Bookmark) []docdb.Tuple {
				return originCreatedAt(origin, b.CreatedAt)
			}},
		},
		Preprocess: func(b *domain.Bookmark) {
			if b.Tags == nil {
				b.Tags = []string{}
			}
		},
	})
	if err != nil {
		return nil, err
	}

	c.posts, err = docdb.Define(db, docdb.Spec[domain.Post]{
		Name:        "posts",
		FilePattern: "/" + postsDir + "/*.json",
		Indexes: []docdb.IndexSpec[domain.Post]{
			{Name: idxCreatedAt, Keys: func(_ string, p *domain.Post) []docdb.Tuple {
				return createdAt(p.CreatedAt)
			}},
			{Name: idxOriginCreatedAt, Keys: func(origin string, p *domain.Post) []docdb.Tuple {
				return originCreatedAt(origin, p.CreatedAt)
			}},
			{Name: idxThreadRoot, Keys: func(_ string, p *domain.Post) []docdb.Tuple {
				if p.ThreadRoot == "" {
					return nil
				}
				return []docdb.Tuple{docdb.T(p.ThreadRoot, p.CreatedAt)}
			}},
		},
	})
	if err != nil {
		return nil, err
	}

	c.vaults, err = docdb.Define(db, docdb.Spec[domain.VaultPublication]{
		Name:        "vaults",
		FilePattern: "/" + vaultsDir + "/*.json",
		Indexes: []docdb.IndexSpec[domain.VaultPublication]{
			{Name: idxCreatedAt, Keys: func(_ string, v *domain.VaultPublication) []docdb.Tuple {
				return createdAt(v.CreatedAt)
			}},
			{Name: idxOriginCreatedAt, Keys: func(origin string, v *domain.VaultPublication) []docdb.Tuple {
				return originCreatedAt(origin, v.CreatedAt)
			}},
			{Name: idxURL, Keys: func(_ string, v *domain.VaultPublication) []docdb.Tuple {
				return []docdb.Tuple{docdb.T(v.URL)}
			}},
		},
	})
	if err != nil {
		return nil, err
	}

	c.votes, err = docdb.Define(db, docdb.Spec[domain.Vote]{
		Name:        "votes",
		FilePattern: "/" + votesDir + "/*.json",
		Indexes: []docdb.IndexSpec[domain.Vote]{
			{Name: idxSubject, Keys: func(_ string, v *domain.Vote) []docdb.Tuple {
				return []docdb.Tuple{docdb.T(v.Subject)}
			}},
			{Name: idxSubjectTypeCreate, Keys: func(_ string, v *domain.Vote) []docdb.Tuple {
				return []docdb.Tuple{docdb.T(v.SubjectType, v.CreatedAt)}
			}},
			{Name: idxOriginCreatedAt, Keys: func(origin string, v *domain.Vote) []docdb.Tuple {
				return originCreatedAt(origin, v.CreatedAt)
			}},
			{Name: idxCreatedAt, Keys: func(_ string, v *domain.Vote) []docdb.Tuple {
				return createdAt(v.CreatedAt)
			}},
		},
	})
	if err != nil {
		return nil, err
	}

	return &c, nil
}
