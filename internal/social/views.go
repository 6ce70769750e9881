package social

import "github.com/MrSnakeDoc/vaultsocial/internal/domain"

// BookmarkView is a bookmark with its pin flag and, on request, its author.
type BookmarkView struct {
	BookmarkRecord
	Pinned bool           `json:"pinned"`
	Author *ProfileRecord `json:"author,omitempty"`
}

// PostView is a post with optional author, vote tally and one level of
// replies.
type PostView struct {
	PostRecord
	Author  *ProfileRecord    `json:"author,omitempty"`
	Votes   *domain.VoteTally `json:"votes,omitempty"`
	Replies []*PostView       `json:"replies,omitempty"`
}

// PublicationView is a vault publication with optional author and tally.
type PublicationView struct {
	PublicationRecord
	Author *ProfileRecord    `json:"author,omitempty"`
	Votes  *domain.VoteTally `json:"votes,omitempty"`
}

// VoteView is a vote with its optional author.
type VoteView struct {
	VoteRecord
	Author *ProfileRecord `json:"author,omitempty"`
}

// ListOptions are the declarative parameters of every list operation.
// Fields a collection has no index for are ignored.
type ListOptions struct {
	Author  []domain.Ref
	Tag     []string
	After   int64 // inclusive lower bound on createdAt
	Before  int64 // exclusive upper bound on createdAt; 0 means none
	Offset  int
	Limit   int
	Reverse bool

	FetchAuthor   bool
	CountVotes    bool
	FetchReplies  bool
	RootPostsOnly bool

	// Vault restricts publications to those announcing this vault.
	Vault domain.Ref
}
