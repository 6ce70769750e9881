package domain

// Bookmark is a saved link. A vault holds at most one bookmark per href.
type Bookmark struct {
	Href      string   `json:"href"`
	Title     string   `json:"title,omitempty"`
	Tags      []string `json:"tags"`
	Notes     string   `json:"notes,omitempty"`
	CreatedAt int64    `json:"createdAt"`
}

// BookmarkInput carries a bookmark write. Nil fields keep their stored
// value so repeated writes merge instead of replacing.
type BookmarkInput struct {
	Href  string   `json:"href" validate:"required"`
	Title *string  `json:"title"`
	Tags  []string `json:"tags"`
	Notes *string  `json:"notes"`
}

// Apply merges in into the bookmark.
func (b *Bookmark) Apply(in BookmarkInput) {
	b.Href = in.Href
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Tags != nil {
		b.Tags = Tags(in.Tags)
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
}
