package domain

// Post is a short text entry, optionally part of a thread.
// ThreadRoot and ThreadParent hold record URLs of other posts; they are not
// checked for existence.
type Post struct {
	Text         string `json:"text"`
	ThreadRoot   string `json:"threadRoot,omitempty"`
	ThreadParent string `json:"threadParent,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
}

// PostInput is a new post. ThreadRoot defaults to ThreadParent.
type PostInput struct {
	Text         string `json:"text" validate:"required"`
	ThreadRoot   Ref    `json:"-"`
	ThreadParent Ref    `json:"-"`
}

// IsRoot reports whether the post starts a thread.
func (p *Post) IsRoot() bool { return p.ThreadParent == "" }
