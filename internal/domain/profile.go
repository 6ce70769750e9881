package domain

// Follow is one entry of a profile's follow list.
type Follow struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// Profile is the single profile.json record of a vault.
type Profile struct {
	Name    string   `json:"name,omitempty"`
	Bio     string   `json:"bio,omitempty"`
	Avatar  string   `json:"avatar,omitempty"`
	Follows []Follow `json:"follows"`

	// FollowURLs is derived from Follows on every read and write and backs
	// the followers index. It is never persisted to the vault.
	FollowURLs []string `json:"followUrls"`
}

// ProfileInput is a partial profile. Nil fields are left untouched.
type ProfileInput struct {
	Name    *string  `json:"name"`
	Bio     *string  `json:"bio"`
	Avatar  *string  `json:"avatar"`
	Follows []Follow `json:"follows"`
}

// Normalize recomputes the derived fields. It is the only place
// FollowURLs is written.
func (p *Profile) Normalize() {
	if p.Follows == nil {
		p.Follows = []Follow{}
	}
	p.FollowURLs = make([]string, 0, len(p.Follows))
	for _, f := range p.Follows {
		p.FollowURLs = append(p.FollowURLs, f.URL)
	}
}

// Apply merges a partial input into the profile.
func (p *Profile) Apply(in ProfileInput) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Bio != nil {
		p.Bio = *in.Bio
	}
	if in.Avatar != nil {
		p.Avatar = *in.Avatar
	}
	if in.Follows != nil {
		p.Follows = make([]Follow, 0, len(in.Follows))
		for _, f := range in.Follows {
			u, err := canonicalVault(f.URL)
			if err != nil {
				continue
			}
			p.AddFollow(u, f.Name)
		}
	}
}

// AddFollow appends target unless it is already followed. It reports
// whether the list changed.
func (p *Profile) AddFollow(target, name string) bool {
	for _, f := range p.Follows {
		if f.URL == target {
			return false
		}
	}
	p.Follows = append(p.Follows, Follow{URL: target, Name: name})
	return true
}

// RemoveFollow drops every entry for target and reports whether any was
// removed.
func (p *Profile) RemoveFollow(target string) bool {
	kept := p.Follows[:0]
	for _, f := range p.Follows {
		if f.URL != target {
			kept = append(kept, f)
		}
	}
	removed := len(kept) != len(p.Follows)
	p.Follows = kept
	return removed
}

// IsFollowing reports whether target appears in the derived follow list.
func (p *Profile) IsFollowing(target string) bool {
	for _, u := range p.FollowURLs {
		if u == target {
			return true
		}
	}
	return false
}
