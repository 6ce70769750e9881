package domain

// Vote is one vault's opinion on a subject URL. A vault holds at most one
// vote per subject; later votes overwrite.
type Vote struct {
	Subject     string `json:"subject"`
	SubjectType string `json:"subjectType"`
	Vote        int    `json:"vote"`
	CreatedAt   int64  `json:"createdAt"`
}

// VoteInput is a vote write. Any magnitude is accepted and clamped.
type VoteInput struct {
	Subject     Ref     `json:"-" validate:"required"`
	SubjectType string  `json:"subjectType" validate:"required"`
	Vote        float64 `json:"vote"`
}

// VoteTally summarizes every vote cast on one subject.
type VoteTally struct {
	Up               int      `json:"up"`
	Down             int      `json:"down"`
	Value            int      `json:"value"`
	UpVoters         []string `json:"upVoters"`
	CurrentUsersVote int      `json:"currentUsersVote"`
}

// NewVoteTally returns an empty tally.
func NewVoteTally() *VoteTally {
	return &VoteTally{UpVoters: []string{}}
}

// Add folds one vote cast by origin into the tally. viewer may be empty.
func (t *VoteTally) Add(origin string, vote int, viewer string) {
	t.Value += vote
	switch vote {
	case 1:
		t.Up++
		t.UpVoters = append(t.UpVoters, origin)
	case -1:
		t.Down++
	}
	if viewer != "" && origin == viewer {
		t.CurrentUsersVote = vote
	}
}
