package social_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/social"
	"github.com/MrSnakeDoc/vaultsocial/internal/sources"
)

const subject = "https://news.example/story/1"

func (f *fixture) vote(t *testing.T, v *sources.LocalVault, subj string, value float64) *social.VoteRecord {
	t.Helper()
	rec, err := f.svc.Vote(f.ctx, domain.Source(v), domain.VoteInput{
		Subject:     domain.URL(subj),
		SubjectType: "link",
		Vote:        value,
	})
	require.NoError(t, err)
	return rec
}

func TestVoteOverwrite(t *testing.T) {
	f := newFixture(t)

	first := f.vote(t, f.alice, subject, 2)
	assert.Equal(t, 1, first.Value.Vote)
	second := f.vote(t, f.alice, subject, -1)
	assert.Equal(t, -1, second.Value.Vote)
	assert.Equal(t, first.Key, second.Key)

	votes, err := f.svc.ListVotesFor(f.ctx, domain.URL(subject))
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, -1, votes[0].Value.Vote)

	tally, err := f.svc.CountVotesFor(f.ctx, domain.URL(subject))
	require.NoError(t, err)
	assert.Equal(t, &domain.VoteTally{Down: 1, Value: -1, UpVoters: []string{}, CurrentUsersVote: -1}, tally)
}

func TestVoteTally(t *testing.T) {
	f := newFixture(t)
	f.vote(t, f.carol, subject, -5)
	f.vote(t, f.bob, subject, 1)
	f.vote(t, f.alice, subject, 0.3)
	f.vote(t, f.bob, "https://news.example/story/2", 1)

	tally, err := f.svc.CountVotesFor(f.ctx, domain.URL(subject))
	require.NoError(t, err)
	assert.Equal(t, 2, tally.Up)
	assert.Equal(t, 1, tally.Down)
	assert.Equal(t, 1, tally.Value)
	assert.Equal(t, []string{aliceURL, bobURL}, tally.UpVoters)
	assert.Equal(t, 1, tally.CurrentUsersVote)

	tally, err = f.svc.CountVotesForViewer(f.ctx, domain.URL(subject), domain.Source(f.carol))
	require.NoError(t, err)
	assert.Equal(t, -1, tally.CurrentUsersVote)

	tally, err = f.svc.CountVotesForViewer(f.ctx, domain.URL(subject), nil)
	require.NoError(t, err)
	assert.Zero(t, tally.CurrentUsersVote)
}

func TestVoteSubjectIsNormalized(t *testing.T) {
	f := newFixture(t)
	f.vote(t, f.alice, "HTTPS://News.Example:443/story/1/", 1)

	tally, err := f.svc.CountVotesFor(f.ctx, domain.Record(subject))
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Up)
}

func TestVoteOnPost(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.alice, domain.PostInput{Text: "vote me"})
	_, err := f.svc.Vote(f.ctx, domain.Source(f.bob), domain.VoteInput{
		Subject:     domain.Record(p.Key),
		SubjectType: "post",
		Vote:        1,
	})
	require.NoError(t, err)

	got, err := f.svc.GetPost(f.ctx, domain.Record(p.Key))
	require.NoError(t, err)
	assert.Equal(t, []string{bobURL}, got.Votes.UpVoters)
	assert.Zero(t, got.Votes.CurrentUsersVote)

	posts, err := f.svc.ListPosts(f.ctx, social.ListOptions{CountVotes: true})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].Votes.Up)
}

func TestVoteValidation(t *testing.T) {
	f := newFixture(t)
	me := domain.Source(f.alice)

	_, err := f.svc.Vote(f.ctx, me, domain.VoteInput{Subject: domain.URL(subject), SubjectType: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.Vote(f.ctx, me, domain.VoteInput{SubjectType: "link"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.Vote(f.ctx, me, domain.VoteInput{Subject: domain.URL(" "), SubjectType: "link"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListVotesByTypeAndAuthor(t *testing.T) {
	f := newFixture(t)
	f.setName(t, f.bob, "Bob")
	a := f.vote(t, f.alice, subject, 1)
	b := f.vote(t, f.bob, subject, 1)
	_, err := f.svc.Vote(f.ctx, domain.Source(f.bob), domain.VoteInput{
		Subject:     domain.URL("https://other.example"),
		SubjectType: "vault",
		Vote:        -1,
	})
	require.NoError(t, err)
	c := f.vote(t, f.bob, "https://news.example/story/3", 1)

	links, err := f.svc.ListVotesBySubjectType(f.ctx, "link", social.ListOptions{FetchAuthor: true, Reverse: true})
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, []string{c.Key, b.Key, a.Key}, []string{links[0].Key, links[1].Key, links[2].Key})
	assert.Nil(t, links[2].Author)
	require.NotNil(t, links[0].Author)
	assert.Equal(t, "Bob", links[0].Author.Value.Name)

	byBob, err := f.svc.ListVotesByAuthor(f.ctx, domain.Source(f.bob), social.ListOptions{After: b.Value.CreatedAt + 1})
	require.NoError(t, err)
	require.Len(t, byBob, 2)
	assert.Equal(t, "vault", byBob[0].Value.SubjectType)
	assert.Equal(t, c.Key, byBob[1].Key)

	_, err = f.svc.ListVotesBySubjectType(f.ctx, "", social.ListOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
