package social_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/sources"
)

func TestSetProfile(t *testing.T) {
	f := newFixture(t)

	f.setName(t, f.alice, "Alice")
	_, err := f.svc.SetProfile(f.ctx, domain.Source(f.alice), domain.ProfileInput{Bio: ptr("hi")})
	require.NoError(t, err)

	p, err := f.svc.GetProfile(f.ctx, domain.URL(aliceURL+"/"))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Alice", p.Value.Name)
	assert.Equal(t, "hi", p.Value.Bio)
	assert.Equal(t, aliceURL, p.Origin)
	assert.Equal(t, "/profile.json", p.Path)

	info, err := f.alice.Info(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "User: Alice", info.Title)

	f.setName(t, f.alice, "  ")
	info, err = f.alice.Info(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "User: anonymous", info.Title)
}

func TestProfileFileOmitsDerivedFields(t *testing.T) {
	f := newFixture(t)
	f.setName(t, f.alice, "Alice")
	require.NoError(t, f.svc.Follow(f.ctx, domain.Source(f.alice), domain.URL(bobURL), "Bob"))

	data, err := os.ReadFile(filepath.Join(f.alice.Dir(), "profile.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"follows"`)
	assert.Contains(t, string(data), bobURL)
	assert.NotContains(t, string(data), "followUrls")
}

func TestGetProfileMissing(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.GetProfile(f.ctx, domain.URL(daveURL))
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = f.svc.GetProfile(f.ctx, domain.URL(" "))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetAvatar(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.SetAvatar(f.ctx, domain.Source(f.alice), []byte("png"), ".PNG")
	require.NoError(t, err)
	assert.Equal(t, "avatar.png", p.Value.Avatar)

	data, err := os.ReadFile(filepath.Join(f.alice.Dir(), "avatar.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	_, err = f.svc.SetAvatar(f.ctx, domain.Source(f.alice), []byte("png"), "../x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.SetAvatar(f.ctx, domain.Source(f.alice), nil, "png")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFollowNeedsProfile(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Follow(f.ctx, domain.Source(f.alice), domain.URL(bobURL), "")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	err = f.svc.Unfollow(f.ctx, domain.Source(f.alice), domain.URL(bobURL))
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	p, err := f.svc.GetProfile(f.ctx, domain.Source(f.alice))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFollowIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.setName(t, f.alice, "Alice")
	me := domain.Source(f.alice)

	require.NoError(t, f.svc.Follow(f.ctx, me, domain.URL(daveURL), "Dave"))
	require.NoError(t, f.svc.Follow(f.ctx, me, domain.URL(daveURL+"/"), "Dave again"))

	p, err := f.svc.GetProfile(f.ctx, me)
	require.NoError(t, err)
	assert.Equal(t, []string{daveURL}, p.Value.FollowURLs)
	assert.Equal(t, []domain.Follow{{URL: daveURL, Name: "Dave"}}, p.Value.Follows)

	src, ok := f.reg.Get(daveURL)
	require.True(t, ok)
	assert.False(t, src.Writable())

	require.NoError(t, f.svc.Unfollow(f.ctx, me, domain.URL(daveURL)))
	p, err = f.svc.GetProfile(f.ctx, me)
	require.NoError(t, err)
	assert.Empty(t, p.Value.FollowURLs)
	_, ok = f.reg.Get(daveURL)
	assert.False(t, ok)
}

func TestUnfollowKeepsOwnedVaults(t *testing.T) {
	f := newFixture(t)
	f.setName(t, f.alice, "Alice")
	me := domain.Source(f.alice)

	require.NoError(t, f.svc.Follow(f.ctx, me, domain.Source(f.bob), ""))
	require.NoError(t, f.svc.Unfollow(f.ctx, me, domain.Source(f.bob)))

	_, ok := f.reg.Get(bobURL)
	assert.True(t, ok)
}

func TestWritesNeedWritableVault(t *testing.T) {
	f := newFixture(t)
	f.setName(t, f.alice, "Alice")
	require.NoError(t, f.svc.Follow(f.ctx, domain.Source(f.alice), domain.URL(daveURL), ""))

	_, err := f.svc.SetProfile(f.ctx, domain.URL(daveURL), domain.ProfileInput{Name: ptr("Dave")})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	_, err = f.svc.Bookmark(f.ctx, domain.URL("https://nobody.example"), domain.BookmarkInput{Href: "https://go.dev"})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestFriends(t *testing.T) {
	f := newFixture(t)
	vaults := map[string]*sources.LocalVault{aliceURL: f.alice, bobURL: f.bob, carolURL: f.carol}
	for u, v := range vaults {
		f.setName(t, v, u)
	}
	follow := func(from *sources.LocalVault, to string) {
		require.NoError(t, f.svc.Follow(f.ctx, domain.Source(from), domain.URL(to), ""))
	}
	follow(f.alice, bobURL)
	follow(f.bob, aliceURL)
	follow(f.carol, aliceURL)
	follow(f.bob, carolURL)

	followers, err := f.svc.ListFollowers(f.ctx, domain.URL(aliceURL))
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, bobURL, followers[0].Origin)
	assert.Equal(t, carolURL, followers[1].Origin)

	n, err := f.svc.CountFollowers(f.ctx, domain.URL(aliceURL))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	friends, err := f.svc.ListFriends(f.ctx, domain.URL(aliceURL))
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, bobURL, friends[0].Origin)

	n, err = f.svc.CountFriends(f.ctx, domain.URL(aliceURL))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for a := range vaults {
		for b := range vaults {
			ab, err := f.svc.IsFriendsWith(f.ctx, domain.URL(a), domain.URL(b))
			require.NoError(t, err)
			ba, err := f.svc.IsFriendsWith(f.ctx, domain.URL(b), domain.URL(a))
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "%s / %s", a, b)

			fab, err := f.svc.IsFollowing(f.ctx, domain.URL(a), domain.URL(b))
			require.NoError(t, err)
			fba, err := f.svc.IsFollowing(f.ctx, domain.URL(b), domain.URL(a))
			require.NoError(t, err)
			assert.Equal(t, fab && fba, ab, "%s / %s", a, b)
		}
	}

	following, err := f.svc.IsFollowing(f.ctx, domain.URL(daveURL), domain.URL(aliceURL))
	require.NoError(t, err)
	assert.False(t, following)
}
