package domain

import (
	"errors"
	"slices"
	"testing"
)

func TestProfileFollows(t *testing.T) {
	var p Profile
	p.Normalize()
	if p.Follows == nil || p.FollowURLs == nil {
		t.Fatal("Normalize must initialize follow lists")
	}

	if !p.AddFollow("https://b.example", "Bob") {
		t.Error("first AddFollow must change the list")
	}
	if p.AddFollow("https://b.example", "Other") {
		t.Error("second AddFollow must be a no-op")
	}
	p.AddFollow("https://c.example", "")
	p.Normalize()
	if want := []string{"https://b.example", "https://c.example"}; !slices.Equal(p.FollowURLs, want) {
		t.Errorf("FollowURLs = %v, want %v", p.FollowURLs, want)
	}
	if !p.IsFollowing("https://c.example") {
		t.Error("IsFollowing(c) = false")
	}

	if !p.RemoveFollow("https://b.example") {
		t.Error("RemoveFollow must report a removal")
	}
	if p.RemoveFollow("https://b.example") {
		t.Error("RemoveFollow of an absent target must report false")
	}
	p.Normalize()
	if p.IsFollowing("https://b.example") {
		t.Error("IsFollowing(b) after removal = true")
	}
}

func TestProfileApply(t *testing.T) {
	name, bio := "Alice", "hi"
	p := Profile{Name: "old", Avatar: "avatar.png"}
	p.Apply(ProfileInput{
		Name:    &name,
		Bio:     &bio,
		Follows: []Follow{{URL: "https://b.example/"}, {URL: "https://b.example"}, {URL: " "}},
	})

	if p.Name != "Alice" || p.Bio != "hi" || p.Avatar != "avatar.png" {
		t.Errorf("Apply merged badly: %+v", p)
	}
	if len(p.Follows) != 1 || p.Follows[0].URL != "https://b.example" {
		t.Errorf("Follows = %+v, want one canonical entry", p.Follows)
	}
}

func TestBookmarkApply(t *testing.T) {
	title := "Go"
	var b Bookmark
	b.Apply(BookmarkInput{Href: "https://go.dev", Title: &title})
	if b.Tags == nil {
		t.Error("Apply must initialize tags")
	}
	notes := "later"
	b.Apply(BookmarkInput{Href: "https://go.dev", Notes: &notes, Tags: []string{"a", " b ", "a"}})
	if b.Title != "Go" || b.Notes != "later" {
		t.Errorf("Apply lost fields: %+v", b)
	}
	if !slices.Equal(b.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %v", b.Tags)
	}
}

func TestVoteTally(t *testing.T) {
	tally := NewVoteTally()
	tally.Add("https://a.example", 1, "https://c.example")
	tally.Add("https://b.example", -1, "https://c.example")
	tally.Add("https://c.example", 1, "https://c.example")
	tally.Add("https://d.example", 0, "https://c.example")

	if tally.Up != 2 || tally.Down != 1 || tally.Value != 1 {
		t.Errorf("tally = %+v", tally)
	}
	if want := []string{"https://a.example", "https://c.example"}; !slices.Equal(tally.UpVoters, want) {
		t.Errorf("UpVoters = %v, want %v", tally.UpVoters, want)
	}
	if tally.CurrentUsersVote != 1 {
		t.Errorf("CurrentUsersVote = %d, want 1", tally.CurrentUsersVote)
	}

	anon := NewVoteTally()
	anon.Add("https://a.example", -1, "")
	if anon.CurrentUsersVote != 0 {
		t.Errorf("CurrentUsersVote without viewer = %d", anon.CurrentUsersVote)
	}
}

func TestValidate(t *testing.T) {
	err := Validate(BookmarkInput{})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "href" {
		t.Fatalf("Validate(empty bookmark) = %v, want href error", err)
	}
	if err := Validate(BookmarkInput{Href: "x"}); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}
	if err := Validate(PublicationInput{Vault: URL("x"), CreatedAt: -1}); err == nil {
		t.Error("negative createdAt must fail")
	}
}
