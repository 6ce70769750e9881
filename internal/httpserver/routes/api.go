package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	writes := mw.RateLimit(mw.RateLimitConfig{
		Burst:      d.WriteRateBurst,
		PerMinute:  d.WriteRatePerMin,
		MaxEntries: 10_000,
		TrustProxy: d.TrustProxy,
	})

	r.Route("/api", func(r chi.Router) {
		// reads
		r.Get("/profile", handlers.GetProfile(d))
		r.Get("/relation", handlers.Relation(d))
		r.Get("/followers", handlers.Followers(d))
		r.Get("/friends", handlers.Friends(d))
		r.Get("/bookmarks", handlers.ListBookmarks(d))
		r.Get("/bookmarks/count", handlers.CountBookmarks(d))
		r.Get("/bookmark", handlers.GetBookmark(d))
		r.Get("/pins", handlers.ListPins(d))
		r.Get("/tags", handlers.ListTags(d))
		r.Get("/tags/count", handlers.CountTags(d))
		r.Get("/posts", handlers.ListPosts(d))
		r.Get("/posts/count", handlers.CountPosts(d))
		r.Get("/post", handlers.GetPost(d))
		r.Get("/published", handlers.ListPublished(d))
		r.Get("/published/count", handlers.CountPublished(d))
		r.Get("/published/one", handlers.GetPublished(d))
		r.Get("/votes", handlers.ListVotes(d))
		r.Get("/votes/tally", handlers.Tally(d))
		r.Get("/votes/by-type", handlers.VotesByType(d))
		r.Get("/votes/by-author", handlers.VotesByAuthor(d))

		// writes
		r.Group(func(r chi.Router) {
			r.Use(writes)
			r.Put("/profile", handlers.SetProfile(d))
			r.Post("/follow", handlers.Follow(d))
			r.Post("/unfollow", handlers.Unfollow(d))
			r.Put("/bookmark", handlers.PutBookmark(d))
			r.Delete("/bookmark", handlers.DeleteBookmark(d))
			r.Put("/pins", handlers.SetPin(d))
			r.Post("/posts", handlers.CreatePost(d))
			r.Post("/published", handlers.Publish(d))
			r.Delete("/published", handlers.Unpublish(d))
			r.Post("/votes", handlers.CastVote(d))
		})
	})
}
