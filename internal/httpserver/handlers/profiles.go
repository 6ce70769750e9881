package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
	"github.com/MrSnakeDoc/vaultsocial/internal/social"
)

type profileRequest struct {
	Vault string `json:"vault"`
	domain.ProfileInput
}

type followRequest struct {
	Vault  string `json:"vault"`
	Target string `json:"target"`
	Name   string `json:"name"`
}

type relationResponse struct {
	Following  bool `json:"following"`
	FollowedBy bool `json:"followedBy"`
	Friends    bool `json:"friends"`
}

func GetProfile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Social.GetProfile(r.Context(), vaultRef(d, r.URL.Query().Get("vault")))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if p == nil {
			notFound(w, "profile")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func SetProfile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		p, err := d.Social.SetProfile(r.Context(), vaultRef(d, req.Vault), req.ProfileInput)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func Follow(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req followRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Social.Follow(r.Context(), vaultRef(d, req.Vault), domain.URL(req.Target), req.Name); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Unfollow(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req followRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Social.Unfollow(r.Context(), vaultRef(d, req.Vault), domain.URL(req.Target)); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Relation reports how the vault (default: the user) relates to target.
func Relation(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := requireParam(r, "target")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		a, b := vaultRef(d, r.URL.Query().Get("vault")), domain.URL(target)

		var resp relationResponse
		if resp.Following, err = d.Social.IsFollowing(r.Context(), a, b); err != nil {
			writeError(w, r, d, err)
			return
		}
		if resp.FollowedBy, err = d.Social.IsFollowing(r.Context(), b, a); err != nil {
			writeError(w, r, d, err)
			return
		}
		resp.Friends = resp.Following && resp.FollowedBy
		writeJSON(w, http.StatusOK, resp)
	}
}

// Followers lists the profiles following a vault, or counts them with
// ?count=true.
func Followers(d deps.Deps) http.HandlerFunc {
	return graphList(d, (*social.Service).ListFollowers, (*social.Service).CountFollowers)
}

// Friends lists mutual follows of a vault, or counts them with ?count=true.
func Friends(d deps.Deps) http.HandlerFunc {
	return graphList(d, (*social.Service).ListFriends, (*social.Service).CountFriends)
}

type (
	graphLister  func(*social.Service, context.Context, domain.Ref) ([]*social.ProfileRecord, error)
	graphCounter func(*social.Service, context.Context, domain.Ref) (int, error)
)

func graphList(d deps.Deps, list graphLister, count graphCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counting, err := boolParam(r, "count")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		vault := vaultRef(d, r.URL.Query().Get("vault"))
		if counting {
			n, err := count(d.Social, r.Context(), vault)
			if err != nil {
				writeError(w, r, d, err)
				return
			}
			writeJSON(w, http.StatusOK, countResponse{Count: n})
			return
		}
		out, err := list(d.Social, r.Context(), vault)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
