package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
)

type postRequest struct {
	Vault        string `json:"vault"`
	Text         string `json:"text"`
	ThreadParent string `json:"threadParent"`
	ThreadRoot   string `json:"threadRoot"`
}

func ListPosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := listOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		out, err := d.Social.ListPosts(r.Context(), opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func CountPosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := listOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		n, err := d.Social.CountPosts(r.Context(), opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

func GetPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := requireParam(r, "url")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		p, err := d.Social.GetPost(r.Context(), domain.Record(u))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if p == nil {
			notFound(w, "post")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func CreatePost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		p, err := d.Social.Post(r.Context(), vaultRef(d, req.Vault), domain.PostInput{
			Text:         req.Text,
			ThreadParent: recordRef(req.ThreadParent),
			ThreadRoot:   recordRef(req.ThreadRoot),
		})
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}
