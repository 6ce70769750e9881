package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
)

type bookmarkRequest struct {
	Vault string `json:"vault"`
	domain.BookmarkInput
}

type pinRequest struct {
	Href   string `json:"href"`
	Pinned bool   `json:"pinned"`
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := listOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		out, err := d.Social.ListBookmarks(r.Context(), opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func CountBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := listOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		n, err := d.Social.CountBookmarks(r.Context(), opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		href, err := requireParam(r, "href")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		b, err := d.Social.GetBookmark(r.Context(), vaultRef(d, r.URL.Query().Get("vault")), href)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if b == nil {
			notFound(w, "bookmark")
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func PutBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		b, err := d.Social.Bookmark(r.Context(), vaultRef(d, req.Vault), req.BookmarkInput)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		href, err := requireParam(r, "href")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Social.Unbookmark(r.Context(), vaultRef(d, r.URL.Query().Get("vault")), href); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SetPin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pinRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Social.SetBookmarkPinned(r.Context(), req.Href, req.Pinned); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListPins(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := d.Social.ListPinnedBookmarks(r.Context(), vaultRef(d, r.URL.Query().Get("vault")))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := d.Social.ListBookmarkTags(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func CountTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := d.Social.CountBookmarkTags(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}
