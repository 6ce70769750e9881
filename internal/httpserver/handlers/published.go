package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
)

type publishRequest struct {
	Vault       string   `json:"vault"`
	Target      string   `json:"target"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        []string `json:"type"`
	CreatedAt   int64    `json:"createdAt"`
}

type unpublishResponse struct {
	Removed int `json:"removed"`
}

func ListPublished(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := listOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		out, err := d.Social.ListPublishedVaults(r.Context(), opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func CountPublished(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := listOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		n, err := d.Social.CountPublishedVaults(r.Context(), opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

func GetPublished(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := requireParam(r, "url")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		p, err := d.Social.GetPublishedVault(r.Context(), domain.Record(u))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if p == nil {
			notFound(w, "publication")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func Publish(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req publishRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		var target domain.Ref
		if req.Target != "" {
			target = domain.URL(req.Target)
		}
		p, err := d.Social.PublishVault(r.Context(), vaultRef(d, req.Vault), domain.PublicationInput{
			Vault:       target,
			Title:       req.Title,
			Description: req.Description,
			Type:        req.Type,
			CreatedAt:   req.CreatedAt,
		})
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func Unpublish(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := requireParam(r, "target")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		n, err := d.Social.UnpublishVault(r.Context(), vaultRef(d, r.URL.Query().Get("vault")), domain.URL(target))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, unpublishResponse{Removed: n})
	}
}
