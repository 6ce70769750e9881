package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
)

type voteRequest struct {
	Vault       string  `json:"vault"`
	Subject     string  `json:"subject"`
	SubjectType string  `json:"subjectType"`
	Vote        float64 `json:"vote"`
}

func CastVote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req voteRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		var subject domain.Ref
		if req.Subject != "" {
			subject = domain.URL(req.Subject)
		}
		v, err := d.Social.Vote(r.Context(), vaultRef(d, req.Vault), domain.VoteInput{
			Subject:     subject,
			SubjectType: req.SubjectType,
			Vote:        req.Vote,
		})
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func ListVotes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := requireParam(r, "subject")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		out, err := d.Social.ListVotesFor(r.Context(), domain.URL(subject))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// Tally aggregates the votes on a subject. The viewer defaults to the
// session user; pass ?viewer= to see another vault's own vote.
func Tally(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := requireParam(r, "subject")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		var viewer domain.Ref
		if v := r.URL.Query().Get("viewer"); v != "" {
			viewer = domain.URL(v)
		}
		var tally *domain.VoteTally
		if viewer != nil {
			tally, err = d.Social.CountVotesForViewer(r.Context(), domain.URL(subject), viewer)
		} else {
			tally, err = d.Social.CountVotesFor(r.Context(), domain.URL(subject))
		}
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, tally)
	}
}

func VotesByType(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typ, err := requireParam(r, "type")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		opts, err := listOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		out, err := d.Social.ListVotesBySubjectType(r.Context(), typ, opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func VotesByAuthor(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, err := requireParam(r, "author")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		opts, err := listOptions(r)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		// author names the voter here, not a list filter
		opts.Author = nil
		out, err := d.Social.ListVotesByAuthor(r.Context(), domain.URL(author), opts)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
