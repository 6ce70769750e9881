package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
	"github.com/MrSnakeDoc/vaultsocial/internal/social"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type countResponse struct {
	Count int `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps the domain error taxonomy onto HTTP.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCollaborator):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		d.Logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
		if status == http.StatusInternalServerError {
			msg = http.StatusText(status)
		}
	} else {
		d.Logger.Debug("request rejected",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: what + " not found"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("body", err.Error())
	}
	return nil
}

// vaultRef resolves an optional vault parameter, defaulting to the session
// user's vault.
func vaultRef(d deps.Deps, raw string) domain.Ref {
	if strings.TrimSpace(raw) == "" {
		return domain.URL(d.Social.User())
	}
	return domain.URL(raw)
}

// recordRef returns nil for an empty value so optional thread links stay
// unset.
func recordRef(raw string) domain.Ref {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return domain.Record(raw)
}

func requireParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", domain.Invalid(name, "query parameter is required")
	}
	return v, nil
}

func intParam(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalid(name, fmt.Sprintf("not an integer: %q", raw))
	}
	return n, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.Invalid(name, fmt.Sprintf("not a boolean: %q", raw))
	}
	return b, nil
}

// listOptions reads the shared list query parameters. author and tag may
// repeat or hold comma separated values.
func listOptions(r *http.Request) (social.ListOptions, error) {
	q := r.URL.Query()
	var opts social.ListOptions

	for _, a := range multi(q["author"]) {
		opts.Author = append(opts.Author, domain.URL(a))
	}
	opts.Tag = multi(q["tag"])
	if v := strings.TrimSpace(q.Get("vault")); v != "" {
		opts.Vault = domain.URL(v)
	}

	ints := []struct {
		name string
		dst  *int64
	}{{"after", &opts.After}, {"before", &opts.Before}}
	for _, p := range ints {
		n, err := intParam(r, p.name)
		if err != nil {
			return opts, err
		}
		*p.dst = n
	}
	for name, dst := range map[string]*int{"offset": &opts.Offset, "limit": &opts.Limit} {
		n, err := intParam(r, name)
		if err != nil {
			return opts, err
		}
		*dst = int(n)
	}
	for name, dst := range map[string]*bool{
		"reverse":      &opts.Reverse,
		"fetchAuthor":  &opts.FetchAuthor,
		"countVotes":   &opts.CountVotes,
		"fetchReplies": &opts.FetchReplies,
		"rootOnly":     &opts.RootPostsOnly,
	} {
		b, err := boolParam(r, name)
		if err != nil {
			return opts, err
		}
		*dst = b
	}
	return opts, nil
}

func multi(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
