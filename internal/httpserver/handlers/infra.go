package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Count  *int   `json:"count,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	UserVault  string                     `json:"user_vault,omitempty"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"store":   storeStatus(r, d),
			"sources": sourcesStatus(d),
			"follows": followsStatus(d),
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			Status:     overallStatus(components),
			UserVault:  d.Social.User(),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if !components["store"].OK {
		return "critical" // nothing can be read or written
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func storeStatus(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStore(r.Context(), d); err != nil {
		return componentStatus{
			OK:    false,
			Mode:  d.StoreName,
			Error: err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: d.StoreName}
}

func sourcesStatus(d deps.Deps) componentStatus {
	n := len(d.Social.ListSources())
	return componentStatus{OK: true, Count: &n}
}

func followsStatus(d deps.Deps) componentStatus {
	bg := d.Social.FollowIndexing()
	if bg == nil {
		return componentStatus{OK: true, Mode: "disabled", Impact: "no-user-vault"}
	}
	select {
	case <-bg.Done():
	default:
		return componentStatus{OK: true, Mode: "indexing"}
	}
	n, err := bg.Result()
	if err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "failed",
			Count:  &n,
			Impact: "followed-vaults-missing",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "indexed", Count: &n}
}
