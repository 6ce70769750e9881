package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// Prune asks the source pruner to drop unfollowed vaults now.
func Prune(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.PruneTrigger == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "pruning is disabled"})
			return
		}

		select {
		case d.PruneTrigger <- struct{}{}:
			d.Logger.Info("manual prune triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Prune triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("prune already pending",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Prune already pending, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
