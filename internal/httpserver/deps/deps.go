package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
	"github.com/MrSnakeDoc/vaultsocial/internal/social"
)

// Pinger is a storage backend that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time // for testing, defaults to time.Now
	AdminCIDRs      []string         // networks allowed to reach admin endpoints
	TrustProxy      bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	WriteRatePerMin int              // per-client API write budget, 0 = unlimited
	WriteRateBurst  int
	Social          *social.Service // open session serving /api
	StoreName       string          // "memory" or "redis"
	Store           Pinger          // nil when the engine has nothing to ping
	PruneTrigger    chan struct{}   // sends run an immediate unfollowed-vault prune
}
