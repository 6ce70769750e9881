package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// Pruner drops vaults the user no longer follows.
type Pruner interface {
	PruneUnfollowedVaults(ctx context.Context) (int, error)
}

// SourcePruner periodically removes unfollowed vaults and their records.
type SourcePruner struct {
	pruner        Pruner
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewSourcePruner creates a pruner. manualTrigger may be nil; sends on it
// run a prune immediately.
func NewSourcePruner(
	pruner Pruner,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SourcePruner {
	return &SourcePruner{
		pruner:        pruner,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic prune loop. It does not prune on start: follows
// are still being registered then.
func (sp *SourcePruner) Start(ctx context.Context) {
	ticker := time.NewTicker(sp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sp.Prune(ctx)
			case <-sp.manualTrigger:
				sp.logger.Info("manual prune triggered")
				sp.Prune(ctx)
			case <-sp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the pruner. It is safe to call more than once.
func (sp *SourcePruner) Stop() {
	sp.stopOnce.Do(func() { close(sp.stopCh) })
}

// Prune runs one pass and logs the outcome.
func (sp *SourcePruner) Prune(ctx context.Context) {
	start := time.Now()
	n, err := sp.pruner.PruneUnfollowedVaults(ctx)
	if err != nil {
		sp.logger.Error("vault prune failed", logger.Error(err))
		return
	}
	if n > 0 {
		sp.logger.Info("pruned unfollowed vaults",
			logger.Int("vaults", n),
			logger.Duration("took", time.Since(start)))
	} else {
		sp.logger.Debug("no vaults to prune")
	}
}
