package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// Reindexer loads records from local vault files into the index.
type Reindexer interface {
	ReindexVaults(ctx context.Context) (int, error)
}

// VaultIndexer indexes local vault content on startup so a fresh engine
// sees what is already on disk.
type VaultIndexer struct {
	target Reindexer
	logger logger.Logger
}

// NewVaultIndexer creates a new vault indexer
func NewVaultIndexer(target Reindexer, log logger.Logger) *VaultIndexer {
	return &VaultIndexer{
		target: target,
		logger: log,
	}
}

// Sync loads every local record into the index
func (vi *VaultIndexer) Sync(ctx context.Context) error {
	vi.logger.Info("indexing local vaults")

	n, err := vi.target.ReindexVaults(ctx)
	if err != nil {
		return err
	}

	if n == 0 {
		vi.logger.Info("no records found in local vaults")
		return nil
	}

	vi.logger.Info("indexed local vaults",
		logger.Int("records", n))

	return nil
}
