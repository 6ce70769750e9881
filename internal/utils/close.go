package utils

import (
	"io"

	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// Closer pairs a resource with the name it is logged under.
type Closer struct {
	Name string
	io.Closer
}

// CloseAll closes every resource in order, logging failures instead of
// stopping. Nil closers are skipped.
func CloseAll(log logger.Logger, closers ...Closer) {
	for _, c := range closers {
		if c.Closer == nil {
			continue
		}
		if err := c.Close(); err != nil {
			log.Warn("failed to close", logger.String("resource", c.Name), logger.Error(err))
			continue
		}
		log.Debug("closed", logger.String("resource", c.Name))
	}
}
