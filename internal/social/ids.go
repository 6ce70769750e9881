package social

import (
	"fmt"

	"github.com/google/uuid"
)

// newRecordID returns a time-ordered id. UUIDv7 carries a millisecond
// timestamp and a per-process monotonic sequence, so ids sort by creation.
func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate record id: %w", err)
	}
	return id.String(), nil
}
