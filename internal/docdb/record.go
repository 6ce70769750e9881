package docdb

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrMalformed marks a document that is not valid JSON for its collection.
var ErrMalformed = errors.New("malformed record")

// Record is a stored document together with where it lives.
type Record[T any] struct {
	// Key is the full record URL, e.g. https://alice.example/posts/x.json.
	Key string `json:"url"`
	// Origin is the vault URL the record belongs to.
	Origin string `json:"origin"`
	// Path is the file path inside the vault, with a leading slash.
	Path  string `json:"path"`
	Value T      `json:"value"`
}

// Mirror receives every successful write so the serialized record can be
// written back into its vault. Implementations skip vaults they do not own.
type Mirror interface {
	WriteRecord(ctx context.Context, origin, file string, data []byte) error
	RemoveRecord(ctx context.Context, origin, file string) error
}

// splitKey cuts key into origin and in-vault path using the number of
// segments in pattern, then checks the path against pattern.
func splitKey(pattern, key string) (origin, file string, err error) {
	segments := strings.Count(pattern, "/")
	cut := len(key)
	for i := 0; i < segments; i++ {
		cut = strings.LastIndexByte(key[:cut], '/')
		if cut < 0 {
			return "", "", fmt.Errorf("key %q does not match %q", key, pattern)
		}
	}
	origin, file = key[:cut], key[cut:]
	if origin == "" {
		return "", "", fmt.Errorf("key %q has no origin", key)
	}
	if ok, _ := path.Match(pattern, file); !ok {
		return "", "", fmt.Errorf("key %q does not match %q", key, pattern)
	}
	return origin, file, nil
}
