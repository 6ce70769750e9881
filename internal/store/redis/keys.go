package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixDoc is the prefix for stored documents
	KeyPrefixDoc = "vaultsocial:doc:"
	// KeyPrefixEntries is the prefix for the per-record hash of index entries
	KeyPrefixEntries = "vaultsocial:entries:"
	// KeyPrefixIndex is the prefix for index sorted sets
	KeyPrefixIndex = "vaultsocial:idx:"
)

// DocKey returns the Redis key holding a document
func DocKey(coll, key string) string {
	return KeyPrefixDoc + coll + ":" + key
}

// EntriesKey returns the Redis key listing the index entries of a document,
// one hash field per index
func EntriesKey(coll, key string) string {
	return KeyPrefixEntries + coll + ":" + key
}

// IndexKey returns the sorted set backing one index. All members share
// score 0 so the set orders lexicographically.
func IndexKey(coll, index string) string {
	return KeyPrefixIndex + coll + ":" + index
}

// ExtractRecordKey extracts the record key from a document key
func ExtractRecordKey(coll, docKey string) (string, error) {
	prefix := KeyPrefixDoc + coll + ":"
	if !strings.HasPrefix(docKey, prefix) || len(docKey) == len(prefix) {
		return "", fmt.Errorf("invalid document key: %s", docKey)
	}
	return docKey[len(prefix):], nil
}
