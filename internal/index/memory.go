package index

import (
	"context"
	"iter"
	"slices"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
)

// scanPage is how many entries a scan copies out per lock acquisition.
const scanPage = 128

// MemoryIndex is an in-process docdb.Engine. Every index is a sorted slice
// of members; scans page through it so callers may write while iterating.
type MemoryIndex struct {
	mu      sync.RWMutex
	docs    map[string]map[string]*memDoc // collection -> key -> doc
	members map[string][]string           // collection/index -> sorted members
}

type memDoc struct {
	data    []byte
	entries map[string][]string
}

var _ docdb.Engine = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty memory engine.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		docs:    make(map[string]map[string]*memDoc),
		members: make(map[string][]string),
	}
}

func slot(coll, index string) string { return coll + "\x1f" + index }

// Get returns a copy of the stored document.
func (idx *MemoryIndex) Get(_ context.Context, coll, key string) ([]byte, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	d, ok := idx.docs[coll][key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(d.data), true, nil
}

// Put replaces the document and its index entries under one lock.
func (idx *MemoryIndex) Put(_ context.Context, coll, key string, doc []byte, entries map[string][]string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(coll, key)
	if idx.docs[coll] == nil {
		idx.docs[coll] = make(map[string]*memDoc)
	}
	stored := &memDoc{data: slices.Clone(doc), entries: make(map[string][]string, len(entries))}
	for index, keys := range entries {
		stored.entries[index] = slices.Clone(keys)
		s := slot(coll, index)
		for _, k := range keys {
			idx.members[s] = insertSorted(idx.members[s], docdb.Member(k, key))
		}
	}
	idx.docs[coll][key] = stored
	return nil
}

// Delete removes a document and its entries. Missing keys are ignored.
func (idx *MemoryIndex) Delete(_ context.Context, coll, key string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(coll, key)
	return nil
}

func (idx *MemoryIndex) removeLocked(coll, key string) {
	d, ok := idx.docs[coll][key]
	if !ok {
		return
	}
	for index, keys := range d.entries {
		s := slot(coll, index)
		for _, k := range keys {
			idx.members[s] = removeSorted(idx.members[s], docdb.Member(k, key))
		}
	}
	delete(idx.docs[coll], key)
}

// Scan pages through one index. Each page is copied under the read lock
// and yielded without holding it.
func (idx *MemoryIndex) Scan(ctx context.Context, coll, index string, r docdb.Range, reverse bool) iter.Seq2[docdb.Entry, error] {
	lo, hi := r.Bounds()
	return func(yield func(docdb.Entry, error) bool) {
		cursor, started := "", false
		for {
			if err := ctx.Err(); err != nil {
				yield(docdb.Entry{}, err)
				return
			}
			page := idx.page(slot(coll, index), lo, hi, cursor, started, reverse)
			for _, m := range page {
				if !yield(docdb.SplitMember(m), nil) {
					return
				}
			}
			if len(page) < scanPage {
				return
			}
			cursor, started = page[len(page)-1], true
		}
	}
}

func (idx *MemoryIndex) page(s, lo, hi, cursor string, started, reverse bool) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	list := idx.members[s]
	out := make([]string, 0, scanPage)
	if !reverse {
		i := sort.SearchStrings(list, lo)
		if started {
			i = sort.SearchStrings(list, cursor)
			if i < len(list) && list[i] == cursor {
				i++
			}
		}
		for ; i < len(list) && len(out) < scanPage; i++ {
			if hi != "" && list[i] >= hi {
				break
			}
			out = append(out, list[i])
		}
		return out
	}

	j := len(list)
	if hi != "" {
		j = sort.SearchStrings(list, hi)
	}
	if started {
		j = sort.SearchStrings(list, cursor)
	}
	for j--; j >= 0 && len(out) < scanPage; j-- {
		if list[j] < lo {
			break
		}
		out = append(out, list[j])
	}
	return out
}

// Count returns the number of documents in coll.
func (idx *MemoryIndex) Count(coll string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.docs[coll])
}

// Close is a no-op.
func (idx *MemoryIndex) Close() error { return nil }

func insertSorted(list []string, m string) []string {
	i, found := slices.BinarySearch(list, m)
	if found {
		return list
	}
	return slices.Insert(list, i, m)
}

func removeSorted(list []string, m string) []string {
	i, found := slices.BinarySearch(list, m)
	if !found {
		return list
	}
	return slices.Delete(list, i, i+1)
}
