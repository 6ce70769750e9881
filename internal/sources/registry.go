package sources

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

// Registry is the set of vaults a session indexes, keyed by URL.
// Vaults opened with Own belong to the session and survive Remove;
// everything added later is a followed vault and can be dropped freely.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*entry
	log     logger.Logger
}

type entry struct {
	src   Source
	owned bool
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		sources: make(map[string]*entry),
		log:     log,
	}
}

// Own registers a session-owned vault, replacing any handle with the same
// URL.
func (r *Registry) Own(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[src.URL()] = &entry{src: src, owned: true}
	r.log.Info("vault opened", logger.String("vault", src.URL()), logger.Bool("writable", src.Writable()))
}

// Add registers ref and returns the handle now stored for its URL. A
// source handle is kept as given; any other reference becomes a Remote.
// Adding a known URL returns the existing handle.
func (r *Registry) Add(ref domain.Ref) (Source, error) {
	u, err := domain.VaultURL(ref)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sources[u]; ok {
		return e.src, nil
	}

	var src Source
	if sr, ok := ref.(domain.SourceRef); ok {
		if s, ok := sr.Handle.(Source); ok {
			src = s
		}
	}
	if src == nil {
		if src, err = NewRemote(u); err != nil {
			return nil, err
		}
	}
	r.sources[u] = &entry{src: src}
	r.log.Debug("vault added", logger.String("vault", u))
	return src, nil
}

// AddAll registers every reference, stopping at the first bad one.
func (r *Registry) AddAll(refs []domain.Ref) error {
	for _, ref := range refs {
		if _, err := r.Add(ref); err != nil {
			return err
		}
	}
	return nil
}

// Remove drops ref. It reports false when the vault was unknown or is
// owned by the session, which keeps it registered.
func (r *Registry) Remove(ref domain.Ref) (bool, error) {
	u, err := domain.VaultURL(ref)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sources[u]
	if !ok || e.owned {
		return false, nil
	}
	delete(r.sources, u)
	r.log.Debug("vault removed", logger.String("vault", u))
	return true, nil
}

// Get looks a vault up by URL.
func (r *Registry) Get(url string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sources[url]
	if !ok {
		return nil, false
	}
	return e.src, true
}

// Owned reports whether url is a session-owned vault.
func (r *Registry) Owned(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sources[url]
	return ok && e.owned
}

// List returns every registered vault ordered by URL.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.sources))
	for _, e := range r.sources {
		out = append(out, e.src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL() < out[j].URL() })
	return out
}

// Len returns the number of registered vaults.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sources)
}

// WriteRecord mirrors a stored record into its vault when the vault is
// registered and writable. Records of other vaults are only indexed.
func (r *Registry) WriteRecord(ctx context.Context, origin, file string, data []byte) error {
	src, ok := r.Get(origin)
	if !ok || !src.Writable() {
		return nil
	}
	return src.WriteFile(ctx, file, data)
}

// RemoveRecord deletes a record file from its vault when writable.
func (r *Registry) RemoveRecord(ctx context.Context, origin, file string) error {
	src, ok := r.Get(origin)
	if !ok || !src.Writable() {
		return nil
	}
	if err := src.RemoveFile(ctx, file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
