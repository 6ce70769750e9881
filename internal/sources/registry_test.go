package sources

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry(nil)

	src, err := r.Add(domain.URL("https://b.example/"))
	require.NoError(t, err)
	assert.Equal(t, "https://b.example", src.URL())

	again, err := r.Add(domain.URL("https://b.example"))
	require.NoError(t, err)
	assert.Same(t, src, again)
	assert.Equal(t, 1, r.Len())

	removed, err := r.Remove(domain.URL("https://b.example"))
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok := r.Get("https://b.example")
	assert.False(t, ok)

	removed, err = r.Remove(domain.URL("https://b.example"))
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRegistryKeepsOwnedVaults(t *testing.T) {
	v, err := OpenLocal(t.TempDir(), "https://me.example", domain.VaultInfo{})
	require.NoError(t, err)

	r := NewRegistry(nil)
	r.Own(v)
	assert.True(t, r.Owned("https://me.example"))

	removed, err := r.Remove(domain.Source(v))
	require.NoError(t, err)
	assert.False(t, removed)
	got, ok := r.Get("https://me.example")
	require.True(t, ok)
	assert.Same(t, v, got)
}

func TestRegistryAddSourceHandle(t *testing.T) {
	v, err := OpenLocal(t.TempDir(), "https://c.example", domain.VaultInfo{})
	require.NoError(t, err)

	r := NewRegistry(nil)
	src, err := r.Add(domain.Source(v))
	require.NoError(t, err)
	assert.Same(t, v, src)
	assert.False(t, r.Owned("https://c.example"))
}

func TestRegistryAddRecordRef(t *testing.T) {
	r := NewRegistry(nil)
	src, err := r.Add(domain.Record("https://d.example/posts/1.json"))
	require.NoError(t, err)
	assert.Equal(t, "https://d.example", src.URL())
}

func TestRegistryRejectsBadRefs(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Add(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Error(t, r.AddAll([]domain.Ref{domain.URL("https://ok.example"), domain.URL("")}))
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.AddAll([]domain.Ref{
		domain.URL("https://z.example"),
		domain.URL("https://a.example"),
		domain.URL("https://m.example"),
	}))

	var urls []string
	for _, s := range r.List() {
		urls = append(urls, s.URL())
	}
	assert.Equal(t, []string{"https://a.example", "https://m.example", "https://z.example"}, urls)
}

func TestRegistryMirror(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	v, err := OpenLocal(dir, "https://me.example", domain.VaultInfo{})
	require.NoError(t, err)

	r := NewRegistry(nil)
	r.Own(v)
	_, err = r.Add(domain.URL("https://peer.example"))
	require.NoError(t, err)

	require.NoError(t, r.WriteRecord(ctx, "https://me.example", "/posts/1.json", []byte(`{}`)))
	assert.FileExists(t, filepath.Join(dir, "posts", "1.json"))

	require.NoError(t, r.WriteRecord(ctx, "https://peer.example", "/posts/1.json", []byte(`{}`)))
	require.NoError(t, r.WriteRecord(ctx, "https://unknown.example", "/posts/1.json", []byte(`{}`)))

	require.NoError(t, r.RemoveRecord(ctx, "https://me.example", "/posts/1.json"))
	assert.NoFileExists(t, filepath.Join(dir, "posts", "1.json"))
	require.NoError(t, r.RemoveRecord(ctx, "https://me.example", "/posts/1.json"))
}
