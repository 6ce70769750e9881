// Package enginetest holds the behavior every docdb.Engine must share.
package enginetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
)

// Run exercises newEngine against the engine contract.
func Run(t *testing.T, newEngine func(t *testing.T) docdb.Engine) {
	t.Run("GetMissing", func(t *testing.T) {
		e := newEngine(t)
		_, ok, err := e.Get(context.Background(), "c", "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PutReplacesEntries", func(t *testing.T) {
		ctx := context.Background()
		e := newEngine(t)
		require.NoError(t, e.Put(ctx, "c", "k1", []byte(`{"v":1}`), map[string][]string{
			"tags": {docdb.T("a").Encode(), docdb.T("b").Encode()},
		}))
		require.NoError(t, e.Put(ctx, "c", "k1", []byte(`{"v":2}`), map[string][]string{
			"tags": {docdb.T("b").Encode(), docdb.T("c").Encode()},
		}))

		doc, ok, err := e.Get(ctx, "c", "k1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"v":2}`, string(doc))

		assert.Equal(t, []string{"b", "c"}, indexKeys(t, e, "c", "tags", docdb.Range{}, false))
	})

	t.Run("DeleteRemovesEntries", func(t *testing.T) {
		ctx := context.Background()
		e := newEngine(t)
		require.NoError(t, e.Put(ctx, "c", "k1", []byte(`{}`), map[string][]string{
			"tags": {docdb.T("a").Encode()},
		}))
		require.NoError(t, e.Delete(ctx, "c", "k1"))
		require.NoError(t, e.Delete(ctx, "c", "missing"))

		_, ok, err := e.Get(ctx, "c", "k1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, indexKeys(t, e, "c", "tags", docdb.Range{}, false))
	})

	t.Run("ScanOrderAndTieBreak", func(t *testing.T) {
		ctx := context.Background()
		e := newEngine(t)
		put := func(key string, ts int64) {
			require.NoError(t, e.Put(ctx, "c", key, []byte(`{}`), map[string][]string{
				"createdAt": {docdb.T(ts).Encode()},
			}))
		}
		put("z", 5)
		put("b", 10)
		put("a", 10)
		put("m", -3)

		assert.Equal(t, []string{"m", "z", "a", "b"}, scanKeys(t, e, "c", "createdAt", docdb.Range{}, false))
		assert.Equal(t, []string{"b", "a", "z", "m"}, scanKeys(t, e, "c", "createdAt", docdb.Range{}, true))
	})

	t.Run("ScanBounds", func(t *testing.T) {
		ctx := context.Background()
		e := newEngine(t)
		for i := int64(1); i <= 5; i++ {
			require.NoError(t, e.Put(ctx, "c", fmt.Sprintf("k%d", i), []byte(`{}`), map[string][]string{
				"o+t": {docdb.T("alice", i).Encode()},
			}))
		}
		require.NoError(t, e.Put(ctx, "c", "other", []byte(`{}`), map[string][]string{
			"o+t": {docdb.T("bob", int64(3)).Encode()},
		}))

		between := docdb.Span(docdb.T("alice", int64(2)), docdb.T("alice", int64(4)))
		assert.Equal(t, []string{"k2", "k3"}, scanKeys(t, e, "c", "o+t", between, false))
		assert.Equal(t, []string{"k3", "k2"}, scanKeys(t, e, "c", "o+t", between, true))

		open := docdb.Span(docdb.T("alice", int64(0)), docdb.T("alice", docdb.Inf))
		assert.Equal(t, []string{"k1", "k2", "k3", "k4", "k5"}, scanKeys(t, e, "c", "o+t", open, false))

		k := docdb.T("bob", int64(3)).Encode()
		exact := docdb.Range{Lo: k, Hi: k, HiInclusive: true}
		assert.Equal(t, []string{"other"}, scanKeys(t, e, "c", "o+t", exact, false))
	})

	t.Run("ScanPagesPastOnePage", func(t *testing.T) {
		ctx := context.Background()
		e := newEngine(t)
		const n = 300
		for i := 0; i < n; i++ {
			require.NoError(t, e.Put(ctx, "c", fmt.Sprintf("k%04d", i), []byte(`{}`), map[string][]string{
				"createdAt": {docdb.T(int64(i)).Encode()},
			}))
		}
		fwd := scanKeys(t, e, "c", "createdAt", docdb.Range{}, false)
		rev := scanKeys(t, e, "c", "createdAt", docdb.Range{}, true)
		require.Len(t, fwd, n)
		require.Len(t, rev, n)
		for i := range fwd {
			assert.Equal(t, fwd[i], rev[n-1-i])
		}
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		ctx := context.Background()
		e := newEngine(t)
		require.NoError(t, e.Put(ctx, "a", "k", []byte(`{}`), map[string][]string{"i": {docdb.T("x").Encode()}}))
		assert.Empty(t, scanKeys(t, e, "b", "i", docdb.Range{}, false))
		_, ok, err := e.Get(ctx, "b", "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func scanKeys(t *testing.T, e docdb.Engine, coll, index string, r docdb.Range, reverse bool) []string {
	t.Helper()
	var out []string
	for entry, err := range e.Scan(context.Background(), coll, index, r, reverse) {
		require.NoError(t, err)
		out = append(out, entry.Key)
	}
	return out
}

func indexKeys(t *testing.T, e docdb.Engine, coll, index string, r docdb.Range, reverse bool) []string {
	t.Helper()
	var out []string
	for entry, err := range e.Scan(context.Background(), coll, index, r, reverse) {
		require.NoError(t, err)
		tuple, err := docdb.DecodeTuple(entry.Index)
		require.NoError(t, err)
		out = append(out, tuple[0].(string))
	}
	return out
}
