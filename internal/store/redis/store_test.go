package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/docdb/enginetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStoreContract(t *testing.T) {
	enginetest.Run(t, func(t *testing.T) docdb.Engine {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStoreKeysLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Put(ctx, "bookmarks", "https://a.example/bookmarks/x.json", []byte(`{}`), map[string][]string{
		"*tags": {docdb.T("go").Encode()},
	}))

	assert.True(t, mr.Exists(DocKey("bookmarks", "https://a.example/bookmarks/x.json")))
	assert.True(t, mr.Exists(EntriesKey("bookmarks", "https://a.example/bookmarks/x.json")))
	members, err := mr.ZMembers(IndexKey("bookmarks", "*tags"))
	require.NoError(t, err)
	assert.Len(t, members, 1)

	require.NoError(t, s.Delete(ctx, "bookmarks", "https://a.example/bookmarks/x.json"))
	assert.False(t, mr.Exists(DocKey("bookmarks", "https://a.example/bookmarks/x.json")))
	assert.False(t, mr.Exists(EntriesKey("bookmarks", "https://a.example/bookmarks/x.json")))
}

func TestStoreNonUTF8Entries(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	key := "https://a.example/bookmarks/y.json"
	latin1 := docdb.T("caf\xe9").Encode()

	require.NoError(t, s.Put(ctx, "bookmarks", key, []byte(`{}`), map[string][]string{
		"*tags": {latin1},
	}))
	members, err := mr.ZMembers(IndexKey("bookmarks", "*tags"))
	require.NoError(t, err)
	assert.Equal(t, []string{docdb.Member(latin1, key)}, members)

	// overwrite must drop the old member
	require.NoError(t, s.Put(ctx, "bookmarks", key, []byte(`{}`), map[string][]string{
		"*tags": {docdb.T("go").Encode()},
	}))
	members, err = mr.ZMembers(IndexKey("bookmarks", "*tags"))
	require.NoError(t, err)
	assert.Equal(t, []string{docdb.Member(docdb.T("go").Encode(), key)}, members)

	require.NoError(t, s.Put(ctx, "bookmarks", key, []byte(`{}`), map[string][]string{
		"*tags": {latin1},
	}))
	require.NoError(t, s.Delete(ctx, "bookmarks", key))
	assert.False(t, mr.Exists(IndexKey("bookmarks", "*tags")))

	var n int
	for _, err := range s.Scan(ctx, "bookmarks", "*tags", docdb.Range{}, false) {
		require.NoError(t, err)
		n++
	}
	assert.Zero(t, n)
}

func TestStoreGetError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	s := NewStore(client)
	mr.Close()

	_, _, err = s.Get(context.Background(), "c", "k")
	assert.Error(t, err)
}

func TestExtractRecordKey(t *testing.T) {
	key, err := ExtractRecordKey("posts", DocKey("posts", "https://a.example/posts/1.json"))
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/posts/1.json", key)

	_, err = ExtractRecordKey("posts", "vaultsocial:doc:posts:")
	assert.Error(t, err)
}
