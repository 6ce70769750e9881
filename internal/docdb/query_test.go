package docdb_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/index"
)

type note struct {
	Text      string   `json:"text"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"createdAt"`
	Words     int      `json:"words"`
}

func notes(t *testing.T, opts ...docdb.Option) *docdb.Collection[note] {
	t.Helper()
	db := docdb.New(index.NewMemoryIndex(), opts...)
	c, err := docdb.Define(db, docdb.Spec[note]{
		Name:        "notes",
		FilePattern: "/notes/*.json",
		Indexes: []docdb.IndexSpec[note]{
			{Name: "createdAt", Keys: func(_ string, n *note) []docdb.Tuple {
				return []docdb.Tuple{docdb.T(n.CreatedAt)}
			}},
			{Name: ":origin+createdAt", Keys: func(origin string, n *note) []docdb.Tuple {
				return []docdb.Tuple{docdb.T(origin, n.CreatedAt)}
			}},
			{Name: "*tags", Multi: true, Keys: func(_ string, n *note) []docdb.Tuple {
				out := make([]docdb.Tuple, 0, len(n.Tags))
				for _, tag := range n.Tags {
					out = append(out, docdb.T(tag))
				}
				return out
			}},
		},
		Preprocess: func(n *note) {
			if n.Tags == nil {
				n.Tags = []string{}
			}
			n.Words = len(n.Text)
		},
	})
	require.NoError(t, err)
	return c
}

func put(t *testing.T, c *docdb.Collection[note], origin, id string, ts int64, tags ...string) {
	t.Helper()
	_, err := c.Put(context.Background(), fmt.Sprintf("%s/notes/%s.json", origin, id), &note{Text: id, Tags: tags, CreatedAt: ts})
	require.NoError(t, err)
}

func texts(recs []*docdb.Record[note]) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Value.Text)
	}
	return out
}

func TestGetAndPreprocess(t *testing.T) {
	ctx := context.Background()
	c := notes(t)
	put(t, c, "https://a.example", "hello", 1)

	rec, err := c.Get(ctx, "https://a.example/notes/hello.json")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "https://a.example", rec.Origin)
	assert.Equal(t, "/notes/hello.json", rec.Path)
	assert.Equal(t, 5, rec.Value.Words)
	assert.Equal(t, []string{}, rec.Value.Tags)

	missing, err := c.Get(ctx, "https://a.example/notes/nope.json")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPutRejectsForeignKey(t *testing.T) {
	c := notes(t)
	_, err := c.Put(context.Background(), "https://a.example/posts/x.json", &note{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpsertMerges(t *testing.T) {
	ctx := context.Background()
	c := notes(t)
	key := "https://a.example/notes/n.json"

	_, err := c.Upsert(ctx, key, func(n *note) { n.Text = "first" })
	require.NoError(t, err)
	rec, err := c.Upsert(ctx, key, func(n *note) { n.CreatedAt = 9 })
	require.NoError(t, err)

	assert.Equal(t, "first", rec.Value.Text)
	assert.Equal(t, int64(9), rec.Value.CreatedAt)
	n, err := c.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOrderByAndReverse(t *testing.T) {
	ctx := context.Background()
	c := notes(t)
	put(t, c, "https://a.example", "n3", 3)
	put(t, c, "https://b.example", "n1", 1)
	put(t, c, "https://a.example", "n2", 2)

	fwd, err := c.OrderBy("createdAt").ToArray(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2", "n3"}, texts(fwd))

	rev, err := c.OrderBy("createdAt").Reverse().ToArray(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n3", "n2", "n1"}, texts(rev))
}

func TestOffsetLimitAfterReverse(t *testing.T) {
	ctx := context.Background()
	c := notes(t)
	for i := 1; i <= 5; i++ {
		put(t, c, "https://a.example", fmt.Sprintf("n%d", i), int64(i))
	}

	page, err := c.OrderBy("createdAt").Reverse().Offset(1).Limit(2).ToArray(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n4", "n3"}, texts(page))
}

func TestBetweenAndAnyRange(t *testing.T) {
	ctx := context.Background()
	c := notes(t)
	put(t, c, "https://a.example", "a1", 1)
	put(t, c, "https://a.example", "a5", 5)
	put(t, c, "https://b.example", "b2", 2)
	put(t, c, "https://c.example", "c3", 3)

	got, err := c.Where("createdAt").Between(docdb.T(2), docdb.T(5)).ToArray(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "c3"}, texts(got))

	got, err = c.Where(":origin+createdAt").AnyRange(
		docdb.Span(docdb.T("https://b.example", 0), docdb.T("https://b.example", docdb.Inf)),
		docdb.Span(docdb.T("https://a.example", 0), docdb.T("https://a.example", docdb.Inf)),
	).ToArray(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a5", "b2"}, texts(got))
}

func TestMultiIndexDedupesAndCounts(t *testing.T) {
	ctx := context.Background()
	c := notes(t)
	put(t, c, "https://a.example", "x", 1, "go", "db")
	put(t, c, "https://a.example", "y", 2, "go")

	got, err := c.Where("*tags").AnyOf(docdb.T("go"), docdb.T("db")).ToArray(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, texts(got))

	n, err := c.Where("*tags").AnyOf(docdb.T("go"), docdb.T("db")).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := c.OrderBy("*tags").Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []docdb.Tuple{docdb.T("db"), docdb.T("go"), docdb.T("go")}, keys)

	uniq, err := c.OrderBy("*tags").UniqueKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []docdb.Tuple{docdb.T("db"), docdb.T("go")}, uniq)
}

func TestFilterPreservesOrder(t *testing.T) {
	ctx := context.Background()
	c := notes(t)
	for i := 1; i <= 6; i++ {
		put(t, c, "https://a.example", fmt.Sprintf("n%d", i), int64(i))
	}

	got, err := c.OrderBy("createdAt").
		Filter(func(r *docdb.Record[note]) bool { return r.Value.CreatedAt%2 == 0 }).
		Offset(1).
		ToArray(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n4", "n6"}, texts(got))

	n, err := c.OrderBy("createdAt").
		Filter(func(r *docdb.Record[note]) bool { return r.Value.CreatedAt > 4 }).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	c := notes(t)
	put(t, c, "https://a.example", "a1", 1)
	put(t, c, "https://a.example", "a2", 2)
	put(t, c, "https://b.example", "b1", 3)

	changed, err := c.Where(docdb.OriginIndex).Equals("https://a.example").Update(ctx, func(n *note) {
		n.Tags = append(n.Tags, "seen")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	tagged, err := c.Where("*tags").Equals("seen").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tagged)

	none, err := c.Where(docdb.OriginIndex).Equals("https://z.example").Update(ctx, func(*note) {})
	require.NoError(t, err)
	assert.Zero(t, none)

	removed, err := c.Where(docdb.OriginIndex).Equals("https://a.example").Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := c.Query().ToArray(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, texts(left))
}

func TestFirst(t *testing.T) {
	ctx := context.Background()
	c := notes(t)

	none, err := c.OrderBy("createdAt").First(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	put(t, c, "https://a.example", "late", 9)
	put(t, c, "https://a.example", "early", 1)
	first, err := c.OrderBy("createdAt").First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "early", first.Value.Text)
}

func TestUnknownIndex(t *testing.T) {
	_, err := notes(t).Where("nope").Equals("x").ToArray(context.Background())
	assert.Error(t, err)
}

type recordingMirror struct {
	writes  map[string]string
	removes []string
	fail    bool
}

func (m *recordingMirror) WriteRecord(_ context.Context, origin, file string, data []byte) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.writes[origin+file] = string(data)
	return nil
}

func (m *recordingMirror) RemoveRecord(_ context.Context, origin, file string) error {
	m.removes = append(m.removes, origin+file)
	return nil
}

func TestMirrorReceivesWrites(t *testing.T) {
	ctx := context.Background()
	m := &recordingMirror{writes: map[string]string{}}
	c := notes(t, docdb.WithMirror(m))

	put(t, c, "https://a.example", "x", 1)
	assert.Contains(t, m.writes["https://a.example/notes/x.json"], `"text": "x"`)

	require.NoError(t, c.Delete(ctx, "https://a.example/notes/x.json"))
	assert.Equal(t, []string{"https://a.example/notes/x.json"}, m.removes)
}

func TestMirrorFailureLeavesIndexUntouched(t *testing.T) {
	ctx := context.Background()
	m := &recordingMirror{writes: map[string]string{}, fail: true}
	c := notes(t, docdb.WithMirror(m))

	_, err := c.Put(ctx, "https://a.example/notes/x.json", &note{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrCollaborator)

	n, err := c.Query().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestSkipsMirror(t *testing.T) {
	ctx := context.Background()
	m := &recordingMirror{writes: map[string]string{}}
	c := notes(t, docdb.WithMirror(m))

	require.NoError(t, c.Ingest(ctx, "https://a.example/notes/x.json", []byte(`{"text":"hey","createdAt":4}`)))
	assert.Empty(t, m.writes)

	rec, err := c.Where("createdAt").Equals(4).First(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 3, rec.Value.Words)

	err = c.Ingest(ctx, "https://a.example/notes/y.json", []byte(`not json`))
	assert.ErrorIs(t, err, docdb.ErrMalformed)
	assert.ErrorIs(t, err, domain.ErrCollaborator)
	assert.True(t, c.Matches("/notes/y.json"))
	assert.False(t, c.Matches("/posts/y.json"))
	assert.Equal(t, "/notes", c.Dir())
}
