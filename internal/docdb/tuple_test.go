package docdb

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTupleOrdering(t *testing.T) {
	ordered := []Tuple{
		T("a"),
		T("a", int64(math.MinInt64)),
		T("a", int64(-1)),
		T("a", int64(0)),
		T("a", int64(1)),
		T("a", int64(math.MaxInt64)),
		T("a", Inf),
		T("a\x00"),
		T("a\x01"),
		T("ab"),
		T("b"),
		T(Inf),
	}

	encoded := make([]string, len(ordered))
	for i, tup := range ordered {
		encoded[i] = tup.Encode()
	}
	assert.True(t, sort.StringsAreSorted(encoded), "encodings must sort like tuples")
}

func TestTupleRoundTrip(t *testing.T) {
	cases := []Tuple{
		T("https://alice.example", int64(1700000000000)),
		T("with\x00nul\x01soh"),
		T(int64(-42)),
		T("x", Inf),
		T(""),
	}
	for _, tc := range cases {
		got, err := DecodeTuple(tc.Encode())
		require.NoError(t, err)
		assert.Equal(t, tc, got)
	}
}

func TestIntAndInt64EncodeAlike(t *testing.T) {
	assert.Equal(t, T(int64(7)).Encode(), T(7).Encode())
}

func TestDecodeTupleRejectsGarbage(t *testing.T) {
	_, err := DecodeTuple("\x09x\x00")
	assert.Error(t, err)

	_, err = DecodeTuple("\x02abc")
	assert.Error(t, err)
}

func TestMemberSplit(t *testing.T) {
	idx := T("tag", int64(3)).Encode()
	e := SplitMember(Member(idx, "https://a.example/bookmarks/x.json"))
	assert.Equal(t, idx, e.Index)
	assert.Equal(t, "https://a.example/bookmarks/x.json", e.Key)
}

func TestSplitKey(t *testing.T) {
	origin, file, err := splitKey("/bookmarks/*.json", "https://alice.example/bookmarks/abc.json")
	require.NoError(t, err)
	assert.Equal(t, "https://alice.example", origin)
	assert.Equal(t, "/bookmarks/abc.json", file)

	origin, file, err = splitKey("/profile.json", "https://alice.example/profile.json")
	require.NoError(t, err)
	assert.Equal(t, "https://alice.example", origin)
	assert.Equal(t, "/profile.json", file)

	_, _, err = splitKey("/posts/*.json", "https://alice.example/bookmarks/abc.json")
	assert.Error(t, err)

	_, _, err = splitKey("/profile.json", "profile.json")
	assert.Error(t, err)
}
