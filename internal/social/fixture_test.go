package social_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/index"
	"github.com/MrSnakeDoc/vaultsocial/internal/social"
	"github.com/MrSnakeDoc/vaultsocial/internal/sources"
	"github.com/MrSnakeDoc/vaultsocial/internal/store/flags"
)

const (
	aliceURL = "https://alice.example"
	bobURL   = "https://bob.example"
	carolURL = "https://carol.example"
	daveURL  = "https://dave.example"
)

// clock hands out strictly increasing timestamps one second apart.
type clock struct{ ms atomic.Int64 }

func newClock() *clock {
	c := &clock{}
	c.ms.Store(1_700_000_000_000)
	return c
}

func (c *clock) Now() time.Time { return time.UnixMilli(c.ms.Add(1000)) }

// spyEngine counts point reads per collection and can fail chosen keys.
type spyEngine struct {
	docdb.Engine

	mu   sync.Mutex
	gets map[string]int
	fail map[string]bool
}

func (e *spyEngine) Get(ctx context.Context, coll, key string) ([]byte, bool, error) {
	e.mu.Lock()
	e.gets[coll]++
	failing := e.fail[key]
	e.mu.Unlock()
	if failing {
		return nil, false, errors.New("disk on fire")
	}
	return e.Engine.Get(ctx, coll, key)
}

func (e *spyEngine) reads(coll string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gets[coll]
}

func (e *spyEngine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gets = map[string]int{}
}

func (e *spyEngine) failOn(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail[key] = true
}

type fixture struct {
	ctx    context.Context
	svc    *social.Service
	engine *spyEngine
	flags  *flags.Store
	reg    *sources.Registry

	alice, bob, carol *sources.LocalVault
}

func openVault(t *testing.T, url string) *sources.LocalVault {
	t.Helper()
	v, err := sources.OpenLocal(t.TempDir(), url, domain.VaultInfo{})
	require.NoError(t, err)
	return v
}

// newFixture opens a session for alice, with bob and carol as further
// writable vaults of the same session.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:    context.Background(),
		engine: &spyEngine{Engine: index.NewMemoryIndex(), gets: map[string]int{}, fail: map[string]bool{}},
		reg:    sources.NewRegistry(nil),
		alice:  openVault(t, aliceURL),
		bob:    openVault(t, bobURL),
		carol:  openVault(t, carolURL),
	}
	var err error
	f.flags, err = flags.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { f.flags.Close() })

	f.reg.Own(f.bob)
	f.reg.Own(f.carol)
	f.svc = f.open(t, f.engine)
	for _, v := range []*sources.LocalVault{f.bob, f.carol} {
		require.NoError(t, f.svc.PrepareVault(f.ctx, domain.Source(v)))
	}
	return f
}

// open starts another session for alice over engine and waits for its
// follow indexing to finish.
func (f *fixture) open(t *testing.T, engine docdb.Engine) *social.Service {
	t.Helper()
	svc, err := social.Open(f.ctx, social.Options{
		Engine:   engine,
		Flags:    f.flags,
		Registry: f.reg,
		User:     f.alice,
		Now:      newClock().Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	<-svc.FollowIndexing().Done()
	return svc
}

func (f *fixture) setName(t *testing.T, v *sources.LocalVault, name string) {
	t.Helper()
	_, err := f.svc.SetProfile(f.ctx, domain.Source(v), domain.ProfileInput{Name: &name})
	require.NoError(t, err)
}

func (f *fixture) post(t *testing.T, v *sources.LocalVault, in domain.PostInput) *social.PostRecord {
	t.Helper()
	rec, err := f.svc.Post(f.ctx, domain.Source(v), in)
	require.NoError(t, err)
	return rec
}

func ptr[T any](v T) *T { return &v }

func postKeys(views []*social.PostView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Key)
	}
	return out
}

func hrefs(views []*social.BookmarkView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Value.Href)
	}
	return out
}
