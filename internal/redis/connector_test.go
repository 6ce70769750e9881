package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
)

func testOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), testOptions(mr.Addr()), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestConnectGivesUp(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = Connect(context.Background(), testOptions(addr), logger.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable")
}

func TestValidate(t *testing.T) {
	base := testOptions("localhost:6379")
	require.NoError(t, base.Validate())

	cases := map[string]func(o *ConnectOptions){
		"no addr":         func(o *ConnectOptions) { o.Addr = "" },
		"connect timeout": func(o *ConnectOptions) { o.ConnectTimeout = 0 },
		"retry interval":  func(o *ConnectOptions) { o.RetryInterval = 0 },
		"max wait":        func(o *ConnectOptions) { o.MaxWait = -1 },
		"ping timeout":    func(o *ConnectOptions) { o.PingTimeout = 0 },
		"warn threshold":  func(o *ConnectOptions) { o.WarnThreshold = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := base
			mutate(&o)
			assert.Error(t, o.Validate())
		})
	}
}
