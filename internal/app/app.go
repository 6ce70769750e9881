package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/vaultsocial/internal/config"
	"github.com/MrSnakeDoc/vaultsocial/internal/docdb"
	"github.com/MrSnakeDoc/vaultsocial/internal/domain"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
	"github.com/MrSnakeDoc/vaultsocial/internal/index"
	"github.com/MrSnakeDoc/vaultsocial/internal/logger"
	"github.com/MrSnakeDoc/vaultsocial/internal/redis"
	"github.com/MrSnakeDoc/vaultsocial/internal/scheduler"
	"github.com/MrSnakeDoc/vaultsocial/internal/social"
	"github.com/MrSnakeDoc/vaultsocial/internal/sources"
	"github.com/MrSnakeDoc/vaultsocial/internal/store/flags"
	redisstore "github.com/MrSnakeDoc/vaultsocial/internal/store/redis"
	"github.com/MrSnakeDoc/vaultsocial/internal/utils"
	"github.com/MrSnakeDoc/vaultsocial/internal/version"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server
	engine docdb.Engine
	flags  *flags.Store
	social *social.Service
	pruner *scheduler.SourcePruner
}

// New loads the configuration and opens every collaborator: storage engine,
// flag store, local vaults and the social session. Anything opened before a
// failure is closed again.
func New(ctx context.Context) (_ *App, err error) {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)

	a := &App{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	var pinger deps.Pinger
	a.engine, pinger, err = openEngine(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a.flags, err = flags.Open(flags.Config{
		Path:       cfg.FlagsPath,
		SyncWrites: cfg.FlagsSyncWrites,
		Logger:     log.With(logger.String("component", "flags")),
	})
	if err != nil {
		return nil, err
	}

	reg, user, others, err := openVaults(cfg, log)
	if err != nil {
		return nil, err
	}

	opts := social.Options{
		Engine:   a.engine,
		Flags:    a.flags,
		Registry: reg,
		Logger:   log.With(logger.String("component", "social")),
		FanOut:   cfg.FanOut,
	}
	if user != nil {
		opts.User = user
	}
	a.social, err = social.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open social session: %w", err)
	}
	for _, v := range others {
		if err := a.social.PrepareVault(ctx, domain.Source(v)); err != nil {
			return nil, fmt.Errorf("prepare vault %s: %w", v.URL(), err)
		}
	}

	if cfg.ReindexOnStart {
		if err := scheduler.NewVaultIndexer(a.social, log).Sync(ctx); err != nil {
			log.Warn("failed to index local vaults on startup", logger.Error(err))
		}
	}

	var pruneTrigger chan struct{}
	if user != nil {
		pruneTrigger = make(chan struct{}, 1)
		a.pruner = scheduler.NewSourcePruner(a.social, log, cfg.PruneInterval, pruneTrigger)
	} else {
		log.Info("no user vault configured, unfollowed-vault pruning disabled")
	}

	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AdminCIDRs:      cfg.AdminCIDRs,
		TrustProxy:      cfg.TrustProxy,
		WriteRatePerMin: cfg.WriteRatePerMin,
		WriteRateBurst:  cfg.WriteRateBurst,
		Social:          a.social,
		StoreName:       cfg.Store,
		Store:           pinger,
		PruneTrigger:    pruneTrigger,
	}
	a.server = httpserver.New(cfg, log, d)
	return a, nil
}

func openEngine(ctx context.Context, cfg *config.Config, log logger.Logger) (docdb.Engine, deps.Pinger, error) {
	if cfg.Store != config.StoreRedis {
		log.Info("using in-memory store")
		return index.NewMemoryIndex(), nil, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.Connect(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")

	store := redisstore.NewStore(client)
	return store, store, nil
}

// openVaults opens the vaults file and registers every vault as owned. The
// one matching cfg.UserVault becomes the session user; the rest are
// returned so they can be prepared.
func openVaults(cfg *config.Config, log logger.Logger) (*sources.Registry, *sources.LocalVault, []*sources.LocalVault, error) {
	vc, err := sources.NewLoader(cfg.VaultsFile).Load()
	if err != nil {
		return nil, nil, nil, err
	}
	vaults, err := vc.OpenAll()
	if err != nil {
		return nil, nil, nil, err
	}

	var want string
	if cfg.UserVault != "" {
		if want, err = domain.VaultURL(domain.URL(cfg.UserVault)); err != nil {
			return nil, nil, nil, fmt.Errorf("VAULTSOCIAL_USER_VAULT: %w", err)
		}
	}

	reg := sources.NewRegistry(log.With(logger.String("component", "registry")))
	var (
		user   *sources.LocalVault
		others []*sources.LocalVault
	)
	for _, v := range vaults {
		if v.URL() == want {
			user = v
			continue
		}
		reg.Own(v)
		others = append(others, v)
	}
	if want != "" && user == nil {
		return nil, nil, nil, fmt.Errorf("user vault %s is not listed in %s", want, cfg.VaultsFile)
	}
	log.Info("vaults loaded",
		logger.Int("count", len(vaults)),
		logger.String("user", want))
	return reg, user, others, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting vaultsocial v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("vaultsocial %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.pruner != nil {
		a.pruner.Start(ctx)
		a.logger.Info("source pruner started",
			logger.Duration("interval", a.cfg.PruneInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.pruner != nil {
		a.pruner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.close()
	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ vaultsocial stopped cleanly")
	return nil
}

// close releases the session before the stores it writes to.
func (a *App) close() {
	utils.CloseAll(a.logger,
		closer("social", a.social),
		closer("flags", a.flags),
		closer("engine", a.engine),
	)
	_ = a.logger.Sync()
}

// closer keeps typed nil pointers out of the io.Closer interface.
func closer[T interface {
	comparable
	Close() error
}](name string, c T) utils.Closer {
	var zero T
	if c == zero {
		return utils.Closer{Name: name}
	}
	return utils.Closer{Name: name, Closer: c}
}
