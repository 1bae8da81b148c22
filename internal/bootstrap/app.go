package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"go_gone/internal/cache"
	"go_gone/internal/config"
	"go_gone/internal/db"
	"go_gone/internal/gone"
	"go_gone/internal/logging"
	"go_gone/internal/users"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App bundles the wired core shared by the server and the CLI
type App struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	Cache  cache.Namespace
	Store  *gone.Store
	Engine *gone.Engine
	Users  *users.Store
}

// ErrSharedCacheRequired is returned for writes issued outside the server
// while the match cache is process-local
var ErrSharedCacheRequired = errors.New("pattern writes need the shared Redis cache")

// RequireSharedCache rejects configurations where a write from this process
// cannot flush the cache of a running server. With Redis disabled every
// process keeps its own cache, so a server would serve stale verdicts until
// they expire.
func RequireSharedCache(cfg *config.Config) error {
	if !cfg.Redis.Enabled {
		return fmt.Errorf("%w: REDIS_ENABLED is off, use the admin API of the running server instead", ErrSharedCacheRequired)
	}
	return nil
}

// LoadConfig reads iniPath when set, otherwise the environment
func LoadConfig(iniPath string) (*config.Config, error) {
	if iniPath != "" {
		return config.LoadFromINI(iniPath)
	}
	return config.Load()
}

// Open connects MySQL and the match cache and builds Store and Engine.
// Redis failures are fatal when Redis is enabled.
func Open(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	log := logging.Component(logger, "bootstrap")

	gdb, err := db.Open(cfg.MySQL.DSN)
	if err != nil {
		return nil, err
	}
	log.Info("MySQL connected")

	if cfg.Migrate {
		if err := db.Migrate(gdb, log); err != nil {
			_ = db.Close(gdb)
			return nil, err
		}
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		DB:     gdb,
		Users:  users.NewStore(gdb),
	}

	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = db.Close(gdb)
			return nil, err
		}
		app.Redis = rdb
		app.Cache = cache.NewRedisNamespace(rdb, cfg.Gone.CachePrefix)
		log.WithField("addr", cfg.Redis.Addr).Info("Redis connected")
	} else {
		app.Cache = cache.NewMemoryNamespace()
		log.Warn("Redis disabled, match cache is process-local")
	}

	goneCfg := &gone.Config{
		Repo:   gone.NewGormRepository(gdb),
		Cache:  app.Cache,
		Logger: logger.WithField("cache_prefix", cfg.Gone.CachePrefix),
		TTL:    time.Duration(cfg.Gone.CacheTTLSec) * time.Second,
	}
	app.Store = gone.NewStore(goneCfg)
	app.Engine = gone.NewEngine(goneCfg)
	return app, nil
}

// Close releases the database and Redis connections
func (a *App) Close() error {
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	if err := db.Close(a.DB); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close MySQL: %w", err)
	}
	return firstErr
}
