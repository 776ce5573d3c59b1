// Package app wires the data layer together: one store, one readiness
// gate, one cache instance per repository. Both binaries build the
// same core and differ only in the surface they mount.
package app

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-records-core/internal/core/auth"
	"academic-records-core/internal/core/cache"
	"academic-records-core/internal/core/config"
	"academic-records-core/internal/core/database"
	"academic-records-core/internal/core/ready"
	"academic-records-core/internal/repo"
	"academic-records-core/internal/risk"
	"academic-records-core/internal/schema"
	"academic-records-core/internal/transport/http/handler"
)

type Core struct {
	DB        *gorm.DB
	Gate      *ready.Gate
	Users     *repo.UserRepo
	Students  *repo.StudentRepo
	Alerts    *repo.AlertRepo
	Resources *repo.ResourceRepo
	Engine    *risk.Engine
	JWT       *auth.JWTer
}

// Build constructs the core. Explicit instances, threaded through as
// dependencies; nothing lives in package-level state.
func Build(cfg *config.Config, log *zap.Logger) (*Core, error) {
	db, err := database.New(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, err
	}

	mgr := schema.NewManager(db, log)
	gate := ready.New(mgr.Setup, log)

	var rdb *redis.Client
	if cfg.Cache.Backend == "redis" {
		rdb = cache.NewRedisClient(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
	}
	backend := func(ns string) cache.Backend {
		if rdb != nil {
			return cache.NewRedis(rdb, ns)
		}
		return cache.NewMemory()
	}

	opts := repo.Options{
		TTL:          time.Duration(cfg.Cache.DefaultTTLSec) * time.Second,
		ReadyTimeout: time.Duration(cfg.Ready.TimeoutSec) * time.Second,
	}
	users := repo.NewUserRepo(db, gate, cache.New("users", backend("users")), log, opts)
	students := repo.NewStudentRepo(db, gate, cache.New("students", backend("students")), log, opts)
	alerts := repo.NewAlertRepo(db, gate, cache.New("alerts", backend("alerts")), log, opts)
	resources := repo.NewResourceRepo(db, gate, cache.New("resources", backend("resources")), log, opts)

	return &Core{
		DB:        db,
		Gate:      gate,
		Users:     users,
		Students:  students,
		Alerts:    alerts,
		Resources: resources,
		Engine:    risk.NewEngine(students, log),
		JWT: &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		},
	}, nil
}

// Handlers bundles the core for the HTTP surface.
func (c *Core) Handlers(log *zap.Logger) *handler.Handlers {
	return &handler.Handlers{
		Users:     c.Users,
		Students:  c.Students,
		Alerts:    c.Alerts,
		Resources: c.Resources,
		Engine:    c.Engine,
		JWT:       c.JWT,
		Log:       log,
	}
}
