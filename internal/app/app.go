// Package app wires configuration into a running contract host.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/patient-ledger/internal/api"
	"github.com/hackgods/patient-ledger/internal/config"
	"github.com/hackgods/patient-ledger/internal/host"
	"github.com/hackgods/patient-ledger/internal/ledger"
	redisclient "github.com/hackgods/patient-ledger/internal/redis"
	"github.com/hackgods/patient-ledger/internal/storage"
)

type App struct {
	Config  config.Config
	Backend storage.Backend
	Redis   *redis.Client
	Runtime *host.Runtime
}

// Open connects storage (and Redis when configured) and builds the ledger
// runtime. Callers must Close the result.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg}

	if cfg.NeedsRedis() {
		rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("redis connection error: %w", err)
		}
		a.Redis = rdb
		log.Println("connected to Redis")
	}

	backend, err := storage.Open(ctx, cfg, a.Redis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.Backend = backend
	log.Printf("storage ready driver=%s", backend.Driver())

	var locker host.Locker = host.NewLocalLocker()
	if cfg.LockDriver == "redis" {
		locker = redisclient.NewRedisLocker(a.Redis, cfg.LockTTL, cfg.LockWait)
	}

	a.Runtime = host.NewRuntime(cfg.ContractID, backend, locker, ledger.Methods())
	return a, nil
}

// HealthChecks lists the dependencies readiness should probe.
func (a *App) HealthChecks() []api.HealthCheck {
	checks := []api.HealthCheck{{
		Name:     "storage_" + string(a.Backend.Driver()),
		Critical: true,
		Ping:     a.Backend.Ping,
	}}
	if a.Redis != nil && a.Backend.Driver() != storage.DriverRedis {
		checks = append(checks, api.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() },
		})
	}
	return checks
}

func (a *App) Close() {
	if a.Backend != nil {
		if err := a.Backend.Close(); err != nil {
			log.Printf("error closing storage: %v", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}
}
