package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/patient-ledger/internal/config"
	"github.com/hackgods/patient-ledger/internal/db"
)

// Open builds the backend named by cfg.StorageDriver. rdb is only used by the
// redis driver and may be nil otherwise.
func Open(ctx context.Context, cfg config.Config, rdb *redis.Client) (Backend, error) {
	switch Driver(cfg.StorageDriver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverLevelDB:
		return OpenLevelDB(cfg.LevelDBPath)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgres(pool), nil
	case DriverRedis:
		if rdb == nil {
			return nil, errors.New("redis driver needs a redis client")
		}
		return NewRedis(rdb), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.StorageDriver)
	}
}
