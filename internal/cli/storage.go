package cli

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/predict-client/internal/config"
	"github.com/actuallystonmai/predict-client/predict"
	"github.com/actuallystonmai/predict-client/storage/pgstore"
	"github.com/actuallystonmai/predict-client/storage/redisstore"
)

// openStorage returns the configured backend and a function releasing it.
func openStorage(ctx context.Context, c *config.Config) (predict.Storage, func(), error) {
	switch c.Storage {
	case config.StorageRedis:
		s, err := redisstore.Open(ctx, c.RedisURL, "")
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.StoragePostgres:
		pool, err := pgstore.Connect(ctx, c.DatabaseURL, c.DBPoolSize)
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.MigrateUp(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.New(pool), pool.Close, nil
	case config.StorageMemory:
		return predict.NewMemoryStorage(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", c.Storage)
	}
}
