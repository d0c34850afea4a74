package query

import (
	"context"

	"github.com/emblem-network/emblemx/app/query/types"
	"github.com/emblem-network/emblemx/pkg/accounts"
	"github.com/emblem-network/emblemx/pkg/logging"
	"github.com/emblem-network/emblemx/pkg/redis"
	"github.com/emblem-network/emblemx/pkg/rpc"
	"github.com/emblem-network/emblemx/pkg/utils"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	endpoints := utils.SplitList(utils.Env("INDEXER_ENDPOINTS", "http://localhost:3390"))
	gateway := rpc.NewClient(rpc.ClientOpts{
		HTTP:        rpc.Opts{Endpoints: endpoints},
		MaxBatch:    utils.EnvInt("FETCH_MAX_BATCH", rpc.DefaultMaxBatch),
		Parallelism: utils.EnvInt("FETCH_PARALLELISM", 4),
	})

	// Redis fanout of committed keys is optional; the cache itself is
	// purely in-memory either way.
	var redisClient *redis.Client
	var notifier accounts.Notifier
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - change fanout will be local only",
				zap.Error(err))
			redisClient = nil
		} else {
			notifier = redisClient
			logger.Info("Redis client initialized for account change fanout")
		}
	} else {
		logger.Info("Redis disabled - account change fanout is local only")
	}

	engine := accounts.NewEngine(accounts.NewStore(), gateway, types.HexCodec{}, logger, notifier)

	app := &types.App{
		Engine:      engine,
		Gateway:     gateway,
		RedisClient: redisClient,
		CronSpec:    utils.Env("WATCH_REFRESH_SPEC", "0 */5 * * * *"),
		WatchKeys:   utils.SplitList(utils.Env("WATCH_ADDRESSES", "")),
		Logger:      logger,
	}

	return app
}
